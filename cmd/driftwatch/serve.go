package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"driftwatch/internal/changelog"
	"driftwatch/internal/git"
	"driftwatch/internal/server"
	"driftwatch/internal/watcher"
)

var (
	flagAddr        string
	flagWithWatcher bool
	flagDebug       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long: "Exposes the changelog, commit history, checkout, and namespace scans over\n" +
		"HTTP, with a websocket stream of new changelog records.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&flagWithWatcher, "with-watcher", false, "run the change watcher alongside the server")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable verbose router logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	addr := cfg.Server.Addr
	if flagAddr != "" {
		addr = flagAddr
	}

	repo := git.NewRepo(cfg.Scan.Root)
	builder := newBuilder(cfg)
	reader, err := changelog.NewReader(cfg.ChangelogDir)
	if err != nil {
		return err
	}
	tail, err := changelog.NewTail(cfg.ChangelogDir, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if flagWithWatcher {
		w := watcher.New(
			repo,
			changelog.NewWriter(cfg.ChangelogDir),
			newSummarizer(cfg, logger),
			watcher.Options{
				Interval: cfg.Watcher.Interval(),
				GitDir:   gitDirPath(cfg),
				Logger:   logger,
			},
		)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	if !flagDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(repo, builder, reader, logger, version)
	return srv.Run(ctx, addr, tail)
}
