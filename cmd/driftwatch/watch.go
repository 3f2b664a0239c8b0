package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"driftwatch/internal/changelog"
	"driftwatch/internal/git"
	"driftwatch/internal/watcher"
	"driftwatch/pkg/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the working tree and log summarized changes",
	Long: "Runs until interrupted. Each poll that finds uncommitted changes appends a\n" +
		"record (branch, files, diff, summary, stats) to the changelog directory.",
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	w := watcher.New(
		git.NewRepo(cfg.Scan.Root),
		changelog.NewWriter(cfg.ChangelogDir),
		newSummarizer(cfg, logger),
		watcher.Options{
			Interval: cfg.Watcher.Interval(),
			GitDir:   gitDirPath(cfg),
			Logger:   logger,
		},
	)

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("watching for changes", "root", cfg.Scan.Root, "interval", cfg.Watcher.Interval())
	return w.Run(ctx)
}

func gitDirPath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Watcher.GitDir) {
		return cfg.Watcher.GitDir
	}
	return filepath.Join(cfg.Scan.Root, cfg.Watcher.GitDir)
}
