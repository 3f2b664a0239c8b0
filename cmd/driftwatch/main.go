package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"driftwatch/internal/llm"
	"driftwatch/pkg/config"
)

// Overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

var (
	flagConfig  string
	flagRoot    string
	flagWorkers int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "driftwatch",
	Short: "Watch a git working copy and track Python symbol drift",
	Long: "Driftwatch polls a git repository for uncommitted changes, appends summarized\n" +
		"records to a JSONL changelog, and indexes Python symbols (functions, classes,\n" +
		"methods, tables, columns) across revisions to report structural diffs with\n" +
		"rename detection.",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default "+config.DefaultFileName+" when present)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "repository root (overrides config)")

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagRoot != "" {
		cfg.Scan.Root = flagRoot
	}
	if flagWorkers > 0 {
		cfg.Scan.Workers = flagWorkers
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newSummarizer(cfg *config.Config, logger *slog.Logger) *llm.Summarizer {
	llmCfg := cfg.LLM
	if llm.ProviderType(llmCfg.Provider) == llm.ProviderOpenAI && llmCfg.APIKey == "" {
		return llm.NewSummarizer(nil)
	}
	provider, err := llm.NewProvider(llm.ProviderConfig{
		Type:    llm.ProviderType(llmCfg.Provider),
		Model:   llmCfg.Model,
		BaseURL: llmCfg.BaseURL,
		APIKey:  llmCfg.APIKey,
	})
	if err != nil {
		logger.Warn("llm provider unavailable, summaries disabled", "error", err)
		return llm.NewSummarizer(nil)
	}
	return llm.NewSummarizer(provider)
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
