package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftwatch/internal/git"
	"driftwatch/internal/indexer"
	"driftwatch/pkg/config"
	"driftwatch/pkg/spinner"
)

var (
	flagRefA string
	flagRefB string
	flagRef  string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Report symbol changes between two revisions",
	Long: "Scans both revisions and prints added/removed symbols per file, per-category\n" +
		"totals, and likely renames as JSON. WORKTREE selects the working tree.",
	Args: cobra.NoArgs,
	RunE: runDiff,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the symbol inventory of a revision",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func init() {
	diffCmd.Flags().StringVar(&flagRefA, "ref-a", git.WorktreeRef, "base revision (WORKTREE or a git rev)")
	diffCmd.Flags().StringVar(&flagRefB, "ref-b", "HEAD", "target revision (WORKTREE or a git rev)")
	diffCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel scan workers (default: CPU count)")

	snapshotCmd.Flags().StringVar(&flagRef, "ref", git.WorktreeRef, "revision to scan (WORKTREE or a git rev)")
	snapshotCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel scan workers (default: CPU count)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	builder := newBuilder(cfg)

	sp := spinner.New(fmt.Sprintf("Scanning %s...", flagRefA))
	sp.Start()
	snapA, err := builder.Snapshot(cmd.Context(), flagRefA)
	if err != nil {
		sp.Stop()
		return err
	}
	sp.Update(fmt.Sprintf("Scanning %s...", flagRefB))
	snapB, err := builder.Snapshot(cmd.Context(), flagRefB)
	sp.Stop()
	if err != nil {
		return err
	}

	return printJSON(indexer.Diff(snapA, snapB))
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	builder := newBuilder(cfg)

	sp := spinner.New(fmt.Sprintf("Scanning %s...", flagRef))
	sp.Start()
	snap, err := builder.Snapshot(cmd.Context(), flagRef)
	sp.Stop()
	if err != nil {
		return err
	}

	return printJSON(snap)
}

func newBuilder(cfg *config.Config) *indexer.Builder {
	repo := git.NewRepo(cfg.Scan.Root)
	return indexer.NewBuilder(repo, cfg.Scan.Workers, cfg.Scan.FileTimeout())
}
