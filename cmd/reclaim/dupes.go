package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/reclaim/internal/cleaner"
	"github.com/fenilsonani/reclaim/internal/config"
	"github.com/fenilsonani/reclaim/internal/reporter"
	"github.com/fenilsonani/reclaim/internal/ui"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

var (
	manifestPath string
	deleteRoot   string
)

var dupesCmd = &cobra.Command{
	Use:   "dupes [root]",
	Short: "Find duplicate files",
	Long: `Scans root (default: the configured scan root) and reports every group of
files with identical content. Nothing is deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		cfg, err := setup(false)
		if err != nil {
			return err
		}

		s := newSession(cfg, true)
		defer s.close()

		snap, err := s.scan(cmd.Context(), rootArg(cfg, args))
		if err != nil {
			return err
		}
		result := snap.Result()

		if outputFile != "" {
			if err := reporter.SaveToFile(result, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report saved to: %s\n", outputFile)
			return nil
		}

		if err := reporter.New(cmd.OutOrStdout(), format).Report(result); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [root]",
	Short: "Delete every duplicate, keeping one copy per group",
	Long: `Scans root and resolves every duplicate group by deleting all members
except the first. Groups are resolved one at a time; a failure in one group
does not stop the others.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(false)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.DryRun = dryRun
		}

		s := newSession(cfg, cfg.DryRun)
		defer s.close()

		out := cmd.OutOrStdout()
		snap, err := s.scan(cmd.Context(), rootArg(cfg, args))
		if err != nil {
			return err
		}
		if len(snap.Groups) == 0 {
			fmt.Fprintln(out, "\n✨ No duplicates found.")
			return nil
		}

		if err := reporter.New(out, reporter.FormatSummary).Report(snap.Result()); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if cfg.DryRun {
			fmt.Fprintln(out, "\n[DRY RUN MODE] No files will be deleted.")
		} else if !force && !confirm(cmd, fmt.Sprintf("Delete %s of duplicates?", utils.FormatBytes(snap.WastedSpace()))) {
			fmt.Fprintln(out, "Cleanup cancelled")
			return nil
		}

		var (
			deleted  int
			freed    int64
			failures []*cleaner.DeletionError
		)
		for _, g := range snap.Groups {
			if cmd.Context().Err() != nil {
				fmt.Fprintln(out, "Interrupted; remaining groups left untouched")
				break
			}

			paths, err := s.coord.ResolveGroup(context.WithoutCancel(cmd.Context()), g.Digest, "")
			deleted += len(paths)
			freed += g.Size * int64(len(paths))
			if err != nil {
				var delErr *cleaner.DeletionError
				if !errors.As(err, &delErr) {
					return fmt.Errorf("failed to resolve group %s: %w", g.Digest, err)
				}
				failures = append(failures, delErr)
			}
		}

		verb := "Deleted"
		if cfg.DryRun {
			verb = "Would delete"
		}
		fmt.Fprintf(out, "\n📊 Cleanup Complete!\n")
		fmt.Fprintf(out, "✅ %s: %d files (%s)\n", verb, deleted, utils.FormatBytes(freed))
		if len(failures) > 0 {
			fmt.Fprintf(out, "\n%s", cleaner.FormatErrorSummary(failures))
		}

		if manifestPath != "" && !cfg.DryRun {
			if err := s.executor.SaveManifest(manifestPath); err != nil {
				return fmt.Errorf("failed to save manifest: %w", err)
			}
			fmt.Fprintf(out, "Manifest saved to: %s\n", manifestPath)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <path>...",
	Short: "Delete specific duplicate files",
	Long: `Scans --root, then deletes the given paths in order and stops at the first
failure. The remaining duplicate groups are reported afterwards.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(false)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.DryRun = dryRun
		}

		root := cfg.ResolvedScanRoot()
		if deleteRoot != "" {
			root = config.ExpandPath(deleteRoot)
		}

		s := newSession(cfg, cfg.DryRun)
		defer s.close()

		if _, err := s.scan(cmd.Context(), root); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		deleted, err := s.coord.DeleteExplicit(context.WithoutCancel(cmd.Context()), args)
		for _, p := range deleted {
			fmt.Fprintf(out, "deleted %s\n", p)
		}
		if err != nil {
			var delErr *cleaner.DeletionError
			skipped := args[len(deleted):]
			if errors.As(err, &delErr) {
				skipped = skipped[1:]
			}
			for _, p := range skipped {
				fmt.Fprintf(out, "not attempted %s\n", p)
			}
			if delErr != nil {
				return errors.New(delErr.UserMessage())
			}
			return err
		}

		remaining := s.coord.Snapshot()
		fmt.Fprintf(out, "%d duplicate groups remain (%s)\n", len(remaining.Groups), utils.FormatBytes(remaining.WastedSpace()))
		return nil
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui [root]",
	Short: "Review and resolve duplicates interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(true)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.DryRun = dryRun
		}

		s := newSession(cfg, cfg.DryRun)
		defer s.close()

		return ui.RunInteractive(cmd.Context(), s.coord, rootArg(cfg, args), cfg.DryRun)
	},
}

func init() {
	dupesCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	dupesCmd.Flags().StringVar(&outputFile, "file", "", "save report to file")

	resolveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without actually deleting")
	resolveCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
	resolveCmd.Flags().StringVar(&manifestPath, "manifest", "", "write a manifest of deleted files to this path")

	deleteCmd.Flags().StringVar(&deleteRoot, "root", "", "directory to scan before deleting (default: configured scan root)")
	deleteCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without actually deleting")

	tuiCmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve without deleting anything")

	dupesCmd.AddCommand(resolveCmd)
	dupesCmd.AddCommand(deleteCmd)
}
