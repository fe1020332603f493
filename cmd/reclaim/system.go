package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/reclaim/internal/cleaner"
	"github.com/fenilsonani/reclaim/internal/platform"
	"github.com/fenilsonani/reclaim/internal/progress"
	"github.com/fenilsonani/reclaim/internal/reporter"
	"github.com/fenilsonani/reclaim/internal/scanner"
	"github.com/fenilsonani/reclaim/internal/storage"
	"github.com/fenilsonani/reclaim/internal/ui"
	"github.com/fenilsonani/reclaim/pkg/utils"
)

var (
	minSize    string
	cleanCache bool
)

var largeCmd = &cobra.Command{
	Use:   "large [root]",
	Short: "List large files",
	Long:  `Lists regular files at or above --min-size under root, largest first.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		cfg, err := setup(false)
		if err != nil {
			return err
		}

		threshold, err := cfg.MinLargeFileSize()
		if err != nil {
			return err
		}
		if minSize != "" {
			if threshold, err = utils.ParseSize(minSize); err != nil {
				return fmt.Errorf("invalid --min-size: %w", err)
			}
		}

		platformInfo, err := platform.GetInfo()
		if err != nil {
			return fmt.Errorf("failed to get platform info: %w", err)
		}

		pr := progress.NewProgressReporter()
		scnr := scanner.New(platformInfo)
		scnr.SetProgressReporter(pr)

		stop := ui.NewLiveProgress(os.Stderr).Watch(pr)
		files, err := scnr.ScanLargeFiles(cmd.Context(), rootArg(cfg, args), threshold)
		stop()

		partial := errors.Is(err, context.Canceled)
		if err != nil && !partial {
			return fmt.Errorf("scan failed: %w", err)
		}

		if err := reporter.New(cmd.OutOrStdout(), format).ReportLargeFiles(files); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		if partial {
			fmt.Fprintln(cmd.ErrOrStderr(), "Scan cancelled: results are partial")
		}
		return nil
	},
}

var cachesCmd = &cobra.Command{
	Use:   "caches",
	Short: "Report cache and log directories",
	Long: `Measures system, user, application and browser caches plus log
directories. With --clean the listed directories are removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		cfg, err := setup(false)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.DryRun = dryRun
		}

		platformInfo, err := platform.GetInfo()
		if err != nil {
			return fmt.Errorf("failed to get platform info: %w", err)
		}

		out := cmd.OutOrStdout()
		items := scanner.New(platformInfo).ScanCaches(cmd.Context())
		if err := reporter.New(out, format).ReportCaches(items); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if !cleanCache || len(items) == 0 || cmd.Context().Err() != nil {
			return nil
		}

		if cfg.DryRun {
			fmt.Fprintln(out, "\n[DRY RUN MODE] No files will be deleted.")
		} else if !force && !confirm(cmd, "Proceed with cleanup?") {
			fmt.Fprintln(out, "Cleanup cancelled")
			return nil
		}

		targets := make([]cleaner.Target, 0, len(items))
		for _, item := range items {
			targets = append(targets, cleaner.Target{Path: item.Path, Size: item.Size, Category: string(item.Type)})
		}

		pr := progress.NewProgressReporter()
		executor := cleaner.New(cleaner.Options{
			DryRun:    cfg.DryRun,
			Validator: newValidator(cfg),
			Progress:  pr,
		})

		stop := ui.NewLiveProgress(os.Stderr).Watch(pr)
		result := executor.Clean(targets)
		stop()

		verb := "Successfully deleted"
		if result.DryRun {
			verb = "Would delete"
		}
		fmt.Fprintf(out, "\n📊 Cleanup Complete!\n")
		fmt.Fprintf(out, "✅ %s: %d directories (%s)\n", verb, len(result.DeletedFiles), utils.FormatBytes(result.DeletedSize))
		if len(result.Errors) > 0 {
			fmt.Fprintf(out, "\n%s", cleaner.FormatErrorSummary(result.Errors))
		}
		return nil
	},
}

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Show disk usage by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}

		if _, err := setup(false); err != nil {
			return err
		}

		platformInfo, err := platform.GetInfo()
		if err != nil {
			return fmt.Errorf("failed to get platform info: %w", err)
		}

		analysis, err := storage.Analyze(cmd.Context(), platformInfo)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("storage analysis failed: %w", err)
		}

		return reporter.New(cmd.OutOrStdout(), format).ReportStorage(analysis)
	},
}

func init() {
	largeCmd.Flags().StringVar(&minSize, "min-size", "", "minimum file size, e.g. 500MB (default: large_files.min_size)")
	largeCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")

	cachesCmd.Flags().BoolVar(&cleanCache, "clean", false, "delete the reported directories")
	cachesCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without actually deleting")
	cachesCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
	cachesCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")

	storageCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
}
