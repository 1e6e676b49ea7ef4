package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-migrate/internal/config"
	"github.com/kozaktomas/photo-migrate/internal/executor"
	"github.com/kozaktomas/photo-migrate/internal/model"
	"github.com/kozaktomas/photo-migrate/internal/web/handlers"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run one migration pass from the command line",
	Long: `migrate runs a single analysis pass against the configured source and
target stores and, unless --dry-run is given, applies every RenameApplicable
match it finds. It is a terminal-driven alternative to driving the same
Coordinator/Executor pair through the web API's POST /algorithm/run and
POST /apply endpoints.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("dry-run", false, "Run the analysis and print what would be applied, without calling the target API")
	migrateCmd.Flags().Float64("min-iou", 0, "Override min_overlap_score (0 = use configured default)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	app := handlers.NewApp(cfg)

	coordinator := app.Coordinator()
	if coordinator == nil {
		return fmt.Errorf("source and target stores are not both configured; set SOURCE_DB_PATH and TARGET_DB_* env vars")
	}

	thresholds := model.DefaultThresholds()
	thresholds.MinIoU = cfg.Matching.MinOverlapScore
	if minIoU, _ := cmd.Flags().GetFloat64("min-iou"); minIoU > 0 {
		thresholds.MinIoU = minIoU
	}

	ctx := context.Background()
	fmt.Println("Reading source and target stores, computing matches...")
	bundle, err := coordinator.RunFullAnalysis(ctx, thresholds)
	if err != nil {
		return fmt.Errorf("running analysis: %w", err)
	}

	fmt.Printf("%d common photos, %d rename-applicable matches, %d unclustered groups, %d merge candidates, %d validation issues\n",
		bundle.CommonPhotoCount, len(bundle.RenameApplicable), len(bundle.AssignUnclustered), len(bundle.MergeCandidates), len(bundle.ValidationIssues))

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if len(bundle.RenameApplicable) == 0 {
		fmt.Println("Nothing to apply.")
		return nil
	}

	exec := app.Executor()
	if exec == nil {
		if dryRun {
			fmt.Println("Dry run requested with no target API configured; listing matches only:")
			for _, m := range bundle.RenameApplicable {
				fmt.Printf("  %s -> cluster %s\n", m.SourcePersonName, m.ClusterID)
			}
			return nil
		}
		return fmt.Errorf("target API is not configured; cannot apply")
	}

	items := make([]executor.RenameItem, len(bundle.RenameApplicable))
	for i, m := range bundle.RenameApplicable {
		items[i] = executor.RenameItem{SourcePersonName: m.SourcePersonName, ClusterID: m.ClusterID}
	}

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetDescription("Renaming clusters"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("clusters"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	progress := executor.NewProgress()
	events := progress.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			switch ev.Status {
			case executor.StatusSuccess, executor.StatusError, executor.StatusSkipped:
				_ = bar.Add(1)
			}
		}
	}()

	result := exec.RenameClusters(ctx, uuid.NewString(), progress, items, dryRun)
	progress.Unsubscribe(events)
	<-done

	fmt.Printf("\n%d succeeded, %d failed, %d skipped (of %d total)\n",
		result.SuccessCount, result.FailedCount, result.SkippedCount, result.Total)
	if result.FailedCount > 0 {
		os.Exit(1)
	}
	return nil
}
