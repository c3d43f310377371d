package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"invtracker/cmd/invtracker/globals"
	"invtracker/internal/notify"
	"invtracker/internal/snapshot"
	"invtracker/internal/telemetry"
	"invtracker/internal/tracker"
	"invtracker/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var dryRun bool

func init() {
	checkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the reports instead of sending them and do not persist the snapshot")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch every product at every location, report the changes and persist the snapshot.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := mustLoadConfig(ctx)

		otel, err := telemetry.SetupFromEnv(ctx, "invtracker")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}

		result, err := runCheck(ctx, config, globals.Get(ctx).Tel, dryRun, os.Stdout)
		otel.Shutdown(ctx)
		if err != nil {
			serviceutil.Fatal("check failed", err)
		}
		slog.Info(
			"run finished",
			"run_id", result.RunID,
			"changes", len(result.Changes),
			"fetch_failures", result.FetchFailures,
		)
	},
}

// runCheck performs one run, every resource it opens is released before it
// returns. A delivery failure is returned after the snapshot was persisted.
func runCheck(ctx context.Context, config Config, tel telemetry.API, dryRun bool, out io.Writer) (tracker.Result, error) {
	trackerConfig := config.TrackerConfig()
	err := trackerConfig.Validate()
	if err != nil {
		return tracker.Result{}, err
	}

	var notifier notify.Notifier = &notify.Writer{Out: out}
	if !dryRun {
		notifier, err = config.NewNotifier(tel)
		if err != nil {
			return tracker.Result{}, err
		}
	}

	store, closeStore, err := config.OpenStore(ctx, tel)
	if err != nil {
		return tracker.Result{}, fmt.Errorf("open snapshot store: %w", err)
	}
	defer closeStore()
	if dryRun {
		store = snapshot.ReadOnlyStore{Store: store}
	}

	fetcher, err := config.NewFetcher(tel)
	if err != nil {
		return tracker.Result{}, fmt.Errorf("create fetcher: %w", err)
	}

	t, err := tracker.New(trackerConfig, fetcher, store, notifier, tel)
	if err != nil {
		return tracker.Result{}, err
	}
	result, err := t.Run(ctx)
	if err != nil {
		return result, fmt.Errorf("run: %w", err)
	}
	if result.DeliveryErr != nil {
		return result, fmt.Errorf("deliver reports: %w", result.DeliveryErr)
	}
	return result, nil
}
