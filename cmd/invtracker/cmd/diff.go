package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"invtracker/cmd/invtracker/globals"
	"invtracker/internal/catalog"
	"invtracker/internal/diff"
	"invtracker/internal/inventory"
	"invtracker/internal/report"
	"invtracker/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	diffOut      string
	diffLocation string
)

func init() {
	diffCmd.Flags().StringVarP(&diffOut, "out", "o", "changes.json", "where to write the change records, - for stdout")
	diffCmd.Flags().StringVar(&diffLocation, "legacy-location", "", "the location of single location snapshot documents")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff <old.json> <new.json>",
	Short: "Compare two snapshot files and write the changes between them.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		// product names are resolved through the catalog when there is one
		cat := catalog.New(nil)
		config, err := LoadConfig(globals.Get(ctx).ConfigPath)
		switch {
		case err == nil:
			cat = config.Catalog()
			if diffLocation == "" {
				diffLocation = config.Storage.LegacyLocation
			}
		case !errors.Is(err, os.ErrNotExist):
			serviceutil.Fatal("failed to read config", err)
		}

		prev, err := readSnapshotFile(args[0], diffLocation)
		if err != nil {
			serviceutil.Fatal("failed to read old snapshot", err)
		}
		next, err := readSnapshotFile(args[1], diffLocation)
		if err != nil {
			serviceutil.Fatal("failed to read new snapshot", err)
		}

		changes := diff.Snapshots(prev, next, cat)
		if changes == nil {
			changes = []inventory.ChangeRecord{}
		}
		for _, c := range changes {
			fmt.Fprintln(os.Stderr, report.FormatChange(c))
		}

		encoded, err := json.MarshalIndent(changes, "", "  ")
		if err != nil {
			serviceutil.Fatal("failed to encode changes", err)
		}
		if diffOut == "-" {
			fmt.Println(string(encoded))
			return
		}
		err = os.WriteFile(diffOut, encoded, 0644)
		if err != nil {
			serviceutil.Fatal("failed to write changes", err)
		}
		fmt.Fprintf(os.Stderr, "%d change(s) written to %s\n", len(changes), diffOut)
	},
}

func readSnapshotFile(path, legacyLocation string) (*inventory.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := inventory.DecodeSnapshot(data, legacyLocation)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}
