package cmd

import (
	"context"
	"fmt"
	"os"

	"invtracker/cmd/invtracker/globals"
	"invtracker/internal/telemetry"
	"invtracker/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "invtracker",
	Short: "invtracker watches store inventory of a list of products and reports changes.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
		cmd.SetContext(globals.Set(cmd.Context(), &globals.Value{
			ConfigPath: configPath,
			Verbose:    verbose,
			Tel:        telemetry.SlogAPI{},
		}))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() {
	ctx := serviceutil.SignalContext()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func mustLoadConfig(ctx context.Context) Config {
	config, err := LoadConfig(globals.Get(ctx).ConfigPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return config
}
