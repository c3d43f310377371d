package cmd

import (
	"fmt"
	"os"

	"invtracker/cmd/invtracker/globals"
	"invtracker/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	showLocation string
	showProduct  string
)

func init() {
	showCmd.Flags().StringVarP(&showLocation, "location", "l", "", "only show this postal code")
	showCmd.Flags().StringVarP(&showProduct, "product", "p", "", "only show the product with this sku or the closest name")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the quantities of the persisted snapshot.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		tel := globals.Get(ctx).Tel

		config := mustLoadConfig(ctx)
		cat := config.Catalog()

		sku := ""
		if showProduct != "" {
			matches := cat.Search(showProduct)
			if len(matches) == 0 {
				fmt.Fprintf(os.Stderr, "no product matches %q\n", showProduct)
				os.Exit(1)
			}
			sku = matches[0].SKU
			fmt.Fprintf(os.Stderr, "showing %s (%s)\n", matches[0].Name, sku)
		}

		store, closeStore, err := config.OpenStore(ctx, tel)
		if err != nil {
			serviceutil.Fatal("failed to open snapshot store", err)
		}
		defer closeStore()

		snap, err := store.Load(ctx)
		if err != nil {
			serviceutil.Fatal("failed to load snapshot", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Location", "Product", "SKU", "Store", "Qty"})
		for _, e := range snap.Entries() {
			if showLocation != "" && e.Location != showLocation {
				continue
			}
			if sku != "" && e.SKU != sku {
				continue
			}
			t.AppendRow(table.Row{e.Location, cat.Name(e.SKU), e.SKU, e.Store, e.Quantity})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, AutoMerge: true},
			{Number: 2, AutoMerge: true},
		})
		t.Render()
	},
}
