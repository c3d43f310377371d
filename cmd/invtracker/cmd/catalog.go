package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [search query]",
	Short: "List the tracked products, or the ones closest to a query.",
	Run: func(cmd *cobra.Command, args []string) {
		config := mustLoadConfig(cmd.Context())
		cat := config.Catalog()

		t := newTable()
		if len(args) == 0 {
			t.AppendHeader(table.Row{"#", "Product", "SKU"})
			for i, p := range cat.Products() {
				t.AppendRow(table.Row{i + 1, p.Name, p.SKU})
			}
			t.Render()
			return
		}

		t.AppendHeader(table.Row{"Product", "SKU", "Similarity"})
		for _, m := range cat.Search(strings.Join(args, " ")) {
			t.AppendRow(table.Row{m.Name, m.SKU, fmt.Sprintf("%.2f", m.Similarity)})
		}
		t.Render()
	},
}
