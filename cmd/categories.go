package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/minsu-lab/mstrack/internal/musinsa"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List known Musinsa categories",
	RunE:  runCategories,
}

func init() {
	categoriesCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	registry := musinsa.NewRegistry(nil, time.Hour)
	ctx := context.Background()
	table := registry.Categories(ctx)

	type category struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	categories := make([]category, 0, len(table))
	for _, name := range registry.Names(ctx) {
		categories = append(categories, category{Code: table[name], Name: name})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(categories)
	default:
		fmt.Printf("Known categories (%d):\n\n", len(categories))
		for _, c := range categories {
			fmt.Printf("  %s  %s\n", c.Code, c.Name)
		}
	}

	return nil
}
