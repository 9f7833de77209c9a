// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/msit-dl/internal/catalog"
	"github.com/pdiddy/msit-dl/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the local manifest of downloaded fixtures",
	Long: `Catalog queries the fixture manifest database kept alongside the
downloaded files. It lists fixtures with optional format and article
filters, prints per-format totals, and can export the full manifest to
YAML.`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().String("out-dir", "msit-docs", "fixture directory containing the manifest")
	catalogCmd.Flags().String("format", "", "filter by extension: hwp, hwpx, or odt")
	catalogCmd.Flags().String("article", "", "filter by source article ID")
	catalogCmd.Flags().Int("limit", 0, "maximum number of rows (default 50)")
	catalogCmd.Flags().Bool("json", false, "output results as JSON")
	catalogCmd.Flags().Bool("export", false, "write the full manifest to index/manifest.yaml")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out-dir")
	format, _ := cmd.Flags().GetString("format")
	article, _ := cmd.Flags().GetString("article")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")
	export, _ := cmd.Flags().GetBool("export")

	store, err := catalog.NewStore(types.CatalogConfig{OutDir: outDir})
	if err != nil {
		return fmt.Errorf("opening fixture catalog: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if export {
		if err := store.Export(ctx); err != nil {
			return err
		}
		fmt.Println("Manifest exported to index/manifest.yaml")
		return nil
	}

	fixtures, err := store.List(ctx, catalog.Query{
		Format:    format,
		ArticleID: article,
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fixtures)
	}

	for _, f := range fixtures {
		fmt.Printf("%-8s %-5s %10d  %s  %s\n",
			f.ArticleID, f.Format, f.Size, f.FetchedAt.Format("2006-01-02"), f.Path)
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d fixtures", summary.Total())
	for _, ext := range []string{"hwp", "hwpx", "odt"} {
		if n := summary.ByFormat[ext]; n > 0 {
			fmt.Printf(", %d %s", n, ext)
		}
	}
	fmt.Printf(" (%d bytes total)\n", summary.TotalBytes)
	return nil
}
