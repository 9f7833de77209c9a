// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/msit-dl/internal/board"
	"github.com/pdiddy/msit-dl/internal/fetch"
	"github.com/pdiddy/msit-dl/internal/webclient"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List articles and their attachments without downloading",
	Long: `Scan enumerates the configured listing pages and prints each article's
downloadable attachments with their download parameters. Attachments whose
extension is in the requested format set are marked with *. Nothing is
written to disk.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Int("pages", 0, "number of listing pages to scan (default 3)")
	scanCmd.Flags().Int("start-page", 0, "first listing page to scan (default 1)")
	scanCmd.Flags().String("out-dir", "", "unused by scan; accepted for flag parity with fetch")
	scanCmd.Flags().Duration("delay", 0, "delay between board requests (default 1s)")
	scanCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	scanCmd.Flags().StringSlice("formats", nil, "extensions to mark as wanted (default hwp,hwpx,odt)")
	scanCmd.Flags().String("base-url", "", "board site root (default https://www.msit.go.kr)")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, boardCfg := fetchSettings(cmd)

	client, err := webclient.New(boardCfg.BaseURL, cfg.HTTPConfig, cfg.Delay/2)
	if err != nil {
		return fmt.Errorf("building HTTP client: %w", err)
	}

	engine := fetch.NewEngine(board.NewClient(client, boardCfg), nil, cfg)
	return engine.Scan(cmd.Context(), os.Stdout)
}
