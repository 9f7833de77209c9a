// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/msit-dl/internal/board"
	"github.com/pdiddy/msit-dl/internal/catalog"
	"github.com/pdiddy/msit-dl/internal/fetch"
	"github.com/pdiddy/msit-dl/internal/webclient"
	"github.com/pdiddy/msit-dl/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultOutDir    = "msit-docs"
	defaultPages     = 3
	defaultStartPage = 1
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download press-release attachments not already on disk",
	Long: `Fetch scans listing pages of the MSIT press-release board, collects the
unique article IDs, and downloads every HWP/HWPX/ODT attachment whose output
file does not already exist. Failed downloads are not retried. Each
completed file is recorded in the fixture manifest.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("pages", 0, "number of listing pages to scan (default 3)")
	fetchCmd.Flags().Int("start-page", 0, "first listing page to scan (default 1)")
	fetchCmd.Flags().String("out-dir", "", "output directory (default \"msit-docs\")")
	fetchCmd.Flags().Duration("delay", 0, "delay between board requests (default 1s)")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().StringSlice("formats", nil, "attachment extensions to download (default hwp,hwpx,odt)")
	fetchCmd.Flags().String("base-url", "", "board site root (default https://www.msit.go.kr)")

	rootCmd.AddCommand(fetchCmd)
}

// fetchSettings resolves the flag / config file / default chain shared by
// fetch and scan.
func fetchSettings(cmd *cobra.Command) (types.FetchConfig, types.BoardConfig) {
	pages, _ := cmd.Flags().GetInt("pages")
	if pages == 0 {
		pages = viper.GetInt("pages")
	}
	if pages == 0 {
		pages = defaultPages
	}

	startPage, _ := cmd.Flags().GetInt("start-page")
	if startPage == 0 {
		startPage = viper.GetInt("start_page")
	}
	if startPage == 0 {
		startPage = defaultStartPage
	}

	formats, _ := cmd.Flags().GetStringSlice("formats")
	if len(formats) == 0 {
		formats = viper.GetStringSlice("formats")
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" {
		outDir = viper.GetString("out_dir")
	}
	if outDir == "" {
		outDir = defaultOutDir
	}

	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = viper.GetDuration("delay")
	}
	if delay == 0 {
		delay = defaultDelay
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}

	boardCfg := board.DefaultBoard
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" {
		baseURL = viper.GetString("base_url")
	}
	if baseURL != "" {
		boardCfg.BaseURL = baseURL
	}

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: viper.GetString("user_agent"),
		},
		Pages:     pages,
		StartPage: startPage,
		Delay:     delay,
		OutDir:    outDir,
		Formats:   formats,
	}
	return cfg, boardCfg
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, boardCfg := fetchSettings(cmd)

	// The limiter floor is half the delay: that is the spacing between
	// attachment downloads of the same article. Full delays between
	// articles come from the fetch loop.
	client, err := webclient.New(boardCfg.BaseURL, cfg.HTTPConfig, cfg.Delay/2)
	if err != nil {
		return fmt.Errorf("building HTTP client: %w", err)
	}

	store, err := catalog.NewStore(types.CatalogConfig{OutDir: cfg.OutDir})
	if err != nil {
		return fmt.Errorf("opening fixture catalog: %w", err)
	}
	defer store.Close()

	engine := fetch.NewEngine(board.NewClient(client, boardCfg), store, cfg)
	result, err := engine.Run(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	if exportErr := store.Export(cmd.Context()); exportErr != nil {
		fmt.Fprintf(os.Stderr, "warning: manifest export failed: %v\n", exportErr)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d attachment(s) failed to download", result.Failed)
	}
	return nil
}
