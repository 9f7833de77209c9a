// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the msit-dl CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the msit-dl CLI.
var rootCmd = &cobra.Command{
	Use:   "msit-dl",
	Short: "Download HWP/HWPX/ODT documents from MSIT press releases",
	Long: `msit-dl bulk-downloads document attachments from the press-release
bulletin board of the Korean Ministry of Science and ICT, building a local
corpus of HWP, HWPX, and ODT files for use as import-filter test fixtures.

fetch scrapes listing pages for article IDs, locates each article's
attachment download parameters, and downloads files not already on disk.
scan does the enumeration without downloading, and catalog queries the
local manifest of what has been fetched.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./msit-dl.yaml or ~/.config/msit-dl/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("msit-dl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "msit-dl"))
		}
	}

	viper.SetEnvPrefix("MSIT_DL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
