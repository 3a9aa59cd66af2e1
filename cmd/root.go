package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "listing-builder",
	Short: "A CLI tool for turning photo batches into marketplace listing candidates",
	Long: `Listing Builder takes a batch of uploaded photos and automatically
partitions them into listing candidates, one group per physical item, using
perceptual fingerprints and visual similarity only. Grouping mistakes can be
corrected by merging and splitting groups.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
