package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "aquamind",
	Short: "Aqua-Mind - water quality intelligence device",
	Long: `Aqua-Mind estimates drinking water safety from noisy low-cost sensors
and reports a trust-weighted Jal-Score with a categorical verdict.`,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.yaml", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
