package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aquamind/internal/config"
	"aquamind/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the registered geo profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		registry, err := profile.LoadRegistry(cfg.Profiles.Path)
		if err != nil {
			return err
		}

		defaultProfile := registry.Default()
		for _, name := range registry.Names() {
			p, _ := registry.Get(name)
			marker := " "
			if p == defaultProfile {
				marker = "*"
			}
			fmt.Printf("%s %-12s %s (%s)\n", marker, name, p.Name, p.Zone)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
