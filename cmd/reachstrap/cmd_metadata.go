package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMetadataCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Print the built-in module describing the game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetadata(cmd, a, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of YAML")
	return cmd
}

func runMetadata(cmd *cobra.Command, a *app, asJSON bool) error {
	p, err := a.loadProfile(cmd)
	if err != nil {
		return err
	}

	coordinator := a.newCoordinator(p, nil)
	if _, _, err := coordinator.Discover(cmd.Context()); err != nil {
		return err
	}

	module := coordinator.Module()
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(module)
	}

	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(module); err != nil {
		return err
	}
	return enc.Close()
}
