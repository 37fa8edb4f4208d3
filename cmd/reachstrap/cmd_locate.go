package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/reachstrap/internal/domain-adapters/gateways"
)

type locateReport struct {
	Path            string  `yaml:"path"`
	Source          string  `yaml:"source"`
	EntryClass      string  `yaml:"entry_class"`
	DeclaredVersion *string `yaml:"declared_version"`
	Version         string  `yaml:"version"`
	VersionSource   string  `yaml:"version_source"`
	SHA256          string  `yaml:"sha256"`
}

func newLocateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Show which game jar and version a launch would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, a)
		},
	}
}

func runLocate(cmd *cobra.Command, a *app) error {
	p, err := a.loadProfile(cmd)
	if err != nil {
		return err
	}

	artifact, version, err := a.newCoordinator(p, nil).Discover(cmd.Context())
	if err != nil {
		return err
	}

	sum, err := gateways.NewChecksumVerifier().CalculateChecksum(artifact.ArtifactPath)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", artifact.ArtifactPath, err)
	}

	out, err := yaml.Marshal(locateReport{
		Path:            artifact.ArtifactPath,
		Source:          artifact.Source,
		EntryClass:      artifact.EntryClassName,
		DeclaredVersion: artifact.DeclaredVersion,
		Version:         version.String(),
		VersionSource:   version.Source,
		SHA256:          sum,
	})
	if err != nil {
		return err
	}
	_, err = a.out.Write(out)
	return err
}
