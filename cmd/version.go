package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hostzero-GmbH/keycloak-testcontainer/pkg/fixture"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "keycloak-fixture version %s\n", cmd.Root().Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  Default image:    %s\n", fixture.DefaultImage)
			fmt.Fprintf(cmd.OutOrStdout(), "  Minimum Keycloak: %s\n", fixture.MinKeycloakVersionString)
		},
	}
}
