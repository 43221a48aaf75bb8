// Package render provides the CLI for printing the admin CLI commands a
// provisioning run would issue, without starting Keycloak.
package render

import (
	"fmt"

	"github.com/spf13/cobra"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/config"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/kcadm"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/provision"
)

// NewCommand returns the render command. configFile is resolved when the command runs.
func NewCommand(configFile *string) *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the admin CLI commands for a realm file",
		Long: `Print the admin CLI commands that provisioning the realm file would run, one
shell-quoted command per line. Ids assigned by Keycloak are shown as
placeholders such as <demoapp-id>. Passwords and client secrets are masked
unless --show-secrets is set.`,
		Example: `  keycloak-fixture render -f realms.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(*configFile)
			if err != nil {
				return err
			}
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if cfg.RealmFile == "" {
				return fmt.Errorf("--realm-file is required")
			}

			realms, err := keycloakv1beta1.LoadRealmConfigurations(cfg.RealmFile)
			if err != nil {
				return err
			}

			commands, err := provision.Plan(cmd.Context(), provision.Options{
				AdminUsername:       cfg.AdminUsername,
				AdminPassword:       cfg.AdminPassword,
				FailOnExistingRealm: !cfg.IgnoreExistingRealm,
			}, realms)
			if err != nil {
				return err
			}

			for _, tokens := range commands {
				if !showSecrets {
					tokens = kcadm.Redact(tokens)
				}
				fmt.Fprintln(cmd.OutOrStdout(), kcadm.ShellJoin(tokens))
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringP("realm-file", "f", "", "YAML file with one realm or a list of realms")
	fs.String("admin-username", config.DefaultAdmin, "Keycloak admin username")
	fs.String("admin-password", config.DefaultAdmin, "Keycloak admin password")
	fs.Bool("ignore-existing-realm", true, "Guard realm creation against existing realms")
	fs.BoolVar(&showSecrets, "show-secrets", false, "Print passwords and client secrets")

	return cmd
}
