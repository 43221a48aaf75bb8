package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	crlog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"github.com/Hostzero-GmbH/keycloak-testcontainer/cmd/provision"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/cmd/render"
)

var (
	version  = "dev"
	setupLog = crlog.Log.WithName("setup")
)

func main() {
	ctx := signals.SetupSignalHandler()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		setupLog.Error(err, "command failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string
	opts := zap.Options{
		Development: true,
	}

	root := &cobra.Command{
		Use:   "keycloak-fixture",
		Short: "Run Keycloak in a container and provision test realms",
		Long: `Run Keycloak in a container and provision realms, clients, protocol
mappers and users through the admin CLI inside the container.

Configuration is read from flags, KEYCLOAK_FIXTURE_* environment variables
and keycloak-fixture.yaml, in that order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			crlog.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./keycloak-fixture.yaml)")

	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	opts.BindFlags(zapFlags)
	root.PersistentFlags().AddGoFlagSet(zapFlags)

	root.AddCommand(
		provision.NewCommand(&configFile),
		render.NewCommand(&configFile),
		newVersionCommand(),
	)

	return root
}
