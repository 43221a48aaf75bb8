// Package provision provides the CLI for starting Keycloak and provisioning realms into it.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	crlog "sigs.k8s.io/controller-runtime/pkg/log"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/config"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/report"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/pkg/fixture"
)

const (
	realmReadyInterval = time.Second
	realmReadyTimeout  = 30 * time.Second
	shutdownTimeout    = 30 * time.Second
)

// NewCommand returns the provision command. configFile is resolved when the command runs.
func NewCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "provision",
		Short:   "Start Keycloak and provision realms",
		Long:    "Start Keycloak in a container, provision the realms of the realm file and write their descriptors.",
		Example: usageExamples,
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
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), crlog.Log.WithName("provision"))
		},
	}

	BindFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer, log logr.Logger) (err error) {
	var realms []keycloakv1beta1.RealmConfiguration
	if cfg.RealmFile != "" {
		if realms, err = keycloakv1beta1.LoadRealmConfigurations(cfg.RealmFile); err != nil {
			return err
		}
		for _, realm := range realms {
			if err := realm.Validate(); err != nil {
				return err
			}
		}
	}

	st := &status{}
	if cfg.MetricsBindAddress != "" && cfg.MetricsBindAddress != "0" {
		srv := &http.Server{
			Addr:              cfg.MetricsBindAddress,
			Handler:           newRouter(st),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(err, "metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := []fixture.Option{
		fixture.WithImage(cfg.Image),
		fixture.WithAdminCredentials(cfg.AdminUsername, cfg.AdminPassword),
		fixture.WithStartupTimeout(cfg.StartupTimeout),
		fixture.WithRealms(realms...),
		fixture.WithLogger(log),
	}
	if cfg.RandomAdminPassword {
		opts = append(opts, fixture.WithRandomAdminPassword())
	}
	if !cfg.IgnoreExistingRealm {
		opts = append(opts, fixture.WithFailOnExistingRealm())
	}

	c, err := fixture.Run(ctx, opts...)
	if c != nil {
		st.container.Store(c)
		defer func() {
			// ctx may already be cancelled by the signal that ended the run
			terminateCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if termErr := c.Terminate(terminateCtx); termErr != nil {
				log.Error(termErr, "failed to terminate Keycloak container")
				err = errors.Join(err, termErr)
			}
		}()
	}
	if err != nil {
		return fmt.Errorf("failed to provision Keycloak: %w", err)
	}

	if cfg.RandomAdminPassword {
		fmt.Fprintf(stdout, "# admin password: %s\n", c.AdminPassword())
	}

	if cfg.Verify {
		if err := verify(ctx, c, realms); err != nil {
			return err
		}
	}

	writer := report.NewWriter(report.WriterOptions{
		OutputFile: cfg.Output,
		OutputDir:  cfg.OutputDir,
		Stdout:     stdout,
	})
	if err := writer.Write(c.Realms()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if cfg.KeepRunning {
		log.Info("Keycloak is running, interrupt to stop", "url", c.BaseURL(), "adminUsername", c.AdminUsername())
		<-ctx.Done()
	}

	return nil
}

// verify waits for every realm to serve its discovery document and compares
// it with its configuration.
func verify(ctx context.Context, c *fixture.Container, realms []keycloakv1beta1.RealmConfiguration) error {
	client := c.AdminClient()
	for _, realm := range realms {
		if err := client.WaitForRealm(ctx, realm.Name, realmReadyInterval, realmReadyTimeout); err != nil {
			return fmt.Errorf("realm %s is not served: %w", realm.Name, err)
		}
		if err := client.VerifyRealm(ctx, realm); err != nil {
			return err
		}
	}
	return nil
}
