//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/pkg/fixture"
)

const (
	realmName    = "demorealm"
	clientName   = "demoapp"
	username     = "john.doe"
	userPassword = "password123"
	serviceEmail = "service-account@example.com"
)

var (
	keycloak     *fixture.Container
	clientSecret = uuid.NewString()
	ctx          = context.Background()
	timeout      = 30 * time.Second
	interval     = 1 * time.Second
)

func demoRealm() keycloakv1beta1.RealmConfiguration {
	serviceAccount := keycloakv1beta1.ServiceAccount{}.
		WithEmail(serviceEmail, true).
		WithName("Service", "Account")

	return keycloakv1beta1.NewRealmConfiguration(realmName).
		WithClients(keycloakv1beta1.NewClient(clientName).
			WithRedirectURIs("http://localhost:8000/*").
			WithSecret(clientSecret).
			WithServiceAccountsEnabled(true).
			WithServiceAccountUser(serviceAccount).
			WithMappers(keycloakv1beta1.NewAudienceMapper("audience-mapping"))).
		WithUsers(keycloakv1beta1.NewUser(username, userPassword).
			WithEmail("john.doe@example.com", true).
			WithName("John", "Doe"))
}

func TestMain(m *testing.M) {
	if err := setupSuite(); err != nil {
		fmt.Printf("Failed to setup test suite: %v\n", err)
		teardownSuite()
		os.Exit(1)
	}

	code := m.Run()

	teardownSuite()

	os.Exit(code)
}

func setupSuite() error {
	opts := []fixture.Option{
		fixture.WithRealms(demoRealm()),
		fixture.WithIsolatedSessions(),
		fixture.WithLogger(zap.New(zap.UseDevMode(true))),
	}
	if image := os.Getenv("KEYCLOAK_IMAGE"); image != "" {
		opts = append(opts, fixture.WithImage(image))
	}

	var err error
	keycloak, err = fixture.Run(ctx, opts...)
	return err
}

func teardownSuite() {
	if keycloak == nil {
		return
	}
	if err := keycloak.Terminate(context.Background()); err != nil {
		fmt.Printf("Failed to terminate Keycloak: %v\n", err)
	}
}
