package provision

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/config"
	provisioner "github.com/Hostzero-GmbH/keycloak-testcontainer/internal/provision"
)

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRouterBeforeStart(t *testing.T) {
	srv := httptest.NewServer(newRouter(&status{}))
	defer srv.Close()

	provisioner.RecordProvision(true, map[string]int{"client": 1})

	code, body := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "keycloak_fixture_last_provision_timestamp_seconds")
	assert.Contains(t, body, `keycloak_fixture_provisioned_resources{kind="client"} 1`)

	code, _ = get(t, srv, "/healthz")
	assert.Equal(t, http.StatusInternalServerError, code)

	code, _ = get(t, srv, "/realms")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestBindFlagsUsesConfigKeys(t *testing.T) {
	fs := pflag.NewFlagSet("provision", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-f", "realms.yaml", "--verify", "--startup-timeout=30s"}))

	v, err := config.New("")
	require.NoError(t, err)
	require.NoError(t, config.BindFlags(v, fs))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "realms.yaml", cfg.RealmFile)
	assert.True(t, cfg.Verify)
	assert.True(t, cfg.IgnoreExistingRealm)
	assert.Equal(t, config.DefaultImage, cfg.Image)
	assert.Equal(t, "30s", cfg.StartupTimeout.String())
}
