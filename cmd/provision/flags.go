package provision

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/config"
)

const usageExamples = `
  # Start Keycloak, provision the realms and print their descriptors
  keycloak-fixture provision -f realms.yaml

  # Keep the container running and serve metrics until interrupted
  keycloak-fixture provision -f realms.yaml --keep-running \
    --metrics-bind-address :9090

  # Check the provisioned state over the admin API and write one file per realm
  keycloak-fixture provision -f realms.yaml --verify --output-dir ./realms
`

// BindFlags registers the provision flags. Their names are config keys, see
// the config package.
func BindFlags(fs *pflag.FlagSet) {
	// Container options
	fs.String("image", config.DefaultImage, "Keycloak image, tag 17 or newer")
	fs.String("admin-username", config.DefaultAdmin, "Keycloak admin username")
	fs.String("admin-password", config.DefaultAdmin, "Keycloak admin password (or KEYCLOAK_FIXTURE_ADMIN_PASSWORD)")
	fs.Bool("random-admin-password", false, "Generate the admin password")
	fs.Duration("startup-timeout", 2*time.Minute, "How long to wait for Keycloak to serve the master realm")

	// Provisioning options
	fs.StringP("realm-file", "f", "", "YAML file with one realm or a list of realms")
	fs.Bool("ignore-existing-realm", true, "Skip creating realms that already exist")
	fs.Bool("verify", false, "Compare the provisioned realms against the admin API")

	// Output options
	fs.StringP("output", "o", "", "Output file path for realm descriptors (default: stdout)")
	fs.String("output-dir", "", "Output directory, one file per realm")

	// Runtime options
	fs.Bool("keep-running", false, "Keep the container running until interrupted")
	fs.String("metrics-bind-address", "0", "Address serving /metrics, /healthz and /realms; 0 disables")
}
