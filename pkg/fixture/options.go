package fixture

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
)

const (
	// DefaultImage is the Keycloak image started by Run
	DefaultImage = "quay.io/keycloak/keycloak:21.1.1"

	// DefaultAdmin is the default admin username and password
	DefaultAdmin = "admin"

	// HTTPPort is the Keycloak port inside the container
	HTTPPort = "8080/tcp"

	defaultStartupTimeout = 2 * time.Minute
)

type options struct {
	image               string
	adminUsername       string
	adminPassword       string
	realms              []keycloakv1beta1.RealmConfiguration
	startupTimeout      time.Duration
	failOnExistingRealm bool
	isolateSessions     bool
	log                 logr.Logger
	customizers         []testcontainers.ContainerCustomizer
}

func defaultOptions() options {
	return options{
		image:          DefaultImage,
		adminUsername:  DefaultAdmin,
		adminPassword:  DefaultAdmin,
		startupTimeout: defaultStartupTimeout,
		log:            logr.Discard(),
	}
}

// Option configures the container started by Run
type Option func(*options)

// WithImage overrides the Keycloak image. The tag must be 17 or newer.
func WithImage(image string) Option {
	return func(o *options) {
		o.image = image
	}
}

// WithAdminCredentials sets the bootstrap admin user.
func WithAdminCredentials(username, password string) Option {
	return func(o *options) {
		o.adminUsername = username
		o.adminPassword = password
	}
}

// WithRandomAdminPassword generates the admin password.
func WithRandomAdminPassword() Option {
	return func(o *options) {
		o.adminPassword = uuid.NewString()
	}
}

// WithRealms adds realms provisioned once the container is ready, in order.
func WithRealms(realms ...keycloakv1beta1.RealmConfiguration) Option {
	return func(o *options) {
		for _, r := range realms {
			o.realms = append(o.realms, r.DeepCopy())
		}
	}
}

// WithStartupTimeout bounds the wait for Keycloak to serve the master realm.
func WithStartupTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.startupTimeout = timeout
	}
}

// WithFailOnExistingRealm makes provisioning fail when the realm already
// exists. By default an existing realm is kept and its create skipped.
func WithFailOnExistingRealm() Option {
	return func(o *options) {
		o.failOnExistingRealm = true
	}
}

// WithIsolatedSessions gives every provisioning run its own admin CLI config
// file. Required when Provision is called from several goroutines.
func WithIsolatedSessions() Option {
	return func(o *options) {
		o.isolateSessions = true
	}
}

// WithLogger sets the logger for provisioning output.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithContainerCustomizers applies testcontainers customizers to the request,
// e.g. testcontainers.WithEnv or a network.
func WithContainerCustomizers(customizers ...testcontainers.ContainerCustomizer) Option {
	return func(o *options) {
		o.customizers = append(o.customizers, customizers...)
	}
}
