// Package fixture starts a disposable Keycloak container for tests and
// provisions realms into it through the admin CLI.
package fixture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/go-logr/logr"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/kcadm"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/keycloak"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/provision"
)

type (
	// Result is the captured outcome of one admin CLI command
	Result = kcadm.Result
	// CommandFailedError reports a command that exited non-zero
	CommandFailedError = kcadm.CommandFailedError
	// MissingFieldError reports command output that lacks a required value
	MissingFieldError = kcadm.MissingFieldError
	// StepError reports the provisioning step that failed
	StepError = provision.StepError
	// AdminClient reads the provisioned state over the admin REST API
	AdminClient = keycloak.Client
)

var errNotReady = errors.New("keycloak container is not ready")

// Container is a running Keycloak instance
type Container struct {
	testcontainers.Container

	opts        options
	baseURL     string
	provisioner *provision.Provisioner
	log         logr.Logger

	mu     sync.Mutex
	realms []*keycloakv1beta1.Realm
}

// Request builds the container request for the options, without starting it.
func Request(opts ...Option) (testcontainers.GenericContainerRequest, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o.request()
}

func (o options) request() (testcontainers.GenericContainerRequest, error) {
	if err := validateImage(o.image); err != nil {
		return testcontainers.GenericContainerRequest{}, err
	}
	if o.adminUsername == "" || o.adminPassword == "" {
		return testcontainers.GenericContainerRequest{}, fmt.Errorf("admin username and password must not be empty")
	}

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        o.image,
			ExposedPorts: []string{HTTPPort},
			Cmd:          []string{"start-dev"},
			Env: map[string]string{
				"KEYCLOAK_ADMIN":              o.adminUsername,
				"KEYCLOAK_ADMIN_PASSWORD":     o.adminPassword,
				"KC_BOOTSTRAP_ADMIN_USERNAME": o.adminUsername,
				"KC_BOOTSTRAP_ADMIN_PASSWORD": o.adminPassword,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(HTTPPort),
				wait.ForHTTP("/realms/master").WithPort(HTTPPort),
			).WithDeadline(o.startupTimeout),
		},
		Started: true,
	}

	for _, c := range o.customizers {
		if err := c.Customize(&req); err != nil {
			return testcontainers.GenericContainerRequest{}, fmt.Errorf("failed to customize container request: %w", err)
		}
	}
	return req, nil
}

// Run starts Keycloak and provisions the configured realms in order. When
// provisioning fails the started container is returned with the error so the
// caller can inspect and terminate it.
func Run(ctx context.Context, opts ...Option) (*Container, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	req, err := o.request()
	if err != nil {
		return nil, err
	}

	log := o.log.WithName("fixture")
	log.Info("starting Keycloak", "image", o.image)

	ctr, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		if ctr != nil {
			return &Container{Container: ctr, opts: o, log: log}, fmt.Errorf("failed to start Keycloak: %w", err)
		}
		return nil, fmt.Errorf("failed to start Keycloak: %w", err)
	}

	c := &Container{Container: ctr, opts: o, log: log}

	host, err := ctr.Host(ctx)
	if err != nil {
		return c, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := ctr.MappedPort(ctx, HTTPPort)
	if err != nil {
		return c, fmt.Errorf("failed to get mapped port: %w", err)
	}
	c.baseURL = (&url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%s", host, port.Port())}).String()

	c.provisioner = provision.NewProvisioner(c, provision.Options{
		AdminUsername:       o.adminUsername,
		AdminPassword:       o.adminPassword,
		BaseURL:             c.baseURL,
		FailOnExistingRealm: o.failOnExistingRealm,
		IsolateSessions:     o.isolateSessions,
	}, log)

	log.Info("Keycloak ready", "url", c.baseURL)

	if _, err := c.ProvisionAll(ctx, o.realms); err != nil {
		return c, err
	}
	return c, nil
}

// Exec runs cmd inside the container and captures stdout, stderr and the exit code.
func (c *Container) Exec(ctx context.Context, cmd []string) (kcadm.Result, error) {
	code, reader, err := c.Container.Exec(ctx, cmd)
	if err != nil {
		return kcadm.Result{}, fmt.Errorf("failed to exec %s: %w", kcadm.Operation(cmd), err)
	}
	stdout, stderr, err := demux(reader)
	if err != nil {
		return kcadm.Result{}, fmt.Errorf("failed to read output of %s: %w", kcadm.Operation(cmd), err)
	}
	return kcadm.Result{Stdout: stdout, Stderr: stderr, ExitCode: code}, nil
}

// demux splits a multiplexed exec stream into stdout and stderr.
func demux(r io.Reader) (string, string, error) {
	if r == nil {
		return "", "", nil
	}
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, r); err != nil {
		return stdout.String(), stderr.String(), err
	}
	return stdout.String(), stderr.String(), nil
}

// Provision provisions one more realm into the running instance.
func (c *Container) Provision(ctx context.Context, cfg keycloakv1beta1.RealmConfiguration) (*keycloakv1beta1.Realm, error) {
	if c.provisioner == nil {
		return nil, errNotReady
	}
	realm, err := c.provisioner.Provision(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.realms = append(c.realms, realm)
	c.mu.Unlock()
	return realm, nil
}

// ProvisionAll provisions the realms in order and stops at the first failure.
func (c *Container) ProvisionAll(ctx context.Context, cfgs []keycloakv1beta1.RealmConfiguration) ([]*keycloakv1beta1.Realm, error) {
	if c.provisioner == nil {
		return nil, errNotReady
	}
	realms, err := c.provisioner.ProvisionAll(ctx, cfgs)
	c.mu.Lock()
	c.realms = append(c.realms, realms...)
	c.mu.Unlock()
	return realms, err
}

// BaseURL is the instance URL reachable from the host, without a trailing slash.
func (c *Container) BaseURL() string {
	return c.baseURL
}

// Realms returns the descriptors of every realm provisioned so far.
func (c *Container) Realms() []*keycloakv1beta1.Realm {
	c.mu.Lock()
	defer c.mu.Unlock()
	realms := make([]*keycloakv1beta1.Realm, len(c.realms))
	copy(realms, c.realms)
	return realms
}

// Realm returns the descriptor of a provisioned realm.
func (c *Container) Realm(name string) (*keycloakv1beta1.Realm, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.realms {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// AdminUsername returns the bootstrap admin user.
func (c *Container) AdminUsername() string {
	return c.opts.adminUsername
}

// AdminPassword returns the bootstrap admin password, generated or configured.
func (c *Container) AdminPassword() string {
	return c.opts.adminPassword
}

// AdminClient returns a REST client logged in as the bootstrap admin.
func (c *Container) AdminClient() *keycloak.Client {
	return keycloak.NewClient(keycloak.Config{
		BaseURL:  c.baseURL,
		Username: c.opts.adminUsername,
		Password: c.opts.adminPassword,
	}, c.log)
}
