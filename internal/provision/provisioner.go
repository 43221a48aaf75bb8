// Package provision drives the admin CLI through the ordered steps that turn
// a realm configuration into a configured realm.
package provision

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/kcadm"
)

// Executor runs a command inside the Keycloak container. A non-zero exit code
// is reported through the result; an error means the command could not be run.
type Executor interface {
	Exec(ctx context.Context, cmd []string) (kcadm.Result, error)
}

// ExecutorFunc adapts a function to Executor
type ExecutorFunc func(ctx context.Context, cmd []string) (kcadm.Result, error)

func (f ExecutorFunc) Exec(ctx context.Context, cmd []string) (kcadm.Result, error) {
	return f(ctx, cmd)
}

// Options configures a Provisioner
type Options struct {
	AdminUsername string
	AdminPassword string

	// BaseURL is the instance URL reachable from the caller, used for the realm descriptor
	BaseURL string

	// Session overrides the admin CLI defaults
	Session *kcadm.Session

	// FailOnExistingRealm issues a plain realm create that fails when the
	// realm already exists. By default the create is skipped for an existing realm.
	FailOnExistingRealm bool

	// DisableMetrics stops runs from recording to the metrics registry
	DisableMetrics bool

	// IsolateSessions gives every run its own kcadm config file so that
	// runs against the same instance may overlap
	IsolateSessions bool

	// SessionDir holds isolated config files, defaults to /tmp
	SessionDir string
}

// Provisioner provisions realms through an Executor. It holds no per-run
// state and is safe for concurrent use when IsolateSessions is set.
type Provisioner struct {
	exec Executor
	opts Options
	log  logr.Logger
}

// NewProvisioner creates a new provisioner
func NewProvisioner(exec Executor, opts Options, log logr.Logger) *Provisioner {
	if opts.SessionDir == "" {
		opts.SessionDir = "/tmp"
	}
	return &Provisioner{
		exec: exec,
		opts: opts,
		log:  log.WithName("provisioner"),
	}
}

// ProvisionAll provisions the realms in order and stops at the first failure.
// Descriptors of realms provisioned before the failure are returned.
func (p *Provisioner) ProvisionAll(ctx context.Context, configs []keycloakv1beta1.RealmConfiguration) ([]*keycloakv1beta1.Realm, error) {
	realms := make([]*keycloakv1beta1.Realm, 0, len(configs))
	for _, cfg := range configs {
		realm, err := p.Provision(ctx, cfg)
		if err != nil {
			return realms, err
		}
		realms = append(realms, realm)
	}
	return realms, nil
}

// Provision creates the configured realm with its clients, mappers and users.
// The first failing step aborts the run; nothing is rolled back.
func (p *Provisioner) Provision(ctx context.Context, cfg keycloakv1beta1.RealmConfiguration) (*keycloakv1beta1.Realm, error) {
	if err := cfg.Validate(); err != nil {
		p.recordProvision(false, nil)
		return nil, err
	}

	r := &run{
		p:       p,
		session: p.session(),
		realm:   cfg.Name,
		state:   NotStarted,
		created: map[string]int{},
		log:     p.log.WithValues("realm", cfg.Name),
	}

	start := time.Now()
	err := r.provision(ctx, cfg)
	p.recordProvision(err == nil, r.created)
	if err != nil {
		r.log.Error(err, "realm provisioning failed", "state", r.state.String())
		return nil, err
	}

	r.log.Info("realm provisioned", "clients", len(cfg.Clients), "users", len(cfg.Users), "duration", time.Since(start))
	return keycloakv1beta1.NewRealm(cfg.Name, p.opts.BaseURL), nil
}

func (p *Provisioner) recordProvision(success bool, created map[string]int) {
	if p.opts.DisableMetrics {
		return
	}
	RecordProvision(success, created)
}

func (p *Provisioner) session() kcadm.Session {
	s := kcadm.NewSession()
	if p.opts.Session != nil {
		s = *p.opts.Session
	}
	if p.opts.IsolateSessions {
		s = s.WithConfigPath(path.Join(p.opts.SessionDir, fmt.Sprintf("kcadm-%s.config", uuid.NewString())))
	}
	return s
}

// run is the working state of one provisioning run
type run struct {
	p       *Provisioner
	session kcadm.Session
	realm   string
	state   State
	created map[string]int
	log     logr.Logger
}

func (r *run) provision(ctx context.Context, cfg keycloakv1beta1.RealmConfiguration) error {
	s := r.session

	if _, err := r.step(ctx, "login", s.Login(r.p.opts.AdminUsername, r.p.opts.AdminPassword)); err != nil {
		return err
	}
	r.transition(LoggedIn)

	createRealm := s.CreateRealmIfAbsent(cfg.Name)
	if r.p.opts.FailOnExistingRealm {
		createRealm = s.CreateRealm(cfg.Name)
	}
	if _, err := r.step(ctx, "create realm", createRealm); err != nil {
		return err
	}
	r.transition(RealmCreated)
	r.created["realm"]++

	for _, client := range cfg.Clients {
		if err := r.provisionClient(ctx, client); err != nil {
			return err
		}
	}

	for _, user := range cfg.Users {
		if _, err := r.step(ctx, fmt.Sprintf("create user %q", user.Username), s.CreateUser(cfg.Name, user)); err != nil {
			return err
		}
		r.transition(UserCreated)
		r.created["user"]++

		if _, err := r.step(ctx, fmt.Sprintf("set password of user %q", user.Username), s.SetPassword(cfg.Name, user.Username, user.Password)); err != nil {
			return err
		}
		r.transition(PasswordSet)
	}

	r.transition(Done)
	return nil
}

func (r *run) provisionClient(ctx context.Context, client keycloakv1beta1.Client) error {
	s := r.session
	step := fmt.Sprintf("create client %q", client.Name)

	res, err := r.step(ctx, step, s.CreateClient(r.realm, client))
	if err != nil {
		return err
	}
	id, err := res.CreatedID()
	if err != nil {
		return r.fail(step, err)
	}
	r.transition(ClientCreated)
	r.created["client"]++
	r.log.V(1).Info("client created", "client", client.Name, "id", id)

	for _, mapper := range client.Mappers {
		step := fmt.Sprintf("create mapper %q of client %q", mapper.Name, client.Name)
		if _, err := r.step(ctx, step, s.CreateProtocolMapper(r.realm, client.Name, id, mapper)); err != nil {
			return err
		}
		r.transition(MapperCreated)
		r.created["mapper"]++
	}

	if client.PatchesServiceAccount() {
		step := fmt.Sprintf("get service account user of client %q", client.Name)
		res, err := r.step(ctx, step, s.GetServiceAccountUser(r.realm, id))
		if err != nil {
			return err
		}
		userID, err := res.JSONField("id")
		if err != nil {
			return r.fail(step, err)
		}

		step = fmt.Sprintf("update service account user of client %q", client.Name)
		if _, err := r.step(ctx, step, s.UpdateUser(r.realm, userID, client.ServiceAccountUser.Profile)); err != nil {
			return err
		}
		r.transition(ServiceAccountPatched)
	}

	if _, err := r.step(ctx, fmt.Sprintf("get client %q", client.Name), s.GetClient(r.realm, id)); err != nil {
		return err
	}
	r.transition(ClientSettled)
	return nil
}

// step runs one command and interprets its exit code. Cancellation is
// checked before the command is issued; an issued command is never undone.
func (r *run) step(ctx context.Context, step string, cmd []string) (kcadm.Result, error) {
	if err := ctx.Err(); err != nil {
		return kcadm.Result{}, r.fail(step, err)
	}

	operation := kcadm.Operation(cmd)
	log := r.log.WithValues("step", step)
	log.V(1).Info("running command", "command", kcadm.Redact(cmd))

	start := time.Now()
	res, err := r.p.exec.Exec(ctx, cmd)
	if err == nil {
		err = res.Err()
	}
	if !r.p.opts.DisableMetrics {
		RecordCommand(operation, err == nil, time.Since(start))
	}

	log.V(1).Info("command finished", "exitCode", res.ExitCode, "stdout", kcadm.RedactOutput(res.Stdout), "stderr", res.Stderr)
	if err != nil {
		return res, r.fail(step, err)
	}
	return res, nil
}

func (r *run) transition(next State) {
	r.log.V(2).Info("state transition", "from", r.state.String(), "to", next.String())
	r.state = next
}

func (r *run) fail(step string, err error) error {
	stepErr := &StepError{Realm: r.realm, Step: step, State: r.state, Err: err}
	r.state = Failed
	return stepErr
}
