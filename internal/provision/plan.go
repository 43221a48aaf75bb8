package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
	"github.com/Hostzero-GmbH/keycloak-testcontainer/internal/kcadm"
)

// Plan returns the commands a provisioning run would issue, with
// placeholders for ids that only exist once the commands have run.
func Plan(ctx context.Context, opts Options, configs []keycloakv1beta1.RealmConfiguration) ([][]string, error) {
	rec := &recorder{}
	opts.DisableMetrics = true
	p := NewProvisioner(rec, opts, logr.Discard())
	if _, err := p.ProvisionAll(ctx, configs); err != nil {
		return nil, err
	}
	return rec.commands, nil
}

// recorder answers every command with a synthetic success
type recorder struct {
	commands [][]string
}

func (r *recorder) Exec(_ context.Context, cmd []string) (kcadm.Result, error) {
	r.commands = append(r.commands, cmd)

	switch op := kcadm.Operation(cmd); op {
	case "create clients":
		return kcadm.Result{Stderr: fmt.Sprintf("Created new client with id '<%s-id>'\n", tokenValue(cmd, "clientId="))}, nil
	case "get clients/{id}/service-account-user":
		client := strings.TrimSuffix(strings.TrimPrefix(strings.Split(cmd[2], "/")[1], "<"), "-id>")
		return kcadm.Result{Stdout: fmt.Sprintf(`{"id": "<service-account-%s-id>"}`, client)}, nil
	}
	return kcadm.Result{}, nil
}

func tokenValue(cmd []string, prefix string) string {
	for _, t := range cmd {
		if strings.HasPrefix(t, prefix) {
			return strings.TrimPrefix(t, prefix)
		}
	}
	return ""
}
