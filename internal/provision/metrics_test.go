package provision

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCommand(t *testing.T) {
	CommandsTotal.Reset()
	CommandDuration.Reset()

	RecordCommand("create clients", true, 200*time.Millisecond)
	RecordCommand("create clients", false, time.Second)
	RecordCommand("create clients", true, 100*time.Millisecond)

	if got := testutil.ToFloat64(CommandsTotal.WithLabelValues("create clients", "success")); got != 2 {
		t.Errorf("expected success count=2, got %v", got)
	}
	if got := testutil.ToFloat64(CommandsTotal.WithLabelValues("create clients", "error")); got != 1 {
		t.Errorf("expected error count=1, got %v", got)
	}
	if count := testutil.CollectAndCount(CommandDuration); count != 1 {
		t.Errorf("expected one duration series, got %d", count)
	}
}

func TestRecordProvision(t *testing.T) {
	ProvisionTotal.Reset()
	ProvisionedResources.Reset()
	LastProvisionTime.Set(0)

	RecordProvision(false, map[string]int{"client": 3})
	if got := testutil.ToFloat64(ProvisionTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("expected error count=1, got %v", got)
	}
	if count := testutil.CollectAndCount(ProvisionedResources); count != 0 {
		t.Errorf("expected no resource gauges after a failure, got %d", count)
	}
	if got := testutil.ToFloat64(LastProvisionTime); got != 0 {
		t.Error("expected last provision time to NOT be set on failure")
	}

	RecordProvision(true, map[string]int{"client": 2, "user": 1})
	if got := testutil.ToFloat64(ProvisionedResources.WithLabelValues("client")); got != 2 {
		t.Errorf("expected client gauge=2, got %v", got)
	}
	if got := testutil.ToFloat64(LastProvisionTime); got == 0 {
		t.Error("expected last provision time to be set")
	}

	// kinds missing from a later run drop to zero
	RecordProvision(true, map[string]int{"realm": 1})
	if got := testutil.ToFloat64(ProvisionedResources.WithLabelValues("user")); got != 0 {
		t.Errorf("expected user gauge=0, got %v", got)
	}
	if got := testutil.ToFloat64(ProvisionedResources.WithLabelValues("realm")); got != 1 {
		t.Errorf("expected realm gauge=1, got %v", got)
	}
	if count := testutil.CollectAndCount(ProvisionedResources); count != len(ResourceKinds) {
		t.Errorf("expected %d resource gauges, got %d", len(ResourceKinds), count)
	}
}

func TestProvisionRecordsMetrics(t *testing.T) {
	CommandsTotal.Reset()
	ProvisionTotal.Reset()
	ProvisionedResources.Reset()

	_, err := NewProvisioner(&fakeExecutor{}, testOptions(), logr.Discard()).Provision(context.Background(), demoConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `
		# HELP keycloak_fixture_provisioned_resources Number of resources created by the last successful provisioning run
		# TYPE keycloak_fixture_provisioned_resources gauge
		keycloak_fixture_provisioned_resources{kind="client"} 1
		keycloak_fixture_provisioned_resources{kind="mapper"} 1
		keycloak_fixture_provisioned_resources{kind="realm"} 1
		keycloak_fixture_provisioned_resources{kind="user"} 1
	`
	if err := testutil.CollectAndCompare(ProvisionedResources, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected resource gauges: %v", err)
	}
	if got := testutil.ToFloat64(CommandsTotal.WithLabelValues("set-password", "success")); got != 1 {
		t.Errorf("expected one set-password command, got %v", got)
	}
	if got := testutil.ToFloat64(ProvisionTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("expected one successful run, got %v", got)
	}
}
