package provision

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// CommandsTotal counts admin CLI commands by operation and result
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keycloak_fixture_commands_total",
			Help: "Total number of admin CLI commands run in the Keycloak container",
		},
		[]string{"operation", "result"},
	)

	// CommandDuration tracks how long admin CLI commands take
	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keycloak_fixture_command_duration_seconds",
			Help:    "Duration of admin CLI commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// ProvisionTotal counts realm provisioning runs
	ProvisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keycloak_fixture_provision_total",
			Help: "Total number of realm provisioning runs",
		},
		[]string{"result"},
	)

	// ProvisionedResources tracks the resources created by the last successful run
	ProvisionedResources = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keycloak_fixture_provisioned_resources",
			Help: "Number of resources created by the last successful provisioning run",
		},
		[]string{"kind"},
	)

	// LastProvisionTime tracks the last successful provisioning run
	LastProvisionTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "keycloak_fixture_last_provision_timestamp_seconds",
			Help: "Timestamp of the last successful provisioning run",
		},
	)
)

// ResourceKinds are the resource kinds a provisioning run creates
var ResourceKinds = []string{"realm", "client", "mapper", "user"}

func init() {
	metrics.Registry.MustRegister(
		CommandsTotal,
		CommandDuration,
		ProvisionTotal,
		ProvisionedResources,
		LastProvisionTime,
	)
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordCommand records one admin CLI command.
func RecordCommand(operation string, success bool, duration time.Duration) {
	CommandsTotal.WithLabelValues(operation, resultLabel(success)).Inc()
	CommandDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordProvision records the outcome of a provisioning run.
func RecordProvision(success bool, created map[string]int) {
	ProvisionTotal.WithLabelValues(resultLabel(success)).Inc()
	if !success {
		return
	}
	ProvisionedResources.Reset()
	for _, kind := range ResourceKinds {
		ProvisionedResources.WithLabelValues(kind).Set(0)
	}
	for kind, n := range created {
		ProvisionedResources.WithLabelValues(kind).Set(float64(n))
	}
	LastProvisionTime.SetToCurrentTime()
}
