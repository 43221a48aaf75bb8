package provision

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/Hostzero-GmbH/keycloak-testcontainer/pkg/fixture"
)

var errNotStarted = errors.New("keycloak container not started")

// status is what the side server reports while the fixture runs
type status struct {
	container atomic.Pointer[fixture.Container]
}

func (s *status) keycloakCheck(req *http.Request) error {
	c := s.container.Load()
	if c == nil {
		return errNotStarted
	}
	return c.AdminClient().Ping(req.Context())
}

func (s *status) realms(w http.ResponseWriter, _ *http.Request) {
	c := s.container.Load()
	if c == nil {
		http.Error(w, errNotStarted.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c.Realms())
}

// newRouter serves provisioning metrics, a Keycloak health check and the
// descriptors of the provisioned realms.
func newRouter(s *status) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Mount("/healthz", http.StripPrefix("/healthz", &healthz.Handler{
		Checks: map[string]healthz.Checker{
			"keycloak": s.keycloakCheck,
		},
	}))
	r.Get("/realms", s.realms)

	return r
}
