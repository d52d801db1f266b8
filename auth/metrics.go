package auth

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"

	// Renew only.
	resultNoRefresh = "no_refresh"
	resultDiscarded = "discarded"
)

// metrics is a no-op when no registerer was given.
type metrics struct {
	renewTotal     *prometheus.CounterVec
	bootstrapTotal *prometheus.CounterVec
	loginTotal     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &metrics{
		renewTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_renew_total",
			Help: "Credential renews by result. no_refresh ends the session without calling the backend; discarded means the session changed while the backend call was outstanding.",
		}, []string{"result"}),
		bootstrapTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_bootstrap_total",
			Help: "Session bootstraps by outcome.",
		}, []string{"outcome"}),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_login_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.renewTotal, m.bootstrapTotal, m.loginTotal} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register session metrics")
		}
	}
	return m, nil
}

func (m *metrics) renew(result string) {
	if m == nil {
		return
	}
	m.renewTotal.WithLabelValues(result).Inc()
}

func (m *metrics) bootstrap(outcome string) {
	if m == nil {
		return
	}
	m.bootstrapTotal.WithLabelValues(outcome).Inc()
}

func (m *metrics) login(result string) {
	if m == nil {
		return
	}
	m.loginTotal.WithLabelValues(result).Inc()
}
