package server

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	requests      *prometheus.CounterVec
	tokensIssued  *prometheus.CounterVec
	registrations prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stub_http_requests_total",
			Help: "API requests handled, by route pattern and status code.",
		}, []string{"route", "code"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stub_tokens_issued_total",
			Help: "Access tokens issued, by grant (password or refresh).",
		}, []string{"grant"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stub_registrations_total",
			Help: "Accounts created through the register endpoint.",
		}),
	}
	reg.MustRegister(m.requests, m.tokensIssued, m.registrations)
	return m
}
