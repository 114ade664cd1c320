package apierr

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts translated responses by envelope code and HTTP status.
type Metrics struct {
	responses *prometheus.CounterVec
}

// NewMetrics creates the apierr_responses_total counter and registers it
// with reg. A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apierr_responses_total",
			Help: "Envelopes written, partitioned by taxonomy code and HTTP status.",
		}, []string{"code", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.responses)
	}
	return m
}

// Collector exposes the underlying counter, e.g. for testutil.
func (m *Metrics) Collector() *prometheus.CounterVec { return m.responses }

func (m *Metrics) observe(env Envelope, status int) {
	m.responses.WithLabelValues(strconv.Itoa(int(env.Code)), strconv.Itoa(status)).Inc()
}
