package fetch

import (
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus counters for lookup attempts.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts *prometheus.CounterVec // Attempts by family and result
	retries  *prometheus.CounterVec // Delays taken before another attempt
}

// NewMetrics creates and registers fetch metrics. A nil registerer disables them.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mods_enricher",
			Subsystem: "fetch",
			Name:      "attempts_total",
			Help:      "Lookup attempts by endpoint family and result",
		}, []string{"family", "result"}),

		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mods_enricher",
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Retry delays taken by endpoint family",
		}, []string{"family"}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.retries} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register fetch metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeAttempt(family Family, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "transient"
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			result = "terminal"
		}
	}
	m.attempts.WithLabelValues(string(family), result).Inc()
}

func (m *Metrics) observeRetry(family Family) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(string(family)).Inc()
}
