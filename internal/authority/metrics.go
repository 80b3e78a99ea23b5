package authority

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts resolutions by domain, tier and outcome.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	resolutions *prometheus.CounterVec
}

// NewMetrics creates and registers resolver metrics. A nil registerer disables them.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mods_enricher",
			Name:      "resolutions_total",
			Help:      "Term resolutions by vocabulary domain, tier and outcome",
		}, []string{"domain", "method", "outcome"}),
	}
	if err := reg.Register(m.resolutions); err != nil {
		return nil, fmt.Errorf("failed to register resolver metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) observe(domain string, r Result) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(domain, string(r.Method), r.Outcome()).Inc()
}
