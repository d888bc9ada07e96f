package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.QuestionsTotal.WithLabelValues("exact").Inc()
	m.QuestionsTotal.WithLabelValues("exact").Inc()
	m.OrderLookupsTotal.WithLabelValues("not_configured").Inc()
	m.MatchScore.Observe(100)

	assert.InDelta(t, 2, counterValue(t, reg, "chatbot_questions_total", "source", "exact"), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "chatbot_order_lookups_total", "result", "not_configured"), 0)
	assert.InDelta(t, 0, counterValue(t, reg, "chatbot_questions_total", "source", "fuzzy"), 0)
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
