package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPairsClassified(t *testing.T) {
	before := testutil.ToFloat64(PairsClassified.WithLabelValues(OutcomeEdge))
	PairsClassified.WithLabelValues(OutcomeEdge).Inc()
	PairsClassified.WithLabelValues(OutcomeEdge).Inc()
	assert.Equal(t, before+2, testutil.ToFloat64(PairsClassified.WithLabelValues(OutcomeEdge)))
}

func TestCollectorsRegistered(t *testing.T) {
	EdgesAccepted.Add(3)
	ScoringDuration.Observe(0.002)
	assert.GreaterOrEqual(t, testutil.ToFloat64(EdgesAccepted), 3.0)
	assert.Equal(t, 1, testutil.CollectAndCount(ScoringDuration))
}
