package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()
	a := New(regA)
	b := New(regB)

	a.IncPetsCreated()
	a.IncPetsCreated()
	b.IncPetsCreated()
	a.IncBreedLookup("dog", "miss")

	assert.Equal(t, 2.0, counterValue(t, regA, "petrecords_pets_created_total"))
	assert.Equal(t, 1.0, counterValue(t, regB, "petrecords_pets_created_total"))
	assert.Equal(t, 1.0, counterValue(t, regA, "petrecords_breed_lookups_total"))
	assert.Equal(t, 0.0, counterValue(t, regB, "petrecords_breed_lookups_total"))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncPetsDeleted()
		m.IncValidationFailure("pet")
		m.IncNotifications("reminder")
	})
}
