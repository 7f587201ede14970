package icp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
)

func committeeTestMatrix() []model.FeatureVector {
	cf := [3]string{"CFO", "c_level", "finance"}
	ds := [3]string{"Director of Sales", "director", "sales"}
	ve := [3]string{"VP Engineering", "vp", "engineering"}

	var vectors []model.FeatureVector
	for i := 0; i < 5; i++ {
		vectors = append(vectors, testVector(fmt.Sprintf("dsve-w-%d", i), true, 10000, ds, ve))
	}
	for i := 0; i < 2; i++ {
		vectors = append(vectors, testVector(fmt.Sprintf("dsve-l-%d", i), false, 10000, ds, ve))
	}
	for i := 0; i < 5; i++ {
		vectors = append(vectors, testVector(fmt.Sprintf("cfve-w-%d", i), true, 10000, cf, ve))
	}
	// Below MinComboCount, dropped.
	for i := 0; i < 3; i++ {
		vectors = append(vectors, testVector(fmt.Sprintf("cfds-l-%d", i), false, 10000, cf, ds))
	}
	return vectors
}

func committeeTestPersonas() []model.PersonaPattern {
	return []model.PersonaPattern{
		{Key: "c_level__finance"},
		{Key: "director__sales"},
		{Key: "vp__engineering"},
	}
}

func TestDiscoverCommittees(t *testing.T) {
	cfg := config.DefaultDiscovery()
	combos := DiscoverCommittees(committeeTestMatrix(), committeeTestPersonas(), cfg)

	require.Len(t, combos, 2)

	// Highest win rate first.
	first := combos[0]
	assert.Equal(t, "c_level__finance", first.PersonaA)
	assert.Equal(t, "vp__engineering", first.PersonaB)
	assert.Equal(t, 5, first.WonCount)
	assert.Equal(t, 0, first.LostCount)
	assert.InDelta(t, 1.0, first.WinRate, 1e-9)
	assert.InDelta(t, 10000, first.AvgDealSize, 1e-9)
	// Baseline is 10/15 won.
	assert.InDelta(t, 1.5, first.Lift, 1e-9)

	second := combos[1]
	assert.Equal(t, "director__sales", second.PersonaA)
	assert.Equal(t, "vp__engineering", second.PersonaB)
	assert.Equal(t, 7, second.TotalCount)
	assert.InDelta(t, 5.0/7.0, second.WinRate, 1e-9)
}

func TestDiscoverCommittees_OnlySignificantPersonas(t *testing.T) {
	cfg := config.DefaultDiscovery()

	// vp__engineering did not survive persona discovery; no pair can
	// form around it.
	personas := []model.PersonaPattern{
		{Key: "c_level__finance"},
		{Key: "director__sales"},
	}
	combos := DiscoverCommittees(committeeTestMatrix(), personas, cfg)
	assert.Empty(t, combos)
}

func TestDiscoverCommittees_Truncation(t *testing.T) {
	cfg := config.DefaultDiscovery()
	cfg.MaxCommittees = 1

	combos := DiscoverCommittees(committeeTestMatrix(), committeeTestPersonas(), cfg)
	require.Len(t, combos, 1)
	assert.Equal(t, "c_level__finance", combos[0].PersonaA)
}

func TestDiscoverCommittees_DuplicatePersonaOnDeal(t *testing.T) {
	cfg := config.DefaultDiscovery()
	cfg.MinComboCount = 1

	// Two contacts resolving to the same persona cannot pair with
	// themselves.
	v := testVector("d1", true, 10000,
		[3]string{"VP Engineering", "vp", "engineering"},
		[3]string{"VP of Engineering", "vp", "engineering"},
		[3]string{"CFO", "c_level", "finance"},
	)
	combos := DiscoverCommittees([]model.FeatureVector{v}, committeeTestPersonas(), cfg)
	require.Len(t, combos, 1)
	assert.Equal(t, "c_level__finance", combos[0].PersonaA)
	assert.Equal(t, "vp__engineering", combos[0].PersonaB)
	assert.Equal(t, 1, combos[0].TotalCount)
}
