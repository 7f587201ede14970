package icp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
)

// testVector builds a closed-deal vector with zero or more contacts given
// as (title, seniority, department) triples.
func testVector(dealID string, won bool, amount float64, contacts ...[3]string) model.FeatureVector {
	outcome := model.OutcomeLost
	if won {
		outcome = model.OutcomeWon
	}
	v := model.FeatureVector{
		DealID:  dealID,
		Outcome: outcome,
		Amount:  amount,
	}
	for _, c := range contacts {
		v.Titles = append(v.Titles, c[0])
		v.Seniorities = append(v.Seniorities, c[1])
		v.Departments = append(v.Departments, c[2])
		v.BuyingRoles = append(v.BuyingRoles, "")
	}
	v.CommitteeSize = len(contacts)
	return v
}

// personaTestMatrix builds 25 won and 15 lost deals:
//   - vp__engineering on 10 won and 2 lost deals
//   - director__sales on 6 won deals only
//   - manager__it on 4 deals (below the significance minimum)
func personaTestMatrix() []model.FeatureVector {
	var vectors []model.FeatureVector

	vpEng := [3]string{"VP Engineering", "vp", "engineering"}
	dirSales := [3]string{"Director of Sales", "director", "sales"}
	mgrIT := [3]string{"IT Manager", "manager", "it"}

	for i := 0; i < 10; i++ {
		contacts := [][3]string{vpEng}
		if i < 6 {
			contacts = append(contacts, dirSales)
		}
		if i < 2 {
			contacts = append(contacts, mgrIT)
		}
		if i == 0 {
			// Duplicate persona on one deal; must count once.
			contacts = append(contacts, [3]string{"VP of Engineering", "vp", "engineering"})
		}
		vectors = append(vectors, testVector(fmt.Sprintf("won-%d", i), true, 50000, contacts...))
	}
	for i := 0; i < 2; i++ {
		contacts := [][3]string{vpEng, mgrIT}
		vectors = append(vectors, testVector(fmt.Sprintf("lost-%d", i), false, 25000, contacts...))
	}

	// Filler deals with no classified contacts.
	for i := 0; i < 15; i++ {
		vectors = append(vectors, testVector(fmt.Sprintf("won-fill-%d", i), true, 30000))
	}
	for i := 0; i < 13; i++ {
		vectors = append(vectors, testVector(fmt.Sprintf("lost-fill-%d", i), false, 30000))
	}
	return vectors
}

func TestDiscoverPersonas(t *testing.T) {
	cfg := config.DefaultDiscovery()
	patterns := DiscoverPersonas(personaTestMatrix(), cfg)

	// manager__it has 4 deals, below MinClusterDeals.
	require.Len(t, patterns, 2)
	for _, p := range patterns {
		assert.NotEqual(t, "manager__it", p.Key)
	}

	// Ranked by lift descending: director__sales has no losses, so it
	// takes the ceiling lift and sorts first.
	dirSales := patterns[0]
	assert.Equal(t, "director__sales", dirSales.Key)
	assert.Equal(t, 6, dirSales.WonDeals)
	assert.Equal(t, 0, dirSales.LostDeals)
	assert.InDelta(t, 0.24, dirSales.FreqWon, 1e-9)
	assert.Zero(t, dirSales.FreqLost)
	assert.Equal(t, cfg.LiftCeiling, dirSales.Lift)
	assert.Equal(t, 0.5, dirSales.Confidence)

	vpEng := patterns[1]
	assert.Equal(t, "vp__engineering", vpEng.Key)
	assert.Equal(t, "vp", vpEng.Seniority)
	assert.Equal(t, "engineering", vpEng.Department)
	assert.Equal(t, 10, vpEng.WonDeals)
	assert.Equal(t, 2, vpEng.LostDeals)
	assert.Equal(t, 12, vpEng.TotalDeals)

	// Frequencies are against workspace-wide won/lost totals.
	assert.InDelta(t, 0.4, vpEng.FreqWon, 1e-9)
	assert.InDelta(t, 2.0/15.0, vpEng.FreqLost, 1e-9)
	assert.InDelta(t, 3.0, vpEng.Lift, 1e-9)
	assert.Equal(t, 0.5, vpEng.Confidence)

	// Deal-size lift: 50000 won average vs 25000 lost average.
	assert.InDelta(t, 2.0, vpEng.DealSizeLift, 1e-9)

	assert.Contains(t, vpEng.TopTitles, "VP Engineering")

	// No conversation data anywhere, so the call-stats block is absent.
	assert.Nil(t, vpEng.Conversation)
	assert.Nil(t, dirSales.Conversation)
}

func TestDiscoverPersonas_Empty(t *testing.T) {
	assert.Empty(t, DiscoverPersonas(nil, config.DefaultDiscovery()))
}

func TestConfidenceTier(t *testing.T) {
	cfg := config.DefaultDiscovery()

	tests := []struct {
		n    int
		want float64
	}{
		{30, 0.9},
		{50, 0.9},
		{29, 0.7},
		{15, 0.7},
		{14, 0.5},
		{5, 0.5},
		{4, 0.3},
		{0, 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, confidenceTier(tt.n, cfg), "n=%d", tt.n)
	}
}

func TestLiftRatio(t *testing.T) {
	assert.InDelta(t, 2.0, liftRatio(0.4, 0.2, 10), 1e-9)
	assert.Equal(t, 10.0, liftRatio(0.4, 0, 10))
	assert.Zero(t, liftRatio(0, 0, 10))
}

func TestDiscoverPersonas_CallStats(t *testing.T) {
	cfg := config.DefaultDiscovery()

	var vectors []model.FeatureVector
	for i := 0; i < 6; i++ {
		v := testVector(fmt.Sprintf("deal-%d", i), i < 4, 10000, [3]string{"VP Engineering", "vp", "engineering"})
		v.HasConversationData = true
		appeared := i%2 == 0
		v.ContactCalls = []*model.ContactCallStats{{
			Appeared:      appeared,
			AvgTalkPct:    20,
			InFirstCall:   appeared,
			InClosingCall: false,
		}}
		vectors = append(vectors, v)
	}

	patterns := DiscoverPersonas(vectors, cfg)
	require.Len(t, patterns, 1)
	stats := patterns[0].Conversation
	require.NotNil(t, stats)

	assert.InDelta(t, 0.5, stats.ParticipationRate, 1e-9)
	assert.InDelta(t, 0.5, stats.FirstCallRate, 1e-9)
	assert.Zero(t, stats.ClosingCallRate)
	assert.InDelta(t, 20, stats.AvgTalkPct, 1e-9)
}

func TestTopKeys(t *testing.T) {
	counts := map[string]int{"a": 3, "b": 5, "c": 3, "d": 1}
	assert.Equal(t, []string{"b", "a", "c"}, topKeys(counts, 3))
	assert.Nil(t, topKeys(nil, 3))
}
