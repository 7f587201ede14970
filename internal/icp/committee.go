package icp

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
)

type comboKey struct {
	a, b string // a sorts before b
}

type comboAgg struct {
	won, lost int
	amountSum float64
}

// DiscoverCommittees finds pairs of significant personas that co-occur
// on deals and ranks them against the workspace baseline win rate. Only
// personas that survived persona discovery participate; pairs seen on
// fewer than cfg.MinComboCount deals are dropped and the output is
// truncated to cfg.MaxCommittees.
func DiscoverCommittees(vectors []model.FeatureVector, personas []model.PersonaPattern, cfg config.DiscoveryConfig) []model.CommitteeCombo {
	significant := make(map[string]bool, len(personas))
	for _, p := range personas {
		significant[p.Key] = true
	}

	totalWon := 0
	for _, v := range vectors {
		if v.Won() {
			totalWon++
		}
	}
	var baseline float64
	if len(vectors) > 0 {
		baseline = float64(totalWon) / float64(len(vectors))
	}

	combos := map[comboKey]*comboAgg{}
	for _, v := range vectors {
		present := presentPersonas(v, significant)
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				key := comboKey{a: present[i], b: present[j]}
				agg, ok := combos[key]
				if !ok {
					agg = &comboAgg{}
					combos[key] = agg
				}
				if v.Won() {
					agg.won++
				} else {
					agg.lost++
				}
				agg.amountSum += v.Amount
			}
		}
	}

	var out []model.CommitteeCombo
	for key, agg := range combos {
		total := agg.won + agg.lost
		if total < cfg.MinComboCount {
			continue
		}
		rate := float64(agg.won) / float64(total)
		out = append(out, model.CommitteeCombo{
			PersonaA:    key.a,
			PersonaB:    key.b,
			WonCount:    agg.won,
			LostCount:   agg.lost,
			TotalCount:  total,
			WinRate:     rate,
			AvgDealSize: agg.amountSum / float64(total),
			Lift:        liftRatio(rate, baseline, cfg.LiftCeiling),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		if out[i].TotalCount != out[j].TotalCount {
			return out[i].TotalCount > out[j].TotalCount
		}
		return out[i].PersonaA+out[i].PersonaB < out[j].PersonaA+out[j].PersonaB
	})
	if len(out) > cfg.MaxCommittees {
		out = out[:cfg.MaxCommittees]
	}

	zap.L().Debug("committee discovery complete",
		zap.Int("pairs_seen", len(combos)),
		zap.Int("kept", len(out)),
	)
	return out
}

// presentPersonas returns the sorted, deduplicated set of significant
// persona keys on a deal.
func presentPersonas(v model.FeatureVector, significant map[string]bool) []string {
	seen := map[string]bool{}
	var present []string
	for i := range v.Seniorities {
		key := PersonaKey(v.Seniorities[i], v.Departments[i])
		if significant[key] && !seen[key] {
			seen[key] = true
			present = append(present, key)
		}
	}
	sort.Strings(present)
	return present
}
