package icp

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
)

// liftRatio is the shared lift formula: num/den when den is positive,
// otherwise the configured ceiling when num is positive, else zero. The
// ceiling stands in for "infinite lift" and must stay stable across
// releases for score parity.
func liftRatio(num, den, ceiling float64) float64 {
	if den > 0 {
		return num / den
	}
	if num > 0 {
		return ceiling
	}
	return 0
}

type clusterDeal struct {
	won       bool
	amount    float64
	hasConv   bool
	appeared  bool
	inFirst   bool
	inClosing bool
}

type personaCluster struct {
	seniority   string
	department  string
	deals       map[string]*clusterDeal
	titleCounts map[string]int
	roleCounts  map[string]int
	talkSum     float64
	talkN       int
}

// DiscoverPersonas clusters contacts by (seniority, department) across
// the feature matrix and ranks the clusters by win/loss lift. Clusters
// with fewer than cfg.MinClusterDeals associated deals are dropped.
func DiscoverPersonas(vectors []model.FeatureVector, cfg config.DiscoveryConfig) []model.PersonaPattern {
	clusters := map[string]*personaCluster{}
	totalWon, totalLost := 0, 0
	hasConvData := false

	for _, v := range vectors {
		if v.Won() {
			totalWon++
		} else {
			totalLost++
		}
		if v.HasConversationData {
			hasConvData = true
		}

		for i := range v.Seniorities {
			key := PersonaKey(v.Seniorities[i], v.Departments[i])
			c, ok := clusters[key]
			if !ok {
				c = &personaCluster{
					seniority:   v.Seniorities[i],
					department:  v.Departments[i],
					deals:       map[string]*clusterDeal{},
					titleCounts: map[string]int{},
					roleCounts:  map[string]int{},
				}
				clusters[key] = c
			}

			cd, ok := c.deals[v.DealID]
			if !ok {
				cd = &clusterDeal{won: v.Won(), amount: v.Amount, hasConv: v.HasConversationData}
				c.deals[v.DealID] = cd
			}

			if v.Titles[i] != "" {
				c.titleCounts[v.Titles[i]]++
			}
			if v.BuyingRoles[i] != "" {
				c.roleCounts[v.BuyingRoles[i]]++
			}

			if v.ContactCalls != nil && i < len(v.ContactCalls) && v.ContactCalls[i] != nil {
				cs := v.ContactCalls[i]
				if cs.Appeared {
					cd.appeared = true
					c.talkSum += cs.AvgTalkPct
					c.talkN++
				}
				cd.inFirst = cd.inFirst || cs.InFirstCall
				cd.inClosing = cd.inClosing || cs.InClosingCall
			}
		}
	}

	var patterns []model.PersonaPattern
	for key, c := range clusters {
		p := buildPattern(key, c, totalWon, totalLost, hasConvData, cfg)
		if p.TotalDeals < cfg.MinClusterDeals {
			continue
		}
		patterns = append(patterns, p)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Lift != patterns[j].Lift {
			return patterns[i].Lift > patterns[j].Lift
		}
		return patterns[i].Key < patterns[j].Key
	})

	zap.L().Debug("persona discovery complete",
		zap.Int("clusters", len(clusters)),
		zap.Int("significant", len(patterns)),
	)
	return patterns
}

func buildPattern(key string, c *personaCluster, totalWon, totalLost int, hasConvData bool, cfg config.DiscoveryConfig) model.PersonaPattern {
	var won, lost int
	var wonAmount, lostAmount float64
	for _, cd := range c.deals {
		if cd.won {
			won++
			wonAmount += cd.amount
		} else {
			lost++
			lostAmount += cd.amount
		}
	}

	p := model.PersonaPattern{
		Key:        key,
		Seniority:  c.seniority,
		Department: c.department,
		WonDeals:   won,
		LostDeals:  lost,
		TotalDeals: won + lost,
		TopTitles:  topKeys(c.titleCounts, 3),
		TopRoles:   topKeys(c.roleCounts, 3),
	}

	// Frequencies are against workspace-wide totals, not cluster-local.
	if totalWon > 0 {
		p.FreqWon = float64(won) / float64(totalWon)
	}
	if totalLost > 0 {
		p.FreqLost = float64(lost) / float64(totalLost)
	}
	p.Lift = liftRatio(p.FreqWon, p.FreqLost, cfg.LiftCeiling)
	p.Confidence = confidenceTier(p.TotalDeals, cfg)

	var avgWon, avgLost float64
	if won > 0 {
		avgWon = wonAmount / float64(won)
	}
	if lost > 0 {
		avgLost = lostAmount / float64(lost)
	}
	p.DealSizeLift = liftRatio(avgWon, avgLost, cfg.LiftCeiling)

	if hasConvData {
		p.Conversation = callStats(c, cfg)
	}
	return p
}

// confidenceTier maps a cluster's deal count to a confidence score.
func confidenceTier(n int, cfg config.DiscoveryConfig) float64 {
	switch {
	case n >= cfg.ConfidenceHighN:
		return 0.9
	case n >= cfg.ConfidenceMedN:
		return 0.7
	case n >= cfg.ConfidenceLowN:
		return 0.5
	default:
		return 0.3
	}
}

// callStats computes the persona's conversation-participation metrics.
// Rates are over the cluster's deals that carry conversation data.
func callStats(c *personaCluster, cfg config.DiscoveryConfig) *model.PersonaCallStats {
	var convDeals, appeared, inFirst, inClosing int
	var firstWon, firstTotal, notFirstWon, notFirstTotal int
	var closeWon, closeTotal, notCloseWon, notCloseTotal int

	for _, cd := range c.deals {
		if !cd.hasConv {
			continue
		}
		convDeals++
		if cd.appeared {
			appeared++
		}
		if cd.inFirst {
			inFirst++
			firstTotal++
			if cd.won {
				firstWon++
			}
		} else {
			notFirstTotal++
			if cd.won {
				notFirstWon++
			}
		}
		if cd.inClosing {
			inClosing++
			closeTotal++
			if cd.won {
				closeWon++
			}
		} else {
			notCloseTotal++
			if cd.won {
				notCloseWon++
			}
		}
	}
	if convDeals == 0 {
		return nil
	}

	stats := &model.PersonaCallStats{
		ParticipationRate: float64(appeared) / float64(convDeals),
		FirstCallRate:     float64(inFirst) / float64(convDeals),
		ClosingCallRate:   float64(inClosing) / float64(convDeals),
	}
	if c.talkN > 0 {
		stats.AvgTalkPct = c.talkSum / float64(c.talkN)
	}

	stats.FirstCallLift = liftRatio(winRate(firstWon, firstTotal), winRate(notFirstWon, notFirstTotal), cfg.LiftCeiling)
	stats.ClosingCallLift = liftRatio(winRate(closeWon, closeTotal), winRate(notCloseWon, notCloseTotal), cfg.LiftCeiling)
	return stats
}

func winRate(won, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(won) / float64(total)
}

// topKeys returns the n highest-count keys, ties broken alphabetically.
func topKeys(counts map[string]int, n int) []string {
	if len(counts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
