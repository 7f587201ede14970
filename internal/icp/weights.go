package icp

import (
	"math"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
)

// MethodDescriptiveHeuristic tags every synthesized model: regression and
// point_based readiness modes are recognized by the gate but not yet
// implemented, so the synthesizer always falls back to this method.
const MethodDescriptiveHeuristic = "descriptive_heuristic"

// weightCaveat ships with every profile so consumers know what they are
// scoring with.
const weightCaveat = "Weights are descriptive heuristics derived from historical win/loss frequencies, not regression coefficients. Treat scores as directional."

// Fixed enrichment weights. Business-tuned; change only with product
// review.
const (
	championLanguageWeight   = 8
	committeeCompleteWeight  = 5
	championIdentifiedWeight = 3
	cLevelPresentWeight      = 4
	decisionMakerWeight      = 2
)

// SynthesizeWeights converts the discovered patterns into the normalized
// integer scoring model. Pure function, no I/O. Every weight lands in
// [-10, 10]. Categories with no backing data are absent, never empty.
func SynthesizeWeights(personas []model.PersonaPattern, company model.CompanyProfile, cfg config.DiscoveryConfig) model.ScoringWeights {
	w := model.ScoringWeights{
		Method: MethodDescriptiveHeuristic,
		Caveat: weightCaveat,
	}

	if len(personas) > 0 {
		w.Personas = make(map[string]int, len(personas))
		for _, p := range personas {
			w.Personas[p.Key] = clampWeight(int(math.Round(math.Min(10, p.Lift*3))))
		}
	}

	w.CustomFields = customFieldWeights(company.CustomFields)
	w.Industries = normalizedWeights(segmentRates(company.Industries))

	if company.Conversation != nil {
		w.Conversation = conversationWeights(company.Conversation)
	}
	if company.Signals != nil {
		w.Enrichment = enrichmentWeights(company.Signals)
	}

	return w
}

// customFieldWeights normalizes each field's value win rates against the
// field's own maximum. Fields whose max win rate is zero are skipped.
func customFieldWeights(fields map[string][]model.SegmentWinRate) map[string]map[string]int {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]map[string]int, len(fields))
	for field, rows := range fields {
		weights := normalizedWeights(segmentRates(rows))
		if weights != nil {
			out[field] = weights
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// conversationWeights builds the conversation weight table. Sentiment
// normalizes against the max sentiment win rate; trajectory against the
// average of the improving/declining win rates. The asymmetry is
// preserved source behavior, not an accident to unify.
func conversationWeights(bench *model.ConversationBenchmarks) map[string]int {
	out := map[string]int{}

	if len(bench.SentimentWinRates) > 0 {
		maxRate := 0.0
		for _, r := range bench.SentimentWinRates {
			maxRate = math.Max(maxRate, r)
		}
		if maxRate > 0 {
			for s, r := range bench.SentimentWinRates {
				out["sentiment_"+s] = clampWeight(int(math.Round(r / maxRate * 10)))
			}
		}
	}

	if len(bench.TrajectoryWinRates) > 0 {
		base := (bench.TrajectoryWinRates["improving"] + bench.TrajectoryWinRates["declining"]) / 2
		if base > 0 {
			for s, r := range bench.TrajectoryWinRates {
				out["trajectory_"+s] = clampWeight(int(math.Round(r / base * 10)))
			}
		}
	}

	if len(bench.CallVolumeBySize) > 0 {
		maxCalls := 0.0
		for _, row := range bench.CallVolumeBySize {
			maxCalls = math.Max(maxCalls, row.AvgCalls)
		}
		if maxCalls > 0 {
			for _, row := range bench.CallVolumeBySize {
				out["call_volume_"+row.Bucket] = clampWeight(int(math.Round(row.AvgCalls / maxCalls * 10)))
			}
		}
	}

	out["champion_language"] = championLanguageWeight

	return out
}

// enrichmentWeights builds the signal weight table. Signal lifts
// normalize against the largest of the three positive lifts and the
// absolute risk lift; the risk weight is forced negative.
func enrichmentWeights(signals *model.SignalAnalysis) map[string]int {
	out := map[string]int{
		"committee_complete":  committeeCompleteWeight,
		"champion_identified": championIdentifiedWeight,
		"c_level_present":     cLevelPresentWeight,
		"decision_maker":      decisionMakerWeight,
	}

	denom := math.Max(
		math.Max(signals.FundingLift, signals.HiringLift),
		math.Max(signals.ExpansionLift, math.Abs(signals.RiskLift)),
	)
	if denom > 0 {
		out["signal_funding"] = clampWeight(int(math.Round(signals.FundingLift / denom * 10)))
		out["signal_hiring"] = clampWeight(int(math.Round(signals.HiringLift / denom * 10)))
		out["signal_expansion"] = clampWeight(int(math.Round(signals.ExpansionLift / denom * 10)))
		out["signal_risk"] = -clampWeight(int(math.Round(math.Abs(signals.RiskLift) / denom * 10)))
	}

	return out
}

// segmentRates extracts value -> win rate from a segment table.
func segmentRates(rows []model.SegmentWinRate) map[string]float64 {
	if len(rows) == 0 {
		return nil
	}
	rates := make(map[string]float64, len(rows))
	for _, r := range rows {
		rates[r.Value] = r.WinRate
	}
	return rates
}

// normalizedWeights scales each rate against the set's maximum into a
// 0..10 integer. A zero max disqualifies the whole set.
func normalizedWeights(rates map[string]float64) map[string]int {
	if len(rates) == 0 {
		return nil
	}
	maxRate := 0.0
	for _, r := range rates {
		maxRate = math.Max(maxRate, r)
	}
	if maxRate == 0 {
		return nil
	}
	out := make(map[string]int, len(rates))
	for k, r := range rates {
		out[k] = clampWeight(int(math.Round(r / maxRate * 10)))
	}
	return out
}

func clampWeight(w int) int {
	if w > 10 {
		return 10
	}
	if w < -10 {
		return -10
	}
	return w
}
