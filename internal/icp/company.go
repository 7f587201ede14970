package icp

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
)

// sizeBuckets are the fixed employee-count buckets, smallest first.
var sizeBuckets = []struct {
	label string
	min   int
	max   int // inclusive; 0 = unbounded
}{
	{"1-50", 1, 50},
	{"51-200", 51, 200},
	{"201-1000", 201, 1000},
	{"1001-5000", 1001, 5000},
	{"5000+", 5001, 0},
}

// sentimentScores maps sentiment labels onto a numeric scale for
// industry content averaging.
var sentimentScores = map[string]float64{
	"positive": 1,
	"neutral":  0,
	"negative": -1,
}

// AnalyzeCompany computes the firmographic side of the ICP: industry,
// size-bucket, custom-field, and lead-source win-rate tables plus sweet
// spots, and the optional conversation/signal benchmark blocks. It has
// no dependency on persona discovery.
func AnalyzeCompany(vectors []model.FeatureVector, fields []model.CustomFieldDiscovery, funnel []model.LeadSourceCounts, cfg config.DiscoveryConfig) model.CompanyProfile {
	profile := model.CompanyProfile{}

	totalWon := 0
	hasConv, hasSignal := false, false
	for _, v := range vectors {
		if v.Won() {
			totalWon++
		}
		hasConv = hasConv || v.HasConversationData
		hasSignal = hasSignal || v.HasSignalData
	}
	if len(vectors) > 0 {
		profile.BaselineWinRate = float64(totalWon) / float64(len(vectors))
	}

	profile.Industries = segmentTable(vectors, cfg.MinGroupSize, func(v model.FeatureVector) string {
		return v.Industry
	})
	profile.SizeBuckets = segmentTable(vectors, cfg.MinGroupSize, func(v model.FeatureVector) string {
		return SizeBucket(v.EmployeeCount)
	})
	profile.CustomFields = customFieldTables(vectors, fields, cfg)
	profile.LeadSources = leadSourceFunnels(vectors, funnel, cfg)
	profile.SweetSpots = sweetSpots(profile, cfg)

	if hasConv {
		profile.Conversation = conversationBenchmarks(vectors, cfg)
	}
	if hasSignal {
		profile.Signals = signalAnalysis(vectors, cfg)
	}

	zap.L().Debug("company pattern analysis complete",
		zap.Int("industries", len(profile.Industries)),
		zap.Int("sweet_spots", len(profile.SweetSpots)),
		zap.Bool("conversation", profile.Conversation != nil),
		zap.Bool("signals", profile.Signals != nil),
	)
	return profile
}

// SizeBucket maps an employee count to its fixed bucket label, or ""
// when the count is unknown.
func SizeBucket(employees int) string {
	if employees <= 0 {
		return ""
	}
	for _, b := range sizeBuckets {
		if employees >= b.min && (b.max == 0 || employees <= b.max) {
			return b.label
		}
	}
	return ""
}

type segmentAgg struct {
	deals, won int
	wonAmount  float64
}

// segmentTable groups vectors by keyFn and emits win-rate rows for
// groups meeting the minimum size. Rows sort by deal count descending.
func segmentTable(vectors []model.FeatureVector, minGroup int, keyFn func(model.FeatureVector) string) []model.SegmentWinRate {
	groups := map[string]*segmentAgg{}
	for _, v := range vectors {
		key := keyFn(v)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &segmentAgg{}
			groups[key] = g
		}
		g.deals++
		if v.Won() {
			g.won++
			g.wonAmount += v.Amount
		}
	}

	var rows []model.SegmentWinRate
	for key, g := range groups {
		if g.deals < minGroup {
			continue
		}
		row := model.SegmentWinRate{
			Value:     key,
			DealCount: g.deals,
			WonCount:  g.won,
			WinRate:   float64(g.won) / float64(g.deals),
		}
		if g.won > 0 {
			row.AvgWonAmount = g.wonAmount / float64(g.won)
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DealCount != rows[j].DealCount {
			return rows[i].DealCount > rows[j].DealCount
		}
		return rows[i].Value < rows[j].Value
	})
	return rows
}

// customFieldTables builds per-value win rates for every discovered
// field whose relevance score clears the threshold.
func customFieldTables(vectors []model.FeatureVector, fields []model.CustomFieldDiscovery, cfg config.DiscoveryConfig) map[string][]model.SegmentWinRate {
	out := map[string][]model.SegmentWinRate{}
	for _, f := range fields {
		if f.RelevanceScore < cfg.MinRelevance {
			continue
		}
		fromAccount := f.EntityType == "account"
		rows := segmentTable(vectors, cfg.MinGroupSize, func(v model.FeatureVector) string {
			if fromAccount {
				return v.AccountFields[f.FieldKey]
			}
			return v.DealFields[f.FieldKey]
		})
		if len(rows) > 0 {
			out[f.FieldKey] = rows
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// leadSourceFunnels joins the top-of-funnel lead counts with won-deal
// counts from the matrix. Sources below the lead minimum are dropped.
func leadSourceFunnels(vectors []model.FeatureVector, funnel []model.LeadSourceCounts, cfg config.DiscoveryConfig) []model.LeadSourceFunnel {
	type dealAgg struct{ closed, won int }
	bySource := map[string]*dealAgg{}
	for _, v := range vectors {
		if v.LeadSource == "" {
			continue
		}
		a, ok := bySource[v.LeadSource]
		if !ok {
			a = &dealAgg{}
			bySource[v.LeadSource] = a
		}
		a.closed++
		if v.Won() {
			a.won++
		}
	}

	var out []model.LeadSourceFunnel
	for _, f := range funnel {
		if f.Leads < cfg.MinLeadsPerSrc {
			continue
		}
		row := model.LeadSourceFunnel{
			Source:    f.Source,
			Leads:     f.Leads,
			Converted: f.Converted,
		}
		row.ConversionRate = float64(f.Converted) / float64(f.Leads)
		if a, ok := bySource[f.Source]; ok && a.closed > 0 {
			row.Won = a.won
			row.WinRate = float64(a.won) / float64(a.closed)
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Leads != out[j].Leads {
			return out[i].Leads > out[j].Leads
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// sweetSpots collects industry and custom-field segments whose win rate
// beats baseline by the configured multiplier with enough deals behind
// them, ranked by lift descending.
func sweetSpots(profile model.CompanyProfile, cfg config.DiscoveryConfig) []model.SweetSpot {
	baseline := profile.BaselineWinRate
	threshold := baseline * cfg.SweetSpotMult

	var spots []model.SweetSpot
	consider := func(kind, field string, row model.SegmentWinRate) {
		if row.DealCount < cfg.MinComboCount || baseline == 0 {
			return
		}
		if row.WinRate <= threshold {
			return
		}
		spots = append(spots, model.SweetSpot{
			Kind:      kind,
			Field:     field,
			Value:     row.Value,
			DealCount: row.DealCount,
			WinRate:   row.WinRate,
			Lift:      row.WinRate / baseline,
		})
	}

	for _, row := range profile.Industries {
		consider("industry", "", row)
	}
	for field, rows := range profile.CustomFields {
		for _, row := range rows {
			consider("custom_field", field, row)
		}
	}

	sort.SliceStable(spots, func(i, j int) bool {
		if spots[i].Lift != spots[j].Lift {
			return spots[i].Lift > spots[j].Lift
		}
		return spots[i].Value < spots[j].Value
	})
	return spots
}

// conversationBenchmarks computes the workspace-level call pattern
// tables over the conversation-enriched subset of the matrix.
func conversationBenchmarks(vectors []model.FeatureVector, cfg config.DiscoveryConfig) *model.ConversationBenchmarks {
	bench := &model.ConversationBenchmarks{}

	// Call volume and calls-to-close by size bucket. The calls-to-close
	// numerator is restricted to won deals; the win-rate denominator is
	// every conversation-enriched deal in the bucket.
	type sizeAgg struct {
		deals, won int
		callSum    int
		wonDeals   int
		wonCallSum int
	}
	bySize := map[string]*sizeAgg{}

	type contentAgg struct {
		deals                                 int
		depthSum, sentimentSum                float64
		competitor, pricing, budget, timeline int
	}
	byIndustry := map[string]*contentAgg{}

	sentWon := map[string]int{}
	sentTotal := map[string]int{}
	trendWon := map[string]int{}
	trendTotal := map[string]int{}

	for _, v := range vectors {
		if !v.HasConversationData || v.Conversation == nil {
			continue
		}

		if bucket := SizeBucket(v.EmployeeCount); bucket != "" {
			a, ok := bySize[bucket]
			if !ok {
				a = &sizeAgg{}
				bySize[bucket] = a
			}
			a.deals++
			a.callSum += v.Conversation.CallCount
			if v.Won() {
				a.won++
				a.wonDeals++
				a.wonCallSum += v.Conversation.CallCount
			}
		}

		if v.Content != nil {
			a, ok := byIndustry[v.Industry]
			if !ok {
				a = &contentAgg{}
				byIndustry[v.Industry] = a
			}
			a.deals++
			a.depthSum += v.Content.TechnicalDepth
			a.sentimentSum += sentimentScores[v.Content.Sentiment]
			if v.Content.CompetitorMentions {
				a.competitor++
			}
			if v.Content.PricingMentions {
				a.pricing++
			}
			if v.Content.BudgetMentions {
				a.budget++
			}
			if v.Content.TimelineMentions {
				a.timeline++
			}

			if v.Content.Sentiment != "" {
				sentTotal[v.Content.Sentiment]++
				if v.Won() {
					sentWon[v.Content.Sentiment]++
				}
			}
			if v.Content.SentimentTrend != "" {
				trendTotal[v.Content.SentimentTrend]++
				if v.Won() {
					trendWon[v.Content.SentimentTrend]++
				}
			}
		}
	}

	for _, b := range sizeBuckets {
		a, ok := bySize[b.label]
		if !ok || a.deals < cfg.MinGroupSize {
			continue
		}
		row := model.SizeCallBenchmark{
			Bucket:    b.label,
			DealCount: a.deals,
			AvgCalls:  float64(a.callSum) / float64(a.deals),
			WinRate:   float64(a.won) / float64(a.deals),
		}
		if a.wonDeals > 0 {
			row.CallsToClose = float64(a.wonCallSum) / float64(a.wonDeals)
		}
		bench.CallVolumeBySize = append(bench.CallVolumeBySize, row)
	}

	for industry, a := range byIndustry {
		if a.deals < cfg.MinGroupSize {
			continue
		}
		n := float64(a.deals)
		bench.ContentByIndustry = append(bench.ContentByIndustry, model.IndustryContentPattern{
			Industry:           industry,
			DealCount:          a.deals,
			AvgTechnicalDepth:  a.depthSum / n,
			AvgSentimentScore:  a.sentimentSum / n,
			CompetitorMentions: float64(a.competitor) / n,
			PricingMentions:    float64(a.pricing) / n,
			BudgetMentions:     float64(a.budget) / n,
			TimelineMentions:   float64(a.timeline) / n,
		})
	}
	sort.SliceStable(bench.ContentByIndustry, func(i, j int) bool {
		if bench.ContentByIndustry[i].DealCount != bench.ContentByIndustry[j].DealCount {
			return bench.ContentByIndustry[i].DealCount > bench.ContentByIndustry[j].DealCount
		}
		return bench.ContentByIndustry[i].Industry < bench.ContentByIndustry[j].Industry
	})

	if len(sentTotal) > 0 {
		bench.SentimentWinRates = map[string]float64{}
		for s, total := range sentTotal {
			bench.SentimentWinRates[s] = float64(sentWon[s]) / float64(total)
		}
	}
	if len(trendTotal) > 0 {
		bench.TrajectoryWinRates = map[string]float64{}
		for s, total := range trendTotal {
			bench.TrajectoryWinRates[s] = float64(trendWon[s]) / float64(total)
		}
	}

	return bench
}

// signalAnalysis computes win-rate lift for each signal-type flag:
// deals carrying the flag versus deals without it.
func signalAnalysis(vectors []model.FeatureVector, cfg config.DiscoveryConfig) *model.SignalAnalysis {
	flagLift := func(flag func(model.FeatureVector) bool) float64 {
		var withWon, withTotal, withoutWon, withoutTotal int
		for _, v := range vectors {
			if !v.HasSignalData {
				continue
			}
			if flag(v) {
				withTotal++
				if v.Won() {
					withWon++
				}
			} else {
				withoutTotal++
				if v.Won() {
					withoutWon++
				}
			}
		}
		if withTotal == 0 {
			return 0
		}
		return liftRatio(winRate(withWon, withTotal), winRate(withoutWon, withoutTotal), cfg.LiftCeiling)
	}

	return &model.SignalAnalysis{
		FundingLift:   flagLift(func(v model.FeatureVector) bool { return v.FundingSignal }),
		HiringLift:    flagLift(func(v model.FeatureVector) bool { return v.HiringSignal }),
		ExpansionLift: flagLift(func(v model.FeatureVector) bool { return v.ExpansionSignal }),
		RiskLift:      flagLift(func(v model.FeatureVector) bool { return v.RiskSignal }),
	}
}
