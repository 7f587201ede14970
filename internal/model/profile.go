package model

import "time"

// PersonaPattern is the exported, ranked form of a persona cluster.
// Immutable once emitted.
type PersonaPattern struct {
	Key        string  `json:"key"` // seniority__department
	Seniority  string  `json:"seniority"`
	Department string  `json:"department"`
	WonDeals   int     `json:"won_deals"`
	LostDeals  int     `json:"lost_deals"`
	TotalDeals int     `json:"total_deals"`
	FreqWon    float64 `json:"freq_won"`
	FreqLost   float64 `json:"freq_lost"`
	Lift       float64 `json:"lift"`
	Confidence float64 `json:"confidence"`

	TopTitles    []string `json:"top_titles,omitempty"`
	TopRoles     []string `json:"top_roles,omitempty"`
	DealSizeLift float64  `json:"deal_size_lift"`

	Conversation *PersonaCallStats `json:"conversation,omitempty"`
}

// PersonaCallStats holds conversation-participation metrics for a persona,
// present only when the workspace has conversation data.
type PersonaCallStats struct {
	ParticipationRate float64 `json:"participation_rate"`
	AvgTalkPct        float64 `json:"avg_talk_pct"`
	FirstCallRate     float64 `json:"first_call_rate"`
	ClosingCallRate   float64 `json:"closing_call_rate"`
	FirstCallLift     float64 `json:"first_call_lift"`
	ClosingCallLift   float64 `json:"closing_call_lift"`
}

// CommitteeCombo is an unordered pair of personas that co-occur on deals.
// PersonaA sorts lexically before PersonaB.
type CommitteeCombo struct {
	PersonaA    string  `json:"persona_a"`
	PersonaB    string  `json:"persona_b"`
	WonCount    int     `json:"won_count"`
	LostCount   int     `json:"lost_count"`
	TotalCount  int     `json:"total_count"`
	WinRate     float64 `json:"win_rate"`
	AvgDealSize float64 `json:"avg_deal_size"`
	Lift        float64 `json:"lift"`
}

// SegmentWinRate is a win-rate table entry for one segment value.
type SegmentWinRate struct {
	Value        string  `json:"value"`
	DealCount    int     `json:"deal_count"`
	WonCount     int     `json:"won_count"`
	WinRate      float64 `json:"win_rate"`
	AvgWonAmount float64 `json:"avg_won_amount"`
}

// LeadSourceFunnel holds funnel metrics for one lead source.
type LeadSourceFunnel struct {
	Source         string  `json:"source"`
	Leads          int     `json:"leads"`
	Converted      int     `json:"converted"`
	Won            int     `json:"won"`
	ConversionRate float64 `json:"conversion_rate"`
	WinRate        float64 `json:"win_rate"`
}

// SweetSpot is a segment whose win rate materially beats baseline.
type SweetSpot struct {
	Kind      string  `json:"kind"` // "industry" or "custom_field"
	Field     string  `json:"field,omitempty"`
	Value     string  `json:"value"`
	DealCount int     `json:"deal_count"`
	WinRate   float64 `json:"win_rate"`
	Lift      float64 `json:"lift"`
}

// SizeCallBenchmark holds call-volume benchmarks for one size bucket.
type SizeCallBenchmark struct {
	Bucket       string  `json:"bucket"`
	DealCount    int     `json:"deal_count"`
	AvgCalls     float64 `json:"avg_calls"`
	CallsToClose float64 `json:"calls_to_close"` // won deals only
	WinRate      float64 `json:"win_rate"`       // all deals in bucket
}

// IndustryContentPattern averages call-content classifications by industry.
type IndustryContentPattern struct {
	Industry           string  `json:"industry"`
	DealCount          int     `json:"deal_count"`
	AvgTechnicalDepth  float64 `json:"avg_technical_depth"`
	AvgSentimentScore  float64 `json:"avg_sentiment_score"`
	CompetitorMentions float64 `json:"competitor_mention_rate"`
	PricingMentions    float64 `json:"pricing_mention_rate"`
	BudgetMentions     float64 `json:"budget_mention_rate"`
	TimelineMentions   float64 `json:"timeline_mention_rate"`
}

// ConversationBenchmarks holds workspace-level conversation pattern tables.
type ConversationBenchmarks struct {
	CallVolumeBySize   []SizeCallBenchmark      `json:"call_volume_by_size,omitempty"`
	ContentByIndustry  []IndustryContentPattern `json:"content_by_industry,omitempty"`
	SentimentWinRates  map[string]float64       `json:"sentiment_win_rates,omitempty"`
	TrajectoryWinRates map[string]float64       `json:"trajectory_win_rates,omitempty"`
}

// SignalAnalysis holds win-rate lifts for the four signal-type flags.
type SignalAnalysis struct {
	FundingLift   float64 `json:"funding_lift"`
	HiringLift    float64 `json:"hiring_lift"`
	ExpansionLift float64 `json:"expansion_lift"`
	RiskLift      float64 `json:"risk_lift"`
}

// CompanyProfile is the firmographic side of the discovered ICP.
type CompanyProfile struct {
	BaselineWinRate float64                     `json:"baseline_win_rate"`
	Industries      []SegmentWinRate            `json:"industries,omitempty"`
	SizeBuckets     []SegmentWinRate            `json:"size_buckets,omitempty"`
	CustomFields    map[string][]SegmentWinRate `json:"custom_fields,omitempty"`
	LeadSources     []LeadSourceFunnel          `json:"lead_sources,omitempty"`
	SweetSpots      []SweetSpot                 `json:"sweet_spots,omitempty"`
	Conversation    *ConversationBenchmarks     `json:"conversation,omitempty"`
	Signals         *SignalAnalysis             `json:"signals,omitempty"`
}

// ScoringWeights is the heuristic scoring model synthesized from the
// discovered patterns. All weights are integers in [-10, 10].
type ScoringWeights struct {
	Personas     map[string]int            `json:"personas,omitempty"`
	CustomFields map[string]map[string]int `json:"custom_fields,omitempty"`
	Industries   map[string]int            `json:"industries,omitempty"`
	Conversation map[string]int            `json:"conversation,omitempty"`
	Enrichment   map[string]int            `json:"enrichment,omitempty"`
	Method       string                    `json:"method"`
	Caveat       string                    `json:"caveat"`
}

// DiscoveryMetadata describes a single discovery run.
type DiscoveryMetadata struct {
	RunID          string    `json:"run_id"`
	Mode           string    `json:"mode"`
	TotalDeals     int       `json:"total_deals"`
	WonDeals       int       `json:"won_deals"`
	LostDeals      int       `json:"lost_deals"`
	ContactsParsed int       `json:"contacts_parsed"`
	PersonaCount   int       `json:"persona_count"`
	CommitteeCount int       `json:"committee_count"`
	DurationMS     int64     `json:"duration_ms"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// DiscoveryResult is the top-level aggregate produced by one pipeline run.
type DiscoveryResult struct {
	WorkspaceID string            `json:"workspace_id"`
	Personas    []PersonaPattern  `json:"personas"`
	Committees  []CommitteeCombo  `json:"committees"`
	Company     CompanyProfile    `json:"company_profile"`
	Weights     ScoringWeights    `json:"scoring_weights"`
	Metadata    DiscoveryMetadata `json:"metadata"`

	// ProfileVersion is set after a successful persist.
	ProfileVersion int `json:"profile_version,omitempty"`
}

// ProfileStatus is the lifecycle state of a stored profile version.
type ProfileStatus string

const (
	ProfileActive     ProfileStatus = "active"
	ProfileSuperseded ProfileStatus = "superseded"
)

// Profile is a stored, versioned ICP profile record. History is
// append-only: superseded versions are never deleted.
type Profile struct {
	ID          string            `json:"id"`
	WorkspaceID string            `json:"workspace_id"`
	Version     int               `json:"version"`
	Status      ProfileStatus     `json:"status"`
	Personas    []PersonaPattern  `json:"personas"`
	Committees  []CommitteeCombo  `json:"committees"`
	Company     CompanyProfile    `json:"company_profile"`
	Weights     ScoringWeights    `json:"scoring_weights"`
	Metadata    DiscoveryMetadata `json:"metadata"`
	CreatedAt   time.Time         `json:"created_at"`
}
