package model

import "time"

// FeatureVector is one row of the analysis matrix: a closed deal joined
// with its account firmographics, buying committee, activity counts, and
// optional enrichment blocks.
//
// Invariant: Titles, Seniorities, Departments, and BuyingRoles are always
// the same length: index i describes the same contact across all four.
// ContactCalls, when non-nil, follows the same indexing.
type FeatureVector struct {
	DealID         string    `json:"deal_id"`
	DealName       string    `json:"deal_name"`
	Outcome        Outcome   `json:"outcome"`
	Amount         float64   `json:"amount"`
	SalesCycleDays int       `json:"sales_cycle_days"`
	CloseDate      time.Time `json:"close_date"`
	LeadSource     string    `json:"lead_source,omitempty"`

	// Firmographics.
	Industry      string  `json:"industry"`
	EmployeeCount int     `json:"employee_count"`
	AnnualRevenue float64 `json:"annual_revenue"`

	// Buying committee (parallel arrays, one entry per contact).
	Titles        []string `json:"titles"`
	Seniorities   []string `json:"parsed_seniorities"`
	Departments   []string `json:"parsed_departments"`
	BuyingRoles   []string `json:"buying_roles"`
	CommitteeSize int      `json:"committee_size"`

	HasChampion           bool `json:"has_champion"`
	HasEconomicBuyer      bool `json:"has_economic_buyer"`
	HasDecisionMaker      bool `json:"has_decision_maker"`
	HasTechnicalEvaluator bool `json:"has_technical_evaluator"`

	// Activity.
	ActivityTotal      int     `json:"activity_total"`
	EmailCount         int     `json:"email_count"`
	CallCount          int     `json:"call_count"`
	MeetingCount       int     `json:"meeting_count"`
	ActiveDays         int     `json:"active_days"`
	EngagementVelocity float64 `json:"engagement_velocity"`

	// Custom fields, coerced to scalar strings at ingestion.
	DealFields    map[string]string `json:"deal_fields,omitempty"`
	AccountFields map[string]string `json:"account_fields,omitempty"`

	// Signal enrichment (most recent account signal record).
	HasSignalData   bool    `json:"has_signal_data"`
	SignalScore     float64 `json:"signal_score,omitempty"`
	FundingSignal   bool    `json:"funding_signal"`
	HiringSignal    bool    `json:"hiring_signal"`
	ExpansionSignal bool    `json:"expansion_signal"`
	RiskSignal      bool    `json:"risk_signal"`

	// Conversation enrichment, nil until merged by the enricher.
	HasConversationData bool                 `json:"has_conversation_data"`
	Conversation        *ConversationMetrics `json:"conversation,omitempty"`
	Content             *ConversationContent `json:"content,omitempty"`
	ContactCalls        []*ContactCallStats  `json:"contact_calls,omitempty"`
}

// Won reports whether the underlying deal closed won.
func (v FeatureVector) Won() bool {
	return v.Outcome == OutcomeWon
}

// ConversationMetrics aggregates per-deal call metadata.
type ConversationMetrics struct {
	CallCount            int     `json:"call_count"`
	TotalDurationMinutes float64 `json:"total_duration_minutes"`
	AvgDurationMinutes   float64 `json:"avg_duration_minutes"`
	AvgRepTalkPct        float64 `json:"avg_rep_talk_pct"`
	DaysFirstCallToClose int     `json:"days_first_call_to_close"`
	DaysLastCallToClose  int     `json:"days_last_call_to_close"`
}

// ConversationContent carries per-deal call content classifications.
type ConversationContent struct {
	Sentiment          string  `json:"sentiment"` // positive | neutral | negative
	SentimentTrend     string  `json:"sentiment_trend,omitempty"`
	TechnicalDepth     float64 `json:"technical_depth"`
	CompetitorMentions bool    `json:"competitor_mentions"`
	PricingMentions    bool    `json:"pricing_mentions"`
	BudgetMentions     bool    `json:"budget_mentions"`
	TimelineMentions   bool    `json:"timeline_mentions"`
	ObjectionCount     int     `json:"objection_count"`
	ChampionLanguage   bool    `json:"champion_language"`
}

// ContactCallStats records a single contact's call participation on a deal.
type ContactCallStats struct {
	Appeared      bool    `json:"appeared"`
	AvgTalkPct    float64 `json:"avg_talk_pct"`
	InFirstCall   bool    `json:"in_first_call"`
	InClosingCall bool    `json:"in_closing_call"`
}
