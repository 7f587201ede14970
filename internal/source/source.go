// Package source provides read-only access to the workspace's relational
// data: closed deals, contact roles, activities, account signals, and the
// optional conversation subsystem. The analytical pipeline consumes these
// interfaces only; the schema behind them is owned elsewhere.
package source

import (
	"context"
	"time"

	"github.com/sells-group/icp-discovery/internal/model"
)

// ReadinessCounts are the workspace-level counts the readiness gate
// evaluates before any analysis runs.
type ReadinessCounts struct {
	TotalClosed        int
	WonClosed          int
	LostClosed         int
	DealsWithRoles     int
	ContactRoleRows    int
	HasEnrichedContact bool
	HasConvConnector   bool
}

// DealSource is the generic query interface over the workspace's CRM data.
type DealSource interface {
	ReadinessCounts(ctx context.Context, workspaceID string) (ReadinessCounts, error)
	ListClosedDeals(ctx context.Context, workspaceID string) ([]model.ClosedDeal, error)
	ContactRoles(ctx context.Context, workspaceID, dealID string) ([]model.ContactRole, error)
	ActivitySummary(ctx context.Context, workspaceID, dealID string) (model.ActivitySummary, error)
	LatestAccountSignals(ctx context.Context, workspaceID, accountID string) (*model.AccountSignals, error)
	CustomFieldDiscovery(ctx context.Context, workspaceID string) ([]model.CustomFieldDiscovery, error)
	LeadFunnelCounts(ctx context.Context, workspaceID string) ([]model.LeadSourceCounts, error)
	DepartmentPatterns(ctx context.Context, workspaceID string) (map[string][]string, error)
}

// ConversationLink ties a conversation to a deal.
type ConversationLink struct {
	ConversationID string
	DealID         string
}

// Participant is one speaker on a call.
type Participant struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	TalkPct float64 `json:"talk_pct"`
}

// ConversationRecord is the per-call metadata and optional content
// classification the conversation subsystem exposes.
type ConversationRecord struct {
	ID              string
	StartedAt       time.Time
	DurationMinutes float64
	RepTalkPct      float64
	Participants    []Participant

	// Content classification, nil when the classifier has not run.
	Content *ConversationContentRecord
}

// ConversationContentRecord is the classifier output for one call. The
// json tags match the classifier's column schema.
type ConversationContentRecord struct {
	Sentiment          string  `json:"sentiment"`
	SentimentTrend     string  `json:"sentiment_trend"`
	TechnicalDepth     float64 `json:"technical_depth"`
	CompetitorMentions bool    `json:"competitor_mentions"`
	PricingMentions    bool    `json:"pricing_mentions"`
	BudgetMentions     bool    `json:"budget_mentions"`
	TimelineMentions   bool    `json:"timeline_mentions"`
	ObjectionCount     int     `json:"objection_count"`
	ChampionLanguage   bool    `json:"champion_language"`
}

// ConversationSource is the optional enrichment collaborator. Both methods
// must support returning an empty result without error; any hard failure
// is treated as a degradation, never a pipeline abort.
type ConversationSource interface {
	LinkConversations(ctx context.Context, workspaceID string, dealIDs []string) ([]ConversationLink, error)
	ConversationMetadata(ctx context.Context, workspaceID string, conversationIDs []string) ([]ConversationRecord, error)
}
