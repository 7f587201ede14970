package model

import "time"

// Outcome is the terminal state of a closed deal.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

// ClosedDeal is an immutable snapshot of a closed deal joined with its
// account firmographics, taken at analysis time.
type ClosedDeal struct {
	ID             string         `json:"id"`
	WorkspaceID    string         `json:"workspace_id"`
	Name           string         `json:"name"`
	Outcome        Outcome        `json:"outcome"`
	Amount         float64        `json:"amount"`
	SalesCycleDays int            `json:"sales_cycle_days"`
	OwnerID        string         `json:"owner_id"`
	CloseDate      time.Time      `json:"close_date"`
	AccountID      string         `json:"account_id"`
	LeadSource     string         `json:"lead_source,omitempty"`
	Industry       string         `json:"industry,omitempty"`
	EmployeeCount  int            `json:"employee_count,omitempty"`
	AnnualRevenue  float64        `json:"annual_revenue,omitempty"`
	CustomFields   map[string]any `json:"custom_fields,omitempty"`
	AccountFields  map[string]any `json:"account_fields,omitempty"`
}

// Won reports whether the deal closed won.
func (d ClosedDeal) Won() bool {
	return d.Outcome == OutcomeWon
}

// ContactRole is a classified contact on a deal.
type ContactRole struct {
	ContactID          string `json:"contact_id"`
	Title              string `json:"title"`
	BuyingRole         string `json:"buying_role"`
	SeniorityOverride  string `json:"seniority_override,omitempty"`
	DepartmentOverride string `json:"department_override,omitempty"`
}

// ActivitySummary aggregates logged activities for a single deal.
type ActivitySummary struct {
	Total      int `json:"total"`
	Emails     int `json:"emails"`
	Calls      int `json:"calls"`
	Meetings   int `json:"meetings"`
	ActiveDays int `json:"active_days"`
}

// AccountSignals is the most recent signal record for an account.
type AccountSignals struct {
	Score   float64  `json:"score"`
	Signals []string `json:"signals"`
}

// CustomFieldDiscovery describes a workspace custom field that an upstream
// discovery skill has flagged as potentially relevant to deal outcomes.
type CustomFieldDiscovery struct {
	FieldKey       string  `json:"field_key"`
	EntityType     string  `json:"entity_type"` // "deal" or "account"
	RelevanceScore float64 `json:"relevance_score"`
}

// LeadSourceCounts holds the top-of-funnel counts for a lead source,
// queried from the leads table rather than derived from closed deals.
type LeadSourceCounts struct {
	Source    string `json:"source"`
	Leads     int    `json:"leads"`
	Converted int    `json:"converted"`
}
