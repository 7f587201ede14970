package source

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/icp-discovery/internal/db"
	"github.com/sells-group/icp-discovery/internal/model"
)

// PostgresSource implements DealSource against the workspace schema.
type PostgresSource struct {
	pool db.Pool
}

// NewPostgresSource creates a PostgresSource.
func NewPostgresSource(pool db.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// ReadinessCounts computes the gate inputs in a single round trip per
// aggregate.
func (s *PostgresSource) ReadinessCounts(ctx context.Context, workspaceID string) (ReadinessCounts, error) {
	var rc ReadinessCounts

	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'won'),
			COUNT(*) FILTER (WHERE outcome = 'lost')
		FROM deals
		WHERE workspace_id = $1 AND outcome IN ('won', 'lost')`,
		workspaceID,
	).Scan(&rc.TotalClosed, &rc.WonClosed, &rc.LostClosed)
	if err != nil {
		return rc, eris.Wrap(err, "source: count closed deals")
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT dc.deal_id), COUNT(*)
		FROM deal_contacts dc
		JOIN deals d ON d.id = dc.deal_id
		WHERE d.workspace_id = $1
		  AND d.outcome IN ('won', 'lost')
		  AND dc.buying_role IS NOT NULL`,
		workspaceID,
	).Scan(&rc.DealsWithRoles, &rc.ContactRoleRows)
	if err != nil {
		return rc, eris.Wrap(err, "source: count contact roles")
	}

	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM contacts
			WHERE workspace_id = $1 AND enrichment_status = 'enriched'
		)`,
		workspaceID,
	).Scan(&rc.HasEnrichedContact)
	if err != nil {
		return rc, eris.Wrap(err, "source: check enriched contacts")
	}

	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM connectors
			WHERE workspace_id = $1 AND kind = 'conversation' AND status = 'active'
		)`,
		workspaceID,
	).Scan(&rc.HasConvConnector)
	if err != nil {
		return rc, eris.Wrap(err, "source: check conversation connector")
	}

	return rc, nil
}

const closedDealColumns = `d.id, d.name, d.outcome, d.amount, d.sales_cycle_days,
	d.owner_id, d.close_date, d.account_id, d.lead_source, d.custom_fields,
	a.industry, a.employee_count, a.annual_revenue, a.custom_fields`

// ListClosedDeals returns every closed deal in the workspace joined with
// account firmographics and custom fields, newest close first.
func (s *PostgresSource) ListClosedDeals(ctx context.Context, workspaceID string) ([]model.ClosedDeal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+closedDealColumns+`
		FROM deals d
		LEFT JOIN accounts a ON a.id = d.account_id
		WHERE d.workspace_id = $1 AND d.outcome IN ('won', 'lost')
		ORDER BY d.close_date DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "source: list closed deals")
	}
	defer rows.Close()

	return scanClosedDeals(rows, workspaceID)
}

// ContactRoles returns the classified contacts linked to a deal.
func (s *PostgresSource) ContactRoles(ctx context.Context, workspaceID, dealID string) ([]model.ContactRole, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT dc.contact_id, COALESCE(c.title, ''), COALESCE(dc.buying_role, ''),
			COALESCE(dc.seniority_override, ''), COALESCE(dc.department_override, '')
		FROM deal_contacts dc
		JOIN contacts c ON c.id = dc.contact_id
		WHERE c.workspace_id = $1 AND dc.deal_id = $2`,
		workspaceID, dealID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "source: contact roles for deal %s", dealID)
	}
	defer rows.Close()

	var roles []model.ContactRole
	for rows.Next() {
		var r model.ContactRole
		if err := rows.Scan(&r.ContactID, &r.Title, &r.BuyingRole,
			&r.SeniorityOverride, &r.DepartmentOverride); err != nil {
			return nil, eris.Wrap(err, "source: scan contact role")
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// ActivitySummary aggregates logged activities for a deal.
func (s *PostgresSource) ActivitySummary(ctx context.Context, workspaceID, dealID string) (model.ActivitySummary, error) {
	var a model.ActivitySummary
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE kind = 'email'),
			COUNT(*) FILTER (WHERE kind = 'call'),
			COUNT(*) FILTER (WHERE kind = 'meeting'),
			COUNT(DISTINCT occurred_at::date)
		FROM activities
		WHERE workspace_id = $1 AND deal_id = $2`,
		workspaceID, dealID,
	).Scan(&a.Total, &a.Emails, &a.Calls, &a.Meetings, &a.ActiveDays)
	if err != nil {
		return a, eris.Wrapf(err, "source: activity summary for deal %s", dealID)
	}
	return a, nil
}

// LatestAccountSignals returns the most recent signal record for an
// account, or nil when none exists.
func (s *PostgresSource) LatestAccountSignals(ctx context.Context, workspaceID, accountID string) (*model.AccountSignals, error) {
	var sig model.AccountSignals
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT score, signals
		FROM account_signals
		WHERE workspace_id = $1 AND account_id = $2
		ORDER BY recorded_at DESC
		LIMIT 1`,
		workspaceID, accountID,
	).Scan(&sig.Score, &raw)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "source: signals for account %s", accountID)
	}

	// The signals column is a JSON array of type strings; tolerate junk.
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sig.Signals); err != nil {
			sig.Signals = nil
		}
	}
	return &sig, nil
}

// CustomFieldDiscovery returns the upstream field-relevance records.
// An empty workspace yields an empty slice, not an error.
func (s *PostgresSource) CustomFieldDiscovery(ctx context.Context, workspaceID string) ([]model.CustomFieldDiscovery, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT field_key, entity_type, relevance_score
		FROM custom_field_discoveries
		WHERE workspace_id = $1`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "source: custom field discovery")
	}
	defer rows.Close()

	var fields []model.CustomFieldDiscovery
	for rows.Next() {
		var f model.CustomFieldDiscovery
		if err := rows.Scan(&f.FieldKey, &f.EntityType, &f.RelevanceScore); err != nil {
			return nil, eris.Wrap(err, "source: scan custom field")
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// LeadFunnelCounts returns per-source lead and conversion counts.
func (s *PostgresSource) LeadFunnelCounts(ctx context.Context, workspaceID string) ([]model.LeadSourceCounts, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(source, 'unknown'),
			COUNT(*),
			COUNT(*) FILTER (WHERE converted_at IS NOT NULL)
		FROM leads
		WHERE workspace_id = $1
		GROUP BY source`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "source: lead funnel counts")
	}
	defer rows.Close()

	var counts []model.LeadSourceCounts
	for rows.Next() {
		var c model.LeadSourceCounts
		if err := rows.Scan(&c.Source, &c.Leads, &c.Converted); err != nil {
			return nil, eris.Wrap(err, "source: scan lead source")
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// DepartmentPatterns returns workspace-level department keyword overrides.
// An empty map is valid.
func (s *PostgresSource) DepartmentPatterns(ctx context.Context, workspaceID string) (map[string][]string, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT department_patterns
		FROM workspace_settings
		WHERE workspace_id = $1`,
		workspaceID,
	).Scan(&raw)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return map[string][]string{}, nil
		}
		return nil, eris.Wrap(err, "source: department patterns")
	}

	patterns := map[string][]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &patterns); err != nil {
			return nil, eris.Wrap(err, "source: parse department patterns")
		}
	}
	return patterns, nil
}

func scanClosedDeals(rows pgx.Rows, workspaceID string) ([]model.ClosedDeal, error) {
	var deals []model.ClosedDeal
	for rows.Next() {
		var d model.ClosedDeal
		var leadSource, industry *string
		var employeeCount *int
		var annualRevenue *float64
		var dealFields, accountFields []byte

		if err := rows.Scan(
			&d.ID, &d.Name, &d.Outcome, &d.Amount, &d.SalesCycleDays,
			&d.OwnerID, &d.CloseDate, &d.AccountID, &leadSource, &dealFields,
			&industry, &employeeCount, &annualRevenue, &accountFields,
		); err != nil {
			return nil, eris.Wrap(err, "source: scan closed deal")
		}

		d.WorkspaceID = workspaceID
		if leadSource != nil {
			d.LeadSource = *leadSource
		}
		if industry != nil {
			d.Industry = *industry
		}
		if employeeCount != nil {
			d.EmployeeCount = *employeeCount
		}
		if annualRevenue != nil {
			d.AnnualRevenue = *annualRevenue
		}
		d.CustomFields = parseFieldBlob(dealFields)
		d.AccountFields = parseFieldBlob(accountFields)

		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// parseFieldBlob decodes a JSON object column, tolerating null and junk.
func parseFieldBlob(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
