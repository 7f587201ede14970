package icp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
	"github.com/sells-group/icp-discovery/internal/source"
)

// Buying roles recognized on deal contacts.
const (
	RoleChampion           = "champion"
	RoleEconomicBuyer      = "economic_buyer"
	RoleDecisionMaker      = "decision_maker"
	RoleTechnicalEvaluator = "technical_evaluator"
)

// signalTypeSets maps each derived boolean flag to the signal type
// strings that raise it.
var signalTypeSets = map[string][]string{
	"funding":   {"funding", "funding_round", "new_funding", "acquisition"},
	"hiring":    {"hiring", "hiring_surge", "headcount_growth", "new_exec"},
	"expansion": {"expansion", "new_office", "market_expansion", "product_launch"},
	"risk":      {"risk", "layoffs", "exec_departure", "negative_news", "downsizing"},
}

// MatrixBuilder joins closed deals with their contacts, activities, and
// signals into one FeatureVector per deal.
type MatrixBuilder struct {
	src source.DealSource
	cfg config.DiscoveryConfig
}

// NewMatrixBuilder creates a MatrixBuilder.
func NewMatrixBuilder(src source.DealSource, cfg config.DiscoveryConfig) *MatrixBuilder {
	return &MatrixBuilder{src: src, cfg: cfg}
}

// Build produces one FeatureVector per closed deal, ordered close-date
// descending. Per-deal fetches run with bounded concurrency; the results
// are indistinguishable from a sequential per-deal walk.
func (b *MatrixBuilder) Build(ctx context.Context, workspaceID string) ([]model.FeatureVector, error) {
	log := zap.L().With(zap.String("phase", "matrix"), zap.String("workspace_id", workspaceID))

	deals, err := b.src.ListClosedDeals(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "matrix: list closed deals")
	}

	patterns, err := b.src.DepartmentPatterns(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "matrix: department patterns")
	}

	vectors := make([]model.FeatureVector, len(deals))

	limiter := rate.NewLimiter(rate.Limit(b.cfg.FetchRatePerSec), 1)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.FetchConcurrency)

	for i, deal := range deals {
		g.Go(func() error {
			if err := limiter.Wait(gCtx); err != nil {
				return err
			}
			v, err := b.buildVector(gCtx, workspaceID, deal, patterns)
			if err != nil {
				return err
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "matrix: build vectors")
	}

	// ListClosedDeals already orders by close date descending; keep that
	// ordering stable for downstream stages that care.
	sort.SliceStable(vectors, func(i, j int) bool {
		return vectors[i].CloseDate.After(vectors[j].CloseDate)
	})

	log.Info("feature matrix built",
		zap.Int("deals", len(deals)),
		zap.Int("vectors", len(vectors)),
	)
	return vectors, nil
}

func (b *MatrixBuilder) buildVector(ctx context.Context, workspaceID string, deal model.ClosedDeal, patterns map[string][]string) (model.FeatureVector, error) {
	v := model.FeatureVector{
		DealID:         deal.ID,
		DealName:       deal.Name,
		Outcome:        deal.Outcome,
		Amount:         deal.Amount,
		SalesCycleDays: deal.SalesCycleDays,
		CloseDate:      deal.CloseDate,
		LeadSource:     deal.LeadSource,
		Industry:       NormalizeIndustry(deal.Industry),
		EmployeeCount:  deal.EmployeeCount,
		AnnualRevenue:  deal.AnnualRevenue,
		DealFields:     coerceFields(deal.CustomFields),
		AccountFields:  coerceFields(deal.AccountFields),
	}

	roles, err := b.src.ContactRoles(ctx, workspaceID, deal.ID)
	if err != nil {
		return v, eris.Wrapf(err, "matrix: contact roles for deal %s", deal.ID)
	}
	applyCommittee(&v, roles, patterns)

	activity, err := b.src.ActivitySummary(ctx, workspaceID, deal.ID)
	if err != nil {
		return v, eris.Wrapf(err, "matrix: activity summary for deal %s", deal.ID)
	}
	v.ActivityTotal = activity.Total
	v.EmailCount = activity.Emails
	v.CallCount = activity.Calls
	v.MeetingCount = activity.Meetings
	v.ActiveDays = activity.ActiveDays
	v.EngagementVelocity = engagementVelocity(activity.Total, deal.SalesCycleDays)

	signals, err := b.src.LatestAccountSignals(ctx, workspaceID, deal.AccountID)
	if err != nil {
		return v, eris.Wrapf(err, "matrix: signals for deal %s", deal.ID)
	}
	applySignals(&v, signals)

	return v, nil
}

// applyCommittee fills the parallel contact arrays and the committee
// boolean flags. Contact-level overrides win over title parsing.
func applyCommittee(v *model.FeatureVector, roles []model.ContactRole, patterns map[string][]string) {
	v.Titles = make([]string, 0, len(roles))
	v.Seniorities = make([]string, 0, len(roles))
	v.Departments = make([]string, 0, len(roles))
	v.BuyingRoles = make([]string, 0, len(roles))

	for _, r := range roles {
		seniority := r.SeniorityOverride
		if seniority == "" {
			seniority = ParseSeniority(r.Title)
		}
		department := r.DepartmentOverride
		if department == "" {
			department = ParseDepartment(r.Title, patterns)
		}

		v.Titles = append(v.Titles, r.Title)
		v.Seniorities = append(v.Seniorities, seniority)
		v.Departments = append(v.Departments, department)
		v.BuyingRoles = append(v.BuyingRoles, r.BuyingRole)

		switch r.BuyingRole {
		case RoleChampion:
			v.HasChampion = true
		case RoleEconomicBuyer:
			v.HasEconomicBuyer = true
		case RoleDecisionMaker:
			v.HasDecisionMaker = true
		case RoleTechnicalEvaluator:
			v.HasTechnicalEvaluator = true
		}
	}
	v.CommitteeSize = len(roles)
}

func applySignals(v *model.FeatureVector, signals *model.AccountSignals) {
	if signals == nil {
		return
	}
	v.HasSignalData = true
	v.SignalScore = signals.Score

	present := make(map[string]bool, len(signals.Signals))
	for _, s := range signals.Signals {
		present[strings.ToLower(strings.TrimSpace(s))] = true
	}
	matches := func(kinds []string) bool {
		for _, k := range kinds {
			if present[k] {
				return true
			}
		}
		return false
	}
	v.FundingSignal = matches(signalTypeSets["funding"])
	v.HiringSignal = matches(signalTypeSets["hiring"])
	v.ExpansionSignal = matches(signalTypeSets["expansion"])
	v.RiskSignal = matches(signalTypeSets["risk"])
}

// engagementVelocity is total activities per week of sales cycle, zero
// when the cycle length is zero.
func engagementVelocity(total, cycleDays int) float64 {
	if cycleDays == 0 {
		return 0
	}
	return float64(total) / (float64(cycleDays) / 7.0)
}

// coerceFields flattens a duck-typed custom-field blob into scalar
// strings at the ingestion boundary. Nested structures and nulls are
// dropped rather than threaded through the analytical stages.
func coerceFields(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		switch t := val.(type) {
		case string:
			if strings.TrimSpace(t) != "" {
				out[k] = t
			}
		case bool:
			out[k] = strconv.FormatBool(t)
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			out[k] = strconv.Itoa(t)
		case int64:
			out[k] = strconv.FormatInt(t, 10)
		case fmt.Stringer:
			out[k] = t.String()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
