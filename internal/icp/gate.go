package icp

import (
	"fmt"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/source"
)

// Mode selects which analytical method a workspace is eligible for.
type Mode string

const (
	ModeAbort       Mode = "abort"
	ModeDescriptive Mode = "descriptive"
	ModePointBased  Mode = "point_based"
	ModeRegression  Mode = "regression"
)

// EvaluateReadiness applies the readiness decision table, first match
// wins:
//
//	total closed < MinClosedDeals                  -> abort
//	enriched AND role rows >= RegressionContactRoles  -> regression
//	enriched AND role rows >= PointBasedContactRoles  -> point_based
//	role rows >= DescriptiveContactRoles              -> descriptive
//	else                                              -> abort
//
// point_based and regression are recognized but not yet implemented: the
// weight synthesizer always falls back to the descriptive heuristic
// regardless of the mode returned here.
func EvaluateReadiness(workspaceID string, counts source.ReadinessCounts, cfg config.DiscoveryConfig) (Mode, error) {
	if counts.TotalClosed < cfg.MinClosedDeals {
		return ModeAbort, &InsufficientDataError{
			WorkspaceID: workspaceID,
			Reasons: []string{
				fmt.Sprintf("need at least %d closed deals, have %d", cfg.MinClosedDeals, counts.TotalClosed),
			},
		}
	}

	if counts.HasEnrichedContact && counts.ContactRoleRows >= cfg.RegressionContactRoles {
		return ModeRegression, nil
	}
	if counts.HasEnrichedContact && counts.ContactRoleRows >= cfg.PointBasedContactRoles {
		return ModePointBased, nil
	}
	if counts.ContactRoleRows >= cfg.DescriptiveContactRoles {
		return ModeDescriptive, nil
	}

	reasons := []string{
		fmt.Sprintf("need at least %d classified contact roles, have %d", cfg.DescriptiveContactRoles, counts.ContactRoleRows),
	}
	if !counts.HasEnrichedContact {
		reasons = append(reasons, "no enriched contacts")
	}
	return ModeAbort, &InsufficientDataError{WorkspaceID: workspaceID, Reasons: reasons}
}
