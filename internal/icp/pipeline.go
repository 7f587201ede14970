package icp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
	"github.com/sells-group/icp-discovery/internal/profile"
	"github.com/sells-group/icp-discovery/internal/source"
)

// Pipeline runs the full ICP discovery flow for one workspace: readiness
// gate, feature matrix, optional conversation enrichment, persona and
// company pattern discovery, weight synthesis, and profile persistence.
//
// All state is per-run; two pipelines for different workspaces can run
// side by side. Serializing concurrent runs for the same workspace is
// the profile store's job.
type Pipeline struct {
	cfg      config.DiscoveryConfig
	deals    source.DealSource
	convos   source.ConversationSource
	profiles profile.Store
}

// New creates a Pipeline. convos may be nil when the workspace has no
// conversation connector; profiles may be nil to skip persistence.
func New(cfg config.DiscoveryConfig, deals source.DealSource, convos source.ConversationSource, profiles profile.Store) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		deals:    deals,
		convos:   convos,
		profiles: profiles,
	}
}

// Run executes discovery for a workspace. An InsufficientDataError
// aborts before analysis with no profile written. A persistence failure
// returns BOTH the analytical result and a PersistenceError so the
// caller can retry the write without re-running analysis.
func (p *Pipeline) Run(ctx context.Context, workspaceID string) (*model.DiscoveryResult, error) {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("workspace_id", workspaceID), zap.String("run_id", runID))
	start := time.Now()

	log.Info("icp discovery starting")

	counts, err := p.deals.ReadinessCounts(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "icp: readiness counts")
	}
	mode, err := EvaluateReadiness(workspaceID, counts, p.cfg)
	if err != nil {
		log.Warn("readiness gate aborted run", zap.Error(err))
		return nil, err
	}
	log.Info("readiness gate passed",
		zap.String("mode", string(mode)),
		zap.Int("closed_deals", counts.TotalClosed),
		zap.Int("contact_roles", counts.ContactRoleRows),
	)

	vectors, err := NewMatrixBuilder(p.deals, p.cfg).Build(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "icp: build feature matrix")
	}

	NewEnricher(p.convos, p.cfg).Enrich(ctx, workspaceID, vectors)

	fields, err := p.deals.CustomFieldDiscovery(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "icp: custom field discovery")
	}
	funnel, err := p.deals.LeadFunnelCounts(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "icp: lead funnel counts")
	}

	// Persona and company analysis are independent; committees depend on
	// the filtered persona list.
	var personas []model.PersonaPattern
	var committees []model.CommitteeCombo
	var company model.CompanyProfile

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		personas = DiscoverPersonas(vectors, p.cfg)
		committees = DiscoverCommittees(vectors, personas, p.cfg)
		return nil
	})
	g.Go(func() error {
		company = AnalyzeCompany(vectors, fields, funnel, p.cfg)
		return nil
	})
	_ = g.Wait()

	weights := SynthesizeWeights(personas, company, p.cfg)

	contactsParsed := 0
	for _, v := range vectors {
		contactsParsed += len(v.Titles)
	}

	result := &model.DiscoveryResult{
		WorkspaceID: workspaceID,
		Personas:    personas,
		Committees:  committees,
		Company:     company,
		Weights:     weights,
		Metadata: model.DiscoveryMetadata{
			RunID:          runID,
			Mode:           string(mode),
			TotalDeals:     counts.TotalClosed,
			WonDeals:       counts.WonClosed,
			LostDeals:      counts.LostClosed,
			ContactsParsed: contactsParsed,
			PersonaCount:   len(personas),
			CommitteeCount: len(committees),
			DurationMS:     time.Since(start).Milliseconds(),
			GeneratedAt:    time.Now().UTC(),
		},
	}

	if p.profiles != nil {
		stored, persistErr := p.profiles.SaveProfile(ctx, workspaceID, result)
		if persistErr != nil {
			log.Error("profile persistence failed, returning in-memory result", zap.Error(persistErr))
			return result, &PersistenceError{Err: persistErr}
		}
		result.ProfileVersion = stored.Version
		log.Info("profile persisted", zap.Int("version", stored.Version))
	}

	log.Info("icp discovery complete",
		zap.Int("personas", len(personas)),
		zap.Int("committees", len(committees)),
		zap.Int64("duration_ms", result.Metadata.DurationMS),
	)
	return result, nil
}
