package icp

import (
	"context"
	"errors"
	"sync"

	"github.com/sells-group/icp-discovery/internal/model"
	"github.com/sells-group/icp-discovery/internal/source"
)

// mockDealSource is a configurable in-memory DealSource.
type mockDealSource struct {
	counts   source.ReadinessCounts
	deals    []model.ClosedDeal
	roles    map[string][]model.ContactRole
	activity map[string]model.ActivitySummary
	signals  map[string]*model.AccountSignals
	fields   []model.CustomFieldDiscovery
	funnel   []model.LeadSourceCounts
	patterns map[string][]string

	countsErr error
	dealsErr  error
	rolesErr  error
}

func (m *mockDealSource) ReadinessCounts(ctx context.Context, workspaceID string) (source.ReadinessCounts, error) {
	return m.counts, m.countsErr
}

func (m *mockDealSource) ListClosedDeals(ctx context.Context, workspaceID string) ([]model.ClosedDeal, error) {
	return m.deals, m.dealsErr
}

func (m *mockDealSource) ContactRoles(ctx context.Context, workspaceID, dealID string) ([]model.ContactRole, error) {
	return m.roles[dealID], m.rolesErr
}

func (m *mockDealSource) ActivitySummary(ctx context.Context, workspaceID, dealID string) (model.ActivitySummary, error) {
	return m.activity[dealID], nil
}

func (m *mockDealSource) LatestAccountSignals(ctx context.Context, workspaceID, accountID string) (*model.AccountSignals, error) {
	return m.signals[accountID], nil
}

func (m *mockDealSource) CustomFieldDiscovery(ctx context.Context, workspaceID string) ([]model.CustomFieldDiscovery, error) {
	return m.fields, nil
}

func (m *mockDealSource) LeadFunnelCounts(ctx context.Context, workspaceID string) ([]model.LeadSourceCounts, error) {
	return m.funnel, nil
}

func (m *mockDealSource) DepartmentPatterns(ctx context.Context, workspaceID string) (map[string][]string, error) {
	return m.patterns, nil
}

// mockConvSource is a configurable in-memory ConversationSource.
type mockConvSource struct {
	links   []source.ConversationLink
	records []source.ConversationRecord

	linkErr error
	metaErr error

	linkCalls int
	metaCalls int
}

func (m *mockConvSource) LinkConversations(ctx context.Context, workspaceID string, dealIDs []string) ([]source.ConversationLink, error) {
	m.linkCalls++
	return m.links, m.linkErr
}

func (m *mockConvSource) ConversationMetadata(ctx context.Context, workspaceID string, conversationIDs []string) ([]source.ConversationRecord, error) {
	m.metaCalls++
	return m.records, m.metaErr
}

// mockProfileStore records SaveProfile calls in memory.
type mockProfileStore struct {
	mu      sync.Mutex
	saved   []*model.DiscoveryResult
	version int
	saveErr error
}

func (m *mockProfileStore) SaveProfile(ctx context.Context, workspaceID string, result *model.DiscoveryResult) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = append(m.saved, result)
	m.version++
	return &model.Profile{
		WorkspaceID: workspaceID,
		Version:     m.version,
		Status:      model.ProfileActive,
	}, nil
}

func (m *mockProfileStore) ActiveProfile(ctx context.Context, workspaceID string) (*model.Profile, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProfileStore) ListVersions(ctx context.Context, workspaceID string) ([]model.Profile, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProfileStore) Migrate(ctx context.Context) error { return nil }
func (m *mockProfileStore) Close() error                      { return nil }
