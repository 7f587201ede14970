package icp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
	"github.com/sells-group/icp-discovery/internal/source"
)

func enrichTestVectors() []model.FeatureVector {
	return []model.FeatureVector{
		{
			DealID:    "deal-1",
			Outcome:   model.OutcomeWon,
			CloseDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Titles:    []string{"VP Engineering", "CFO"},
			Seniorities: []string{
				"vp", "c_level",
			},
			Departments: []string{"engineering", "finance"},
			BuyingRoles: []string{"champion", "economic_buyer"},
		},
		{
			DealID:  "deal-2",
			Outcome: model.OutcomeLost,
		},
	}
}

func TestEnricher_NilSource(t *testing.T) {
	vectors := enrichTestVectors()
	vectors[0].HasConversationData = true // stale value must be cleared

	NewEnricher(nil, config.DefaultDiscovery()).Enrich(context.Background(), "ws-1", vectors)

	for _, v := range vectors {
		assert.False(t, v.HasConversationData)
		assert.Nil(t, v.Conversation)
		assert.Nil(t, v.Content)
		assert.Nil(t, v.ContactCalls)
	}
}

func TestEnricher_LinkFailureDegrades(t *testing.T) {
	src := &mockConvSource{linkErr: errors.New("upstream down")}
	vectors := enrichTestVectors()

	NewEnricher(src, config.DefaultDiscovery()).Enrich(context.Background(), "ws-1", vectors)

	for _, v := range vectors {
		assert.False(t, v.HasConversationData)
		assert.Nil(t, v.Conversation)
	}
}

func TestEnricher_RetriesTransientFailure(t *testing.T) {
	src := &mockConvSource{linkErr: errors.New("connection reset by peer")}
	cfg := config.DefaultDiscovery()

	NewEnricher(src, cfg).Enrich(context.Background(), "ws-1", enrichTestVectors())

	assert.Equal(t, cfg.EnrichMaxAttempts, src.linkCalls)
}

func TestEnricher_NoLinkedConversations(t *testing.T) {
	src := &mockConvSource{}
	vectors := enrichTestVectors()

	NewEnricher(src, config.DefaultDiscovery()).Enrich(context.Background(), "ws-1", vectors)

	assert.Equal(t, 1, src.linkCalls)
	assert.Equal(t, 0, src.metaCalls)
	for _, v := range vectors {
		assert.False(t, v.HasConversationData)
	}
}

func TestEnricher_MergesCalls(t *testing.T) {
	firstCall := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	lastCall := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	src := &mockConvSource{
		links: []source.ConversationLink{
			{ConversationID: "conv-1", DealID: "deal-1"},
			{ConversationID: "conv-2", DealID: "deal-1"},
		},
		records: []source.ConversationRecord{
			{
				ID:              "conv-2",
				StartedAt:       lastCall,
				DurationMinutes: 30,
				RepTalkPct:      50,
				Participants: []source.Participant{
					{Name: "Dana", Title: "CFO", TalkPct: 25},
				},
				Content: &source.ConversationContentRecord{
					Sentiment:        "positive",
					SentimentTrend:   "improving",
					TechnicalDepth:   0.8,
					PricingMentions:  true,
					ChampionLanguage: true,
				},
			},
			{
				ID:              "conv-1",
				StartedAt:       firstCall,
				DurationMinutes: 60,
				RepTalkPct:      70,
				Participants: []source.Participant{
					{Name: "Alex", Title: "VP Engineering", TalkPct: 40},
					{Name: "Dana", Title: "CFO", TalkPct: 15},
				},
				Content: &source.ConversationContentRecord{
					Sentiment:      "neutral",
					TechnicalDepth: 0.4,
					BudgetMentions: true,
				},
			},
		},
	}

	vectors := enrichTestVectors()
	NewEnricher(src, config.DefaultDiscovery()).Enrich(context.Background(), "ws-1", vectors)

	v := vectors[0]
	require.True(t, v.HasConversationData)
	require.NotNil(t, v.Conversation)

	assert.Equal(t, 2, v.Conversation.CallCount)
	assert.InDelta(t, 90, v.Conversation.TotalDurationMinutes, 1e-9)
	assert.InDelta(t, 45, v.Conversation.AvgDurationMinutes, 1e-9)
	assert.InDelta(t, 60, v.Conversation.AvgRepTalkPct, 1e-9)
	assert.Equal(t, 59, v.Conversation.DaysFirstCallToClose)
	assert.Equal(t, 10, v.Conversation.DaysLastCallToClose)

	// Content merges across calls; the latest classified call decides
	// sentiment and trend.
	require.NotNil(t, v.Content)
	assert.Equal(t, "positive", v.Content.Sentiment)
	assert.Equal(t, "improving", v.Content.SentimentTrend)
	assert.InDelta(t, 0.6, v.Content.TechnicalDepth, 1e-9)
	assert.True(t, v.Content.PricingMentions)
	assert.True(t, v.Content.BudgetMentions)
	assert.True(t, v.Content.ChampionLanguage)
	assert.False(t, v.Content.CompetitorMentions)

	// Contact participation follows the vector's contact indexing.
	require.Len(t, v.ContactCalls, 2)
	vp := v.ContactCalls[0]
	require.NotNil(t, vp)
	assert.True(t, vp.Appeared)
	assert.InDelta(t, 40, vp.AvgTalkPct, 1e-9)
	assert.True(t, vp.InFirstCall)
	assert.False(t, vp.InClosingCall)

	cfo := v.ContactCalls[1]
	require.NotNil(t, cfo)
	assert.True(t, cfo.Appeared)
	assert.InDelta(t, 20, cfo.AvgTalkPct, 1e-9)
	assert.True(t, cfo.InFirstCall)
	assert.True(t, cfo.InClosingCall)

	// Deal without linked calls stays degraded.
	assert.False(t, vectors[1].HasConversationData)
	assert.Nil(t, vectors[1].Conversation)
}

func TestEnricher_ContentDegradesIndependently(t *testing.T) {
	src := &mockConvSource{
		links: []source.ConversationLink{{ConversationID: "conv-1", DealID: "deal-1"}},
		records: []source.ConversationRecord{
			{ID: "conv-1", StartedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), DurationMinutes: 20, RepTalkPct: 55},
		},
	}

	vectors := enrichTestVectors()
	NewEnricher(src, config.DefaultDiscovery()).Enrich(context.Background(), "ws-1", vectors)

	v := vectors[0]
	require.True(t, v.HasConversationData)
	require.NotNil(t, v.Conversation)
	assert.Equal(t, 1, v.Conversation.CallCount)

	// No classifier output on any call: the content block stays nil
	// while metrics survive.
	assert.Nil(t, v.Content)
}
