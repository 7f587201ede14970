package icp

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/icp-discovery/internal/config"
	"github.com/sells-group/icp-discovery/internal/model"
	"github.com/sells-group/icp-discovery/internal/resilience"
	"github.com/sells-group/icp-discovery/internal/source"
)

// Enricher merges call-participation metadata into the feature matrix.
// It is strictly best-effort: any failure degrades the matrix to nulls
// and lets the pipeline continue. The retry is bounded and synchronous.
type Enricher struct {
	src source.ConversationSource
	cfg config.DiscoveryConfig
}

// NewEnricher creates an Enricher. src may be nil when the workspace has
// no conversation connector; Enrich then degrades immediately.
func NewEnricher(src source.ConversationSource, cfg config.DiscoveryConfig) *Enricher {
	return &Enricher{src: src, cfg: cfg}
}

// Enrich merges conversation metadata into vectors in place. It never
// returns an error: degradation is logged and the conversation fields
// stay null with HasConversationData=false.
func (e *Enricher) Enrich(ctx context.Context, workspaceID string, vectors []model.FeatureVector) {
	log := zap.L().With(zap.String("phase", "enrich"), zap.String("workspace_id", workspaceID))

	if e.src == nil {
		log.Info("no conversation connector, skipping enrichment")
		degradeAll(vectors)
		return
	}

	dealIDs := make([]string, len(vectors))
	for i := range vectors {
		dealIDs[i] = vectors[i].DealID
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = e.cfg.EnrichMaxAttempts

	var links []source.ConversationLink
	err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
		var linkErr error
		links, linkErr = e.src.LinkConversations(ctx, workspaceID, dealIDs)
		return linkErr
	})
	if err != nil {
		log.Warn("conversation linking failed, degrading to nulls", zap.Error(err))
		degradeAll(vectors)
		return
	}
	if len(links) == 0 {
		log.Info("no linked conversations")
		degradeAll(vectors)
		return
	}

	convIDs := make([]string, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		if !seen[l.ConversationID] {
			seen[l.ConversationID] = true
			convIDs = append(convIDs, l.ConversationID)
		}
	}

	var records []source.ConversationRecord
	err = resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
		var metaErr error
		records, metaErr = e.src.ConversationMetadata(ctx, workspaceID, convIDs)
		return metaErr
	})
	if err != nil {
		log.Warn("conversation metadata fetch failed, degrading to nulls", zap.Error(err))
		degradeAll(vectors)
		return
	}

	byID := make(map[string]source.ConversationRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	byDeal := make(map[string][]source.ConversationRecord)
	for _, l := range links {
		if r, ok := byID[l.ConversationID]; ok {
			byDeal[l.DealID] = append(byDeal[l.DealID], r)
		}
	}

	enriched := 0
	for i := range vectors {
		calls := byDeal[vectors[i].DealID]
		if len(calls) == 0 {
			continue
		}
		sort.Slice(calls, func(a, b int) bool {
			return calls[a].StartedAt.Before(calls[b].StartedAt)
		})
		mergeCalls(&vectors[i], calls)
		enriched++
	}

	log.Info("conversation enrichment complete",
		zap.Int("conversations", len(records)),
		zap.Int("deals_enriched", enriched),
	)
}

// degradeAll null-fills every conversation-derived field. Called on any
// enrichment failure so downstream stages see a consistent matrix.
func degradeAll(vectors []model.FeatureVector) {
	for i := range vectors {
		vectors[i].HasConversationData = false
		vectors[i].Conversation = nil
		vectors[i].Content = nil
		vectors[i].ContactCalls = nil
	}
}

// mergeCalls aggregates a deal's calls (sorted oldest first) into the
// vector's conversation blocks.
func mergeCalls(v *model.FeatureVector, calls []source.ConversationRecord) {
	v.HasConversationData = true

	metrics := &model.ConversationMetrics{CallCount: len(calls)}
	var talkSum float64
	for _, c := range calls {
		metrics.TotalDurationMinutes += c.DurationMinutes
		talkSum += c.RepTalkPct
	}
	metrics.AvgDurationMinutes = metrics.TotalDurationMinutes / float64(len(calls))
	metrics.AvgRepTalkPct = talkSum / float64(len(calls))

	first, last := calls[0], calls[len(calls)-1]
	if !first.StartedAt.IsZero() && !v.CloseDate.IsZero() {
		metrics.DaysFirstCallToClose = int(v.CloseDate.Sub(first.StartedAt).Hours() / 24)
		metrics.DaysLastCallToClose = int(v.CloseDate.Sub(last.StartedAt).Hours() / 24)
	}
	v.Conversation = metrics

	// Content classification may be missing even when linking worked;
	// that block degrades independently.
	v.Content = mergeContent(calls)
	v.ContactCalls = contactParticipation(v, calls)
}

func mergeContent(calls []source.ConversationRecord) *model.ConversationContent {
	var classified []*source.ConversationContentRecord
	for _, c := range calls {
		if c.Content != nil {
			classified = append(classified, c.Content)
		}
	}
	if len(classified) == 0 {
		return nil
	}

	content := &model.ConversationContent{}
	var depthSum float64
	for _, c := range classified {
		depthSum += c.TechnicalDepth
		content.ObjectionCount += c.ObjectionCount
		content.CompetitorMentions = content.CompetitorMentions || c.CompetitorMentions
		content.PricingMentions = content.PricingMentions || c.PricingMentions
		content.BudgetMentions = content.BudgetMentions || c.BudgetMentions
		content.TimelineMentions = content.TimelineMentions || c.TimelineMentions
		content.ChampionLanguage = content.ChampionLanguage || c.ChampionLanguage
	}
	content.TechnicalDepth = depthSum / float64(len(classified))

	// The most recent classified call decides sentiment and trend.
	latest := classified[len(classified)-1]
	content.Sentiment = latest.Sentiment
	content.SentimentTrend = latest.SentimentTrend

	return content
}

// contactParticipation maps call participants back onto the vector's
// contact arrays by title. Index i matches the vector invariant.
func contactParticipation(v *model.FeatureVector, calls []source.ConversationRecord) []*model.ContactCallStats {
	if len(v.Titles) == 0 {
		return nil
	}

	stats := make([]*model.ContactCallStats, len(v.Titles))
	first, last := calls[0], calls[len(calls)-1]

	for i, title := range v.Titles {
		key := strings.ToLower(strings.TrimSpace(title))
		if key == "" {
			continue
		}

		cs := &model.ContactCallStats{}
		var talkSum float64
		var appearances int
		for _, c := range calls {
			for _, p := range c.Participants {
				if strings.ToLower(strings.TrimSpace(p.Title)) != key {
					continue
				}
				appearances++
				talkSum += p.TalkPct
				if c.ID == first.ID {
					cs.InFirstCall = true
				}
				if c.ID == last.ID {
					cs.InClosingCall = true
				}
				break
			}
		}
		if appearances > 0 {
			cs.Appeared = true
			cs.AvgTalkPct = talkSum / float64(appearances)
		}
		stats[i] = cs
	}
	return stats
}
