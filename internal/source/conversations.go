package source

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/icp-discovery/internal/db"
)

// PostgresConversations implements ConversationSource against the
// conversation subsystem's tables.
type PostgresConversations struct {
	pool db.Pool
}

// NewPostgresConversations creates a PostgresConversations.
func NewPostgresConversations(pool db.Pool) *PostgresConversations {
	return &PostgresConversations{pool: pool}
}

// LinkConversations returns conversation-to-deal links for the given
// deals. No links is a valid, empty result.
func (s *PostgresConversations) LinkConversations(ctx context.Context, workspaceID string, dealIDs []string) ([]ConversationLink, error) {
	if len(dealIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT conversation_id, deal_id
		FROM conversation_links
		WHERE workspace_id = $1 AND deal_id = ANY($2)`,
		workspaceID, dealIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "source: link conversations")
	}
	defer rows.Close()

	var links []ConversationLink
	for rows.Next() {
		var l ConversationLink
		if err := rows.Scan(&l.ConversationID, &l.DealID); err != nil {
			return nil, eris.Wrap(err, "source: scan conversation link")
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ConversationMetadata returns call metadata and, where the classifier has
// run, content classifications for the given conversations.
func (s *PostgresConversations) ConversationMetadata(ctx context.Context, workspaceID string, conversationIDs []string) ([]ConversationRecord, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, duration_minutes, rep_talk_pct, participants, content
		FROM conversations
		WHERE workspace_id = $1 AND id = ANY($2)`,
		workspaceID, conversationIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "source: conversation metadata")
	}
	defer rows.Close()

	var records []ConversationRecord
	for rows.Next() {
		var r ConversationRecord
		var participants, content []byte
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.DurationMinutes, &r.RepTalkPct,
			&participants, &content); err != nil {
			return nil, eris.Wrap(err, "source: scan conversation")
		}

		if len(participants) > 0 {
			if err := json.Unmarshal(participants, &r.Participants); err != nil {
				r.Participants = nil
			}
		}
		if len(content) > 0 {
			var c ConversationContentRecord
			if err := json.Unmarshal(content, &c); err == nil {
				r.Content = &c
			}
		}

		records = append(records, r)
	}
	return records, rows.Err()
}
