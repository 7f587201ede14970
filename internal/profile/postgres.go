package profile

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/icp-discovery/internal/db"
	"github.com/sells-group/icp-discovery/internal/model"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS icp_profiles (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	workspace_id    TEXT NOT NULL,
	version         INT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'active',
	personas        JSONB NOT NULL,
	committees      JSONB NOT NULL,
	company_profile JSONB NOT NULL,
	scoring_weights JSONB NOT NULL,
	metadata        JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, version)
);

CREATE INDEX IF NOT EXISTS idx_icp_profiles_workspace
	ON icp_profiles (workspace_id, status);
`

// Migrate creates the profile table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "profile: migrate")
	}
	return nil
}

// SaveProfile supersedes the current active profile and inserts the new
// version in one transaction.
func (s *PostgresStore) SaveProfile(ctx context.Context, workspaceID string, result *model.DiscoveryResult) (*model.Profile, error) {
	blobs, err := marshalResult(result)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "profile: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`UPDATE icp_profiles SET status = 'superseded'
		 WHERE workspace_id = $1 AND status = 'active'`,
		workspaceID,
	); err != nil {
		return nil, eris.Wrap(err, "profile: supersede active")
	}

	p := &model.Profile{
		WorkspaceID: workspaceID,
		Status:      model.ProfileActive,
		Personas:    result.Personas,
		Committees:  result.Committees,
		Company:     result.Company,
		Weights:     result.Weights,
		Metadata:    result.Metadata,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO icp_profiles
			(workspace_id, version, status, personas, committees, company_profile, scoring_weights, metadata)
		 VALUES ($1,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM icp_profiles WHERE workspace_id = $1),
			'active', $2, $3, $4, $5, $6)
		 RETURNING id, version, created_at`,
		workspaceID, blobs.personas, blobs.committees, blobs.company, blobs.weights, blobs.metadata,
	).Scan(&p.ID, &p.Version, &p.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "profile: insert version")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "profile: commit tx")
	}
	return p, nil
}

const profileColumns = `id, workspace_id, version, status,
	personas, committees, company_profile, scoring_weights, metadata, created_at`

// ActiveProfile returns the workspace's active profile, or nil.
func (s *PostgresStore) ActiveProfile(ctx context.Context, workspaceID string) (*model.Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+`
		 FROM icp_profiles
		 WHERE workspace_id = $1 AND status = 'active'`,
		workspaceID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "profile: get active")
	}
	return p, nil
}

// ListVersions returns every profile version for a workspace, newest
// first.
func (s *PostgresStore) ListVersions(ctx context.Context, workspaceID string) ([]model.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM icp_profiles
		 WHERE workspace_id = $1
		 ORDER BY version DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "profile: list versions")
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, eris.Wrap(err, "profile: scan version")
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close() error {
	return nil
}

type resultBlobs struct {
	personas, committees, company, weights, metadata []byte
}

func marshalResult(result *model.DiscoveryResult) (resultBlobs, error) {
	var b resultBlobs
	var err error
	if b.personas, err = json.Marshal(result.Personas); err != nil {
		return b, eris.Wrap(err, "profile: marshal personas")
	}
	if b.committees, err = json.Marshal(result.Committees); err != nil {
		return b, eris.Wrap(err, "profile: marshal committees")
	}
	if b.company, err = json.Marshal(result.Company); err != nil {
		return b, eris.Wrap(err, "profile: marshal company profile")
	}
	if b.weights, err = json.Marshal(result.Weights); err != nil {
		return b, eris.Wrap(err, "profile: marshal scoring weights")
	}
	if b.metadata, err = json.Marshal(result.Metadata); err != nil {
		return b, eris.Wrap(err, "profile: marshal metadata")
	}
	return b, nil
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	var personas, committees, company, weights, metadata []byte
	if err := row.Scan(
		&p.ID, &p.WorkspaceID, &p.Version, &p.Status,
		&personas, &committees, &company, &weights, &metadata, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalProfile(&p, personas, committees, company, weights, metadata); err != nil {
		return nil, err
	}
	return &p, nil
}

func unmarshalProfile(p *model.Profile, personas, committees, company, weights, metadata []byte) error {
	if err := json.Unmarshal(personas, &p.Personas); err != nil {
		return eris.Wrap(err, "profile: unmarshal personas")
	}
	if err := json.Unmarshal(committees, &p.Committees); err != nil {
		return eris.Wrap(err, "profile: unmarshal committees")
	}
	if err := json.Unmarshal(company, &p.Company); err != nil {
		return eris.Wrap(err, "profile: unmarshal company profile")
	}
	if err := json.Unmarshal(weights, &p.Weights); err != nil {
		return eris.Wrap(err, "profile: unmarshal scoring weights")
	}
	if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
		return eris.Wrap(err, "profile: unmarshal metadata")
	}
	return nil
}
