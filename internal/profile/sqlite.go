package profile

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/icp-discovery/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// default backend for local and single-tenant deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS icp_profiles (
	id              TEXT PRIMARY KEY,
	workspace_id    TEXT NOT NULL,
	version         INTEGER NOT NULL,
	status          TEXT NOT NULL DEFAULT 'active',
	personas        TEXT NOT NULL,
	committees      TEXT NOT NULL,
	company_profile TEXT NOT NULL,
	scoring_weights TEXT NOT NULL,
	metadata        TEXT NOT NULL,
	created_at      DATETIME NOT NULL,
	UNIQUE (workspace_id, version)
);

CREATE INDEX IF NOT EXISTS idx_icp_profiles_workspace ON icp_profiles(workspace_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveProfile marks the current active profile superseded and inserts
// the next version inside one transaction.
func (s *SQLiteStore) SaveProfile(ctx context.Context, workspaceID string, result *model.DiscoveryResult) (*model.Profile, error) {
	blobs, err := marshalResult(result)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE icp_profiles SET status = 'superseded' WHERE workspace_id = ? AND status = 'active'`,
		workspaceID,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: supersede active")
	}

	var version int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM icp_profiles WHERE workspace_id = ?`,
		workspaceID,
	).Scan(&version); err != nil {
		return nil, eris.Wrap(err, "sqlite: next version")
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO icp_profiles
			(id, workspace_id, version, status, personas, committees, company_profile, scoring_weights, metadata, created_at)
		 VALUES (?, ?, ?, 'active', ?, ?, ?, ?, ?, ?)`,
		id, workspaceID, version,
		string(blobs.personas), string(blobs.committees), string(blobs.company),
		string(blobs.weights), string(blobs.metadata), now,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert version")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit tx")
	}

	return &model.Profile{
		ID:          id,
		WorkspaceID: workspaceID,
		Version:     version,
		Status:      model.ProfileActive,
		Personas:    result.Personas,
		Committees:  result.Committees,
		Company:     result.Company,
		Weights:     result.Weights,
		Metadata:    result.Metadata,
		CreatedAt:   now,
	}, nil
}

const sqliteProfileColumns = `id, workspace_id, version, status,
	personas, committees, company_profile, scoring_weights, metadata, created_at`

// ActiveProfile returns the workspace's active profile, or nil.
func (s *SQLiteStore) ActiveProfile(ctx context.Context, workspaceID string) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteProfileColumns+` FROM icp_profiles WHERE workspace_id = ? AND status = 'active'`,
		workspaceID,
	)
	p, err := scanSQLiteProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get active")
	}
	return p, nil
}

// ListVersions returns every profile version for a workspace, newest first.
func (s *SQLiteStore) ListVersions(ctx context.Context, workspaceID string) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteProfileColumns+` FROM icp_profiles WHERE workspace_id = ? ORDER BY version DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list versions")
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanSQLiteProfile(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan version")
		}
		profiles = append(profiles, *p)
	}
	return profiles, eris.Wrap(rows.Err(), "sqlite: list versions iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteProfile(row scannable) (*model.Profile, error) {
	var p model.Profile
	var personas, committees, company, weights, metadata string
	err := row.Scan(
		&p.ID, &p.WorkspaceID, &p.Version, &p.Status,
		&personas, &committees, &company, &weights, &metadata, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalProfile(&p,
		[]byte(personas), []byte(committees), []byte(company), []byte(weights), []byte(metadata),
	); err != nil {
		return nil, err
	}
	return &p, nil
}
