package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"adlens/domain/causal"
	"adlens/domain/core"
	"adlens/internal/errors"
	"adlens/ports"
)

// schema is applied on startup; idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS causal_analyses (
	id         TEXT PRIMARY KEY,
	metric     TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_causal_analyses_created_at ON causal_analyses (created_at DESC);
`

// AnalysisRepository persists analysis results as JSONB rows.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a repository over an open connection.
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// EnsureSchema creates the analyses table if it does not exist.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "ensuring causal_analyses schema")
	}
	return nil
}

// Save stores one analysis result.
func (r *AnalysisRepository) Save(ctx context.Context, analysis *ports.StoredAnalysis) error {
	payload, err := json.Marshal(analysis.Result)
	if err != nil {
		return errors.Wrap(err, "marshaling analysis result")
	}

	createdAt := analysis.CreatedAt.Time()
	if analysis.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO causal_analyses (id, metric, result, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET metric = $2, result = $3`

	if _, err := r.db.ExecContext(ctx, query, analysis.ID.String(), analysis.Metric, payload, createdAt); err != nil {
		return errors.Wrap(err, "inserting analysis")
	}
	return nil
}

// Get loads one analysis by ID.
func (r *AnalysisRepository) Get(ctx context.Context, id core.AnalysisID) (*ports.StoredAnalysis, error) {
	query := `
		SELECT id, metric, result, created_at
		FROM causal_analyses
		WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id.String())
	analysis, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("analysis", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading analysis")
	}
	return analysis, nil
}

// ListRecent returns the newest analyses, newest first.
func (r *AnalysisRepository) ListRecent(ctx context.Context, limit int) ([]*ports.StoredAnalysis, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, metric, result, created_at
		FROM causal_analyses
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing analyses")
	}
	defer rows.Close()

	var out []*ports.StoredAnalysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning analysis row")
		}
		out = append(out, analysis)
	}
	return out, errors.Wrap(rows.Err(), "iterating analyses")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*ports.StoredAnalysis, error) {
	var (
		id        string
		metric    string
		payload   []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &metric, &payload, &createdAt); err != nil {
		return nil, err
	}

	var result causal.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, err
	}

	return &ports.StoredAnalysis{
		ID:        core.AnalysisID(id),
		Metric:    metric,
		CreatedAt: core.NewTimestamp(createdAt),
		Result:    &result,
	}, nil
}
