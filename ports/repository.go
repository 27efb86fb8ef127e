package ports

import (
	"context"

	"adlens/domain/causal"
	"adlens/domain/core"
)

// StoredAnalysis is one persisted analysis result with its metadata.
type StoredAnalysis struct {
	ID        core.AnalysisID `json:"id"`
	Metric    string          `json:"metric"`
	CreatedAt core.Timestamp  `json:"created_at"`
	Result    *causal.Result  `json:"result"`
}

// ResultRepository persists analysis results for later retrieval by the
// API and reporting layers.
type ResultRepository interface {
	Save(ctx context.Context, analysis *StoredAnalysis) error
	Get(ctx context.Context, id core.AnalysisID) (*StoredAnalysis, error)
	ListRecent(ctx context.Context, limit int) ([]*StoredAnalysis, error)
}
