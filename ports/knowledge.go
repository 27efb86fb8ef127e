package ports

import (
	"context"

	"adlens/domain/causal"
)

// PitfallWarning is one methodological caveat from the knowledge base.
type PitfallWarning struct {
	Pitfall  string `json:"pitfall"`
	Solution string `json:"solution"`
}

// Interpretation carries knowledge-base reading guidance for a result.
type Interpretation struct {
	Insights []string `json:"insights"`
}

// Enhancement is what the knowledge base returns for one analysis result.
type Enhancement struct {
	EnhancedRecommendations []string         `json:"enhanced_recommendations"`
	Interpretation          Interpretation   `json:"interpretation"`
	PitfallWarnings         []PitfallWarning `json:"pitfall_warnings"`
}

// KnowledgeBase enriches a causal result with domain knowledge. It is a
// read-only collaborator injected at engine construction; any error from it
// is non-fatal and the engine proceeds with its own defaults.
type KnowledgeBase interface {
	EnhanceCausalResult(ctx context.Context, result *causal.Result, analysisCtx causal.Context) (*Enhancement, error)
}
