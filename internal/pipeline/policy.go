// Package pipeline orchestrates per-message handling: flatten the
// conversation, classify it, and decide whether a knowledge-base article
// should be updated.
package pipeline

import (
	"fmt"

	"kbwatch/internal/domain"
	"kbwatch/internal/index"
)

// PolicyConfig holds the tunables of the decision rule. The defaults carry
// over from the reference deployment and are not a verified business rule;
// both knobs stay adjustable via configuration.
type PolicyConfig struct {
	RelevanceThreshold float64
	TriggerLabels      map[domain.Category]bool
}

// DefaultPolicyConfig returns the 0.2 threshold and the two labels that
// imply a documentation change.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		RelevanceThreshold: 0.2,
		TriggerLabels: map[domain.Category]bool{
			domain.CategoryProcessUpdate:  true,
			domain.CategoryProductRelease: true,
		},
	}
}

// Policy combines a classification label with (conditionally) a retrieval
// result into a final Recommendation.
type Policy struct {
	cfg       PolicyConfig
	retriever index.Retriever
}

func NewPolicy(cfg PolicyConfig, retriever index.Retriever) *Policy {
	return &Policy{cfg: cfg, retriever: retriever}
}

// Decide queries the index only for trigger labels. Above-threshold top
// match yields the matched document title with the score as confidence;
// below threshold the title stays empty, signalling that no relevant
// article exists. Non-trigger labels never touch the index.
func (p *Policy) Decide(label domain.Category, message string) (domain.Recommendation, error) {
	if !p.cfg.TriggerLabels[label] {
		return domain.Recommendation{Category: label}, nil
	}

	results, err := p.retriever.Query(message)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("querying corpus index: %w", err)
	}
	if len(results) == 0 || results[0].Score <= p.cfg.RelevanceThreshold {
		return domain.Recommendation{Category: label}, nil
	}
	best := results[0]
	return domain.Recommendation{
		Category:     label,
		MatchedTitle: best.Chunk.DocumentTitle,
		Confidence:   best.Score,
	}, nil
}
