package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"kbwatch/internal/classifier"
	"kbwatch/internal/domain"
)

// Pipeline is the seam the transport calls once per qualifying inbound
// message. It holds only immutable dependencies and is safe for concurrent
// Handle calls.
type Pipeline struct {
	classifier classifier.Classifier
	policy     *Policy

	// unclassifiedFallback maps ErrUnclassified onto simple_notification
	// instead of failing the invocation. The reference behavior let
	// unknown labels fall through to "no update needed", which this
	// reproduces when enabled.
	unclassifiedFallback bool
}

func New(c classifier.Classifier, p *Policy, unclassifiedFallback bool) *Pipeline {
	return &Pipeline{
		classifier:           c,
		policy:               p,
		unclassifiedFallback: unclassifiedFallback,
	}
}

// FlattenContext joins the current message with all prior thread messages
// into one classification input. Plain order-preserving concatenation, no
// weighting or summarization.
func FlattenContext(cc domain.ConversationContext) string {
	parts := make([]string, 0, 1+len(cc.ThreadMessages))
	if cc.CurrentMessage != "" {
		parts = append(parts, cc.CurrentMessage)
	}
	for _, m := range cc.ThreadMessages {
		if m != "" {
			parts = append(parts, m)
		}
	}
	return strings.Join(parts, " ")
}

// Handle classifies the flattened conversation and applies the decision
// policy. Any classifier or index error fails the whole invocation; no
// partial Recommendation is returned.
func (p *Pipeline) Handle(ctx context.Context, cc domain.ConversationContext) (domain.Recommendation, error) {
	input := FlattenContext(cc)

	label, err := p.classifier.Classify(ctx, input)
	if err != nil {
		if p.unclassifiedFallback && errors.Is(err, domain.ErrUnclassified) {
			log.Printf("pipeline unclassified fallback err=%v", err)
			label = domain.CategorySimpleNotification
		} else {
			return domain.Recommendation{}, fmt.Errorf("classifying message: %w", err)
		}
	}

	rec, err := p.policy.Decide(label, input)
	if err != nil {
		return domain.Recommendation{}, err
	}
	return rec, nil
}
