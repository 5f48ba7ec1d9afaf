// Package classifier maps a chat message onto one of the four operational
// categories by delegating to a remote labeling service. Two providers are
// supported: the OpenAI assistant thread/run flow (polling) and a direct
// Anthropic messages call.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kbwatch/internal/domain"
)

// Classifier labels a single message. Implementations block for the
// duration of the remote call; callers wanting cancellation pass a ctx with
// a deadline.
type Classifier interface {
	Classify(ctx context.Context, message string) (domain.Category, error)
}

const classifyInstruction = `You are a classification assistant. Your only job is to classify the input message into one of the following categories:
- "simple notification"
- "process update"
- "product release/enhancement"
- "SOP change"

DO NOT search any database or documents. Just return the category.

Respond with only the category name.`

func buildClassifyPrompt(message string) string {
	return classifyInstruction + "\n\nMessage: " + message
}

// ParseLabel maps service output onto the closed Category set. The text is
// trimmed and lowercased first; surrounding quotes and trailing periods are
// tolerated. Anything that does not map returns ErrUnclassified.
func ParseLabel(text string) (domain.Category, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Trim(s, `"'.`)
	s = strings.TrimSpace(s)
	switch s {
	case "simple notification", "simple_notification":
		return domain.CategorySimpleNotification, nil
	case "process update", "process_update":
		return domain.CategoryProcessUpdate, nil
	case "product release/enhancement", "product release or enhancement", "product_release_or_enhancement":
		return domain.CategoryProductRelease, nil
	case "sop change", "sop_change":
		return domain.CategorySOPChange, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnclassified, text)
}

// Clock abstracts time for the polling loop so tests can drive it with a
// fake instead of sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
