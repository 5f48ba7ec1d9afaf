package domain

// Document is one knowledge-base article as delivered by ingestion.
// Immutable once stored; the core never edits article content.
type Document struct {
	ID      string
	Title   string
	RawText string
}

// Chunk is a bounded-length, sentence-aligned slice of a normalized
// document. Ordinal is the global build order and is what keeps
// score ties deterministic across runs.
type Chunk struct {
	DocumentID    string
	DocumentTitle string
	Ordinal       int
	Text          string
}

// Category is the closed set of classification outcomes.
type Category string

const (
	CategorySimpleNotification Category = "simple_notification"
	CategoryProcessUpdate      Category = "process_update"
	CategoryProductRelease     Category = "product_release_or_enhancement"
	CategorySOPChange          Category = "sop_change"
)

// Categories lists all valid labels in a fixed order.
func Categories() []Category {
	return []Category{
		CategorySimpleNotification,
		CategoryProcessUpdate,
		CategoryProductRelease,
		CategorySOPChange,
	}
}

// Valid reports whether c is one of the four known labels.
func (c Category) Valid() bool {
	switch c {
	case CategorySimpleNotification, CategoryProcessUpdate, CategoryProductRelease, CategorySOPChange:
		return true
	}
	return false
}

// ConversationContext is the per-message input assembled by the transport:
// the triggering message plus any prior messages in its thread, oldest first.
type ConversationContext struct {
	CurrentMessage string
	ThreadMessages []string
}

// Recommendation is the pipeline output handed back to the transport.
// MatchedTitle is empty when no article cleared the relevance threshold
// or when the category does not imply a documentation change.
type Recommendation struct {
	Category     Category
	MatchedTitle string
	Confidence   float64
}
