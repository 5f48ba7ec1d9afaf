package textproc

import (
	"strings"

	"kbwatch/internal/domain"
)

// SplitSentences splits normalized text on sentence terminators (. ! ?)
// followed by a space or end of text. Trailing text without a terminator is
// kept as a final sentence, so joining the result with single spaces
// reproduces the input exactly.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		j := i
		for j+1 < len(text) && isTerminator(text[j+1]) {
			j++
		}
		if j+1 == len(text) || text[j+1] == ' ' {
			if s := strings.TrimSpace(text[start : j+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = j + 1
		}
		i = j
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

// Chunk greedily packs sentences into segments of at most maxLen
// characters. Sentence integrity is the hard invariant: a single sentence
// longer than maxLen is emitted whole as its own chunk, the length cap is
// only a soft target. Empty input yields no chunks.
func Chunk(normalized string, maxLen int) []string {
	sentences := SplitSentences(normalized)
	var chunks []string
	cur := ""
	for _, s := range sentences {
		if len(cur)+len(s) <= maxLen {
			cur += " " + s
			continue
		}
		if t := strings.TrimSpace(cur); t != "" {
			chunks = append(chunks, t)
		}
		cur = s
	}
	if t := strings.TrimSpace(cur); t != "" {
		chunks = append(chunks, t)
	}
	return chunks
}

// ChunkDocument normalizes a document and splits it into ordered chunks.
// Ordinals are assigned per document and are stable for a given input.
func ChunkDocument(doc domain.Document, maxLen int, stop StopwordSet) []domain.Chunk {
	segments := Chunk(Normalize(doc.RawText, stop), maxLen)
	out := make([]domain.Chunk, 0, len(segments))
	for i, seg := range segments {
		out = append(out, domain.Chunk{
			DocumentID:    doc.ID,
			DocumentTitle: doc.Title,
			Ordinal:       i,
			Text:          seg,
		})
	}
	return out
}

// ChunkCorpus runs ChunkDocument over every document, preserving document
// order. The resulting slice order is the index build order and therefore
// the tie-break order for equal-score query results.
func ChunkCorpus(docs []domain.Document, maxLen int, stop StopwordSet) []domain.Chunk {
	var out []domain.Chunk
	for _, doc := range docs {
		out = append(out, ChunkDocument(doc, maxLen, stop)...)
	}
	return out
}
