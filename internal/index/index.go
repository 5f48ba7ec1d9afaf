// Package index builds a TF-IDF vector space over corpus chunks and answers
// cosine-similarity queries against it. An Index is immutable after Build
// and safe for concurrent readers; there is no incremental update, a corpus
// change means a full rebuild.
package index

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"kbwatch/internal/domain"
	"kbwatch/internal/textproc"
)

type sparseVec = map[int]float64

// Result is one scored chunk from a query, ordered best-first.
type Result struct {
	Chunk domain.Chunk
	Score float64
}

// Retriever is the query-side view of an Index. The pipeline depends on
// this rather than the concrete type so tests can count or fake queries.
type Retriever interface {
	Query(text string) ([]Result, error)
}

// Index is the term-weighted vector space over all chunks. Vocabulary and
// document frequencies are fixed at build time.
type Index struct {
	vocab  map[string]int
	idf    []float64
	docs   []sparseVec
	chunks []domain.Chunk
	stop   textproc.StopwordSet
}

// tokenize splits on non-alphanumeric runes and lowercases. This is the
// vectorizer-level tokenization; it is stricter than the whitespace split
// used during normalization.
func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func (idx *Index) terms(s string) []string {
	tokens := tokenize(s)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !idx.stop.Contains(tok) {
			kept = append(kept, tok)
		}
	}
	return kept
}

// Build constructs the index over the full chunk set. The stopword filter
// here is a second pass on top of the one applied during normalization;
// both use the same set. Chunk slice order is the tie-break order for
// equal-score query results.
func Build(chunks []domain.Chunk, stop textproc.StopwordSet) *Index {
	idx := &Index{
		vocab:  make(map[string]int),
		chunks: chunks,
		stop:   stop,
	}
	if len(chunks) == 0 {
		return idx
	}

	for _, chunk := range chunks {
		for _, tok := range idx.terms(chunk.Text) {
			if _, ok := idx.vocab[tok]; !ok {
				idx.vocab[tok] = len(idx.vocab)
			}
		}
	}

	df := make([]int, len(idx.vocab))
	idx.docs = make([]sparseVec, len(chunks))
	n := float64(len(chunks))

	for i, chunk := range chunks {
		tf := make(map[int]int)
		for _, tok := range idx.terms(chunk.Text) {
			tf[idx.vocab[tok]]++
		}
		vec := make(sparseVec, len(tf))
		for termID, count := range tf {
			vec[termID] = float64(count)
			df[termID]++
		}
		idx.docs[i] = vec
	}

	idx.idf = make([]float64, len(idx.vocab))
	for i, d := range df {
		if d > 0 {
			idx.idf[i] = math.Log(n/float64(d)) + 1.0
		}
	}
	for _, vec := range idx.docs {
		for termID := range vec {
			vec[termID] *= idx.idf[termID]
		}
	}
	return idx
}

func (idx *Index) queryVec(text string) sparseVec {
	tf := make(map[int]int)
	for _, tok := range idx.terms(text) {
		if i, ok := idx.vocab[tok]; ok {
			tf[i]++
		}
	}
	vec := make(sparseVec, len(tf))
	for i, count := range tf {
		vec[i] = float64(count) * idx.idf[i]
	}
	return vec
}

// Query scores every chunk against text by cosine similarity and returns
// all chunks in descending score order, ties broken by build order. A query
// with no vocabulary overlap scores 0 everywhere. Thresholding is the
// caller's job.
func (idx *Index) Query(text string) ([]Result, error) {
	if idx == nil || idx.vocab == nil {
		return nil, domain.ErrIndexNotBuilt
	}
	qvec := idx.queryVec(text)

	results := make([]Result, len(idx.chunks))
	for i, dvec := range idx.docs {
		results[i] = Result{Chunk: idx.chunks[i], Score: cosineSim(qvec, dvec)}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	return results, nil
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	if idx == nil {
		return 0
	}
	return len(idx.chunks)
}

func cosineSim(a, b sparseVec) float64 {
	var dot, normA, normB float64
	for i, va := range a {
		if vb, ok := b[i]; ok {
			dot += va * vb
		}
		normA += va * va
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
