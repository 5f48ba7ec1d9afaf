package index

import (
	"errors"
	"testing"

	"kbwatch/internal/domain"
	"kbwatch/internal/textproc"
)

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{DocumentID: "1", DocumentTitle: "Database Runbook", Ordinal: 0, Text: "database connection pool timeout tuning"},
		{DocumentID: "2", DocumentTitle: "Auth Guide", Ordinal: 0, Text: "user authentication oauth login flow"},
		{DocumentID: "1", DocumentTitle: "Database Runbook", Ordinal: 1, Text: "database schema migration checklist"},
	}
}

func TestQueryRanksByRelevance(t *testing.T) {
	idx := Build(testChunks(), textproc.NewStopwordSet())

	results, err := idx.Query("database connection issue")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected a score for every chunk, got %d", len(results))
	}
	if results[0].Chunk.DocumentTitle != "Database Runbook" || results[0].Chunk.Ordinal != 0 {
		t.Fatalf("expected connection-pool chunk first, got %+v", results[0].Chunk)
	}
	if results[0].Score <= 0 {
		t.Fatalf("expected positive top score, got %f", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("scores not non-increasing at %d: %f > %f", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestQueryZeroOverlap(t *testing.T) {
	chunks := testChunks()
	idx := Build(chunks, textproc.NewStopwordSet())

	results, err := idx.Query("zzz qqq unrelated")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for i, r := range results {
		if r.Score != 0 {
			t.Fatalf("expected zero score for no-overlap query, got %f", r.Score)
		}
		// With all scores equal, build order must be preserved.
		if r.Chunk != chunks[i] {
			t.Fatalf("tie order broken at %d: %+v", i, r.Chunk)
		}
	}
}

func TestQueryTieBreakIsBuildOrder(t *testing.T) {
	chunks := []domain.Chunk{
		{DocumentID: "a", DocumentTitle: "A", Ordinal: 0, Text: "identical payload text"},
		{DocumentID: "b", DocumentTitle: "B", Ordinal: 0, Text: "identical payload text"},
	}
	idx := Build(chunks, textproc.NewStopwordSet())

	results, err := idx.Query("identical payload")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if results[0].Score != results[1].Score {
		t.Fatalf("expected equal scores, got %f and %f", results[0].Score, results[1].Score)
	}
	if results[0].Chunk.DocumentID != "a" || results[1].Chunk.DocumentID != "b" {
		t.Fatalf("tie not broken by build order: %+v", results)
	}
}

func TestQueryDeterministic(t *testing.T) {
	idx := Build(testChunks(), textproc.NewStopwordSet())
	first, err := idx.Query("database migration")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	second, err := idx.Query("database migration")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("query not deterministic at %d: %+v != %+v", i, first[i], second[i])
		}
	}
}

func TestQueryStopwordsExcluded(t *testing.T) {
	idx := Build(testChunks(), textproc.NewStopwordSet())
	results, err := idx.Query("the is and of")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for _, r := range results {
		if r.Score != 0 {
			t.Fatalf("stopword-only query should score 0 everywhere, got %f", r.Score)
		}
	}
}

func TestQueryNotBuilt(t *testing.T) {
	var idx *Index
	if _, err := idx.Query("anything"); !errors.Is(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}
}

func TestHolderBeforeFirstSwap(t *testing.T) {
	h := NewHolder(nil)
	if _, err := h.Query("anything"); !errors.Is(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt from empty holder, got %v", err)
	}
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(nil)
	h.Swap(Build(testChunks(), textproc.NewStopwordSet()))

	results, err := h.Query("authentication login")
	if err != nil {
		t.Fatalf("Query after swap failed: %v", err)
	}
	if results[0].Chunk.DocumentTitle != "Auth Guide" {
		t.Fatalf("expected auth chunk first, got %+v", results[0].Chunk)
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	idx := Build(nil, textproc.NewStopwordSet())
	results, err := idx.Query("anything")
	if err != nil {
		t.Fatalf("Query on empty index failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results from empty index, got %d", len(results))
	}
}
