package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"kbwatch/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndLoadArticles(t *testing.T) {
	db := newTestDB(t)

	docs := []domain.Document{
		{ID: "200", Title: "Billing Guide", RawText: "invoices are issued monthly"},
		{ID: "100", Title: "Refund Policy", RawText: "refunds require approval"},
	}
	stored, err := UpsertArticles(db, docs)
	if err != nil {
		t.Fatalf("UpsertArticles failed: %v", err)
	}
	if stored != 2 {
		t.Fatalf("expected 2 stored, got %d", stored)
	}

	loaded, err := LoadArticles(db)
	if err != nil {
		t.Fatalf("LoadArticles failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(loaded))
	}
	// Load order is by id, independent of insert order.
	if loaded[0].ID != "100" || loaded[1].ID != "200" {
		t.Fatalf("unexpected order: %+v", loaded)
	}
	if loaded[0].Title != "Refund Policy" || loaded[0].RawText != "refunds require approval" {
		t.Fatalf("row mangled: %+v", loaded[0])
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	db := newTestDB(t)

	if _, err := UpsertArticles(db, []domain.Document{{ID: "1", Title: "Old", RawText: "old body"}}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if _, err := UpsertArticles(db, []domain.Document{{ID: "1", Title: "New", RawText: "new body"}}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	loaded, err := LoadArticles(db)
	if err != nil {
		t.Fatalf("LoadArticles failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 article after replace, got %d", len(loaded))
	}
	if loaded[0].Title != "New" || loaded[0].RawText != "new body" {
		t.Fatalf("replace did not take: %+v", loaded[0])
	}

	n, err := CountArticles(db)
	if err != nil {
		t.Fatalf("CountArticles failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}
}

func TestChunkSnapshotRoundtrip(t *testing.T) {
	db := newTestDB(t)

	chunks := []domain.Chunk{
		{DocumentID: "100", DocumentTitle: "Refund Policy", Ordinal: 0, Text: "refunds require approval"},
		{DocumentID: "100", DocumentTitle: "Refund Policy", Ordinal: 1, Text: "approvals expire weekly"},
		{DocumentID: "200", DocumentTitle: "Billing Guide", Ordinal: 0, Text: "invoices issued monthly"},
	}
	if err := ReplaceChunks(db, chunks); err != nil {
		t.Fatalf("ReplaceChunks failed: %v", err)
	}

	loaded, err := LoadChunks(db)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	if len(loaded) != len(chunks) {
		t.Fatalf("expected %d chunks, got %d", len(chunks), len(loaded))
	}
	for i := range chunks {
		if loaded[i] != chunks[i] {
			t.Fatalf("chunk %d mismatch: got %+v, want %+v", i, loaded[i], chunks[i])
		}
	}
}

func TestReplaceChunksClearsOldSnapshot(t *testing.T) {
	db := newTestDB(t)

	old := []domain.Chunk{
		{DocumentID: "1", DocumentTitle: "A", Ordinal: 0, Text: "stale"},
		{DocumentID: "1", DocumentTitle: "A", Ordinal: 1, Text: "also stale"},
	}
	if err := ReplaceChunks(db, old); err != nil {
		t.Fatalf("first ReplaceChunks failed: %v", err)
	}
	fresh := []domain.Chunk{{DocumentID: "2", DocumentTitle: "B", Ordinal: 0, Text: "fresh"}}
	if err := ReplaceChunks(db, fresh); err != nil {
		t.Fatalf("second ReplaceChunks failed: %v", err)
	}

	loaded, err := LoadChunks(db)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Text != "fresh" {
		t.Fatalf("old snapshot survived: %+v", loaded)
	}
}

func TestLoadFromEmptyDB(t *testing.T) {
	db := newTestDB(t)

	docs, err := LoadArticles(db)
	if err != nil {
		t.Fatalf("LoadArticles failed: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no articles, got %d", len(docs))
	}
	chunks, err := LoadChunks(db)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
