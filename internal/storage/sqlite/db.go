// Package sqlite persists the knowledge-base snapshot: raw articles pulled
// from Confluence and the normalized chunks derived from them. The chunk
// table exists so a restart can rebuild the index from the same snapshot
// with the same iteration order, keeping ordinal tie-breaks deterministic.
package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"kbwatch/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		article_id TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chunks (
		article_id    TEXT NOT NULL,
		article_title TEXT NOT NULL,
		ordinal       INTEGER NOT NULL,
		text          TEXT NOT NULL,
		PRIMARY KEY (article_id, ordinal)
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_article ON chunks(article_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// UpsertArticles replaces stored article rows by id in one transaction.
func UpsertArticles(db *sql.DB, docs []domain.Document) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO articles (article_id, title, content) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	stored := 0
	for _, doc := range docs {
		if _, err := stmt.Exec(doc.ID, doc.Title, doc.RawText); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, tx.Commit()
}

// LoadArticles returns all stored articles ordered by id, which fixes the
// corpus iteration order for chunking and index builds.
func LoadArticles(db *sql.DB) ([]domain.Document, error) {
	rows, err := db.Query(`SELECT article_id, title, content FROM articles ORDER BY article_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.RawText); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ReplaceChunks rewrites the whole chunk snapshot. The index never updates
// incrementally, so a partial rewrite has no use.
func ReplaceChunks(db *sql.DB, chunks []domain.Chunk) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chunks`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO chunks (article_id, article_title, ordinal, text) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.Exec(c.DocumentID, c.DocumentTitle, c.Ordinal, c.Text); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadChunks returns the chunk snapshot in its stable build order.
func LoadChunks(db *sql.DB) ([]domain.Chunk, error) {
	rows, err := db.Query(
		`SELECT article_id, article_title, ordinal, text FROM chunks ORDER BY article_id, ordinal`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.DocumentID, &c.DocumentTitle, &c.Ordinal, &c.Text); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountArticles reports how many articles the snapshot holds.
func CountArticles(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&n)
	return n, err
}
