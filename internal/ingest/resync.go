package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"kbwatch/internal/index"
	"kbwatch/internal/storage/sqlite"
	"kbwatch/internal/textproc"
)

// Rebuilder owns the corpus-to-index path: fetch articles, rewrite the
// snapshot, rebuild the TF-IDF index and swap it into the holder.
type Rebuilder struct {
	client   *ConfluenceClient
	db       *sql.DB
	holder   *index.Holder
	stop     textproc.StopwordSet
	maxChunk int
}

func NewRebuilder(client *ConfluenceClient, db *sql.DB, holder *index.Holder, stop textproc.StopwordSet, maxChunk int) *Rebuilder {
	return &Rebuilder{client: client, db: db, holder: holder, stop: stop, maxChunk: maxChunk}
}

// Sync fetches the corpus and rebuilds everything from the fresh snapshot.
func (r *Rebuilder) Sync(ctx context.Context) error {
	docs, err := r.client.FetchArticles(ctx)
	if err != nil {
		return fmt.Errorf("fetching articles: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("confluence returned no articles")
	}
	if _, err := sqlite.UpsertArticles(r.db, docs); err != nil {
		return fmt.Errorf("storing articles: %w", err)
	}
	return r.RebuildFromStore()
}

// RebuildFromStore chunks the stored articles, rewrites the chunk snapshot
// and swaps in a freshly built index. Used both after a fetch and at
// startup when the fetch is skipped.
func (r *Rebuilder) RebuildFromStore() error {
	docs, err := sqlite.LoadArticles(r.db)
	if err != nil {
		return fmt.Errorf("loading articles: %w", err)
	}
	chunks := textproc.ChunkCorpus(docs, r.maxChunk, r.stop)
	if err := sqlite.ReplaceChunks(r.db, chunks); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}
	r.holder.Swap(index.Build(chunks, r.stop))
	log.Printf("index rebuilt articles=%d chunks=%d", len(docs), len(chunks))
	return nil
}

// RebuildFromSnapshot builds the index from the persisted chunk table
// without touching Confluence, preserving the stored build order.
func (r *Rebuilder) RebuildFromSnapshot() error {
	chunks, err := sqlite.LoadChunks(r.db)
	if err != nil {
		return fmt.Errorf("loading chunk snapshot: %w", err)
	}
	r.holder.Swap(index.Build(chunks, r.stop))
	log.Printf("index loaded from snapshot chunks=%d", len(chunks))
	return nil
}

// StartResyncScheduler periodically re-fetches the corpus and rebuilds the
// index on a standard 5-field cron expression. An empty schedule disables
// resync; the index then stays on its startup snapshot.
func StartResyncScheduler(schedule string, r *Rebuilder) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.Println("Corpus resync disabled (resync_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid resync_schedule '%s': %v, resync disabled", schedule, err)
		return
	}
	log.Printf("Corpus resync scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next corpus resync at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			if err := r.Sync(context.Background()); err != nil {
				log.Printf("Corpus resync error: %v", err)
			}
		}
	}()
}
