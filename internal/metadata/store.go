// Package metadata owns the recordings document: a single JSON list of
// every saved recording, newest-first. All browsing and search reads
// derive from this flat list, the physical backends are never scanned
// outside the one-time migration.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"boxproof/evidence-api/internal/apperr"
	"boxproof/evidence-api/internal/docstore"
	"boxproof/evidence-api/internal/model"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const metadataKey = "recordings-metadata.json"

// Store reads and mutates the recordings document. Mutations are
// funneled through a single writer goroutine so two overlapping saves
// can never both load the same snapshot and drop each other's insert.
type Store struct {
	docs docstore.DocumentStore

	jobs      chan *insertJob
	startOnce sync.Once
	closeOnce sync.Once

	migrateOnce sync.Once

	// newBackoff is swapped out by tests to avoid real backoff delays.
	newBackoff func() retry.Backoff
}

type insertJob struct {
	ctx  context.Context
	rec  model.Recording
	done chan error
}

func NewStore(docs docstore.DocumentStore) *Store {
	return &Store{
		docs: docs,
		jobs: make(chan *insertJob, 64),
		newBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.WithJitter(time.Second, retry.NewExponential(time.Second)))
		},
	}
}

// Read loads the persisted document. A missing or corrupt document
// degrades to an empty store rather than failing the request.
func (s *Store) Read(ctx context.Context) *model.MetadataStore {
	doc := &model.MetadataStore{Recordings: []model.Recording{}}

	data, err := s.docs.Get(ctx, metadataKey)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotExist) {
			zap.L().Error("Failed to read metadata document, treating as empty", zap.Error(err))
		}
		return doc
	}

	if err := json.Unmarshal(data, doc); err != nil {
		zap.L().Error("Metadata document is corrupt, treating as empty", zap.Error(err))
		return &model.MetadataStore{Recordings: []model.Recording{}}
	}

	if doc.Recordings == nil {
		doc.Recordings = []model.Recording{}
	}

	return doc
}

// write stamps lastUpdated and replaces the whole document. Persistence
// failures surface as errors, they are never swallowed.
func (s *Store) write(ctx context.Context, doc *model.MetadataStore) error {
	doc.LastUpdated = time.Now().UnixMilli()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindPersist, err, "failed to encode metadata document")
	}

	if err := s.docs.Put(ctx, metadataKey, data); err != nil {
		return apperr.Wrap(apperr.KindPersist, err, "failed to persist metadata document")
	}

	return nil
}

// AddRecording inserts rec at the head of the recordings list. Calls
// are serialized FIFO through the writer goroutine; each read-modify-
// write cycle runs only after the previous one finished. The caller
// gets the outcome after up to 3 retries with exponential backoff.
func (s *Store) AddRecording(ctx context.Context, rec model.Recording) error {
	s.startOnce.Do(func() { go s.writer() })

	job := &insertJob{
		ctx:  ctx,
		rec:  rec,
		done: make(chan error, 1),
	}

	select {
	case s.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the writer goroutine. Jobs enqueued before Close still
// run.
func (s *Store) Close() {
	s.startOnce.Do(func() { go s.writer() })
	s.closeOnce.Do(func() { close(s.jobs) })
}

// writer is the single consumer of the insert queue. One failed insert
// must not wedge the queue, so errors go back to the caller and the
// loop proceeds with the next job regardless.
func (s *Store) writer() {
	for job := range s.jobs {
		err := s.insertWithRetry(job.ctx, job.rec)
		if err != nil {
			zap.L().Error("Failed to insert recording metadata",
				zap.String("order_id", job.rec.OrderID),
				zap.Error(err))
		}

		job.done <- err
		close(job.done)
	}
}

func (s *Store) insertWithRetry(ctx context.Context, rec model.Recording) error {
	return retry.Do(ctx, s.newBackoff(), func(ctx context.Context) error {
		doc := s.Read(ctx)
		doc.Recordings = append([]model.Recording{rec}, doc.Recordings...)

		if err := s.write(ctx, doc); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Recent returns the first limit records of the newest-first list.
func (s *Store) Recent(ctx context.Context, limit int) []model.Recording {
	recs := s.Read(ctx).Recordings
	if limit < 0 {
		limit = 0
	}
	if limit > len(recs) {
		limit = len(recs)
	}
	return recs[:limit]
}

// Search returns every record whose orderId, skuId, notes or date
// contains query, case-insensitively, in document order.
func (s *Store) Search(ctx context.Context, query string) []model.Recording {
	q := strings.ToLower(query)
	matches := []model.Recording{}

	for _, rec := range s.Read(ctx).Recordings {
		if strings.Contains(strings.ToLower(rec.OrderID), q) ||
			strings.Contains(strings.ToLower(rec.SkuID), q) ||
			strings.Contains(strings.ToLower(rec.Notes), q) ||
			strings.Contains(rec.Date, q) {
			matches = append(matches, rec)
		}
	}

	return matches
}

// ListByPath synthesizes the orderId → skuId → date folder view from
// the flat list. Nothing is persisted for this, correctness depends
// only on the list itself.
func (s *Store) ListByPath(ctx context.Context, segments []string) (folders []string, files []model.Recording) {
	recs := s.Read(ctx).Recordings
	folders = []string{}
	files = []model.Recording{}

	switch len(segments) {
	case 0:
		folders = distinct(recs, func(r model.Recording) (string, bool) {
			return r.OrderID, true
		})
		sort.Strings(folders)

	case 1:
		orderID := segments[0]
		folders = distinct(recs, func(r model.Recording) (string, bool) {
			return r.SkuOrDefault(), r.OrderID == orderID
		})
		sort.Strings(folders)

	case 2:
		orderID, skuID := segments[0], segments[1]
		folders = distinct(recs, func(r model.Recording) (string, bool) {
			return r.Date, r.OrderID == orderID && r.SkuOrDefault() == skuID
		})
		// Most recent date first
		sort.Sort(sort.Reverse(sort.StringSlice(folders)))

	case 3:
		orderID, skuID, date := segments[0], segments[1], segments[2]
		for _, r := range recs {
			if r.OrderID == orderID && r.SkuOrDefault() == skuID && r.Date == date {
				files = append(files, r)
			}
		}
	}

	return folders, files
}

func distinct(recs []model.Recording, keep func(model.Recording) (string, bool)) []string {
	seen := map[string]struct{}{}
	out := []string{}

	for _, r := range recs {
		v, ok := keep(r)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
