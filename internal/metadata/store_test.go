package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"boxproof/evidence-api/internal/apperr"
	"boxproof/evidence-api/internal/docstore"
	"boxproof/evidence-api/internal/model"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every Put while failing is set. Get stays functional
// so reads keep working.
type flakyStore struct {
	inner   docstore.DocumentStore
	failing atomic.Bool
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	return f.inner.Get(ctx, key)
}

func (f *flakyStore) Put(ctx context.Context, key string, data []byte) error {
	if f.failing.Load() {
		return errors.New("medium is read-only")
	}
	return f.inner.Put(ctx, key, data)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	docs, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	s := NewStore(docs)
	s.newBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(3, retry.NewConstant(time.Millisecond))
	}
	t.Cleanup(s.Close)

	return s
}

func rec(orderID, skuID, date string, ts int64) model.Recording {
	return model.Recording{
		OrderID:     orderID,
		SkuID:       skuID,
		Date:        date,
		Timestamp:   ts,
		StorageType: model.StorageLocal,
		Path:        fmt.Sprintf("%s/%s/%s/recording_%d.webm", orderID, skuID, date, ts),
		Filename:    fmt.Sprintf("recording_%d.webm", ts),
	}
}

func TestAddRecordingConcurrentNoLostUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 25

	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			err := s.AddRecording(ctx, rec(fmt.Sprintf("PO-%d", i), "SKU-1", "2024-05-01", int64(i)))
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	doc := s.Read(ctx)
	require.Len(t, doc.Recordings, n)

	seen := map[string]bool{}
	for _, r := range doc.Recordings {
		seen[r.OrderID] = true
	}
	assert.Len(t, seen, n, "every call must contribute exactly one record")
}

func TestAddRecordingNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddRecording(ctx, rec(fmt.Sprintf("PO-%d", i), "", "2024-05-01", int64(i))))
	}

	recent := s.Recent(ctx, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, "PO-4", recent[0].OrderID)
	assert.Equal(t, "PO-3", recent[1].OrderID)
	assert.Equal(t, "PO-2", recent[2].OrderID)

	assert.Len(t, s.Recent(ctx, 100), 5)
	assert.Empty(t, s.Recent(ctx, 0))
}

func TestQueueRecoversAfterFailedInsert(t *testing.T) {
	inner, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	flaky := &flakyStore{inner: inner}
	flaky.failing.Store(true)

	s := NewStore(flaky)
	s.newBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(3, retry.NewConstant(time.Millisecond))
	}
	t.Cleanup(s.Close)

	ctx := context.Background()

	err = s.AddRecording(ctx, rec("PO-FAIL", "", "2024-05-01", 1))
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersist, apperr.KindOf(err))

	flaky.failing.Store(false)

	require.NoError(t, s.AddRecording(ctx, rec("PO-OK", "", "2024-05-01", 2)))

	doc := s.Read(ctx)
	require.Len(t, doc.Recordings, 1)
	assert.Equal(t, "PO-OK", doc.Recordings[0].OrderID)
}

func TestSearchCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r1 := rec("ORD123", "SKU-9", "2024-05-01", 1)
	r1.Notes = "Left corner Dented"
	require.NoError(t, s.AddRecording(ctx, r1))
	require.NoError(t, s.AddRecording(ctx, rec("PO-555", "", "2024-06-02", 2)))

	assert.Len(t, s.Search(ctx, "ord123"), 1)
	assert.Len(t, s.Search(ctx, "sku-9"), 1)
	assert.Len(t, s.Search(ctx, "dented"), 1)
	assert.Len(t, s.Search(ctx, "2024-06"), 1)
	assert.Len(t, s.Search(ctx, "2024"), 2)
	assert.Empty(t, s.Search(ctx, "nothing-matches-this"))

	// Document order is preserved, no relevance sorting
	both := s.Search(ctx, "2024")
	assert.Equal(t, "PO-555", both[0].OrderID)
	assert.Equal(t, "ORD123", both[1].OrderID)
}

func TestListByPathHierarchy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRecording(ctx, rec("PO-1001", "SKU-9", "2024-05-01", 1)))
	require.NoError(t, s.AddRecording(ctx, rec("PO-1001", "SKU-9", "2024-05-02", 2)))
	require.NoError(t, s.AddRecording(ctx, rec("PO-1001", "SKU-1", "2024-05-01", 3)))
	require.NoError(t, s.AddRecording(ctx, rec("PO-0002", "", "2024-05-03", 4)))

	folders, files := s.ListByPath(ctx, nil)
	assert.Equal(t, []string{"PO-0002", "PO-1001"}, folders)
	assert.Empty(t, files)

	folders, files = s.ListByPath(ctx, []string{"PO-1001"})
	assert.Equal(t, []string{"SKU-1", "SKU-9"}, folders)
	assert.Empty(t, files)

	// Records without a SKU group under the sentinel
	folders, _ = s.ListByPath(ctx, []string{"PO-0002"})
	assert.Equal(t, []string{"default"}, folders)

	// Dates are most recent first
	folders, files = s.ListByPath(ctx, []string{"PO-1001", "SKU-9"})
	assert.Equal(t, []string{"2024-05-02", "2024-05-01"}, folders)
	assert.Empty(t, files)

	folders, files = s.ListByPath(ctx, []string{"PO-1001", "SKU-9", "2024-05-01"})
	assert.Empty(t, folders)
	require.Len(t, files, 1)
	assert.Equal(t, int64(1), files[0].Timestamp)

	folders, files = s.ListByPath(ctx, []string{"PO-1001", "SKU-9", "2024-05-01", "extra"})
	assert.Empty(t, folders)
	assert.Empty(t, files)
}

func TestListByPathReconstructsEveryRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inserted := map[string]bool{}
	for i := 0; i < 12; i++ {
		r := rec(fmt.Sprintf("PO-%d", i%3), fmt.Sprintf("SKU-%d", i%2), fmt.Sprintf("2024-05-%02d", i%4+1), int64(i))
		require.NoError(t, s.AddRecording(ctx, r))
		inserted[r.Path] = false
	}

	orders, _ := s.ListByPath(ctx, nil)
	for _, order := range orders {
		skus, _ := s.ListByPath(ctx, []string{order})
		for _, sku := range skus {
			dates, _ := s.ListByPath(ctx, []string{order, sku})
			for _, date := range dates {
				_, files := s.ListByPath(ctx, []string{order, sku, date})
				for _, f := range files {
					seen, known := inserted[f.Path]
					require.True(t, known, "walk produced a record that was never inserted")
					require.False(t, seen, "walk produced a duplicate record")
					inserted[f.Path] = true
				}
			}
		}
	}

	for p, seen := range inserted {
		assert.True(t, seen, "record %s unreachable from the root", p)
	}
}

func TestRoundTripThroughListByPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := model.Recording{
		OrderID:     "PO-1001",
		SkuID:       "SKU-9",
		Notes:       "sealed box",
		Date:        "2024-05-01",
		Timestamp:   1714521600000,
		StorageType: model.StorageLocal,
		Path:        "PO-1001/SKU-9/2024-05-01/recording_abc.webm",
		Filename:    "recording_abc.webm",
		MimeType:    "video/webm",
	}
	require.NoError(t, s.AddRecording(ctx, want))

	_, files := s.ListByPath(ctx, []string{"PO-1001", "SKU-9", "2024-05-01"})
	require.Len(t, files, 1)
	assert.Equal(t, want, files[0])
}

func TestReadTreatsCorruptDocumentAsEmpty(t *testing.T) {
	docs, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, docs.Put(ctx, "recordings-metadata.json", []byte("{not json")))

	s := NewStore(docs)
	t.Cleanup(s.Close)

	doc := s.Read(ctx)
	assert.Empty(t, doc.Recordings)
}
