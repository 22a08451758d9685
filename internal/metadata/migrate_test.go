package metadata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"boxproof/evidence-api/internal/docstore"
	"boxproof/evidence-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string, mtime time.Time) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("blob"), 0o644))
	require.NoError(t, os.Chtimes(full, mtime, mtime))
}

func TestMigrateLocalBackfillsAndSorts(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)

	writeFile(t, root, "PO-1/SKU-1/2024-05-01/recording_a.webm", base)
	writeFile(t, root, "PO-1/SKU-1/2024-05-02/recording_b.mp4", base.Add(2*time.Minute))
	writeFile(t, root, "PO-2/default/2024-05-01/recording_c.webm", base.Add(time.Minute))
	// Not a recording extension
	writeFile(t, root, "PO-2/default/2024-05-01/notes.txt", base)
	// Too shallow to carry order/sku/date
	writeFile(t, root, "PO-3/recording_d.webm", base)

	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.MigrateLocal(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	doc := s.Read(ctx)
	require.Len(t, doc.Recordings, 3)

	// Sorted by timestamp descending after the bulk insert
	assert.Equal(t, "recording_b.mp4", doc.Recordings[0].Filename)
	assert.Equal(t, "recording_c.webm", doc.Recordings[1].Filename)
	assert.Equal(t, "recording_a.webm", doc.Recordings[2].Filename)

	first := doc.Recordings[2]
	assert.Equal(t, "PO-1", first.OrderID)
	assert.Equal(t, "SKU-1", first.SkuID)
	assert.Equal(t, "2024-05-01", first.Date)
	assert.Equal(t, model.StorageLocal, first.StorageType)
	assert.Equal(t, "PO-1/SKU-1/2024-05-01/recording_a.webm", first.Path)
	assert.Equal(t, "video/webm", first.MimeType)
	assert.Equal(t, "video/mp4", doc.Recordings[0].MimeType)
}

func TestMigrateLocalRunsOncePerStore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "PO-1/SKU-1/2024-05-01/recording_a.webm", time.Now())

	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.MigrateLocal(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = s.MigrateLocal(ctx, root)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMigrateLocalNoopWhenStoreNotEmpty(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "PO-1/SKU-1/2024-05-01/recording_a.webm", time.Now())

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRecording(ctx, rec("PO-9", "", "2024-01-01", 1)))

	count, err := s.MigrateLocal(ctx, root)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Len(t, s.Read(ctx).Recordings, 1)
}

func TestMigrateLocalMissingRoot(t *testing.T) {
	docs, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	s := NewStore(docs)
	t.Cleanup(s.Close)

	count, err := s.MigrateLocal(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Zero(t, count)
}
