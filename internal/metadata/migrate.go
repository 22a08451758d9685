package metadata

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"boxproof/evidence-api/internal/model"

	"go.uber.org/zap"
)

// MigrateLocal backfills metadata records from recordings that already
// exist under root, expecting the orderId/skuId/date/filename layout.
// It runs at most once per Store and only does work while the document
// is still empty, so re-running is a no-op once records exist. Returns
// the number of records created.
func (s *Store) MigrateLocal(ctx context.Context, root string) (int, error) {
	migrated := 0
	var migErr error

	s.migrateOnce.Do(func() {
		migrated, migErr = s.migrateLocal(ctx, root)
	})

	return migrated, migErr
}

func (s *Store) migrateLocal(ctx context.Context, root string) (int, error) {
	doc := s.Read(ctx)
	if len(doc.Recordings) > 0 {
		return 0, nil
	}

	known := map[string]struct{}{}
	migrated := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".webm" && ext != ".mp4" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(rel)
		parts := strings.Split(key, "/")
		// Anything shallower than orderId/skuId/date/filename is not ours
		if len(parts) < 4 {
			return nil
		}

		if _, dup := known[key]; dup {
			return nil
		}
		known[key] = struct{}{}

		info, err := d.Info()
		if err != nil {
			return err
		}

		mimeType := "video/webm"
		if ext == ".mp4" {
			mimeType = "video/mp4"
		}

		doc.Recordings = append(doc.Recordings, model.Recording{
			OrderID:     parts[0],
			SkuID:       parts[1],
			Date:        parts[2],
			Timestamp:   info.ModTime().UnixMilli(),
			StorageType: model.StorageLocal,
			Path:        key,
			Filename:    d.Name(),
			MimeType:    mimeType,
		})
		migrated++

		return nil
	})
	if err != nil {
		// A missing recordings directory just means there is nothing to
		// backfill yet
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return migrated, err
	}

	if migrated == 0 {
		return 0, nil
	}

	sort.SliceStable(doc.Recordings, func(i, j int) bool {
		return doc.Recordings[i].Timestamp > doc.Recordings[j].Timestamp
	})

	if err := s.write(ctx, doc); err != nil {
		return 0, err
	}

	zap.L().Info("Migrated pre-existing local recordings", zap.Int("count", migrated))
	return migrated, nil
}
