package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"boxproof/evidence-api/internal/apperr"
	"boxproof/evidence-api/internal/model"
)

// Local writes blobs under a base directory using the
// orderId/skuId/date/filename layout.
type Local struct {
	BaseDir string
}

func NewLocal(baseDir string) *Local {
	return &Local{BaseDir: baseDir}
}

func (l *Local) Store(_ context.Context, blob io.Reader, req SaveRequest) (*StoredObject, error) {
	filename := newFilename(req.MimeType)
	key := objectKey(req.OrderID, req.SkuID, today(), filename)
	dst := filepath.Join(l.BaseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, err, "failed to create recording directory")
	}

	f, err := os.Create(dst)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, err, "failed to create recording file")
	}

	if _, err := io.Copy(f, blob); err != nil {
		f.Close()
		os.Remove(dst)
		return nil, apperr.Wrap(apperr.KindStorage, err, "failed to write recording file")
	}

	if err := f.Close(); err != nil {
		os.Remove(dst)
		return nil, apperr.Wrap(apperr.KindStorage, err, "failed to flush recording file")
	}

	return &StoredObject{
		Path:        key,
		Filename:    filename,
		StorageType: model.StorageLocal,
	}, nil
}
