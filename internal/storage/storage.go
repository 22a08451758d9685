// Package storage contains the pluggable blob backends. Each backend
// persists one recording blob under an (orderId, skuId, date) key and
// returns its locator; callers never build keys themselves.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"boxproof/evidence-api/internal/apperr"
	"boxproof/evidence-api/internal/model"

	"github.com/google/uuid"
)

// SaveRequest carries the metadata the backend needs to place a blob.
type SaveRequest struct {
	OrderID  string
	SkuID    string
	Notes    string
	MimeType string
	Size     int64
}

// StoredObject is the locator a backend hands back after a successful
// write. Path is backend-relative, URL is only set when the backend
// exposes a directly fetchable address.
type StoredObject struct {
	Path        string
	URL         string
	Filename    string
	StorageType model.StorageType
}

// Backend persists a single blob. Implementations decide the key layout.
type Backend interface {
	Store(ctx context.Context, blob io.Reader, req SaveRequest) (*StoredObject, error)
}

// ForConfig picks the backend the active configuration points at.
func ForConfig(cfg *model.StorageConfig) (Backend, error) {
	switch cfg.StorageType {
	case model.StorageLocal:
		return NewLocal(cfg.LocalPath), nil
	case model.StorageURL:
		return NewURL(cfg.SaveURL, cfg.APIKey), nil
	case model.StorageStorj:
		return NewStorj(cfg)
	default:
		return nil, apperr.New(apperr.KindValidation, "unknown storage type '%s'", cfg.StorageType)
	}
}

// objectKey builds the shared orderId/skuId/date/filename layout used
// by the local and storj backends.
func objectKey(orderID, skuID, date, filename string) string {
	if skuID == "" {
		skuID = model.DefaultSku
	}
	return fmt.Sprintf("%s/%s/%s/%s", orderID, skuID, date, filename)
}

// newFilename generates a fresh unique name for a blob. Uniqueness of
// stored paths relies on this, there is no uniqueness check at insert
// time.
func newFilename(mimeType string) string {
	return fmt.Sprintf("recording_%s.%s", uuid.NewString(), ExtensionFor(mimeType))
}

func today() string {
	return time.Now().Format("2006-01-02")
}
