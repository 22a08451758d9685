// Package model defines the persisted document shapes
package model

type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageURL   StorageType = "url"
	StorageStorj StorageType = "storj"
)

// DefaultSku groups recordings that were saved without a SKU.
const DefaultSku = "default"

// Recording is one saved media item. The zero value of SkuID, Notes,
// URL and MimeType is omitted from the persisted JSON, matching the
// document layout browsed by the dashboard.
type Recording struct {
	OrderID     string      `json:"orderId"`
	SkuID       string      `json:"skuId,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Date        string      `json:"date"`      // YYYY-MM-DD, server clock at save time
	Timestamp   int64       `json:"timestamp"` // unix milliseconds
	StorageType StorageType `json:"storageType"`
	// Path is the backend-relative locator: a filesystem-relative path
	// for local, a bucket key for storj, an opaque identifier for url.
	Path     string `json:"path"`
	URL      string `json:"url,omitempty"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType,omitempty"`
}

// SkuOrDefault returns the SKU grouping key for the record.
func (r Recording) SkuOrDefault() string {
	if r.SkuID == "" {
		return DefaultSku
	}
	return r.SkuID
}

// MetadataStore is the top-level persisted metadata document. Recordings
// are kept newest-first, inserts always go to the head.
type MetadataStore struct {
	Recordings  []Recording `json:"recordings"`
	LastUpdated int64       `json:"lastUpdated"`
}
