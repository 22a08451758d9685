package model

// StorageConfig is the persisted settings document. It selects the
// active storage backend and carries the credentials that backend
// needs. The validate tags cover the per-backend required fields, the
// rest is checked in the settings service.
type StorageConfig struct {
	StorageType StorageType `json:"storageType" validate:"required,oneof=local url storj"`

	LocalPath string `json:"localPath,omitempty"`

	SaveURL string `json:"saveUrl,omitempty" validate:"required_if=StorageType url,omitempty,url"`
	ReadURL string `json:"readUrl,omitempty" validate:"omitempty,url"`
	APIKey  string `json:"apiKey,omitempty"`

	StorjAccessKey string `json:"storjAccessKey,omitempty" validate:"required_if=StorageType storj"`
	StorjSecretKey string `json:"storjSecretKey,omitempty" validate:"required_if=StorageType storj"`
	StorjEndpoint  string `json:"storjEndpoint,omitempty" validate:"required_if=StorageType storj,omitempty,url"`
	StorjBucket    string `json:"storjBucket,omitempty" validate:"required_if=StorageType storj"`

	// Recording constraints enforced by the capture UI, only validated here.
	MaxDuration int `json:"maxDuration,omitempty" validate:"omitempty,min=10,max=3600"`
	MaxFileSize int `json:"maxFileSize,omitempty" validate:"omitempty,min=1,max=1000"`
}
