// Package settings owns the persisted storage configuration document.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"boxproof/evidence-api/internal/apperr"
	"boxproof/evidence-api/internal/docstore"
	"boxproof/evidence-api/internal/model"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const configKey = "config.json"

type Service struct {
	docs             docstore.DocumentStore
	validate         *validator.Validate
	defaultLocalPath string
}

func New(docs docstore.DocumentStore, defaultLocalPath string) *Service {
	return &Service{
		docs:             docs,
		validate:         validator.New(),
		defaultLocalPath: defaultLocalPath,
	}
}

// Default returns the hard-coded fallback configuration used until an
// operator saves one.
func (s *Service) Default() *model.StorageConfig {
	return &model.StorageConfig{
		StorageType: model.StorageLocal,
		LocalPath:   s.defaultLocalPath,
		MaxDuration: 300,
		MaxFileSize: 100,
	}
}

// Get returns the persisted configuration. A missing or corrupt
// document degrades to the defaults so a broken settings file never
// blocks new recordings.
func (s *Service) Get(ctx context.Context) *model.StorageConfig {
	data, err := s.docs.Get(ctx, configKey)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotExist) {
			zap.L().Error("Failed to read settings document, using defaults", zap.Error(err))
		}
		return s.Default()
	}

	cfg := &model.StorageConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		zap.L().Error("Settings document is corrupt, using defaults", zap.Error(err))
		return s.Default()
	}

	if cfg.StorageType == "" {
		cfg.StorageType = model.StorageLocal
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = s.defaultLocalPath
	}

	return cfg
}

// Set validates cfg for its selected backend and replaces the persisted
// document. Selecting local storage creates the target directory.
// Returns the normalized configuration that was stored.
func (s *Service) Set(ctx context.Context, cfg *model.StorageConfig) (*model.StorageConfig, error) {
	if cfg.StorageType == model.StorageLocal && cfg.LocalPath == "" {
		cfg.LocalPath = s.defaultLocalPath
	}

	if err := s.validate.Struct(cfg); err != nil {
		return nil, translateFieldErrors(err)
	}

	if cfg.StorageType == model.StorageLocal {
		if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, err, "local path '%s' is not creatable", cfg.LocalPath)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings, %w", err)
	}

	if err := s.docs.Put(ctx, configKey, data); err != nil {
		return nil, apperr.Wrap(apperr.KindPersist, err, "failed to persist settings")
	}

	return cfg, nil
}

// translateFieldErrors turns validator failures into the API taxonomy.
// Missing storj credential fields are a config-completeness problem,
// everything else is plain bad input.
func translateFieldErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.KindValidation, err, "invalid configuration")
	}

	var missing, malformed []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required_if", "required":
			missing = append(missing, fe.Field())
		default:
			malformed = append(malformed, fe.Field())
		}
	}

	if len(malformed) > 0 {
		return apperr.New(apperr.KindValidation, "malformed fields: %s", strings.Join(malformed, ", "))
	}

	for _, f := range missing {
		if strings.HasPrefix(f, "Storj") {
			return apperr.New(apperr.KindConfigIncomplete, "missing fields: %s", strings.Join(missing, ", "))
		}
	}

	return apperr.New(apperr.KindValidation, "missing fields: %s", strings.Join(missing, ", "))
}
