// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"boxproof/evidence-api/internal/docstore"
	"boxproof/evidence-api/internal/metadata"
	"boxproof/evidence-api/internal/model"
	"boxproof/evidence-api/internal/settings"
	"boxproof/evidence-api/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	Router   *gin.Engine
	Settings *settings.Service
	Metadata *metadata.Store
}

func NewRouter() (*API, error) {
	makeLogger()

	docs, err := newDocumentStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document store, %w", err)
	}

	return buildRouter(docs, viper.GetString("app.data_dir"))
}

// newDocumentStore picks where the two JSON documents live. This is the
// single place the deployment environment is branched on.
func newDocumentStore() (docstore.DocumentStore, error) {
	switch viper.GetString("persistence.type") {
	case "s3":
		return docstore.NewS3Store(context.Background(), docstore.S3Options{
			AccessKeyID:     viper.GetString("persistence.s3.access_key_id"),
			SecretAccessKey: viper.GetString("persistence.s3.secret_access_key"),
			Endpoint:        viper.GetString("persistence.s3.endpoint"),
			Region:          viper.GetString("persistence.s3.region"),
			Bucket:          viper.GetString("persistence.s3.bucket"),
		})
	default:
		return docstore.NewFileStore(viper.GetString("app.data_dir"))
	}
}

func buildRouter(docs docstore.DocumentStore, dataDir string) (*API, error) {
	a := &API{
		Settings: settings.New(docs, filepath.Join(dataDir, "recordings")),
		Metadata: metadata.NewStore(docs),
	}

	// Backfill metadata from recordings that predate the metadata
	// document. Must finish before the first read hits the store.
	cfg := a.Settings.Get(context.Background())
	if cfg.StorageType == model.StorageLocal {
		if _, err := a.Metadata.MigrateLocal(context.Background(), cfg.LocalPath); err != nil {
			zap.L().Error("Failed to migrate pre-existing recordings", zap.Error(err))
		}
	}

	router := gin.New()
	a.Router = router

	corsOrigin := viper.GetString("host.cors_origin")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:3000"
	}

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{corsOrigin},
			AllowMethods:     []string{"GET", "POST", "OPTIONS", "HEAD"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	maxUploadSize := viper.GetInt64("upload.max_size")
	if maxUploadSize <= 0 {
		maxUploadSize = 500 << 20
	}
	router.MaxMultipartMemory = 5 << 20

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// POST /api/media		-> Stores a recording blob and its metadata
		main.POST("/media", middleware.BodySizeLimiter(maxUploadSize), a.MediaSave)

		// GET /api/media/*mediaPath	-> Serves a locally stored recording
		main.GET("/media/*mediaPath", a.MediaServe)

		// GET /api/recordings		-> Browses the virtual folder tree or searches it
		main.GET("/recordings", a.RecordingsFetch)

		// GET /api/recent-scans	-> Returns the newest recordings
		main.GET("/recent-scans", cacheFor(2), a.RecentScans)

		// GET /api/settings		-> Returns the active storage configuration
		main.GET("/settings", a.SettingsFetch)

		// POST /api/settings		-> Validates and replaces the storage configuration
		main.POST("/settings", middleware.BodySizeLimiter(1<<20), a.SettingsSave)
	}

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
