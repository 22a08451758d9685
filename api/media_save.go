package api

import (
	"net/http"
	"time"

	"boxproof/evidence-api/internal/apperr"
	"boxproof/evidence-api/internal/model"
	"boxproof/evidence-api/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MediaSave stores an uploaded recording blob through the configured
// backend and then appends its metadata record. A failed blob upload
// never leaves behind a metadata record.
func (a *API) MediaSave(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	orderID := c.PostForm("orderId")
	if orderID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No order ID provided",
			"requestID": requestID,
		})
		return
	}

	skuID := c.PostForm("skuId")
	notes := c.PostForm("notes")

	mimeType := c.PostForm("mimeType")
	if mimeType == "" {
		mimeType = fh.Header.Get("Content-Type")
	}

	cfg := a.Settings.Get(c.Request.Context())

	backend, err := storage.ForConfig(cfg)
	if err != nil {
		a.abortWithError(c, requestID, err, "Storage backend unavailable")
		return
	}

	blob, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open uploaded file", zap.Error(err))
		return
	}
	defer blob.Close()

	obj, err := backend.Store(c.Request.Context(), blob, storage.SaveRequest{
		OrderID:  orderID,
		SkuID:    skuID,
		Notes:    notes,
		MimeType: mimeType,
		Size:     fh.Size,
	})
	if err != nil {
		a.abortWithError(c, requestID, err, "Failed to store recording")
		return
	}

	now := time.Now()

	err = a.Metadata.AddRecording(c.Request.Context(), model.Recording{
		OrderID:     orderID,
		SkuID:       skuID,
		Notes:       notes,
		Date:        now.Format("2006-01-02"),
		Timestamp:   now.UnixMilli(),
		StorageType: obj.StorageType,
		Path:        obj.Path,
		URL:         obj.URL,
		Filename:    obj.Filename,
		MimeType:    mimeType,
	})
	if err != nil {
		// The blob exists but is undiscoverable. Known inconsistency,
		// surfaced rather than retried forever.
		a.abortWithError(c, requestID, err, "Recording stored but metadata could not be saved")
		return
	}

	resp := gin.H{
		"success":  true,
		"path":     obj.Path,
		"storage":  obj.StorageType,
		"filename": obj.Filename,
	}
	if obj.URL != "" {
		resp["url"] = obj.URL
	}

	c.JSON(http.StatusOK, resp)
}

// abortWithError maps a taxonomy error onto a response, hiding detail
// for plain internal failures.
func (a *API) abortWithError(c *gin.Context, requestID string, err error, logMsg string) {
	status := apperr.HTTPStatus(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}

	if status >= 500 || status == http.StatusBadGateway {
		zap.L().Error(logMsg, zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":     msg,
		"requestID": requestID,
	})
}
