package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"boxproof/evidence-api/internal/model"

	"github.com/gin-gonic/gin"
)

// MediaServe streams a locally stored recording. http.ServeFile handles
// byte-range requests, which is all the video player needs.
func (a *API) MediaServe(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	rel := strings.TrimPrefix(c.Param("mediaPath"), "/")
	if rel == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No media path provided",
			"requestID": requestID,
		})
		return
	}

	cfg := a.Settings.Get(c.Request.Context())
	if cfg.StorageType != model.StorageLocal {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Direct serving is only available for local storage",
			"requestID": requestID,
		})
		return
	}

	base, err := filepath.Abs(cfg.LocalPath)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})
		return
	}

	full := filepath.Join(base, filepath.FromSlash(rel))

	// Keep traversal attempts inside the recordings root
	if full != base && !strings.HasPrefix(full, base+string(os.PathSeparator)) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid media path",
			"requestID": requestID,
		})
		return
	}

	if info, err := os.Stat(full); err != nil || info.IsDir() {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Recording not found",
			"requestID": requestID,
		})
		return
	}

	http.ServeFile(c.Writer, c.Request, full)
}
