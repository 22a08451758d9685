package api

import (
	"net/http"

	"boxproof/evidence-api/internal/model"

	"github.com/gin-gonic/gin"
)

// SettingsFetch returns the active storage configuration, falling back
// to defaults if none was ever saved.
func (a *API) SettingsFetch(c *gin.Context) {
	c.JSON(http.StatusOK, a.Settings.Get(c.Request.Context()))
}

// SettingsSave validates and replaces the storage configuration,
// answering with the normalized document that was stored.
func (a *API) SettingsSave(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	cfg := &model.StorageConfig{}
	if err := c.ShouldBindJSON(cfg); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid settings payload",
			"requestID": requestID,
		})
		return
	}

	saved, err := a.Settings.Set(c.Request.Context(), cfg)
	if err != nil {
		a.abortWithError(c, requestID, err, "Failed to save settings")
		return
	}

	c.JSON(http.StatusOK, saved)
}
