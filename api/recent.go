package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RecentScans returns the newest recordings for the dashboard widget.
func (a *API) RecentScans(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid limit provided",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"recordings": a.Metadata.Recent(c.Request.Context(), limit),
	})
}
