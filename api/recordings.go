package api

import (
	"net/http"
	"strconv"
	"strings"

	"boxproof/evidence-api/internal/model"

	"github.com/gin-gonic/gin"
)

// listItem is one entry of the browse view. Folders carry just a name
// and path, files embed the full record.
type listItem struct {
	Name   string           `json:"name"`
	Type   string           `json:"type"` // folder | file
	Path   string           `json:"path"`
	Record *model.Recording `json:"record,omitempty"`
}

// RecordingsFetch answers both browse and search requests. Search mode
// returns the full match set unpaginated, browse mode paginates the
// folders+files view with folders listed first.
func (a *API) RecordingsFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	if query := c.Query("search"); query != "" {
		matches := a.Metadata.Search(c.Request.Context(), query)

		c.JSON(http.StatusOK, gin.H{
			"mode":  "search",
			"items": matches,
			"total": len(matches),
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid limit provided",
			"requestID": requestID,
		})
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid offset provided",
			"requestID": requestID,
		})
		return
	}

	currentPath := strings.Trim(c.Query("path"), "/")

	var segments []string
	if currentPath != "" {
		segments = strings.Split(currentPath, "/")
	}

	folders, files := a.Metadata.ListByPath(c.Request.Context(), segments)

	items := make([]listItem, 0, len(folders)+len(files))
	for _, name := range folders {
		p := name
		if currentPath != "" {
			p = currentPath + "/" + name
		}
		items = append(items, listItem{Name: name, Type: "folder", Path: p})
	}
	for i := range files {
		items = append(items, listItem{
			Name:   files[i].Filename,
			Type:   "file",
			Path:   files[i].Path,
			Record: &files[i],
		})
	}

	total := len(items)

	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"mode":        "list",
		"items":       items[offset:end],
		"currentPath": currentPath,
		"total":       total,
		"hasMore":     end < total,
	})
}
