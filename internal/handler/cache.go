package handler

import (
	"net/http"

	"survey-analyzer/internal/geocache"

	"github.com/gin-gonic/gin"
)

// CacheHandler exposes the persisted geocode cache
type CacheHandler struct {
	path   string
	policy geocache.KeyPolicy
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(path string, policy geocache.KeyPolicy) *CacheHandler {
	return &CacheHandler{path: path, policy: policy}
}

// List handles GET /cache requests
func (h *CacheHandler) List(c *gin.Context) {
	cache, err := geocache.Load(h.path, h.policy)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": cache.Snapshot(),
		"count":   cache.Len(),
	})
}
