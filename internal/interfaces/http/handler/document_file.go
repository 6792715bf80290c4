package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradeledger/backend/internal/interfaces/http/dto"
)

// ObjectReader reads a stored document back by key.
type ObjectReader interface {
	Get(storageKey string) ([]byte, string, bool)
}

// DocumentFileHandler serves invoice PDFs kept in process, the download
// target of links generated without an object store.
type DocumentFileHandler struct {
	BaseHandler
	objects ObjectReader
}

func NewDocumentFileHandler(objects ObjectReader) *DocumentFileHandler {
	return &DocumentFileHandler{objects: objects}
}

// Download streams the object stored under the wildcard key.
func (h *DocumentFileHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	data, contentType, ok := h.objects.Get(key)
	if !ok {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "document not found")
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, contentType, data)
}
