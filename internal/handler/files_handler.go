package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/service"
	"github.com/noah-isme/unisync-api/pkg/response"
)

type fileOpener interface {
	OpenToken(token string) (*service.StoredFile, error)
}

// FilesHandler serves stored attachments and avatars behind signed tokens.
type FilesHandler struct {
	files fileOpener
}

// NewFilesHandler constructs the handler.
func NewFilesHandler(files fileOpener) *FilesHandler {
	return &FilesHandler{files: files}
}

// Download godoc
// @Summary Download stored file
// @Tags Files
// @Produce application/octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FilesHandler) Download(c *gin.Context) {
	stored, err := h.files.OpenToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stored.File.Close() //nolint:errcheck

	size := int64(-1)
	if info, err := stored.File.Stat(); err == nil {
		size = info.Size()
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", stored.Name))
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, size, stored.ContentType, stored.File, nil)
}
