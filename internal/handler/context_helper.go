package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/middleware"
	"github.com/noah-isme/unisync-api/internal/service"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/response"
)

// actorFromContext returns the authenticated caller, writing a 401 when absent.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Actor{}, false
	}
	actor := service.ActorFromClaims(claims)
	actor.IP = c.ClientIP()
	actor.UserAgent = c.GetHeader("User-Agent")
	return actor, true
}

// optionalUpload reads a multipart file field. It returns nil when the field is absent.
func optionalUpload(c *gin.Context, field string) (*service.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload")
	}
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	return &service.Upload{Filename: header.Filename, Size: header.Size, Reader: file}, func() { file.Close() }, nil //nolint:errcheck
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}
