package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/dto"
	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/service"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

type announcementServiceMock struct {
	lastCreate     dto.CreateAnnouncementRequest
	lastUpdate     dto.UpdateAnnouncementRequest
	lastUpload     []byte
	uploadName     string
	lastQuery      dto.AnnouncementQuery
	deleteErr      error
	saveCalled     bool
	shareReference *models.ShareReference
}

func (m *announcementServiceMock) List(_ context.Context, query dto.AnnouncementQuery) ([]models.Announcement, *models.Pagination, error) {
	m.lastQuery = query
	return []models.Announcement{{ID: "ann-1", Title: "Placement drive"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *announcementServiceMock) Get(context.Context, string) (*models.Announcement, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
}

func (m *announcementServiceMock) Create(_ context.Context, actor service.Actor, req dto.CreateAnnouncementRequest, attachment *service.Upload) (*models.Announcement, error) {
	m.lastCreate = req
	if attachment != nil {
		m.uploadName = attachment.Filename
		m.lastUpload, _ = io.ReadAll(attachment.Reader)
	}
	return &models.Announcement{ID: "ann-2", Title: req.Title, CreatorID: actor.ID}, nil
}

func (m *announcementServiceMock) Update(_ context.Context, _ service.Actor, id string, req dto.UpdateAnnouncementRequest, _ *service.Upload) (*models.Announcement, error) {
	m.lastUpdate = req
	return &models.Announcement{ID: id}, nil
}

func (m *announcementServiceMock) Delete(context.Context, service.Actor, string) error {
	return m.deleteErr
}

func (m *announcementServiceMock) Save(_ context.Context, actor service.Actor, id string) (*models.SavedAnnouncement, error) {
	m.saveCalled = true
	return &models.SavedAnnouncement{UserID: actor.ID, AnnouncementID: id}, nil
}

func (m *announcementServiceMock) Unsave(context.Context, service.Actor, string) error { return nil }

func (m *announcementServiceMock) ListSaved(context.Context, service.Actor) ([]dto.SavedAnnouncementView, error) {
	return nil, nil
}

func (m *announcementServiceMock) Share(context.Context, string) (*models.ShareReference, error) {
	return m.shareReference, nil
}

func TestAnnouncementHandlerCreateMultipart(t *testing.T) {
	mockSvc := &announcementServiceMock{}
	handler := NewAnnouncementHandler(mockSvc)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", "Career fair"))
	require.NoError(t, writer.WriteField("content", "Hall B at 10:00"))
	require.NoError(t, writer.WriteField("category", "placement"))
	part, err := writer.CreateFormFile("file", "schedule.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 schedule"))
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c := newTestContext(rec, staffClaims())
	c.Request = httptest.NewRequest(http.MethodPost, "/announcements", &body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Career fair", mockSvc.lastCreate.Title)
	assert.Equal(t, "placement", mockSvc.lastCreate.Category)
	assert.Equal(t, "schedule.pdf", mockSvc.uploadName)
	assert.Equal(t, "%PDF-1.4 schedule", string(mockSvc.lastUpload))
}

func TestAnnouncementHandlerUpdateJSONWithoutFile(t *testing.T) {
	mockSvc := &announcementServiceMock{}
	handler := NewAnnouncementHandler(mockSvc)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, staffClaims())
	c.Request = httptest.NewRequest(http.MethodPut, "/announcements/ann-1", bytes.NewReader([]byte(`{"title":"Moved to Hall C","remove_file":true}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = append(c.Params, ginParam("id", "ann-1"))

	handler.Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, mockSvc.lastUpdate.Title)
	assert.Equal(t, "Moved to Hall C", *mockSvc.lastUpdate.Title)
	assert.Nil(t, mockSvc.lastUpdate.Content)
	assert.True(t, mockSvc.lastUpdate.RemoveFile)
}

func TestAnnouncementHandlerDeleteForbidden(t *testing.T) {
	mockSvc := &announcementServiceMock{deleteErr: appErrors.Clone(appErrors.ErrForbidden, "only the creator or an admin can change this announcement")}
	handler := NewAnnouncementHandler(mockSvc)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, staffClaims())
	c.Request = httptest.NewRequest(http.MethodDelete, "/announcements/ann-1", nil)
	c.Params = append(c.Params, ginParam("id", "ann-1"))

	handler.Delete(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeEnvelope(t, rec).Error.Code)
}

func TestAnnouncementHandlerListPagination(t *testing.T) {
	mockSvc := &announcementServiceMock{}
	handler := NewAnnouncementHandler(mockSvc)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, studentClaims())
	c.Request = httptest.NewRequest(http.MethodGet, "/announcements?category=placement&page_size=5", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "placement", mockSvc.lastQuery.Category)
	assert.Equal(t, 5, mockSvc.lastQuery.PageSize)
	assert.EqualValues(t, 1, decodeEnvelope(t, rec).Pagination["total_count"])
}

func TestAnnouncementHandlerShare(t *testing.T) {
	mockSvc := &announcementServiceMock{shareReference: &models.ShareReference{Reference: "unisync://announcements/ann-1", Title: "Career fair"}}
	handler := NewAnnouncementHandler(mockSvc)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, studentClaims())
	c.Request = httptest.NewRequest(http.MethodGet, "/announcements/ann-1/share", nil)
	c.Params = append(c.Params, ginParam("id", "ann-1"))

	handler.Share(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unisync://announcements/ann-1")
}
