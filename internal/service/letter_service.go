package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/export"
)

type letterRenderer interface {
	Render(data export.LetterData) ([]byte, error)
}

// LetterService renders decision letters and keeps them in file storage.
type LetterService struct {
	renderer    letterRenderer
	files       *FileService
	institution string
	logger      *zap.Logger
}

// NewLetterService constructs the service.
func NewLetterService(renderer letterRenderer, files *FileService, institution string, logger *zap.Logger) *LetterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LetterService{renderer: renderer, files: files, institution: institution, logger: logger}
}

// LetterPath is where the letter of a request is stored.
func LetterPath(requestID string) string {
	return "letters/" + requestID + ".pdf"
}

// Generate renders the letter of a decided request and stores it.
func (s *LetterService) Generate(_ context.Context, request *models.LeaveRequest, decidedBy string) (string, []byte, error) {
	pdf, err := s.render(request, decidedBy)
	if err != nil {
		return "", nil, err
	}
	relPath := LetterPath(request.ID)
	if s.files != nil {
		if err := s.files.SaveBytes(relPath, pdf); err != nil {
			return "", pdf, err
		}
	}
	return relPath, pdf, nil
}

// Load returns the stored letter, rendering it again when the stored copy is missing.
func (s *LetterService) Load(ctx context.Context, request *models.LeaveRequest, decidedBy string) ([]byte, error) {
	if request.LetterPath != nil && s.files.Exists(*request.LetterPath) {
		data, err := s.files.Read(*request.LetterPath)
		if err == nil {
			return data, nil
		}
		s.logger.Warn("stored letter unreadable, regenerating", zap.String("request_id", request.ID), zap.Error(err))
	}
	_, pdf, err := s.Generate(ctx, request, decidedBy)
	if pdf != nil {
		if err != nil {
			s.logger.Warn("failed to store regenerated letter", zap.String("request_id", request.ID), zap.Error(err))
		}
		return pdf, nil
	}
	return nil, err
}

func (s *LetterService) render(request *models.LeaveRequest, decidedBy string) ([]byte, error) {
	pdf, err := s.renderer.Render(export.LetterData{
		Institution: s.institution,
		RequestID:   request.ID,
		RequestType: string(request.Type),
		StudentName: request.StudentName,
		StudentID:   request.StudentID,
		Reason:      request.Reason,
		Details:     request.Details,
		StartDate:   request.StartDate.Time,
		EndDate:     request.EndDate.Time,
		Periods:     request.Periods,
		Status:      string(request.Status),
		DecidedBy:   decidedBy,
		DecidedAt:   request.DecidedAt,
		SubmittedAt: request.SubmittedAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to generate letter")
	}
	return pdf, nil
}
