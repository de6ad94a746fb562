package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/dto"
	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/repository"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/export"
	"github.com/noah-isme/unisync-api/pkg/validation"
)

type leaveRequestStore interface {
	Add(ctx context.Context, request *models.LeaveRequest) error
	Update(ctx context.Context, request *models.LeaveRequest) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, int, error)
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	UpdateStatus(ctx context.Context, change models.StatusChange) (*models.LeaveRequest, error)
	CountByStatus(ctx context.Context, studentUserID string) (map[models.LeaveStatus]int, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// LeaveService runs the leave and on-duty request workflow.
type LeaveService struct {
	store         leaveRequestStore
	users         userLookup
	letters       *LetterService
	notifications *NotificationService
	events        *EventService
	audit         *AuditService
	metrics       *MetricsService
	validator     *validation.Validator
	logger        *zap.Logger
	exporters     map[string]datasetRenderer
	now           func() time.Time
}

// NewLeaveService constructs the service.
func NewLeaveService(store leaveRequestStore, users userLookup, letters *LetterService, notifications *NotificationService, events *EventService, audit *AuditService, metrics *MetricsService, validate *validation.Validator, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator(DefaultMinPasswordLength)
	}
	return &LeaveService{
		store:         store,
		users:         users,
		letters:       letters,
		notifications: notifications,
		events:        events,
		audit:         audit,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		exporters: map[string]datasetRenderer{
			"csv":  export.NewCSVExporter(),
			"xlsx": export.NewXLSXExporter("Requests"),
			"pdf":  export.NewPDFExporter(),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Submit files a new request on behalf of the calling student.
func (s *LeaveService) Submit(ctx context.Context, actor Actor, req dto.SubmitLeaveRequest) (*models.LeaveRequest, []error, error) {
	if err := requireStudent(actor, "only students can submit leave or on-duty requests"); err != nil {
		return nil, nil, err
	}
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Reason = strings.TrimSpace(req.Reason)
	req.Details = strings.TrimSpace(req.Details)
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, err
	}
	if err := ValidateLeaveWindow(models.LeaveType(req.Type), req.StartDate, req.EndDate, req.Periods); err != nil {
		return nil, nil, err
	}

	profile, err := s.users.GetProfile(ctx, actor.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load student profile")
	}
	studentID := ""
	if profile.StudentID != nil {
		studentID = *profile.StudentID
	}

	now := s.now()
	request := &models.LeaveRequest{
		ID:            uuid.NewString(),
		Type:          models.LeaveType(req.Type),
		Reason:        req.Reason,
		Details:       req.Details,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Periods:       req.Periods,
		Status:        models.LeaveStatusPending,
		StudentUserID: actor.ID,
		StudentName:   profile.FullName,
		StudentID:     studentID,
		SubmittedAt:   now,
		UpdatedAt:     now,
	}
	if err := s.store.Add(ctx, request); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to submit request")
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     models.AuditActionLeaveSubmit,
		Resource:   models.EntityLeaveRequest,
		ResourceID: request.ID,
		After:      request,
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
	})

	var warnings []error
	if err := s.events.Publish(ctx, models.EventCreated, models.EntityLeaveRequest, request.ID, actor.ID, map[string]string{
		"status":              string(request.Status),
		models.EventDataOwner: request.StudentUserID,
	}); err != nil {
		warnings = append(warnings, err)
	}
	if err := s.notifications.Notify(s.notification(models.NotificationLeaveSubmitted, request, "")); err != nil {
		warnings = append(warnings, err)
	}
	return request, warnings, nil
}

// List returns the student's own requests, or every request for staff and admin.
func (s *LeaveService) List(ctx context.Context, actor Actor, query dto.LeaveQuery) ([]dto.LeaveRequestView, *models.Pagination, error) {
	filter := models.LeaveRequestFilter{Page: query.Page, PageSize: query.PageSize}
	if actor.Role == models.RoleStudent {
		filter.StudentUserID = actor.ID
	}
	if query.Status != "" {
		status := models.LeaveStatus(strings.ToLower(query.Status))
		if !status.Valid() {
			return nil, nil, validation.Invalid("status", "status must be one of pending, acknowledged, approved or rejected")
		}
		filter.Status = &status
	}
	if query.Type != "" {
		kind := models.LeaveType(strings.ToLower(query.Type))
		if !kind.Valid() {
			return nil, nil, validation.Invalid("type", "type must be leave or od")
		}
		filter.Type = &kind
	}

	items, total, err := s.store.GetAll(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to list requests")
	}
	views := make([]dto.LeaveRequestView, 0, len(items))
	for i := range items {
		views = append(views, s.view(actor, &items[i]))
	}
	return views, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one request. Students can only read their own.
func (s *LeaveService) Get(ctx context.Context, actor Actor, id string) (*dto.LeaveRequestView, error) {
	request, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := s.view(actor, request)
	return &view, nil
}

// Acknowledge forwards a pending on-duty request to the admin.
func (s *LeaveService) Acknowledge(ctx context.Context, actor Actor, id string) (*models.LeaveRequest, []error, error) {
	return s.transition(ctx, actor, id, models.LeaveActionAcknowledge)
}

// Approve grants a request.
func (s *LeaveService) Approve(ctx context.Context, actor Actor, id string) (*models.LeaveRequest, []error, error) {
	return s.transition(ctx, actor, id, models.LeaveActionApprove)
}

// Reject declines a request.
func (s *LeaveService) Reject(ctx context.Context, actor Actor, id string) (*models.LeaveRequest, []error, error) {
	return s.transition(ctx, actor, id, models.LeaveActionReject)
}

// Transition applies action by name.
func (s *LeaveService) Transition(ctx context.Context, actor Actor, id string, action models.LeaveAction) (*models.LeaveRequest, []error, error) {
	if action == models.LeaveActionDownloadLetter {
		return nil, nil, validation.Invalid("action", "use the letter endpoint to download letters")
	}
	return s.transition(ctx, actor, id, action)
}

// DownloadLetter returns the PDF letter of an approved request.
func (s *LeaveService) DownloadLetter(ctx context.Context, actor Actor, id string) (*dto.ExportFile, error) {
	request, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent {
		if _, err := NextStatus(actor.Role, request.Type, request.Status, models.LeaveActionDownloadLetter); err != nil {
			return nil, err
		}
	} else if request.Status != models.LeaveStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "letters are only available for approved requests")
	}
	if s.letters == nil {
		return nil, appErrors.Clone(appErrors.ErrExternalService, "letter generation is not configured")
	}
	pdf, err := s.letters.Load(ctx, request, s.deciderName(ctx, request))
	if err != nil {
		return nil, err
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("%s-letter-%s.pdf", request.Type, request.ID),
		ContentType: "application/pdf",
		Data:        pdf,
	}, nil
}

// Export renders the matching requests as csv, xlsx or pdf. Staff and admin only.
func (s *LeaveService) Export(ctx context.Context, actor Actor, format string, query dto.LeaveQuery) (*dto.ExportFile, error) {
	if actor.Role != models.RoleStaff && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff and admin can export requests")
	}
	renderer, ok := s.exporters[strings.ToLower(format)]
	if !ok {
		return nil, validation.Invalid("format", "format must be csv, xlsx or pdf")
	}
	query.Page = 1
	query.PageSize = 100

	dataset := export.Dataset{
		Title:   "Leave and on-duty requests",
		Headers: []string{"id", "type", "student_id", "student_name", "reason", "start_date", "end_date", "periods", "status", "submitted_at"},
	}
	for {
		views, page, err := s.List(ctx, actor, query)
		if err != nil {
			return nil, err
		}
		for _, view := range views {
			dataset.Rows = append(dataset.Rows, exportRow(view.LeaveRequest))
		}
		if len(views) == 0 || query.Page*query.PageSize >= page.TotalCount {
			break
		}
		query.Page++
	}

	data, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("requests-%s.%s", s.now().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

// Delete removes a request. Admin only.
func (s *LeaveService) Delete(ctx context.Context, actor Actor, id string) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admin can delete requests")
	}
	request, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to delete request")
	}
	if request.LetterPath != nil && s.letters != nil {
		s.letters.files.Delete(*request.LetterPath)
	}
	_ = s.events.Publish(ctx, models.EventDeleted, models.EntityLeaveRequest, id, actor.ID, map[string]string{models.EventDataOwner: request.StudentUserID})
	return nil
}

// Counts aggregates requests per status, narrowed to one student when studentUserID is set.
func (s *LeaveService) Counts(ctx context.Context, studentUserID string) (map[models.LeaveStatus]int, error) {
	counts, err := s.store.CountByStatus(ctx, studentUserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to count requests")
	}
	return counts, nil
}

type actionableBucket struct {
	status models.LeaveStatus
	kind   models.LeaveType
}

// Actionable returns the requests the actor can move forward. Each bucket is
// queried by status and type so undecidable requests never crowd out the page.
func (s *LeaveService) Actionable(ctx context.Context, actor Actor, limit int) ([]dto.LeaveRequestView, error) {
	var buckets []actionableBucket
	switch actor.Role {
	case models.RoleStaff:
		buckets = []actionableBucket{
			{status: models.LeaveStatusPending, kind: models.LeaveTypeLeave},
			{status: models.LeaveStatusPending, kind: models.LeaveTypeOD},
		}
	case models.RoleAdmin:
		buckets = []actionableBucket{
			{status: models.LeaveStatusPending, kind: models.LeaveTypeLeave},
			{status: models.LeaveStatusAcknowledged, kind: models.LeaveTypeOD},
		}
	default:
		return []dto.LeaveRequestView{}, nil
	}
	out := make([]dto.LeaveRequestView, 0, limit)
	for _, bucket := range buckets {
		if len(out) >= limit {
			break
		}
		views, _, err := s.List(ctx, actor, dto.LeaveQuery{Status: string(bucket.status), Type: string(bucket.kind), PageSize: limit - len(out)})
		if err != nil {
			return nil, err
		}
		for _, view := range views {
			if len(view.AllowedActions) > 0 && len(out) < limit {
				out = append(out, view)
			}
		}
	}
	return out, nil
}

func (s *LeaveService) transition(ctx context.Context, actor Actor, id string, action models.LeaveAction) (*models.LeaveRequest, []error, error) {
	request, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	next, err := NextStatus(actor.Role, request.Type, request.Status, action)
	if err != nil {
		return nil, nil, err
	}
	if next == request.Status {
		return request, nil, nil
	}

	updated, err := s.store.UpdateStatus(ctx, models.StatusChange{
		ID:      request.ID,
		From:    request.Status,
		To:      next,
		Action:  action,
		ActorID: actor.ID,
		At:      s.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request was updated by someone else, reload and try again")
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to update request")
	}

	s.metrics.RecordLeaveTransition(action, request.Status, next)
	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     models.AuditActionLeaveTransition,
		Resource:   models.EntityLeaveRequest,
		ResourceID: request.ID,
		Before:     map[string]string{"status": string(request.Status)},
		After:      map[string]string{"status": string(next), "action": string(action)},
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
	})
	s.logger.Info("leave request transitioned",
		zap.String("request_id", request.ID),
		zap.String("action", string(action)),
		zap.String("from", string(request.Status)),
		zap.String("to", string(next)),
		zap.String("actor_id", actor.ID),
	)

	var warnings []error
	if err := s.events.Publish(ctx, models.EventStatusChanged, models.EntityLeaveRequest, request.ID, actor.ID, map[string]string{
		"from":                string(request.Status),
		"to":                  string(next),
		"action":              string(action),
		models.EventDataOwner: request.StudentUserID,
	}); err != nil {
		warnings = append(warnings, err)
	}
	if next.Terminal() {
		if err := s.storeLetter(ctx, updated, actor.Name); err != nil {
			warnings = append(warnings, err)
		}
		if err := s.notifications.Notify(s.notification(models.NotificationLeaveDecided, updated, s.studentEmail(ctx, updated))); err != nil {
			warnings = append(warnings, err)
		}
	}
	return updated, warnings, nil
}

func (s *LeaveService) storeLetter(ctx context.Context, request *models.LeaveRequest, decidedBy string) error {
	if s.letters == nil {
		return nil
	}
	relPath, _, err := s.letters.Generate(ctx, request, decidedBy)
	if err != nil {
		s.logger.Warn("failed to generate letter", zap.String("request_id", request.ID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "letter could not be generated")
	}
	request.LetterPath = &relPath
	if err := s.store.Update(ctx, request); err != nil {
		s.logger.Warn("failed to record letter path", zap.String("request_id", request.ID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "letter could not be recorded")
	}
	return nil
}

func (s *LeaveService) load(ctx context.Context, actor Actor, id string) (*models.LeaveRequest, error) {
	request, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load request")
	}
	if actor.Role == models.RoleStudent && request.StudentUserID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return request, nil
}

func (s *LeaveService) view(actor Actor, request *models.LeaveRequest) dto.LeaveRequestView {
	actions := AllowedActions(actor.Role, request.Type, request.Status)
	if actions == nil {
		actions = []models.LeaveAction{}
	}
	return dto.LeaveRequestView{LeaveRequest: *request, AllowedActions: actions}
}

func (s *LeaveService) notification(event models.NotificationEvent, request *models.LeaveRequest, studentEmail string) models.LeaveNotification {
	return models.LeaveNotification{
		Event:        event,
		RequestID:    request.ID,
		Type:         request.Type,
		Status:       request.Status,
		StudentName:  request.StudentName,
		StudentID:    request.StudentID,
		StudentEmail: studentEmail,
		Reason:       request.Reason,
		StartDate:    request.StartDate,
		EndDate:      request.EndDate,
		Periods:      request.Periods,
	}
}

func (s *LeaveService) studentEmail(ctx context.Context, request *models.LeaveRequest) string {
	user, err := s.users.FindByID(ctx, request.StudentUserID)
	if err != nil {
		s.logger.Warn("failed to resolve student email", zap.String("request_id", request.ID), zap.Error(err))
		return ""
	}
	return user.Email
}

func (s *LeaveService) deciderName(ctx context.Context, request *models.LeaveRequest) string {
	if request.DecidedBy == nil {
		return ""
	}
	user, err := s.users.FindByID(ctx, *request.DecidedBy)
	if err != nil {
		return *request.DecidedBy
	}
	return user.FullName
}

// ValidateLeaveWindow checks the date range and the on-duty period count.
func ValidateLeaveWindow(kind models.LeaveType, start, end models.Date, periods *int) error {
	if start.IsZero() {
		return validation.Invalid("start_date", "start_date is required")
	}
	if end.IsZero() {
		return validation.Invalid("end_date", "end_date is required")
	}
	if end.Before(start) {
		return validation.Invalid("end_date", "end_date must not be before start_date")
	}
	switch kind {
	case models.LeaveTypeOD:
		if periods == nil {
			return validation.Invalid("periods", "periods is required for on-duty requests")
		}
		if *periods < models.MinODPeriods || *periods > models.MaxODPeriods {
			return validation.Invalid("periods", fmt.Sprintf("periods must be between %d and %d", models.MinODPeriods, models.MaxODPeriods))
		}
	case models.LeaveTypeLeave:
		if periods != nil {
			return validation.Invalid("periods", "periods only apply to on-duty requests")
		}
	}
	return nil
}

func exportRow(request models.LeaveRequest) map[string]string {
	periods := ""
	if request.Periods != nil {
		periods = strconv.Itoa(*request.Periods)
	}
	return map[string]string{
		"id":           request.ID,
		"type":         string(request.Type),
		"student_id":   request.StudentID,
		"student_name": request.StudentName,
		"reason":       request.Reason,
		"start_date":   request.StartDate.String(),
		"end_date":     request.EndDate.String(),
		"periods":      periods,
		"status":       string(request.Status),
		"submitted_at": request.SubmittedAt.Format(time.RFC3339),
	}
}
