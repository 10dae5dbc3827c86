package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"ireporter/internal/domain"
	"ireporter/internal/models"
	"ireporter/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("report not found")
	ErrForbidden         = errors.New("you do not have access to this report")
	ErrMissingFields     = errors.New("title, description, report type and location are required")
	ErrInvalidReportType = errors.New("report type must be red-flag or intervention")
	ErrInvalidStatus     = errors.New("invalid status")
)

// ReportStore is the persistence surface for reports, their evidence and the
// status history ledger.
type ReportStore interface {
	CreateWithAssociations(report *models.Report, history *models.StatusHistory, evidence []models.Evidence) error
	List(f repository.ReportFilter) ([]models.Report, int64, error)
	GetByID(id uint) (*models.Report, error)
	UpdateContent(id, ownerID uint, updates map[string]interface{}) (int64, error)
	Delete(id, ownerID uint) (int64, error)
	AppendTransition(reportID uint, status, note string, actorID uint) (*models.Report, error)
}

// ReportNotifier receives lifecycle events; delivery never blocks or fails
// the triggering write.
type ReportNotifier interface {
	NotifyReportCreated(report *models.Report)
	NotifyStatusChanged(report *models.Report)
}

type ReportService struct {
	store    ReportStore
	notifier ReportNotifier
	log      *logrus.Logger
}

func NewReportService(store ReportStore, notifier ReportNotifier, log *logrus.Logger) *ReportService {
	return &ReportService{store: store, notifier: notifier, log: log}
}

// Attachment is uploaded evidence already persisted by the storage backend.
type Attachment struct {
	FileName    string
	FilePath    string
	ContentType string
}

type CreateReportInput struct {
	Title       string
	Description string
	ReportType  string
	Location    string
	Coordinates string
	Attachments []Attachment
}

// Create persists a new report with its initial pending history entry and
// evidence rows, then notifies admins.
func (s *ReportService) Create(ownerID uint, in CreateReportInput) (*models.Report, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	location := strings.TrimSpace(in.Location)
	if title == "" || description == "" || in.ReportType == "" || location == "" {
		return nil, ErrMissingFields
	}
	if !domain.ValidReportType(in.ReportType) {
		return nil, ErrInvalidReportType
	}
	lat, lng := ParseCoordinates(in.Coordinates)
	report := &models.Report{
		Title:        title,
		Description:  description,
		ReportType:   in.ReportType,
		Status:       domain.StatusPending,
		Location:     location,
		Latitude:     lat,
		Longitude:    lng,
		UserID:       ownerID,
		DateReported: time.Now(),
	}
	history := &models.StatusHistory{
		Status:    domain.StatusPending,
		Note:      "Report submitted",
		ChangedBy: ownerID,
	}
	evidence := make([]models.Evidence, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		evidence = append(evidence, models.Evidence{
			FileName: a.FileName,
			FilePath: a.FilePath,
			FileType: evidenceType(a.ContentType),
		})
	}
	if err := s.store.CreateWithAssociations(report, history, evidence); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyReportCreated(report)
	}
	return report, nil
}

type ListOptions struct {
	ReportType string
	Status     string
	Page       int
	Limit      int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// List returns reports visible to the caller: admins see everything, other
// users only their own.
func (s *ReportService) List(callerID uint, isAdmin bool, opts ListOptions) ([]models.Report, *Pagination, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 10
	}
	filter := repository.ReportFilter{
		ReportType: opts.ReportType,
		Status:     opts.Status,
		Page:       opts.Page,
		Limit:      opts.Limit,
	}
	if !isAdmin {
		filter.UserID = callerID
	}
	reports, total, err := s.store.List(filter)
	if err != nil {
		return nil, nil, err
	}
	pages := total / int64(opts.Limit)
	if total%int64(opts.Limit) != 0 {
		pages++
	}
	return reports, &Pagination{Page: opts.Page, Limit: opts.Limit, Total: total, TotalPages: pages}, nil
}

// Get returns one report with full ascending history. Missing rows answer
// not-found; a non-admin asking for someone else's report gets an explicit
// forbidden, unlike edit and delete which mask permission as not-found.
func (s *ReportService) Get(callerID uint, isAdmin bool, id uint) (*models.Report, error) {
	report, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && report.UserID != callerID {
		return nil, ErrForbidden
	}
	return report, nil
}

type UpdateReportInput struct {
	Title       *string
	Description *string
	ReportType  *string
	Location    *string
	Coordinates *string
}

// Update edits report content. Permitted only while the caller owns the
// report and it is still pending; everything else answers not-found so the
// response does not reveal whether the report exists.
func (s *ReportService) Update(callerID, id uint, in UpdateReportInput) (*models.Report, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, ErrMissingFields
		}
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return nil, ErrMissingFields
		}
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.ReportType != nil {
		if !domain.ValidReportType(*in.ReportType) {
			return nil, ErrInvalidReportType
		}
		updates["report_type"] = *in.ReportType
	}
	if in.Location != nil {
		if strings.TrimSpace(*in.Location) == "" {
			return nil, ErrMissingFields
		}
		updates["location"] = strings.TrimSpace(*in.Location)
	}
	if in.Coordinates != nil {
		lat, lng := ParseCoordinates(*in.Coordinates)
		updates["latitude"] = lat
		updates["longitude"] = lng
	}
	if len(updates) == 0 {
		report, err := s.store.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if report.UserID != callerID || report.Status != domain.StatusPending {
			return nil, ErrNotFound
		}
		return report, nil
	}
	rows, err := s.store.UpdateContent(id, callerID, updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	report, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Delete removes a report. Admins may delete any report, owners their own;
// zero rows affected answers not-found for both "missing" and "not yours".
func (s *ReportService) Delete(callerID uint, isAdmin bool, id uint) error {
	ownerID := callerID
	if isAdmin {
		ownerID = 0
	}
	rows, err := s.store.Delete(id, ownerID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ChangeStatus appends a status transition to the ledger and updates the live
// status in one transaction, then notifies the owner. Any status may follow
// any other; only membership in the enumerated set is checked.
func (s *ReportService) ChangeStatus(actorID, id uint, status, note string) (*models.Report, error) {
	if !domain.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	if strings.TrimSpace(note) == "" {
		note = "Status changed to " + status
	}
	report, err := s.store.AppendTransition(id, status, note, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyStatusChanged(report)
	}
	return report, nil
}

// ParseCoordinates parses a "lat,lng" pair. Malformed input yields nils
// rather than an error: coordinate capture is best effort.
func ParseCoordinates(s string) (*float64, *float64) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, nil
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, nil
	}
	return &lat, &lng
}

func evidenceType(contentType string) string {
	if strings.HasPrefix(contentType, "image/") {
		return domain.EvidenceTypeImage
	}
	return domain.EvidenceTypeVideo
}
