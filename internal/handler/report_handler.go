package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ireporter/internal/domain"
	"ireporter/internal/middleware"
	"ireporter/internal/service"
	"ireporter/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	svc   *service.ReportService
	store storage.Storage
	log   *logrus.Logger
}

func NewReportHandler(svc *service.ReportService, store storage.Storage, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, store: store, log: log}
}

// Create accepts a multipart form with report fields and up to five evidence
// files (image or video, 50MB each).
func (h *ReportHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["evidence"]
	if len(files) > domain.MaxEvidenceFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most 5 evidence files are allowed"})
		return
	}
	attachments := make([]service.Attachment, 0, len(files))
	for _, fh := range files {
		if fh.Size > domain.MaxEvidenceFileSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "evidence files must be 50MB or smaller"})
			return
		}
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only image and video evidence is allowed"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read evidence file"})
			return
		}
		path, err := h.store.Save(c.Request.Context(), f, fh.Filename, contentType)
		f.Close()
		if err != nil {
			h.log.WithError(err).Error("store evidence file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "evidence upload failed"})
			return
		}
		attachments = append(attachments, service.Attachment{
			FileName:    fh.Filename,
			FilePath:    path,
			ContentType: contentType,
		})
	}
	report, err := h.svc.Create(middleware.GetUserID(c), service.CreateReportInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		ReportType:  c.PostForm("reportType"),
		Location:    c.PostForm("location"),
		Coordinates: c.PostForm("coordinates"),
		Attachments: attachments,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields), errors.Is(err, service.ErrInvalidReportType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.WithError(err).Error("create report")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create report"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}

func (h *ReportHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	reports, pagination, err := h.svc.List(middleware.GetUserID(c), isAdmin(c), service.ListOptions{
		ReportType: c.Query("reportType"),
		Status:     c.Query("status"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.log.WithError(err).Error("list reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "pagination": pagination})
}

func (h *ReportHandler) Get(c *gin.Context) {
	id, err := reportID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	report, err := h.svc.Get(middleware.GetUserID(c), isAdmin(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			h.log.WithError(err).Error("get report")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch report"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

type UpdateReportRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ReportType  *string `json:"reportType"`
	Location    *string `json:"location"`
	Coordinates *string `json:"coordinates"`
}

func (h *ReportHandler) Update(c *gin.Context) {
	id, err := reportID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	var req UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.svc.Update(middleware.GetUserID(c), id, service.UpdateReportInput{
		Title:       req.Title,
		Description: req.Description,
		ReportType:  req.ReportType,
		Location:    req.Location,
		Coordinates: req.Coordinates,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrMissingFields), errors.Is(err, service.ErrInvalidReportType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.WithError(err).Error("update report")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update report"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateStatus is admin-only (enforced by route middleware).
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	id, err := reportID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.svc.ChangeStatus(middleware.GetUserID(c), id, req.Status, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.WithError(err).Error("update report status")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update status"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *ReportHandler) Delete(c *gin.Context) {
	id, err := reportID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	if err := h.svc.Delete(middleware.GetUserID(c), isAdmin(c), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.WithError(err).Error("delete report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report deleted"})
}

func reportID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(id), err
}

func isAdmin(c *gin.Context) bool {
	return middleware.GetRole(c) == domain.RoleAdmin
}
