package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/forms"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/notification"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine   *service.Engine
	registry *forms.Registry
	notifier *notification.Service
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	engine *service.Engine,
	registry *forms.Registry,
	notifier *notification.Service,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		engine:   engine,
		registry: registry,
		notifier: notifier,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ExtractRequest carries a voice transcript for field extraction
type ExtractRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

// ExtractResponse carries extracted values and any validation errors
// for the fields that were filled.
type ExtractResponse struct {
	FormID string            `json:"form_id"`
	Fields map[string]string `json:"fields"`
	Errors map[string]string `json:"errors,omitempty"`
}

// CreateSubmissionRequest represents a completed form ready to submit
type CreateSubmissionRequest struct {
	FormID string            `json:"form_id" binding:"required"`
	Data   map[string]string `json:"data"`
}

// StatusUpdateRequest represents an admin-issued status change
type StatusUpdateRequest struct {
	TrackingID string `json:"tracking_id" binding:"required"`
	Status     string `json:"status" binding:"required"`
	Message    string `json:"message"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListForms handles GET /api/v1/forms
func (h *Handlers) ListForms(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.registry.List(),
	})
}

// GetForm handles GET /api/v1/forms/:id
func (h *Handlers) GetForm(c *gin.Context) {
	id := c.Param("id")

	schema, ok := h.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "form not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    schema,
	})
}

// ExtractFormData handles POST /api/v1/forms/:id/extract
func (h *Handlers) ExtractFormData(c *gin.Context) {
	id := c.Param("id")

	schema, ok := h.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "form not found",
		})
		return
	}

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid extract request", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "transcript is required",
		})
		return
	}

	fields := h.engine.ExtractFormData(req.Transcript, schema.Fields)
	errs := h.engine.ValidateForm(fields, schema.Fields)

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ExtractResponse{
			FormID: schema.ID,
			Fields: fields,
			Errors: errs,
		},
	})
}

// CreateSubmission handles POST /api/v1/submissions
func (h *Handlers) CreateSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid submission request", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "form_id is required",
		})
		return
	}

	schema, ok := h.registry.Get(req.FormID)
	if !ok {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "form not found",
		})
		return
	}

	// Submissions must pass validation before they are accepted.
	if errs := h.engine.ValidateForm(req.Data, schema.Fields); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Data:    errs,
			Error:   "validation failed",
		})
		return
	}

	sub, err := h.engine.CreateSubmission(schema.ID, schema.Title, req.Data)
	if err != nil {
		h.logger.Error("Failed to create submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to create submission",
		})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    sub,
	})
}

// ListSubmissions handles GET /api/v1/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.engine.Submissions(),
	})
}

// TrackSubmission handles GET /api/v1/track/:trackingId
func (h *Handlers) TrackSubmission(c *gin.Context) {
	trackingID := c.Param("trackingId")

	sub, err := h.engine.TrackSubmission(trackingID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "submission not found",
			})
			return
		}
		h.logger.Error("Failed to track submission",
			zap.String("tracking_id", trackingID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to track submission",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    sub,
	})
}

// RefreshStatus handles POST /api/v1/track/:trackingId/refresh
func (h *Handlers) RefreshStatus(c *gin.Context) {
	trackingID := c.Param("trackingId")

	sub, err := h.engine.RefreshStatus(c.Request.Context(), trackingID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "submission not found",
			})
			return
		}
		h.logger.Error("Failed to refresh status",
			zap.String("tracking_id", trackingID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to refresh status",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    sub,
	})
}

// GetPreferences handles GET /api/v1/preferences
func (h *Handlers) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.notifier.Preferences(),
	})
}

// SetPreferences handles PUT /api/v1/preferences
func (h *Handlers) SetPreferences(c *gin.Context) {
	var prefs notification.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		h.logger.Error("Invalid preferences", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid preferences",
		})
		return
	}

	h.notifier.SetPreferences(prefs)

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    prefs,
	})
}

// ApplyStatusUpdate handles POST /api/v1/admin/status-updates
func (h *Handlers) ApplyStatusUpdate(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid status update", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "tracking_id and status are required",
		})
		return
	}

	update := models.StatusUpdate{
		TrackingID: req.TrackingID,
		Status:     models.SubmissionStatus(req.Status),
		Message:    req.Message,
		Timestamp:  time.Now(),
	}

	if err := h.engine.ApplyAdminUpdate(update); err != nil {
		h.logger.Error("Failed to apply status update",
			zap.String("tracking_id", req.TrackingID), zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, Response{
		Success: true,
		Data:    update,
	})
}
