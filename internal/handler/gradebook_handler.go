package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/service"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
	"github.com/noah-isme/vtc-gradebook-api/pkg/response"
)

type gradebookService interface {
	Create(ctx context.Context, actor models.Actor, req dto.CreateGradebookRequest) (*models.Gradebook, error)
	List(ctx context.Context, actor models.Actor, query dto.GradebookQuery) ([]models.Gradebook, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, id string) (*dto.GradebookView, error)
	UpdateWeights(ctx context.Context, actor models.Actor, id string, req dto.UpdateWeightsRequest) (*models.Gradebook, error)
	Sheet(ctx context.Context, actor models.Actor, id string) (*models.GradebookSheet, error)
	TraineeCA(ctx context.Context, actor models.Actor, id, traineeID string) (*models.TraineeCA, error)
}

type lifecycleService interface {
	Apply(ctx context.Context, actor models.Actor, gradebookID string, transition service.Transition, note string) (*models.Gradebook, error)
}

// GradebookHandler exposes gradebook, CA and lifecycle endpoints.
type GradebookHandler struct {
	gradebooks gradebookService
	lifecycle  lifecycleService
}

// NewGradebookHandler constructs the handler.
func NewGradebookHandler(gradebooks gradebookService, lifecycle lifecycleService) *GradebookHandler {
	return &GradebookHandler{gradebooks: gradebooks, lifecycle: lifecycle}
}

// List godoc
// @Summary List gradebooks
// @Tags Gradebooks
// @Produce json
// @Param qualification_id query string false "Filter by qualification"
// @Param academic_year query string false "Filter by academic year"
// @Param status query string false "draft, submitted, hot_approved or ac_approved"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /gradebooks [get]
func (h *GradebookHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, pagination, err := h.gradebooks.List(c.Request.Context(), actor, dto.GradebookQuery{
		QualificationID: c.Query("qualification_id"),
		AcademicYear:    c.Query("academic_year"),
		Status:          models.GradebookStatus(c.Query("status")),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "page_size", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Create a draft gradebook
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradebookRequest true "Gradebook payload"
// @Success 201 {object} response.Envelope
// @Router /gradebooks [post]
func (h *GradebookHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateGradebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	gradebook, err := h.gradebooks.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gradebook)
}

// Get godoc
// @Summary Get a gradebook with the caller's permissions
// @Tags Gradebooks
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id} [get]
func (h *GradebookHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.gradebooks.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// UpdateWeights godoc
// @Summary Update theory weights
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.UpdateWeightsRequest true "Weights"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/weights [patch]
func (h *GradebookHandler) UpdateWeights(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	gradebook, err := h.gradebooks.UpdateWeights(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gradebook, nil)
}

// Sheet godoc
// @Summary Full marking sheet with computed CA
// @Tags Gradebooks
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/sheet [get]
func (h *GradebookHandler) Sheet(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sheet, err := h.gradebooks.Sheet(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// TraineeCA godoc
// @Summary Continuous assessment of one trainee
// @Tags Gradebooks
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param traineeId path string true "Trainee ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/trainees/{traineeId}/ca [get]
func (h *GradebookHandler) TraineeCA(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.gradebooks.TraineeCA(c.Request.Context(), actor, c.Param("id"), c.Param("traineeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Transition godoc
// @Summary Move a gradebook through its approval lifecycle
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param transition path string true "submit, hot_approve, return_to_draft, ac_approve or return_to_submitted"
// @Param payload body dto.TransitionRequest false "Optional return note"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/transitions/{transition} [post]
func (h *GradebookHandler) Transition(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	transition, known := service.ParseTransition(c.Param("transition"))
	if !known {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown transition"))
		return
	}
	var req dto.TransitionRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		// Chunked requests report ContentLength -1; an empty body binds to io.EOF.
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, bindError(err))
			return
		}
	}
	gradebook, err := h.lifecycle.Apply(c.Request.Context(), actor, c.Param("id"), transition, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gradebook, nil)
}
