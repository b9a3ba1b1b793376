package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/pkg/response"
)

type markService interface {
	ListMarks(ctx context.Context, gradebookID string) ([]models.Mark, error)
	ListFeedback(ctx context.Context, gradebookID string) ([]models.Feedback, error)
	SaveEntry(ctx context.Context, actor models.Actor, gradebookID string, req dto.SaveEntryRequest) (*dto.EntryResult, error)
	SaveFeedback(ctx context.Context, actor models.Actor, gradebookID string, req dto.SaveFeedbackRequest) (*models.Feedback, error)
	BulkSave(ctx context.Context, actor models.Actor, gradebookID string, req dto.BulkSaveRequest) (*dto.BulkSaveResult, error)
}

// MarkHandler exposes mark and feedback entry.
type MarkHandler struct {
	marks markService
}

// NewMarkHandler constructs the handler.
func NewMarkHandler(marks markService) *MarkHandler {
	return &MarkHandler{marks: marks}
}

// ListMarks godoc
// @Summary List marks
// @Tags Marks
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/marks [get]
func (h *MarkHandler) ListMarks(c *gin.Context) {
	marks, err := h.marks.ListMarks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// ListFeedback godoc
// @Summary List feedback
// @Tags Marks
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/feedback [get]
func (h *MarkHandler) ListFeedback(c *gin.Context) {
	feedback, err := h.marks.ListFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feedback, nil)
}

// SaveEntry godoc
// @Summary Save one mark with optional feedback
// @Description The first numeric mark locks the gradebook structure.
// @Tags Marks
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.SaveEntryRequest true "Cell payload"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/marks [post]
func (h *MarkHandler) SaveEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	result, err := h.marks.SaveEntry(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkSave godoc
// @Summary Save many cells
// @Description Cells are committed one by one; failures are reported per cell.
// @Tags Marks
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.BulkSaveRequest true "Cells"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Router /gradebooks/{id}/marks [put]
func (h *MarkHandler) BulkSave(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.BulkSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	result, err := h.marks.BulkSave(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if len(result.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	response.JSON(c, status, result, nil)
}

// SaveFeedback godoc
// @Summary Save feedback for a cell
// @Tags Marks
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.SaveFeedbackRequest true "Feedback payload"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/feedback [post]
func (h *MarkHandler) SaveFeedback(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	feedback, err := h.marks.SaveFeedback(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feedback, nil)
}
