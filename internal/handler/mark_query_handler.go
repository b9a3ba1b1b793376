package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/pkg/response"
)

type markQueryService interface {
	Raise(ctx context.Context, actor models.Actor, gradebookID string, req dto.RaiseQueryRequest) (*models.MarkQuery, error)
	Resolve(ctx context.Context, actor models.Actor, queryID string, req dto.ResolveQueryRequest) (*models.MarkQuery, error)
	List(ctx context.Context, actor models.Actor, gradebookID string, status models.QueryStatus) ([]models.MarkQuery, error)
}

// MarkQueryHandler exposes trainee mark disputes.
type MarkQueryHandler struct {
	queries markQueryService
}

// NewMarkQueryHandler constructs the handler.
func NewMarkQueryHandler(queries markQueryService) *MarkQueryHandler {
	return &MarkQueryHandler{queries: queries}
}

// List godoc
// @Summary List mark queries
// @Description Trainees only see their own queries.
// @Tags Mark Queries
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param status query string false "open, resolved or rejected"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/queries [get]
func (h *MarkQueryHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	queries, err := h.queries.List(c.Request.Context(), actor, c.Param("id"), models.QueryStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queries, nil)
}

// Raise godoc
// @Summary Raise a mark query
// @Tags Mark Queries
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.RaiseQueryRequest true "Query payload"
// @Success 201 {object} response.Envelope
// @Router /gradebooks/{id}/queries [post]
func (h *MarkQueryHandler) Raise(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RaiseQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	query, err := h.queries.Raise(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, query)
}

// Resolve godoc
// @Summary Resolve or reject a mark query
// @Tags Mark Queries
// @Accept json
// @Produce json
// @Param queryId path string true "Query ID"
// @Param payload body dto.ResolveQueryRequest true "Outcome and notes"
// @Success 200 {object} response.Envelope
// @Router /queries/{queryId}/resolve [post]
func (h *MarkQueryHandler) Resolve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ResolveQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	query, err := h.queries.Resolve(c.Request.Context(), actor, c.Param("queryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, query, nil)
}
