package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/pkg/response"
)

type rosterService interface {
	List(ctx context.Context, gradebookID string) ([]models.EnrolledTrainee, error)
	ReconcileNow(ctx context.Context, actor models.Actor, gradebookID string) (*dto.ReconcileResult, error)
	EnrollTrainees(ctx context.Context, actor models.Actor, gradebookID string, req dto.EnrollTraineesRequest) (*dto.ReconcileResult, error)
}

// RosterHandler exposes gradebook enrollment.
type RosterHandler struct {
	roster rosterService
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(roster rosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// List godoc
// @Summary List enrolled trainees
// @Tags Roster
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/trainees [get]
func (h *RosterHandler) List(c *gin.Context) {
	trainees, err := h.roster.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainees, nil)
}

// Enroll godoc
// @Summary Enroll trainees by hand
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.EnrollTraineesRequest true "Trainee IDs"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/trainees [post]
func (h *RosterHandler) Enroll(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.EnrollTraineesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	result, err := h.roster.EnrollTrainees(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reconcile godoc
// @Summary Enroll matching trainees into an empty roster
// @Tags Roster
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/trainees/reconcile [post]
func (h *RosterHandler) Reconcile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.roster.ReconcileNow(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
