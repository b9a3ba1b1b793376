package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/pkg/response"
)

type componentService interface {
	List(ctx context.Context, gradebookID string) ([]models.Component, error)
	AddComponent(ctx context.Context, actor models.Actor, gradebookID string, req dto.CreateComponentRequest) (*models.Component, error)
	DeleteComponent(ctx context.Context, actor models.Actor, gradebookID, componentID string) error
	ListGroups(ctx context.Context, gradebookID string) ([]models.ComponentGroup, error)
	CreateGroup(ctx context.Context, actor models.Actor, gradebookID string, req dto.CreateGroupRequest) (*models.ComponentGroup, error)
}

// ComponentHandler exposes the component registry.
type ComponentHandler struct {
	components componentService
}

// NewComponentHandler constructs the handler.
func NewComponentHandler(components componentService) *ComponentHandler {
	return &ComponentHandler{components: components}
}

// List godoc
// @Summary List gradebook components
// @Tags Components
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/components [get]
func (h *ComponentHandler) List(c *gin.Context) {
	components, err := h.components.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, components, nil)
}

// Create godoc
// @Summary Add a component
// @Tags Components
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.CreateComponentRequest true "Component payload"
// @Success 201 {object} response.Envelope
// @Router /gradebooks/{id}/components [post]
func (h *ComponentHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	component, err := h.components.AddComponent(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, component)
}

// Delete godoc
// @Summary Delete a component
// @Description Fails with 423 once any mark exists in the gradebook.
// @Tags Components
// @Param id path string true "Gradebook ID"
// @Param componentId path string true "Component ID"
// @Success 204
// @Failure 423 {object} response.Envelope
// @Router /gradebooks/{id}/components/{componentId} [delete]
func (h *ComponentHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.components.DeleteComponent(c.Request.Context(), actor, c.Param("id"), c.Param("componentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListGroups godoc
// @Summary List component groups
// @Tags Components
// @Produce json
// @Param id path string true "Gradebook ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/groups [get]
func (h *ComponentHandler) ListGroups(c *gin.Context) {
	groups, err := h.components.ListGroups(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// CreateGroup godoc
// @Summary Create a component group
// @Tags Components
// @Accept json
// @Produce json
// @Param id path string true "Gradebook ID"
// @Param payload body dto.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /gradebooks/{id}/groups [post]
func (h *ComponentHandler) CreateGroup(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	group, err := h.components.CreateGroup(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}
