package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

type componentStore interface {
	List(ctx context.Context, gradebookID string) ([]models.Component, error)
	Create(ctx context.Context, component *models.Component) error
	DeleteUnlocked(ctx context.Context, gradebookID, componentID string) error
	FindByID(ctx context.Context, gradebookID, componentID string) (*models.Component, error)
	ListGroups(ctx context.Context, gradebookID string) ([]models.ComponentGroup, error)
	FindGroup(ctx context.Context, gradebookID, groupID string) (*models.ComponentGroup, error)
	CreateGroup(ctx context.Context, group *models.ComponentGroup) error
}

// ComponentService manages the assessable units of a gradebook.
type ComponentService struct {
	gradebooks gradebookGetter
	repo       componentStore
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewComponentService constructs the service.
func NewComponentService(gradebooks gradebookGetter, repo componentStore, validate *validator.Validate, logger *zap.Logger) *ComponentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComponentService{gradebooks: gradebooks, repo: repo, validator: validate, logger: logger}
}

// List returns the gradebook's components in sort order.
func (s *ComponentService) List(ctx context.Context, gradebookID string) ([]models.Component, error) {
	if _, err := loadGradebook(ctx, s.gradebooks, gradebookID); err != nil {
		return nil, err
	}
	components, err := s.repo.List(ctx, gradebookID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list components")
	}
	return components, nil
}

// AddComponent appends a component. Adding stays possible after the gradebook locks.
func (s *ComponentService) AddComponent(ctx context.Context, actor models.Actor, gradebookID string, req dto.CreateComponentRequest) (*models.Component, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid component payload")
	}
	if err := checkCents(req.MaxMarks, maxStoredMarks, "max_marks"); err != nil {
		return nil, err
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	if err := requireEntryRights(actor, gradebook); err != nil {
		return nil, err
	}
	if req.GroupID != nil && *req.GroupID != "" {
		if _, err := s.repo.FindGroup(ctx, gradebook.ID, *req.GroupID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "component group not found")
			}
			return nil, appErrors.Internal(err, "failed to load component group")
		}
	} else {
		req.GroupID = nil
	}

	component := &models.Component{
		GradebookID:         gradebook.ID,
		Name:                req.Name,
		ComponentType:       req.ComponentType,
		MaxMarks:            req.MaxMarks,
		GroupID:             req.GroupID,
		TemplateComponentID: trimmedOrNil(req.TemplateComponentID),
	}
	if err := s.repo.Create(ctx, component); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "referenced group or template not found")
		}
		if errors.Is(err, repository.ErrValueOutOfRange) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max_marks out of range")
		}
		return nil, appErrors.Internal(err, "failed to create component")
	}
	s.logger.Info("component added",
		zap.String("gradebook_id", gradebook.ID),
		zap.String("component_id", component.ID),
		zap.String("type", string(component.ComponentType)),
	)
	return component, nil
}

// DeleteComponent removes a component. Any mark anywhere in the gradebook locks
// it, and a locked gradebook refuses every deletion.
func (s *ComponentService) DeleteComponent(ctx context.Context, actor models.Actor, gradebookID, componentID string) error {
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return err
	}
	if err := requireEntryRights(actor, gradebook); err != nil {
		return err
	}
	if gradebook.IsLocked {
		return appErrors.Clone(appErrors.ErrLocked, "components cannot be deleted once marks exist")
	}
	if err := s.repo.DeleteUnlocked(ctx, gradebook.ID, componentID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Internal(err, "failed to delete component")
		}
		// nothing deleted: either the component is gone or a mark locked the gradebook meanwhile
		current, loadErr := loadGradebook(ctx, s.gradebooks, gradebook.ID)
		if loadErr != nil {
			return loadErr
		}
		if current.IsLocked {
			return appErrors.Clone(appErrors.ErrLocked, "components cannot be deleted once marks exist")
		}
		return appErrors.Clone(appErrors.ErrNotFound, "component not found")
	}
	s.logger.Info("component deleted", zap.String("gradebook_id", gradebook.ID), zap.String("component_id", componentID))
	return nil
}

// ListGroups returns the gradebook's component groups.
func (s *ComponentService) ListGroups(ctx context.Context, gradebookID string) ([]models.ComponentGroup, error) {
	if _, err := loadGradebook(ctx, s.gradebooks, gradebookID); err != nil {
		return nil, err
	}
	groups, err := s.repo.ListGroups(ctx, gradebookID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list component groups")
	}
	return groups, nil
}

// CreateGroup adds a display group for components.
func (s *ComponentService) CreateGroup(ctx context.Context, actor models.Actor, gradebookID string, req dto.CreateGroupRequest) (*models.ComponentGroup, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	if err := requireEntryRights(actor, gradebook); err != nil {
		return nil, err
	}
	group := &models.ComponentGroup{GradebookID: gradebook.ID, Name: req.Name, GroupType: req.GroupType}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, appErrors.Internal(err, "failed to create component group")
	}
	return group, nil
}
