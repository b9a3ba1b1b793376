package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vtc-gradebook-api/internal/dto"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

func newComponentFixture(gb *models.Gradebook) (*ComponentService, *fakeGradebooks, *fakeComponents) {
	gradebooks := newFakeGradebooks(gb)
	components := &fakeComponents{
		gradebooks: gradebooks,
		components: []models.Component{
			{ID: "c-1", GradebookID: gb.ID, Name: "Test 1", ComponentType: models.ComponentTypeTest, MaxMarks: 100, SortOrder: 1},
		},
		groups: []models.ComponentGroup{
			{ID: "g-1", GradebookID: gb.ID, Name: "Theory", GroupType: models.ComponentGroupTheory},
		},
	}
	return NewComponentService(gradebooks, components, nil, nil), gradebooks, components
}

func TestAddComponentAppendsInSortOrder(t *testing.T) {
	svc, _, repo := newComponentFixture(draftGradebook("gb-1"))

	component, err := svc.AddComponent(context.Background(), trainerActor, "gb-1", dto.CreateComponentRequest{
		Name:          "  Practical 1 ",
		ComponentType: models.ComponentTypePractical,
		MaxMarks:      20,
		GroupID:       strPtr("g-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Practical 1", component.Name)
	assert.Equal(t, 2, component.SortOrder)
	assert.Len(t, repo.components, 2)
}

func TestAddComponentValidation(t *testing.T) {
	svc, _, _ := newComponentFixture(draftGradebook("gb-1"))
	ctx := context.Background()

	_, err := svc.AddComponent(ctx, trainerActor, "gb-1", dto.CreateComponentRequest{Name: "Bad", ComponentType: "quiz", MaxMarks: 10})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.AddComponent(ctx, trainerActor, "gb-1", dto.CreateComponentRequest{Name: "Zero", ComponentType: models.ComponentTypeTest, MaxMarks: 0})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.AddComponent(ctx, trainerActor, "gb-1", dto.CreateComponentRequest{Name: "   ", ComponentType: models.ComponentTypeTest, MaxMarks: 10})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.AddComponent(ctx, trainerActor, "gb-1", dto.CreateComponentRequest{Name: "Orphan", ComponentType: models.ComponentTypeTest, MaxMarks: 10, GroupID: strPtr("g-missing")})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAddComponentMaxMarksMustFitColumn(t *testing.T) {
	svc, _, repo := newComponentFixture(draftGradebook("gb-1"))
	ctx := context.Background()

	for _, maxMarks := range []float64{0.001, 12.345, 1e7, 1000000} {
		_, err := svc.AddComponent(ctx, trainerActor, "gb-1", dto.CreateComponentRequest{Name: "Test 2", ComponentType: models.ComponentTypeTest, MaxMarks: maxMarks})
		assert.ErrorIs(t, err, appErrors.ErrValidation, "max_marks %v", maxMarks)
	}
	assert.Len(t, repo.components, 1)

	component, err := svc.AddComponent(ctx, trainerActor, "gb-1", dto.CreateComponentRequest{Name: "Test 2", ComponentType: models.ComponentTypeTest, MaxMarks: 999999.99})
	require.NoError(t, err)
	assert.Equal(t, 999999.99, component.MaxMarks)

	repo.createErr = errors.Join(repository.ErrValueOutOfRange, errors.New("violates check constraint"))
	_, err = svc.AddComponent(ctx, trainerActor, "gb-1", dto.CreateComponentRequest{Name: "Test 3", ComponentType: models.ComponentTypeTest, MaxMarks: 10})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAddComponentAllowedAfterLock(t *testing.T) {
	gb := gradebookAt("gb-1", models.GradebookStatusSubmitted)
	gb.IsLocked = true
	svc, _, _ := newComponentFixture(gb)

	component, err := svc.AddComponent(context.Background(), trainerActor, "gb-1", dto.CreateComponentRequest{Name: "Late test", ComponentType: models.ComponentTypeTest, MaxMarks: 50})
	require.NoError(t, err)
	assert.Equal(t, "gb-1", component.GradebookID)
}

func TestAddComponentRequiresTrainerOnEditableGradebook(t *testing.T) {
	svc, _, _ := newComponentFixture(gradebookAt("gb-1", models.GradebookStatusSubmitted))
	req := dto.CreateComponentRequest{Name: "Test 2", ComponentType: models.ComponentTypeTest, MaxMarks: 50}

	_, err := svc.AddComponent(context.Background(), hotActor, "gb-1", req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.AddComponent(context.Background(), trainerActor, "gb-1", req)
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestDeleteComponentUnlocked(t *testing.T) {
	svc, _, repo := newComponentFixture(draftGradebook("gb-1"))

	require.NoError(t, svc.DeleteComponent(context.Background(), trainerActor, "gb-1", "c-1"))
	assert.Empty(t, repo.components)

	err := svc.DeleteComponent(context.Background(), trainerActor, "gb-1", "c-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDeleteComponentRefusedOnceLocked(t *testing.T) {
	gb := draftGradebook("gb-1")
	gb.IsLocked = true
	svc, _, repo := newComponentFixture(gb)
	// the component itself has no marks; any mark in the gradebook is enough
	repo.components = append(repo.components, models.Component{ID: "c-2", GradebookID: "gb-1", Name: "Unmarked", ComponentType: models.ComponentTypeMock, MaxMarks: 10, SortOrder: 2})

	err := svc.DeleteComponent(context.Background(), trainerActor, "gb-1", "c-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrLocked)
	assert.Len(t, repo.components, 2)
}

func TestDeleteComponentLosesRaceToFirstMark(t *testing.T) {
	svc, _, repo := newComponentFixture(draftGradebook("gb-1"))
	repo.lockBeforeDelete = true

	err := svc.DeleteComponent(context.Background(), trainerActor, "gb-1", "c-1")
	assert.ErrorIs(t, err, appErrors.ErrLocked)
	assert.Len(t, repo.components, 1)
}

func TestComponentGroups(t *testing.T) {
	svc, _, _ := newComponentFixture(draftGradebook("gb-1"))
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, trainerActor, "gb-1", dto.CreateGroupRequest{Name: "Practicals", GroupType: models.ComponentGroupPractical})
	require.NoError(t, err)
	assert.Equal(t, models.ComponentGroupPractical, group.GroupType)

	groups, err := svc.ListGroups(ctx, "gb-1")
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	_, err = svc.CreateGroup(ctx, trainerActor, "gb-1", dto.CreateGroupRequest{Name: "Odd", GroupType: "elective"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestListComponentsUnknownGradebook(t *testing.T) {
	svc, _, _ := newComponentFixture(draftGradebook("gb-1"))

	_, err := svc.List(context.Background(), "gb-missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
