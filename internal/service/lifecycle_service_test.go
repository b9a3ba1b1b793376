package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

func gradebookAt(id string, status models.GradebookStatus) *models.Gradebook {
	gb := draftGradebook(id)
	gb.Status = status
	return gb
}

func TestLifecycleFullApprovalPath(t *testing.T) {
	store := newFakeGradebooks(draftGradebook("gb-1"))
	metrics := newFakeRecorder()
	svc := NewLifecycleService(store, metrics, zap.NewNop())
	ctx := context.Background()

	gb, err := svc.Apply(ctx, trainerActor, "gb-1", TransitionSubmit, "")
	require.NoError(t, err)
	assert.Equal(t, models.GradebookStatusSubmitted, gb.Status)
	require.NotNil(t, gb.SubmittedBy)
	assert.Equal(t, trainerActor.UserID, *gb.SubmittedBy)
	assert.NotNil(t, gb.SubmittedAt)

	gb, err = svc.Apply(ctx, hotActor, "gb-1", TransitionHoTApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.GradebookStatusHoTApproved, gb.Status)
	require.NotNil(t, gb.HoTApprovedBy)
	assert.Equal(t, hotActor.UserID, *gb.HoTApprovedBy)

	gb, err = svc.Apply(ctx, acActor, "gb-1", TransitionACApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.GradebookStatusACApproved, gb.Status)
	require.NotNil(t, gb.ACApprovedBy)
	assert.Equal(t, acActor.UserID, *gb.ACApprovedBy)

	assert.Equal(t, 1, metrics.transitions["submit:ok"])
	assert.Equal(t, 1, metrics.transitions["ac_approve:ok"])
}

func TestLifecycleReturnEdgesStoreNote(t *testing.T) {
	store := newFakeGradebooks(gradebookAt("gb-1", models.GradebookStatusSubmitted), gradebookAt("gb-2", models.GradebookStatusHoTApproved))
	svc := NewLifecycleService(store, nil, nil)
	ctx := context.Background()

	gb, err := svc.Apply(ctx, hotActor, "gb-1", TransitionReturnToDraft, "  fix practical marks ")
	require.NoError(t, err)
	assert.Equal(t, models.GradebookStatusDraft, gb.Status)
	require.NotNil(t, gb.ReturnNote)
	assert.Equal(t, "fix practical marks", *gb.ReturnNote)

	gb, err = svc.Apply(ctx, acActor, "gb-2", TransitionReturnToSubmitted, "")
	require.NoError(t, err)
	assert.Equal(t, models.GradebookStatusSubmitted, gb.Status)
	assert.Nil(t, gb.ReturnNote)
}

func TestLifecycleSubmitClearsReturnNote(t *testing.T) {
	gb := draftGradebook("gb-1")
	gb.ReturnNote = strPtr("redo")
	store := newFakeGradebooks(gb)
	svc := NewLifecycleService(store, nil, nil)

	updated, err := svc.Apply(context.Background(), trainerActor, "gb-1", TransitionSubmit, "ignored")
	require.NoError(t, err)
	assert.Nil(t, updated.ReturnNote)
	require.Len(t, store.transitions, 1)
	assert.True(t, store.transitions[0].SetNote)
	assert.Nil(t, store.transitions[0].Note)
	assert.Equal(t, repository.StampSubmitted, store.transitions[0].Stamp)
}

func TestLifecycleWrongRoleIsForbidden(t *testing.T) {
	cases := []struct {
		name       string
		actor      models.Actor
		status     models.GradebookStatus
		transition Transition
	}{
		{"hot cannot submit", hotActor, models.GradebookStatusDraft, TransitionSubmit},
		{"admin cannot submit", adminActor, models.GradebookStatusDraft, TransitionSubmit},
		{"trainer cannot approve", trainerActor, models.GradebookStatusSubmitted, TransitionHoTApprove},
		{"ac cannot return to draft", acActor, models.GradebookStatusSubmitted, TransitionReturnToDraft},
		{"hot cannot ac approve", hotActor, models.GradebookStatusHoTApproved, TransitionACApprove},
		{"trainee cannot return", traineeActor, models.GradebookStatusHoTApproved, TransitionReturnToSubmitted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeGradebooks(gradebookAt("gb-1", tc.status))
			svc := NewLifecycleService(store, nil, nil)

			_, err := svc.Apply(context.Background(), tc.actor, "gb-1", tc.transition, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrForbidden)
			assert.Empty(t, store.transitions)
		})
	}
}

func TestLifecycleWrongStatusIsInvalidState(t *testing.T) {
	cases := []struct {
		name       string
		actor      models.Actor
		status     models.GradebookStatus
		transition Transition
	}{
		{"submit twice", trainerActor, models.GradebookStatusSubmitted, TransitionSubmit},
		{"submit after approval", trainerActor, models.GradebookStatusHoTApproved, TransitionSubmit},
		{"approve draft", hotActor, models.GradebookStatusDraft, TransitionHoTApprove},
		{"ac approve submitted", acActor, models.GradebookStatusSubmitted, TransitionACApprove},
		{"return finished gradebook", acActor, models.GradebookStatusACApproved, TransitionReturnToSubmitted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeGradebooks(gradebookAt("gb-1", tc.status))
			metrics := newFakeRecorder()
			svc := NewLifecycleService(store, metrics, nil)

			_, err := svc.Apply(context.Background(), tc.actor, "gb-1", tc.transition, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrInvalidState)
			assert.Equal(t, 1, metrics.transitions[string(tc.transition)+":invalid_state"])
		})
	}
}

func TestLifecycleConcurrentTransitionConflicts(t *testing.T) {
	store := newFakeGradebooks(gradebookAt("gb-1", models.GradebookStatusSubmitted))
	store.raceTo = models.GradebookStatusDraft
	svc := NewLifecycleService(store, nil, nil)

	_, err := svc.Apply(context.Background(), hotActor, "gb-1", TransitionHoTApprove, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestLifecycleUnknownTransitionAndGradebook(t *testing.T) {
	svc := NewLifecycleService(newFakeGradebooks(), nil, nil)

	_, err := svc.Apply(context.Background(), trainerActor, "gb-1", Transition("publish"), "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Apply(context.Background(), trainerActor, "missing", TransitionSubmit, "")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestParseTransition(t *testing.T) {
	transition, ok := ParseTransition(" HOT_APPROVE ")
	assert.True(t, ok)
	assert.Equal(t, TransitionHoTApprove, transition)

	_, ok = ParseTransition("archive")
	assert.False(t, ok)
}

func TestCanEnterMarksLockedGradebookStaysEditable(t *testing.T) {
	locked := gradebookAt("gb-1", models.GradebookStatusHoTApproved)
	locked.IsLocked = true
	unlockedSubmitted := gradebookAt("gb-2", models.GradebookStatusSubmitted)

	assert.True(t, CanEnterMarks(trainerActor, draftGradebook("gb-0")))
	assert.True(t, CanEnterMarks(trainerActor, locked))
	assert.False(t, CanEnterMarks(trainerActor, unlockedSubmitted))
	assert.False(t, CanEnterMarks(hotActor, locked))
	assert.False(t, CanEnterMarks(adminActor, draftGradebook("gb-0")))
	assert.False(t, CanEnterMarks(trainerActor, nil))
}

func TestPermissions(t *testing.T) {
	draft := draftGradebook("gb-1")
	perms := Permissions(trainerActor, draft)
	assert.True(t, perms.CanEnterMarks)
	assert.True(t, perms.CanEditStructure)
	assert.True(t, perms.CanDeleteComponents)
	assert.True(t, perms.CanSubmit)
	assert.False(t, perms.CanHoTApprove)

	draft.IsLocked = true
	perms = Permissions(trainerActor, draft)
	assert.True(t, perms.CanEnterMarks)
	assert.False(t, perms.CanDeleteComponents)

	approved := gradebookAt("gb-2", models.GradebookStatusHoTApproved)
	perms = Permissions(acActor, approved)
	assert.True(t, perms.CanACApprove)
	assert.True(t, perms.CanReturnToSubmitted)
	assert.True(t, perms.CanExportAssessorSheet)
	assert.False(t, perms.CanEnterMarks)

	perms = Permissions(hotActor, gradebookAt("gb-3", models.GradebookStatusSubmitted))
	assert.True(t, perms.CanHoTApprove)
	assert.True(t, perms.CanReturnToDraft)
	assert.False(t, perms.CanExportAssessorSheet)
}
