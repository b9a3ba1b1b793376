package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/repository"
	"github.com/noah-isme/vtc-gradebook-api/pkg/jobs"
)

type fakeGradebooks struct {
	mu          sync.Mutex
	items       map[string]*models.Gradebook
	transitions []repository.TransitionParams
	// raceTo, when set, is applied just before a transition to simulate a concurrent writer.
	raceTo     models.GradebookStatus
	weightsErr error
}

func newFakeGradebooks(items ...*models.Gradebook) *fakeGradebooks {
	f := &fakeGradebooks{items: make(map[string]*models.Gradebook)}
	for _, item := range items {
		f.items[item.ID] = item
	}
	return f
}

func (f *fakeGradebooks) GetByID(ctx context.Context, id string) (*models.Gradebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (f *fakeGradebooks) Create(ctx context.Context, gradebook *models.Gradebook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gradebook.ID == "" {
		gradebook.ID = "gb-new"
	}
	clone := *gradebook
	f.items[gradebook.ID] = &clone
	return nil
}

func (f *fakeGradebooks) List(ctx context.Context, filter models.GradebookFilter) ([]models.Gradebook, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Gradebook
	for _, item := range f.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeGradebooks) UpdateWeights(ctx context.Context, id string, weights models.CAWeights) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.weightsErr != nil {
		return f.weightsErr
	}
	item, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.TestWeight = weights.Test
	item.MockWeight = weights.Mock
	return nil
}

func (f *fakeGradebooks) Transition(ctx context.Context, params repository.TransitionParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[params.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if f.raceTo != "" {
		item.Status = f.raceTo
	}
	if item.Status != params.From {
		return sql.ErrNoRows
	}
	item.Status = params.To
	if params.SetNote {
		item.ReturnNote = params.Note
	}
	at := params.At
	actor := params.ActorID
	switch params.Stamp {
	case repository.StampSubmitted:
		item.SubmittedBy, item.SubmittedAt = &actor, &at
	case repository.StampHoTApproved:
		item.HoTApprovedBy, item.HoTApprovedAt = &actor, &at
	case repository.StampACApproved:
		item.ACApprovedBy, item.ACApprovedAt = &actor, &at
	}
	f.transitions = append(f.transitions, params)
	return nil
}

func (f *fakeGradebooks) setStatus(id string, status models.GradebookStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		item.Status = status
	}
}

// acceptsEntries mirrors the row-level gate the mark repository applies inside its transaction.
func (f *fakeGradebooks) acceptsEntries(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	if item.Status != models.GradebookStatusDraft && !item.IsLocked {
		return repository.ErrEntryClosed
	}
	return nil
}

func (f *fakeGradebooks) lock(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		item.IsLocked = true
	}
}

type fakeComponents struct {
	mu         sync.Mutex
	components []models.Component
	groups     []models.ComponentGroup
	gradebooks *fakeGradebooks
	// lockBeforeDelete simulates a mark landing between the lock check and the delete.
	lockBeforeDelete bool
	createErr        error
}

func (f *fakeComponents) List(ctx context.Context, gradebookID string) ([]models.Component, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Component, 0)
	for _, c := range f.components {
		if c.GradebookID == gradebookID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComponents) FindByID(ctx context.Context, gradebookID, componentID string) (*models.Component, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.components {
		if c.ID == componentID && c.GradebookID == gradebookID {
			clone := c
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeComponents) Create(ctx context.Context, component *models.Component) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	next := 0
	for _, c := range f.components {
		if c.GradebookID == component.GradebookID && c.SortOrder > next {
			next = c.SortOrder
		}
	}
	if component.ID == "" {
		component.ID = "comp-new"
	}
	component.SortOrder = next + 1
	f.components = append(f.components, *component)
	return nil
}

func (f *fakeComponents) DeleteUnlocked(ctx context.Context, gradebookID, componentID string) error {
	if f.lockBeforeDelete && f.gradebooks != nil {
		f.gradebooks.lock(gradebookID)
	}
	if f.gradebooks != nil {
		if gb, err := f.gradebooks.GetByID(ctx, gradebookID); err == nil && gb.IsLocked {
			return sql.ErrNoRows
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.components {
		if c.ID == componentID && c.GradebookID == gradebookID {
			f.components = append(f.components[:i], f.components[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeComponents) ListGroups(ctx context.Context, gradebookID string) ([]models.ComponentGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ComponentGroup, 0)
	for _, g := range f.groups {
		if g.GradebookID == gradebookID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeComponents) FindGroup(ctx context.Context, gradebookID, groupID string) (*models.ComponentGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.ID == groupID && g.GradebookID == gradebookID {
			clone := g
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeComponents) CreateGroup(ctx context.Context, group *models.ComponentGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if group.ID == "" {
		group.ID = "group-new"
	}
	f.groups = append(f.groups, *group)
	return nil
}

type fakeRoster struct {
	mu             sync.Mutex
	trainees       map[string]models.Trainee
	enrolled       map[string][]string
	qualifications map[string]models.Qualification
	lastMatch      models.TraineeMatch
	enrollCalls    int
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{
		trainees:       make(map[string]models.Trainee),
		enrolled:       make(map[string][]string),
		qualifications: make(map[string]models.Qualification),
	}
}

func (f *fakeRoster) addTrainee(t models.Trainee, gradebookIDs ...string) {
	f.trainees[t.ID] = t
	for _, id := range gradebookIDs {
		f.enrolled[id] = append(f.enrolled[id], t.ID)
	}
}

func (f *fakeRoster) ListEnrolled(ctx context.Context, gradebookID string) ([]models.EnrolledTrainee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.EnrolledTrainee, 0)
	for _, id := range f.enrolled[gradebookID] {
		t := f.trainees[id]
		out = append(out, models.EnrolledTrainee{TraineeID: t.ID, AdmissionNumber: t.AdmissionNumber, FullName: t.FullName, UserID: t.UserID})
	}
	return out, nil
}

func (f *fakeRoster) Count(ctx context.Context, gradebookID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.enrolled[gradebookID]), nil
}

func (f *fakeRoster) IsEnrolled(ctx context.Context, gradebookID, traineeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.enrolled[gradebookID] {
		if id == traineeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRoster) FindTraineeByUserID(ctx context.Context, userID string) (*models.Trainee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.trainees {
		if t.UserID != nil && *t.UserID == userID {
			clone := t
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRoster) FindQualification(ctx context.Context, id string) (*models.Qualification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.qualifications[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &q, nil
}

func (f *fakeRoster) FindMatching(ctx context.Context, match models.TraineeMatch) ([]models.Trainee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMatch = match
	out := make([]models.Trainee, 0)
	for _, t := range f.trainees {
		byQualification := t.QualificationID != nil && *t.QualificationID == match.QualificationID
		byTrade := match.TradeID != nil && t.TradeID != nil && *t.TradeID == *match.TradeID
		if !byQualification && !byTrade {
			continue
		}
		if match.Level != nil && (t.Level == nil || *t.Level != *match.Level) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRoster) EnrollIfEmpty(ctx context.Context, gradebookID string, traineeIDs []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollCalls++
	if len(f.enrolled[gradebookID]) > 0 {
		return 0, nil
	}
	f.enrolled[gradebookID] = append([]string(nil), traineeIDs...)
	return len(traineeIDs), nil
}

func (f *fakeRoster) Enroll(ctx context.Context, gradebookID string, traineeIDs []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inserted := 0
	for _, id := range traineeIDs {
		if _, ok := f.trainees[id]; !ok {
			return 0, repository.ErrReferenceNotFound
		}
	}
	for _, id := range traineeIDs {
		exists := false
		for _, enrolled := range f.enrolled[gradebookID] {
			if enrolled == id {
				exists = true
				break
			}
		}
		if !exists {
			f.enrolled[gradebookID] = append(f.enrolled[gradebookID], id)
			inserted++
		}
	}
	return inserted, nil
}

type fakeMarks struct {
	mu         sync.Mutex
	marks      map[string]models.Mark
	feedback   map[string]models.Feedback
	gradebooks *fakeGradebooks
	failFor    map[string]error
	saveCalls  int
	// beforeSave runs after the service checks and before the gated write.
	beforeSave func()
}

func newFakeMarks(gradebooks *fakeGradebooks) *fakeMarks {
	return &fakeMarks{
		marks:      make(map[string]models.Mark),
		feedback:   make(map[string]models.Feedback),
		gradebooks: gradebooks,
		failFor:    make(map[string]error),
	}
}

func (f *fakeMarks) SaveEntry(ctx context.Context, params repository.SaveEntryParams) (*repository.SaveEntryResult, error) {
	if f.beforeSave != nil {
		f.beforeSave()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	key := params.Mark.ComponentID + "_" + params.Mark.TraineeID
	if err, ok := f.failFor[key]; ok {
		return nil, err
	}
	if err := f.gradebooks.acceptsEntries(params.GradebookID); err != nil {
		return nil, err
	}
	result := &repository.SaveEntryResult{}
	mark := *params.Mark
	mark.UpdatedAt = time.Now()
	f.marks[key] = mark
	result.Mark = &mark
	if mark.MarksObtained != nil {
		f.gradebooks.lock(params.GradebookID)
		result.Locked = true
	}
	if params.Feedback != nil {
		fb := *params.Feedback
		f.feedback[key] = fb
		result.Feedback = &fb
	}
	return result, nil
}

func (f *fakeMarks) SaveFeedback(ctx context.Context, gradebookID string, feedback *models.Feedback) (*models.Feedback, error) {
	if f.beforeSave != nil {
		f.beforeSave()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.gradebooks.acceptsEntries(gradebookID); err != nil {
		return nil, err
	}
	fb := *feedback
	f.feedback[fb.ComponentID+"_"+fb.TraineeID] = fb
	return &fb, nil
}

func (f *fakeMarks) ListMarks(ctx context.Context, gradebookID string) ([]models.Mark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Mark, 0, len(f.marks))
	for _, m := range f.marks {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComponentID+out[i].TraineeID < out[j].ComponentID+out[j].TraineeID })
	return out, nil
}

func (f *fakeMarks) ListTraineeMarks(ctx context.Context, gradebookID, traineeID string) ([]models.Mark, error) {
	all, _ := f.ListMarks(ctx, gradebookID)
	out := make([]models.Mark, 0)
	for _, m := range all {
		if m.TraineeID == traineeID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMarks) ListFeedback(ctx context.Context, gradebookID string) ([]models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Feedback, 0, len(f.feedback))
	for _, fb := range f.feedback {
		out = append(out, fb)
	}
	return out, nil
}

type fakeQueries struct {
	mu      sync.Mutex
	items   map[string]*models.MarkQuery
	filters []models.MarkQueryFilter
	// resolveRace makes the conditional update find the query already closed.
	resolveRace bool
}

func newFakeQueries(items ...*models.MarkQuery) *fakeQueries {
	f := &fakeQueries{items: make(map[string]*models.MarkQuery)}
	for _, item := range items {
		f.items[item.ID] = item
	}
	return f
}

func (f *fakeQueries) Create(ctx context.Context, query *models.MarkQuery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if query.ID == "" {
		query.ID = "query-new"
	}
	clone := *query
	f.items[query.ID] = &clone
	return nil
}

func (f *fakeQueries) GetByID(ctx context.Context, id string) (*models.MarkQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (f *fakeQueries) List(ctx context.Context, filter models.MarkQueryFilter) ([]models.MarkQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	out := make([]models.MarkQuery, 0)
	for _, item := range f.items {
		if filter.TraineeID != "" && item.TraineeID != filter.TraineeID {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeQueries) Resolve(ctx context.Context, params repository.ResolveParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[params.ID]
	if !ok || f.resolveRace || item.Status != models.QueryStatusOpen {
		return sql.ErrNoRows
	}
	item.Status = params.Status
	item.ResolutionNotes = &params.Notes
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string
	err  error
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.held == nil {
		f.held = make(map[string]string)
	}
	if _, ok := f.held[key]; ok {
		return "", nil
	}
	f.held[key] = "token-" + key
	return f.held[key], nil
}

func (f *fakeLocker) Release(ctx context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] == token {
		delete(f.held, key)
	}
	return nil
}

type fakeQueue struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeQueue) TryEnqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeRecorder struct {
	mu          sync.Mutex
	transitions map[string]int
	reconciled  map[string]int
	enrolled    int
	markWrites  map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		transitions: make(map[string]int),
		reconciled:  make(map[string]int),
		markWrites:  make(map[string]int),
	}
}

func (f *fakeRecorder) RecordTransition(transition, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions[transition+":"+outcome]++
}

func (f *fakeRecorder) RecordReconciliation(outcome string, enrolled int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconciled[outcome]++
	f.enrolled += enrolled
}

func (f *fakeRecorder) RecordMarkWrite(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markWrites[outcome]++
}

func (f *fakeRecorder) ObserveExport(format string, duration time.Duration) {}

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

var (
	trainerActor = models.Actor{UserID: "trainer-1", Role: models.RoleTrainer}
	hotActor     = models.Actor{UserID: "hot-1", Role: models.RoleHeadOfTraining}
	acActor      = models.Actor{UserID: "ac-1", Role: models.RoleAssessmentCoordinator}
	adminActor   = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	traineeActor = models.Actor{UserID: "user-tr-1", Role: models.RoleTrainee}
)

func draftGradebook(id string) *models.Gradebook {
	return &models.Gradebook{
		ID:              id,
		QualificationID: "qual-1",
		AcademicYear:    "2026",
		Title:           "Electrical Installation",
		TestWeight:      40,
		MockWeight:      60,
		Status:          models.GradebookStatusDraft,
		CreatedBy:       trainerActor.UserID,
	}
}
