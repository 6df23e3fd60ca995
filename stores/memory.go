package stores

import (
	"context"
	"sort"
	"sync"

	"dar-review-api/models"
	"dar-review-api/workflow"
)

type memoryTxKey struct{}

// MemoryStore keeps applications, actions and revision requests in maps. It implements
// every store interface plus Transactor: transactions are serialized, and a failed
// transaction restores the snapshot taken when it began. Reads outside a transaction may
// observe uncommitted writes.
type MemoryStore struct {
	txMu sync.Mutex

	mu             sync.RWMutex
	nextAppID      int
	nextActionID   int
	nextRevisionID int
	apps           map[int]models.Application
	contents       map[int]models.ApplicationContent
	actions        []models.Action
	revisions      []models.RevisionRequest
	marks          map[int]models.ReminderMark
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:     make(map[int]models.Application),
		contents: make(map[int]models.ApplicationContent),
		marks:    make(map[int]models.ReminderMark),
	}
}

type memorySnapshot struct {
	nextAppID      int
	nextActionID   int
	nextRevisionID int
	apps           map[int]models.Application
	contents       map[int]models.ApplicationContent
	actions        []models.Action
	revisions      []models.RevisionRequest
	marks          map[int]models.ReminderMark
}

func (s *MemoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{
		nextAppID:      s.nextAppID,
		nextActionID:   s.nextActionID,
		nextRevisionID: s.nextRevisionID,
		apps:           make(map[int]models.Application, len(s.apps)),
		contents:       make(map[int]models.ApplicationContent, len(s.contents)),
		actions:        append([]models.Action(nil), s.actions...),
		revisions:      append([]models.RevisionRequest(nil), s.revisions...),
		marks:          make(map[int]models.ReminderMark, len(s.marks)),
	}
	for id, app := range s.apps {
		snap.apps[id] = app
	}
	for id, content := range s.contents {
		snap.contents[id] = content
	}
	for id, mark := range s.marks {
		snap.marks[id] = mark
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAppID = snap.nextAppID
	s.nextActionID = snap.nextActionID
	s.nextRevisionID = snap.nextRevisionID
	s.apps = snap.apps
	s.contents = snap.contents
	s.actions = snap.actions
	s.revisions = snap.revisions
	s.marks = snap.marks
}

// RunInTransaction serializes fn against other transactions. Nested calls run in the outer
// transaction and roll back only their own writes on failure.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ctx.Value(memoryTxKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		ctx = context.WithValue(ctx, memoryTxKey{}, true)
	}

	snap := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	if err = fn(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *MemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAppID++
	app.ApplicationID = s.nextAppID
	stored := *app
	stored.Content = nil
	s.apps[app.ApplicationID] = stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id int) (models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return models.Application{}, ErrNotFound
	}
	return app, nil
}

// GetForUpdate is Get: the transaction lock already excludes other writers.
func (s *MemoryStore) GetForUpdate(ctx context.Context, id int) (models.Application, error) {
	return s.Get(ctx, id)
}

func (s *MemoryStore) UpdateState(_ context.Context, id int, update models.ApplicationStateUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok || app.State != update.From {
		return ErrStateConflict
	}
	app.State = update.To
	app.UpdatedAt = update.UpdatedAt
	if update.ApprovedAt != nil {
		approvedAt := *update.ApprovedAt
		app.ApprovedAt = &approvedAt
	}
	if update.ExpiresAt != nil {
		expiresAt := *update.ExpiresAt
		app.ExpiresAt = &expiresAt
	}
	s.apps[id] = app
	return nil
}

func (s *MemoryStore) ListByStates(_ context.Context, states []workflow.State) ([]models.Application, error) {
	wanted := make(map[workflow.State]struct{}, len(states))
	for _, state := range states {
		wanted[state] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var apps []models.Application
	for _, app := range s.apps {
		if _, ok := wanted[app.State]; ok {
			apps = append(apps, app)
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].UpdatedAt.Equal(apps[j].UpdatedAt) {
			return apps[i].UpdatedAt.Before(apps[j].UpdatedAt)
		}
		return apps[i].ApplicationID < apps[j].ApplicationID
	})
	return apps, nil
}

func (s *MemoryStore) GetContent(_ context.Context, id int) (models.ApplicationContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.contents[id]
	if !ok {
		return models.ApplicationContent{}, ErrNotFound
	}
	return content, nil
}

func (s *MemoryStore) SaveContent(_ context.Context, content *models.ApplicationContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[content.ApplicationID]
	if !ok {
		return ErrNotFound
	}
	s.contents[content.ApplicationID] = *content
	app.UpdatedAt = content.UpdatedAt
	s.apps[content.ApplicationID] = app
	return nil
}

// MemoryActionStore exposes the action ledger of a MemoryStore. It exists because the
// action and revision request stores share method names with the application store.
type MemoryActionStore struct{ s *MemoryStore }

// MemoryRevisionRequestStore exposes the revision requests of a MemoryStore.
type MemoryRevisionRequestStore struct{ s *MemoryStore }

func (s *MemoryStore) Actions() MemoryActionStore { return MemoryActionStore{s: s} }

func (s *MemoryStore) RevisionRequests() MemoryRevisionRequestStore {
	return MemoryRevisionRequestStore{s: s}
}

// MarksFor and SaveMark make MemoryStore a ReminderMarkStore.
func (s *MemoryStore) MarksFor(_ context.Context, applicationIDs []int) (map[int]models.ReminderMark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	marks := make(map[int]models.ReminderMark, len(applicationIDs))
	for _, id := range applicationIDs {
		if mark, ok := s.marks[id]; ok {
			marks[id] = mark
		}
	}
	return marks, nil
}

func (s *MemoryStore) SaveMark(_ context.Context, mark models.ReminderMark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[mark.ApplicationID] = mark
	return nil
}

func (a MemoryActionStore) Insert(_ context.Context, action *models.Action) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.nextActionID++
	action.ActionID = a.s.nextActionID
	stored := *action
	stored.RevisionRequest = nil
	a.s.actions = append(a.s.actions, stored)
	return nil
}

func (a MemoryActionStore) ListByApplication(_ context.Context, applicationID int, order SortOrder) ([]models.Action, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var actions []models.Action
	for _, action := range a.s.actions {
		if action.ApplicationID == applicationID {
			actions = append(actions, action)
		}
	}
	sortActions(actions, order)
	return actions, nil
}

func (a MemoryActionStore) Latest(ctx context.Context, applicationID int) (*models.Action, error) {
	actions, err := a.ListByApplication(ctx, applicationID, SortDesc)
	if err != nil || len(actions) == 0 {
		return nil, err
	}
	return &actions[0], nil
}

func (a MemoryActionStore) LatestForApplications(_ context.Context, applicationIDs []int) (map[int]models.Action, error) {
	wanted := make(map[int]struct{}, len(applicationIDs))
	for _, id := range applicationIDs {
		wanted[id] = struct{}{}
	}

	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	latest := make(map[int]models.Action, len(applicationIDs))
	for _, action := range a.s.actions {
		if _, ok := wanted[action.ApplicationID]; !ok {
			continue
		}
		if current, ok := latest[action.ApplicationID]; !ok || action.ActionID > current.ActionID {
			latest[action.ApplicationID] = action
		}
	}
	return latest, nil
}

func sortActions(actions []models.Action, order SortOrder) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if order == SortDesc {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ActionID < b.ActionID
	})
}

func (r MemoryRevisionRequestStore) Insert(_ context.Context, request *models.RevisionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextRevisionID++
	request.RevisionRequestID = r.s.nextRevisionID
	r.s.revisions = append(r.s.revisions, *request)
	return nil
}

func (r MemoryRevisionRequestStore) Get(_ context.Context, id int) (models.RevisionRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, request := range r.s.revisions {
		if request.RevisionRequestID == id {
			return request, nil
		}
	}
	return models.RevisionRequest{}, ErrNotFound
}

func (r MemoryRevisionRequestStore) ListByApplication(_ context.Context, applicationID int) ([]models.RevisionRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var requests []models.RevisionRequest
	for _, request := range r.s.revisions {
		if request.ApplicationID == applicationID {
			requests = append(requests, request)
		}
	}
	sort.SliceStable(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].RevisionRequestID > requests[j].RevisionRequestID
	})
	return requests, nil
}
