package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dar-review-api/models"
	"dar-review-api/stores"
	"dar-review-api/workflow"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

const (
	testOwnerID    = 10
	testReviewerID = 20
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type lifecycleFixture struct {
	store     *stores.MemoryStore
	clock     *fakeClock
	lifecycle *LifecycleService
	apps      *ApplicationService
}

type fixtureOption func(*LifecycleOptions)

func withApprovalValidity(d time.Duration) fixtureOption {
	return func(o *LifecycleOptions) { o.ApprovalValidity = d }
}

func withMetrics(m *LifecycleMetrics) fixtureOption {
	return func(o *LifecycleOptions) { o.Metrics = m }
}

func newLifecycleFixture(t *testing.T, opts ...fixtureOption) *lifecycleFixture {
	t.Helper()
	store := stores.NewMemoryStore()
	clock := &fakeClock{now: testNow}
	options := LifecycleOptions{
		Applications:     store,
		Actions:          store.Actions(),
		RevisionRequests: store.RevisionRequests(),
		Tx:               store,
		Clock:            clock,
	}
	for _, opt := range opts {
		opt(&options)
	}
	lifecycle := NewLifecycleService(options)
	return &lifecycleFixture{
		store:     store,
		clock:     clock,
		lifecycle: lifecycle,
		apps:      NewApplicationService(lifecycle),
	}
}

// seed stores an application directly in state with complete content.
func (f *lifecycleFixture) seed(t *testing.T, state workflow.State) models.Application {
	t.Helper()
	return f.seedWithContent(t, state, completeContent())
}

func (f *lifecycleFixture) seedWithContent(t *testing.T, state workflow.State, content *models.ApplicationContent) models.Application {
	t.Helper()
	ctx := context.Background()
	app := models.Application{
		ReferenceNumber: "ref-" + string(state),
		OwnerID:         testOwnerID,
		State:           state,
		CreatedAt:       f.clock.Now(),
		UpdatedAt:       f.clock.Now(),
	}
	require.NoError(t, f.store.Create(ctx, &app))
	if content != nil {
		content.ApplicationID = app.ApplicationID
		content.UpdatedAt = f.clock.Now()
		require.NoError(t, f.store.SaveContent(ctx, content))
	}
	return app
}

func (f *lifecycleFixture) bind(t *testing.T, id int) *Lifecycle {
	t.Helper()
	lc, err := f.lifecycle.Bind(context.Background(), id)
	require.NoError(t, err)
	return lc
}

func (f *lifecycleFixture) actions(t *testing.T, id int) []models.Action {
	t.Helper()
	actions, err := f.store.Actions().ListByApplication(context.Background(), id, stores.SortAsc)
	require.NoError(t, err)
	return actions
}

func (f *lifecycleFixture) revisions(t *testing.T, id int) []models.RevisionRequest {
	t.Helper()
	requests, err := f.store.RevisionRequests().ListByApplication(context.Background(), id)
	require.NoError(t, err)
	return requests
}

func (f *lifecycleFixture) state(t *testing.T, id int) workflow.State {
	t.Helper()
	app, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return app.State
}

func actorCtx() context.Context {
	return WithActor(context.Background(), testReviewerID)
}

func completeContent() *models.ApplicationContent {
	signedAt := testNow.Add(-time.Hour)
	return &models.ApplicationContent{
		ApplicantInfo: models.ApplicantInfo{
			FullName:    "Grace Hopper",
			Email:       "grace@example.org",
			Institution: "Example University",
		},
		InstitutionalRep: models.InstitutionalRep{
			FullName: "Alan Turing",
			Email:    "alan@example.org",
		},
		Collaborators: []models.Collaborator{{FullName: "Katherine Johnson"}},
		ProjectInfo: models.ProjectInfo{
			Title:   "Cohort outcomes",
			Summary: "Secondary analysis of cohort outcomes.",
		},
		RequestedStudies: []models.RequestedStudy{{StudyID: "phs000001", DataTypes: []string{"genotype"}}},
		Ethics: models.EthicsInfo{
			Committee:      "Example IRB",
			ApprovalNumber: "IRB-2026-01",
		},
		Agreements: models.Agreements{DataUse: true, Publication: true, SecurityControls: true},
		SignAndSubmit: models.SignAndSubmit{
			SignedName: "Grace Hopper",
			SignedAt:   &signedAt,
		},
	}
}

func revisionPayload() *models.RevisionRequest {
	approved := models.SectionReview{Approved: true}
	return &models.RevisionRequest{
		ApplicantInfo:    approved,
		InstitutionalRep: approved,
		Collaborators:    approved,
		Project:          models.SectionReview{Approved: false, Notes: "  Clarify the analysis plan.\x00 "},
		RequestedStudies: approved,
		Ethics:           approved,
		Agreements:       approved,
		Appendices:       approved,
		SignAndSubmit:    approved,
		GeneralComment:   "Please revise the project section.",
	}
}

// failingActionStore fails every insert after delegating reads.
type failingActionStore struct {
	stores.ActionStore
	err error
}

func (s failingActionStore) Insert(context.Context, *models.Action) error {
	return s.err
}

// cancellingActionStore cancels the caller's context while the transaction is open.
type cancellingActionStore struct {
	stores.ActionStore
	cancel context.CancelFunc
}

func (s cancellingActionStore) Insert(ctx context.Context, action *models.Action) error {
	if err := s.ActionStore.Insert(ctx, action); err != nil {
		return err
	}
	s.cancel()
	return nil
}

var errInjected = errors.New("injected storage failure")
