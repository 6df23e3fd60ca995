package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dar-review-api/models"
	"dar-review-api/stores"
	"dar-review-api/workflow"
)

const defaultLifecycleTxTimeout = 5 * time.Second

// Clock supplies timestamps for actions and application headers.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC, truncated to the millisecond precision of the
// datetime(3) columns so a written snapshot compares equal to the row read back.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// LifecycleOptions wires the lifecycle to its stores and collaborators.
type LifecycleOptions struct {
	Applications     stores.ApplicationStore
	Actions          stores.ActionStore
	RevisionRequests stores.RevisionRequestStore
	Tx               stores.Transactor
	Validator        ContentValidator
	Clock            Clock
	Metrics          *LifecycleMetrics

	// TxTimeout bounds a dispatch transaction when the caller set no deadline.
	TxTimeout time.Duration
	// ApprovalValidity sets expires_at on approval when positive.
	ApprovalValidity time.Duration
}

// LifecycleService binds Lifecycle values to applications. It holds no per-application state.
type LifecycleService struct {
	apps             stores.ApplicationStore
	actions          stores.ActionStore
	revisions        stores.RevisionRequestStore
	tx               stores.Transactor
	validator        ContentValidator
	clock            Clock
	metrics          *LifecycleMetrics
	txTimeout        time.Duration
	approvalValidity time.Duration
}

func NewLifecycleService(opts LifecycleOptions) *LifecycleService {
	svc := &LifecycleService{
		apps:             opts.Applications,
		actions:          opts.Actions,
		revisions:        opts.RevisionRequests,
		tx:               opts.Tx,
		validator:        opts.Validator,
		clock:            opts.Clock,
		metrics:          opts.Metrics,
		txTimeout:        opts.TxTimeout,
		approvalValidity: opts.ApprovalValidity,
	}
	if svc.validator == nil {
		svc.validator = NewContentValidator()
	}
	if svc.clock == nil {
		svc.clock = SystemClock{}
	}
	if svc.txTimeout <= 0 {
		svc.txTimeout = defaultLifecycleTxTimeout
	}
	return svc
}

// Bind loads a fresh snapshot of the application and returns a Lifecycle for it.
func (s *LifecycleService) Bind(ctx context.Context, applicationID int) (*Lifecycle, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil, fmt.Errorf("application %d: %w", applicationID, workflow.ErrNotFound)
		}
		return nil, &workflow.SystemError{Op: "load application", Err: err}
	}
	return &Lifecycle{svc: s, app: app}, nil
}

// Lifecycle performs lifecycle actions on one application. It is bound to the snapshot it was
// created with and must not be reused for another application. Not safe for concurrent use.
type Lifecycle struct {
	svc *LifecycleService
	app models.Application
}

// Application returns the current snapshot.
func (l *Lifecycle) Application() models.Application {
	return l.app
}

// operation is a named lifecycle action. from pins the source state; empty means any state
// the transition table allows.
type operation struct {
	name  string
	from  workflow.State
	event workflow.Event
}

// Perform applies event from whatever state the application is in.
func (l *Lifecycle) Perform(ctx context.Context, event workflow.Event, payload *models.RevisionRequest) (models.Application, error) {
	return l.dispatch(ctx, operation{name: string(event), event: event}, payload)
}

func (l *Lifecycle) dispatch(ctx context.Context, op operation, payload *models.RevisionRequest) (models.Application, error) {
	started := time.Now()
	app, outcome, err := l.run(ctx, op, payload)
	l.svc.metrics.observe(op.event, outcome, time.Since(started))
	return app, err
}

func (l *Lifecycle) run(ctx context.Context, op operation, payload *models.RevisionRequest) (models.Application, string, error) {
	actorID, ok := ActorFrom(ctx)
	if !ok {
		return models.Application{}, outcomeRejected, ErrMissingActor
	}

	current := l.app.State
	var guardErr error
	if op.from != "" {
		guardErr = workflow.CanPerformFrom(current, op.from, op.event)
	} else {
		guardErr = workflow.CanPerform(current, op.event)
	}
	if guardErr != nil {
		return models.Application{}, outcomeInvalidTransition, guardErr
	}

	switch {
	case op.event.IsRevisionRequest() && payload == nil:
		return models.Application{}, outcomeRejected, ErrRevisionRequestRequired
	case !op.event.IsRevisionRequest() && payload != nil:
		return models.Application{}, outcomeRejected, ErrUnexpectedRevisionRequest
	}

	if op.event.IsSubmission() {
		if err := l.checkContent(ctx); err != nil {
			if errors.Is(err, workflow.ErrContentIncomplete) {
				return models.Application{}, outcomeContentIncomplete, err
			}
			return models.Application{}, outcomeSystemError, err
		}
	}

	tr, _ := workflow.TransitionFor(current, op.event)
	if tr.IsSelfLoop() {
		return l.app, outcomeOK, nil
	}

	written, err := l.commit(ctx, actorID, tr, payload)
	if err != nil {
		outcome, err := l.classify(ctx, op, actorID, err)
		return models.Application{}, outcome, err
	}
	l.app = written
	return written, outcomeOK, nil
}

func (l *Lifecycle) checkContent(ctx context.Context) error {
	content, err := l.svc.apps.GetContent(ctx, l.app.ApplicationID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return &workflow.ContentError{Findings: []string{"content: missing"}}
		}
		return &workflow.SystemError{Op: "load content", Err: err}
	}

	findings, err := l.svc.validator.Validate(ctx, content)
	if err != nil {
		return &workflow.SystemError{Op: "validate content", Err: err}
	}
	if len(findings) > 0 {
		return &workflow.ContentError{Findings: findings}
	}
	return nil
}

// commit writes the transition: lock the row, re-check its state, insert the revision request
// and the action, move the header. Nothing is visible unless every step succeeds.
func (l *Lifecycle) commit(ctx context.Context, actorID int, tr workflow.Transition, payload *models.RevisionRequest) (models.Application, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.svc.txTimeout)
		defer cancel()
	}

	var written models.Application
	err := l.svc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := l.svc.apps.GetForUpdate(ctx, l.app.ApplicationID)
		if err != nil {
			return err
		}
		if locked.State != tr.From {
			l.app = locked
			return &workflow.TransitionError{State: locked.State, Event: tr.Event, Stale: true}
		}
		// Saving content bumps updated_at under this lock, so a submit whose content was
		// validated against an older snapshot must not commit.
		if tr.Event.IsSubmission() && !locked.UpdatedAt.Equal(l.app.UpdatedAt) {
			l.app = locked
			return &workflow.TransitionError{State: locked.State, Event: tr.Event, Stale: true}
		}

		now := l.svc.clock.Now()
		action := models.Action{
			ApplicationID: locked.ApplicationID,
			ActorID:       actorID,
			Kind:          tr.Event,
			StateBefore:   tr.From,
			StateAfter:    tr.To,
			CreatedAt:     now,
		}

		if payload != nil {
			request := *payload
			request.RevisionRequestID = 0
			request.ApplicationID = locked.ApplicationID
			request.CreatedBy = actorID
			request.CreatedAt = now
			if err := l.svc.revisions.Insert(ctx, &request); err != nil {
				return err
			}
			requestID := request.RevisionRequestID
			action.RevisionRequestID = &requestID
		}

		if err := l.svc.actions.Insert(ctx, &action); err != nil {
			return err
		}

		update := models.ApplicationStateUpdate{From: tr.From, To: tr.To, UpdatedAt: now}
		if tr.To == workflow.StateApproved {
			approvedAt := now
			update.ApprovedAt = &approvedAt
			if l.svc.approvalValidity > 0 {
				expiresAt := now.Add(l.svc.approvalValidity)
				update.ExpiresAt = &expiresAt
			}
		}
		if err := l.svc.apps.UpdateState(ctx, locked.ApplicationID, update); err != nil {
			if errors.Is(err, stores.ErrStateConflict) {
				return &workflow.TransitionError{State: tr.From, Event: tr.Event, Stale: true}
			}
			return err
		}

		written = locked
		written.State = tr.To
		written.UpdatedAt = now
		if update.ApprovedAt != nil {
			written.ApprovedAt = update.ApprovedAt
		}
		if update.ExpiresAt != nil {
			written.ExpiresAt = update.ExpiresAt
		}
		return nil
	})
	if err != nil {
		return models.Application{}, err
	}
	return written, nil
}

// classify maps a failed commit onto the lifecycle error kinds and returns the metrics outcome.
func (l *Lifecycle) classify(ctx context.Context, op operation, actorID int, err error) (string, error) {
	switch {
	case errors.Is(err, workflow.ErrInvalidTransition):
		return outcomeInvalidTransition, err
	case errors.Is(err, stores.ErrNotFound):
		return outcomeNotFound, fmt.Errorf("application %d: %w", l.app.ApplicationID, workflow.ErrNotFound)
	}

	log.Printf("[lifecycle] %s failed: application_id=%d event=%s actor_id=%d state=%s ctx_err=%v: %v",
		op.name, l.app.ApplicationID, op.event, actorID, l.app.State, ctx.Err(), err)
	return outcomeSystemError, &workflow.SystemError{Op: op.name, Err: err}
}
