package services

import (
	"context"
	"errors"
	"fmt"

	"dar-review-api/models"
	"dar-review-api/stores"
	"dar-review-api/utils"
	"dar-review-api/workflow"

	"github.com/google/uuid"
)

// ApplicationService is the entry point used by controllers and jobs. It creates and edits
// applications and routes lifecycle events through a freshly bound Lifecycle.
type ApplicationService struct {
	lifecycle *LifecycleService
}

func NewApplicationService(lifecycle *LifecycleService) *ApplicationService {
	return &ApplicationService{lifecycle: lifecycle}
}

// CreateDraft stores a new application in DRAFT together with its initial content.
// Creation is not a transition and writes no action.
func (s *ApplicationService) CreateDraft(ctx context.Context, ownerID int, content models.ApplicationContent) (models.Application, error) {
	if ownerID <= 0 {
		return models.Application{}, ErrMissingActor
	}

	lc := s.lifecycle
	now := lc.clock.Now()
	app := models.Application{
		ReferenceNumber: uuid.NewString(),
		OwnerID:         ownerID,
		State:           workflow.InitialState,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := lc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := lc.apps.Create(ctx, &app); err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		content.ApplicationID = app.ApplicationID
		content.UpdatedAt = now
		if err := lc.apps.SaveContent(ctx, &content); err != nil {
			return fmt.Errorf("save content: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Application{}, &workflow.SystemError{Op: "create draft", Err: err}
	}
	return app, nil
}

// Get returns the application header.
func (s *ApplicationService) Get(ctx context.Context, applicationID int) (models.Application, error) {
	app, err := s.lifecycle.apps.Get(ctx, applicationID)
	if err != nil {
		return models.Application{}, s.storeError("load application", applicationID, err)
	}
	return app, nil
}

// GetContent returns the application's editable content.
func (s *ApplicationService) GetContent(ctx context.Context, applicationID int) (models.ApplicationContent, error) {
	content, err := s.lifecycle.apps.GetContent(ctx, applicationID)
	if err != nil {
		return models.ApplicationContent{}, s.storeError("load content", applicationID, err)
	}
	return content, nil
}

// EditContent replaces the application content when the current state accepts the edit
// event, then applies that event. Editing after a revision request therefore moves the
// application back under review, while editing a draft leaves it in DRAFT.
//
// The content is saved in its own transaction under the application row lock, and only if
// the locked state is still the one the guard accepted. A concurrent submit therefore either
// sees the new content or makes the edit fail as stale.
func (s *ApplicationService) EditContent(ctx context.Context, applicationID, actorID int, content models.ApplicationContent) (models.Application, error) {
	ctx, err := s.actorContext(ctx, actorID)
	if err != nil {
		return models.Application{}, err
	}

	lc, err := s.lifecycle.Bind(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}
	guarded := lc.Application().State
	if err := workflow.CanPerform(guarded, workflow.EventEdit); err != nil {
		return models.Application{}, err
	}

	content.ApplicationID = applicationID
	content.UpdatedAt = s.lifecycle.clock.Now()
	err = s.lifecycle.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.lifecycle.apps.GetForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if locked.State != guarded {
			return &workflow.TransitionError{State: locked.State, Event: workflow.EventEdit, Stale: true}
		}
		return s.lifecycle.apps.SaveContent(ctx, &content)
	})
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			return models.Application{}, err
		}
		return models.Application{}, s.storeError("save content", applicationID, err)
	}

	if _, err := lc.Edit(ctx); err != nil {
		return models.Application{}, err
	}
	return s.Get(ctx, applicationID)
}

// PerformAction binds a lifecycle to the application and applies event on behalf of actorID.
// payload is required for revision request events and rejected for every other event.
func (s *ApplicationService) PerformAction(ctx context.Context, applicationID int, event workflow.Event, actorID int, payload *models.RevisionRequest) (models.Application, error) {
	ctx, err := s.actorContext(ctx, actorID)
	if err != nil {
		return models.Application{}, err
	}
	if payload != nil {
		sanitizeRevisionRequest(payload)
	}

	lc, err := s.lifecycle.Bind(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}
	return lc.Perform(ctx, event, payload)
}

// ListActions returns the audit trail of an application in the requested order.
func (s *ApplicationService) ListActions(ctx context.Context, applicationID int, order stores.SortOrder) ([]models.Action, error) {
	if _, err := s.Get(ctx, applicationID); err != nil {
		return nil, err
	}
	actions, err := s.lifecycle.actions.ListByApplication(ctx, applicationID, order)
	if err != nil {
		return nil, &workflow.SystemError{Op: "list actions", Err: err}
	}
	return actions, nil
}

// GetRevisionRequests returns the application's revision requests, newest first.
func (s *ApplicationService) GetRevisionRequests(ctx context.Context, applicationID int) ([]models.RevisionRequest, error) {
	if _, err := s.Get(ctx, applicationID); err != nil {
		return nil, err
	}
	requests, err := s.lifecycle.revisions.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, &workflow.SystemError{Op: "list revision requests", Err: err}
	}
	return requests, nil
}

// actorContext makes actorID the acting user unless the context already names one.
func (s *ApplicationService) actorContext(ctx context.Context, actorID int) (context.Context, error) {
	if actorID > 0 {
		return WithActor(ctx, actorID), nil
	}
	if _, ok := ActorFrom(ctx); ok {
		return ctx, nil
	}
	return ctx, ErrMissingActor
}

func (s *ApplicationService) storeError(op string, applicationID int, err error) error {
	if errors.Is(err, stores.ErrNotFound) {
		return fmt.Errorf("application %d: %w", applicationID, workflow.ErrNotFound)
	}
	return &workflow.SystemError{Op: op, Err: err}
}

func sanitizeRevisionRequest(request *models.RevisionRequest) {
	request.ApplicantInfo.Notes = utils.SanitizeInput(request.ApplicantInfo.Notes)
	request.InstitutionalRep.Notes = utils.SanitizeInput(request.InstitutionalRep.Notes)
	request.Collaborators.Notes = utils.SanitizeInput(request.Collaborators.Notes)
	request.Project.Notes = utils.SanitizeInput(request.Project.Notes)
	request.RequestedStudies.Notes = utils.SanitizeInput(request.RequestedStudies.Notes)
	request.Ethics.Notes = utils.SanitizeInput(request.Ethics.Notes)
	request.Agreements.Notes = utils.SanitizeInput(request.Agreements.Notes)
	request.Appendices.Notes = utils.SanitizeInput(request.Appendices.Notes)
	request.SignAndSubmit.Notes = utils.SanitizeInput(request.SignAndSubmit.Notes)
	request.GeneralComment = utils.SanitizeInput(request.GeneralComment)
}
