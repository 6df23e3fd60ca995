package services

import (
	"context"
	"fmt"
	"time"

	"dar-review-api/models"
	"dar-review-api/stores"
	"dar-review-api/workflow"
)

// AttentionItem pairs an application with its most recent action. LastAction is nil for an
// application that has never left its initial state.
type AttentionItem struct {
	Application models.Application `json:"application"`
	LastAction  *models.Action     `json:"last_action"`
}

// LastActivityAt is the time of the last action, or the creation time when there is none.
func (i AttentionItem) LastActivityAt() time.Time {
	if i.LastAction != nil {
		return i.LastAction.CreatedAt
	}
	return i.Application.CreatedAt
}

// ReminderService is the read-only projection consumed by the reminder job.
type ReminderService struct {
	apps    stores.ApplicationStore
	actions stores.ActionStore
}

func NewReminderService(apps stores.ApplicationStore, actions stores.ActionStore) *ReminderService {
	return &ReminderService{apps: apps, actions: actions}
}

// ListApplicationsNeedingAttention returns every application in one of states with its latest
// action, least recently updated first. It issues two queries regardless of the result size.
func (s *ReminderService) ListApplicationsNeedingAttention(ctx context.Context, states []workflow.State) ([]AttentionItem, error) {
	for _, state := range states {
		if !state.Valid() {
			return nil, fmt.Errorf("%w %q", workflow.ErrUnknownState, state)
		}
	}

	apps, err := s.apps.ListByStates(ctx, states)
	if err != nil {
		return nil, &workflow.SystemError{Op: "list applications by state", Err: err}
	}
	if len(apps) == 0 {
		return []AttentionItem{}, nil
	}

	ids := make([]int, len(apps))
	for i, app := range apps {
		ids[i] = app.ApplicationID
	}
	latest, err := s.actions.LatestForApplications(ctx, ids)
	if err != nil {
		return nil, &workflow.SystemError{Op: "load latest actions", Err: err}
	}

	items := make([]AttentionItem, len(apps))
	for i, app := range apps {
		items[i] = AttentionItem{Application: app}
		if action, ok := latest[app.ApplicationID]; ok {
			action := action
			items[i].LastAction = &action
		}
	}
	return items, nil
}
