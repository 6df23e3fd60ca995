package services

import (
	"context"
	"errors"
)

// Caller errors raised before any guard or storage work.
var (
	ErrMissingActor              = errors.New("actor identity missing from context")
	ErrRevisionRequestRequired   = errors.New("revision request payload is required")
	ErrUnexpectedRevisionRequest = errors.New("revision request payload is only accepted by revision request events")
)

type actorKey struct{}

// WithActor records the id of the user performing lifecycle actions.
func WithActor(ctx context.Context, actorID int) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFrom returns the actor recorded by WithActor.
func ActorFrom(ctx context.Context) (int, bool) {
	actorID, ok := ctx.Value(actorKey{}).(int)
	return actorID, ok && actorID > 0
}
