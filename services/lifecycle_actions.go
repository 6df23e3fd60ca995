package services

import (
	"context"

	"dar-review-api/models"
	"dar-review-api/workflow"
)

var (
	opSubmitDraft       = operation{name: "submit draft", from: workflow.StateDraft, event: workflow.EventSubmit}
	opSubmitRepRevision = operation{name: "submit rep revision", from: workflow.StateRepRevisionRequested, event: workflow.EventSubmitRepRevisions}
	opSubmitDacRevision = operation{name: "submit dac revision", from: workflow.StateDacRevisionsRequested, event: workflow.EventSubmitDacRevisions}

	opEditDraft     = operation{name: "edit draft", from: workflow.StateDraft, event: workflow.EventEdit}
	opEditRepReview = operation{name: "edit rep review", from: workflow.StateRepRevisionRequested, event: workflow.EventEdit}
	opEditDacReview = operation{name: "edit dac review", from: workflow.StateDacRevisionsRequested, event: workflow.EventEdit}

	opCloseDraft     = operation{name: "close draft", from: workflow.StateDraft, event: workflow.EventClose}
	opCloseRepReview = operation{name: "close rep review", from: workflow.StateRepReview, event: workflow.EventClose}
	opCloseDacReview = operation{name: "close dac review", from: workflow.StateDacReview, event: workflow.EventClose}

	opApproveRepReview = operation{name: "approve rep review", from: workflow.StateRepReview, event: workflow.EventRepApproveReview}
	opApproveDacReview = operation{name: "approve dac review", from: workflow.StateDacReview, event: workflow.EventDacApproveReview}
	opRejectDacReview  = operation{name: "reject dac review", from: workflow.StateDacReview, event: workflow.EventDacReject}

	opReviseRepReview = operation{name: "revise rep review", from: workflow.StateRepReview, event: workflow.EventRepRevisionRequest}
	opReviseDacReview = operation{name: "revise dac review", from: workflow.StateDacReview, event: workflow.EventDacRevisionRequest}

	opRevokeApproval = operation{name: "revoke approval", from: workflow.StateApproved, event: workflow.EventRevoked}

	opWithdrawRepReview = operation{name: "withdraw rep review", from: workflow.StateRepReview, event: workflow.EventRepReviewWithdraw}
	opWithdrawDacReview = operation{name: "withdraw dac review", from: workflow.StateDacReview, event: workflow.EventDacReviewWithdraw}
)

// SubmitDraft validates the content and sends the draft to the institutional rep.
func (l *Lifecycle) SubmitDraft(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opSubmitDraft, nil)
}

// SubmitRepRevision resubmits content revised at the rep's request.
func (l *Lifecycle) SubmitRepRevision(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opSubmitRepRevision, nil)
}

// SubmitDacRevision resubmits content revised at the DAC's request.
func (l *Lifecycle) SubmitDacRevision(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opSubmitDacRevision, nil)
}

// EditDraft gates a content edit on a draft. It records nothing.
func (l *Lifecycle) EditDraft(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opEditDraft, nil)
}

// EditRepReview records an edit made after a rep revision request; the application returns
// to rep review.
func (l *Lifecycle) EditRepReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opEditRepReview, nil)
}

// EditDacReview records an edit made after a DAC revision request; the application returns
// to DAC review.
func (l *Lifecycle) EditDacReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opEditDacReview, nil)
}

func (l *Lifecycle) CloseDraft(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opCloseDraft, nil)
}

func (l *Lifecycle) CloseRepReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opCloseRepReview, nil)
}

func (l *Lifecycle) CloseDacReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opCloseDacReview, nil)
}

func (l *Lifecycle) ApproveRepReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opApproveRepReview, nil)
}

// ApproveDacReview approves the application and stamps approved_at.
func (l *Lifecycle) ApproveDacReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opApproveDacReview, nil)
}

func (l *Lifecycle) RejectDacReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opRejectDacReview, nil)
}

// ReviseRepReview sends the application back to the applicant with the rep's feedback.
// request is stored in the same transaction as the action.
func (l *Lifecycle) ReviseRepReview(ctx context.Context, request *models.RevisionRequest) (models.Application, error) {
	return l.dispatch(ctx, opReviseRepReview, request)
}

// ReviseDacReview sends the application back to the applicant with the DAC's feedback.
func (l *Lifecycle) ReviseDacReview(ctx context.Context, request *models.RevisionRequest) (models.Application, error) {
	return l.dispatch(ctx, opReviseDacReview, request)
}

func (l *Lifecycle) RevokeApproval(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opRevokeApproval, nil)
}

func (l *Lifecycle) WithdrawRepReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opWithdrawRepReview, nil)
}

func (l *Lifecycle) WithdrawDacReview(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, opWithdrawDacReview, nil)
}

// Edit applies the edit event from whatever state the application is in. Content editing
// uses it so one code path serves drafts and both revision-requested states.
func (l *Lifecycle) Edit(ctx context.Context) (models.Application, error) {
	return l.dispatch(ctx, operation{name: "edit", event: workflow.EventEdit}, nil)
}
