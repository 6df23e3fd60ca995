// Package stores persists DAR applications, their append-only action log and revision
// requests. The gorm implementations target MySQL; MemoryStore backs tests and local runs.
package stores

import (
	"context"

	"dar-review-api/models"
	"dar-review-api/workflow"
)

// SortOrder orders action listings by time.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps "" and "asc" to SortAsc and "desc" to SortDesc.
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch SortOrder(raw) {
	case "", SortAsc:
		return SortAsc, true
	case SortDesc:
		return SortDesc, true
	}
	return "", false
}

// ApplicationStore persists application headers and their content.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, id int) (models.Application, error)
	// GetForUpdate reads the row and locks it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int) (models.Application, error)
	// UpdateState writes the transition only if the row still holds update.From.
	UpdateState(ctx context.Context, id int, update models.ApplicationStateUpdate) error
	ListByStates(ctx context.Context, states []workflow.State) ([]models.Application, error)
	GetContent(ctx context.Context, id int) (models.ApplicationContent, error)
	SaveContent(ctx context.Context, content *models.ApplicationContent) error
}

// ActionStore is the append-only action ledger. There is no update or delete.
type ActionStore interface {
	Insert(ctx context.Context, action *models.Action) error
	ListByApplication(ctx context.Context, applicationID int, order SortOrder) ([]models.Action, error)
	// Latest returns nil when the application has no actions.
	Latest(ctx context.Context, applicationID int) (*models.Action, error)
	LatestForApplications(ctx context.Context, applicationIDs []int) (map[int]models.Action, error)
}

// RevisionRequestStore persists reviewer feedback. Rows are write-once.
type RevisionRequestStore interface {
	Insert(ctx context.Context, request *models.RevisionRequest) error
	Get(ctx context.Context, id int) (models.RevisionRequest, error)
	// ListByApplication returns the newest request first.
	ListByApplication(ctx context.Context, applicationID int) ([]models.RevisionRequest, error)
}

var (
	_ ApplicationStore     = (*GormApplicationStore)(nil)
	_ ActionStore          = (*GormActionStore)(nil)
	_ RevisionRequestStore = (*GormRevisionRequestStore)(nil)
	_ Transactor           = (*GormTransactor)(nil)
	_ Locker               = (*GormLocker)(nil)
	_ ReminderMarkStore    = (*GormReminderMarkStore)(nil)

	_ ApplicationStore     = (*MemoryStore)(nil)
	_ ActionStore          = MemoryActionStore{}
	_ RevisionRequestStore = MemoryRevisionRequestStore{}
	_ Transactor           = (*MemoryStore)(nil)
	_ ReminderMarkStore    = (*MemoryStore)(nil)
)
