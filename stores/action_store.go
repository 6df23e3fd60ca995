package stores

import (
	"context"
	"fmt"

	"dar-review-api/models"

	"gorm.io/gorm"
)

// GormActionStore appends to dar_actions.
type GormActionStore struct {
	db *gorm.DB
}

func NewGormActionStore(db *gorm.DB) *GormActionStore {
	return &GormActionStore{db: db}
}

func (s *GormActionStore) Insert(ctx context.Context, action *models.Action) error {
	if err := conn(ctx, s.db).Omit("RevisionRequest").Create(action).Error; err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

func (s *GormActionStore) ListByApplication(ctx context.Context, applicationID int, order SortOrder) ([]models.Action, error) {
	orderBy := "created_at ASC, action_id ASC"
	if order == SortDesc {
		orderBy = "created_at DESC, action_id DESC"
	}

	var actions []models.Action
	err := conn(ctx, s.db).
		Where("application_id = ?", applicationID).
		Order(orderBy).
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return actions, nil
}

func (s *GormActionStore) Latest(ctx context.Context, applicationID int) (*models.Action, error) {
	var actions []models.Action
	err := conn(ctx, s.db).
		Where("application_id = ?", applicationID).
		Order("created_at DESC, action_id DESC").
		Limit(1).
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("latest action: %w", err)
	}
	if len(actions) == 0 {
		return nil, nil
	}
	return &actions[0], nil
}

// LatestForApplications resolves the most recent action of each application in one query.
// Action ids grow with insertion order, so the highest id is the latest write.
func (s *GormActionStore) LatestForApplications(ctx context.Context, applicationIDs []int) (map[int]models.Action, error) {
	latest := make(map[int]models.Action, len(applicationIDs))
	if len(applicationIDs) == 0 {
		return latest, nil
	}

	db := conn(ctx, s.db)
	newest := db.Model(&models.Action{}).
		Select("MAX(action_id)").
		Where("application_id IN ?", applicationIDs).
		Group("application_id")

	var actions []models.Action
	if err := db.Where("action_id IN (?)", newest).Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("latest actions: %w", err)
	}
	for _, action := range actions {
		latest[action.ApplicationID] = action
	}
	return latest, nil
}
