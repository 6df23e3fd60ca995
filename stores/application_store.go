package stores

import (
	"context"
	"fmt"

	"dar-review-api/models"
	"dar-review-api/workflow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormApplicationStore stores application headers in dar_applications and content in
// dar_application_contents.
type GormApplicationStore struct {
	db *gorm.DB
}

func NewGormApplicationStore(db *gorm.DB) *GormApplicationStore {
	return &GormApplicationStore{db: db}
}

func (s *GormApplicationStore) Create(ctx context.Context, app *models.Application) error {
	if err := conn(ctx, s.db).Omit("Content").Create(app).Error; err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *GormApplicationStore) Get(ctx context.Context, id int) (models.Application, error) {
	var app models.Application
	if err := conn(ctx, s.db).First(&app, "application_id = ?", id).Error; err != nil {
		return models.Application{}, translateError(err)
	}
	return app, nil
}

func (s *GormApplicationStore) GetForUpdate(ctx context.Context, id int) (models.Application, error) {
	var app models.Application
	err := conn(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&app, "application_id = ?", id).Error
	if err != nil {
		return models.Application{}, translateError(err)
	}
	return app, nil
}

func (s *GormApplicationStore) UpdateState(ctx context.Context, id int, update models.ApplicationStateUpdate) error {
	values := map[string]interface{}{
		"state":      update.To,
		"updated_at": update.UpdatedAt,
	}
	if update.ApprovedAt != nil {
		values["approved_at"] = *update.ApprovedAt
	}
	if update.ExpiresAt != nil {
		values["expires_at"] = *update.ExpiresAt
	}

	result := conn(ctx, s.db).Model(&models.Application{}).
		Where("application_id = ? AND state = ?", id, update.From).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("update application state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (s *GormApplicationStore) ListByStates(ctx context.Context, states []workflow.State) ([]models.Application, error) {
	if len(states) == 0 {
		return nil, nil
	}
	var apps []models.Application
	err := conn(ctx, s.db).
		Where("state IN ?", states).
		Order("updated_at ASC, application_id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list applications by state: %w", err)
	}
	return apps, nil
}

func (s *GormApplicationStore) GetContent(ctx context.Context, id int) (models.ApplicationContent, error) {
	var content models.ApplicationContent
	if err := conn(ctx, s.db).First(&content, "application_id = ?", id).Error; err != nil {
		return models.ApplicationContent{}, translateError(err)
	}
	return content, nil
}

// SaveContent upserts the content row and bumps the application's updated_at.
func (s *GormApplicationStore) SaveContent(ctx context.Context, content *models.ApplicationContent) error {
	db := conn(ctx, s.db)
	if err := db.Save(content).Error; err != nil {
		return fmt.Errorf("save application content: %w", err)
	}
	err := db.Model(&models.Application{}).
		Where("application_id = ?", content.ApplicationID).
		Update("updated_at", content.UpdatedAt).Error
	if err != nil {
		return fmt.Errorf("touch application: %w", err)
	}
	return nil
}
