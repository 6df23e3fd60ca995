package stores

import (
	"context"
	"fmt"

	"dar-review-api/models"

	"gorm.io/gorm"
)

// GormRevisionRequestStore appends to dar_revision_requests.
type GormRevisionRequestStore struct {
	db *gorm.DB
}

func NewGormRevisionRequestStore(db *gorm.DB) *GormRevisionRequestStore {
	return &GormRevisionRequestStore{db: db}
}

func (s *GormRevisionRequestStore) Insert(ctx context.Context, request *models.RevisionRequest) error {
	if err := conn(ctx, s.db).Create(request).Error; err != nil {
		return fmt.Errorf("insert revision request: %w", err)
	}
	return nil
}

func (s *GormRevisionRequestStore) Get(ctx context.Context, id int) (models.RevisionRequest, error) {
	var request models.RevisionRequest
	if err := conn(ctx, s.db).First(&request, "revision_request_id = ?", id).Error; err != nil {
		return models.RevisionRequest{}, translateError(err)
	}
	return request, nil
}

func (s *GormRevisionRequestStore) ListByApplication(ctx context.Context, applicationID int) ([]models.RevisionRequest, error) {
	var requests []models.RevisionRequest
	err := conn(ctx, s.db).
		Where("application_id = ?", applicationID).
		Order("created_at DESC, revision_request_id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list revision requests: %w", err)
	}
	return requests, nil
}
