package stores

import (
	"context"
	"fmt"

	"dar-review-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReminderMarkStore remembers which reminder interval was last sent per application.
type ReminderMarkStore interface {
	MarksFor(ctx context.Context, applicationIDs []int) (map[int]models.ReminderMark, error)
	SaveMark(ctx context.Context, mark models.ReminderMark) error
}

// GormReminderMarkStore keeps marks in dar_reminder_marks, one row per application.
type GormReminderMarkStore struct {
	db *gorm.DB
}

func NewGormReminderMarkStore(db *gorm.DB) *GormReminderMarkStore {
	return &GormReminderMarkStore{db: db}
}

func (s *GormReminderMarkStore) MarksFor(ctx context.Context, applicationIDs []int) (map[int]models.ReminderMark, error) {
	marks := make(map[int]models.ReminderMark, len(applicationIDs))
	if len(applicationIDs) == 0 {
		return marks, nil
	}

	var rows []models.ReminderMark
	if err := conn(ctx, s.db).Where("application_id IN ?", applicationIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load reminder marks: %w", err)
	}
	for _, row := range rows {
		marks[row.ApplicationID] = row
	}
	return marks, nil
}

// SaveMark upserts the mark for its application.
func (s *GormReminderMarkStore) SaveMark(ctx context.Context, mark models.ReminderMark) error {
	err := conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"activity_at", "interval_no", "sent_at"}),
	}).Create(&mark).Error
	if err != nil {
		return fmt.Errorf("save reminder mark: %w", err)
	}
	return nil
}
