package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"dar-review-api/models"
	"dar-review-api/workflow"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var applicationColumns = []string{
	"application_id", "reference_number", "owner_id", "state",
	"created_at", "approved_at", "expires_at", "updated_at",
}

var actionColumns = []string{
	"action_id", "application_id", "actor_id", "kind",
	"state_before", "state_after", "revision_request_id", "created_at",
}

func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormTransactorCommitsStoreWrites(t *testing.T) {
	db, mock := newMockGormDB(t)
	actions := NewGormActionStore(db)
	tx := NewGormTransactor(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `dar_actions`").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	action := &models.Action{
		ApplicationID: 1,
		ActorID:       7,
		Kind:          workflow.EventSubmit,
		StateBefore:   workflow.StateDraft,
		StateAfter:    workflow.StateRepReview,
		CreatedAt:     time.Now(),
	}
	err := tx.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, ok := From(ctx)
		assert.True(t, ok, "store context should carry the transaction")
		return actions.Insert(ctx, action)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, action.ActionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactorRollsBackOnFailure(t *testing.T) {
	db, mock := newMockGormDB(t)
	actions := NewGormActionStore(db)
	revisions := NewGormRevisionRequestStore(db)
	tx := NewGormTransactor(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `dar_revision_requests`").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("INSERT INTO `dar_actions`").WillReturnError(errors.New("deadlock found"))
	mock.ExpectRollback()

	err := tx.RunInTransaction(context.Background(), func(ctx context.Context) error {
		request := &models.RevisionRequest{ApplicationID: 1, CreatedAt: time.Now()}
		if err := revisions.Insert(ctx, request); err != nil {
			return err
		}
		return actions.Insert(ctx, &models.Action{ApplicationID: 1, RevisionRequestID: &request.RevisionRequestID})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactorNestedFailureRollsBackToSavepoint(t *testing.T) {
	db, mock := newMockGormDB(t)
	actions := NewGormActionStore(db)
	tx := NewGormTransactor(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `dar_actions`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("SAVEPOINT").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `dar_actions`").WillReturnError(errors.New("duplicate"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := tx.RunInTransaction(context.Background(), func(ctx context.Context) error {
		if err := actions.Insert(ctx, &models.Action{ApplicationID: 1}); err != nil {
			return err
		}
		inner := tx.RunInTransaction(ctx, func(ctx context.Context) error {
			return actions.Insert(ctx, &models.Action{ApplicationID: 1})
		})
		assert.Error(t, inner)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactorSkipsCancelledContext(t *testing.T) {
	db, mock := newMockGormDB(t)
	tx := NewGormTransactor(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := tx.RunInTransaction(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormApplicationStoreGetForUpdateLocksRow(t *testing.T) {
	db, mock := newMockGormDB(t)
	store := NewGormApplicationStore(db)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `dar_applications` WHERE application_id = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(applicationColumns).
			AddRow(int64(4), "ref-4", int64(9), "REP_REVIEW", now, nil, nil, now))

	app, err := store.GetForUpdate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, app.ApplicationID)
	assert.Equal(t, workflow.StateRepReview, app.State)
	assert.Nil(t, app.ApprovedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormApplicationStoreGetTranslatesNotFound(t *testing.T) {
	db, mock := newMockGormDB(t)
	store := NewGormApplicationStore(db)

	mock.ExpectQuery("SELECT \\* FROM `dar_applications`").
		WillReturnRows(sqlmock.NewRows(applicationColumns))

	_, err := store.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormApplicationStoreUpdateStateUsesExpectedState(t *testing.T) {
	db, mock := newMockGormDB(t)
	store := NewGormApplicationStore(db)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE `dar_applications` SET .* WHERE application_id = \\? AND state = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `dar_applications` SET .* WHERE application_id = \\? AND state = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	update := models.ApplicationStateUpdate{
		From:       workflow.StateDacReview,
		To:         workflow.StateApproved,
		UpdatedAt:  now,
		ApprovedAt: &now,
	}
	require.NoError(t, store.UpdateState(context.Background(), 4, update))
	assert.ErrorIs(t, store.UpdateState(context.Background(), 4, update), ErrStateConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormApplicationStoreListByStatesSkipsEmptyFilter(t *testing.T) {
	db, mock := newMockGormDB(t)
	store := NewGormApplicationStore(db)

	apps, err := store.ListByStates(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, apps)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormActionStoreListOrdering(t *testing.T) {
	db, mock := newMockGormDB(t)
	store := NewGormActionStore(db)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `dar_actions` WHERE application_id = \\? ORDER BY created_at DESC, action_id DESC").
		WillReturnRows(sqlmock.NewRows(actionColumns).
			AddRow(int64(2), int64(1), int64(7), "rep_approve_review", "REP_REVIEW", "DAC_REVIEW", nil, now.Add(time.Hour)).
			AddRow(int64(1), int64(1), int64(7), "submit", "DRAFT", "REP_REVIEW", nil, now))

	actions, err := store.ListByApplication(context.Background(), 1, SortDesc)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, workflow.EventRepApproveReview, actions[0].Kind)
	assert.Equal(t, workflow.StateDacReview, actions[0].StateAfter)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormActionStoreLatestForApplications(t *testing.T) {
	db, mock := newMockGormDB(t)
	store := NewGormActionStore(db)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `dar_actions` WHERE action_id IN \\(SELECT MAX\\(action_id\\) FROM `dar_actions`").
		WillReturnRows(sqlmock.NewRows(actionColumns).
			AddRow(int64(8), int64(1), int64(7), "submit", "DRAFT", "REP_REVIEW", nil, now).
			AddRow(int64(9), int64(2), int64(3), "rep_revision_request", "REP_REVIEW", "REP_REVISION_REQUESTED", int64(4), now))

	latest, err := store.LatestForApplications(context.Background(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 8, latest[1].ActionID)
	require.NotNil(t, latest[2].RevisionRequestID)
	assert.Equal(t, 4, *latest[2].RevisionRequestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormActionStoreLatestReturnsNilWithoutActions(t *testing.T) {
	db, mock := newMockGormDB(t)
	store := NewGormActionStore(db)

	mock.ExpectQuery("SELECT \\* FROM `dar_actions` WHERE application_id = \\?").
		WillReturnRows(sqlmock.NewRows(actionColumns))

	latest, err := store.Latest(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, latest)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserStoreSkipsDeletedUsers(t *testing.T) {
	db, mock := newMockGormDB(t)
	store := NewGormUserStore(db)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE user_id = \\? AND delete_at IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_fname", "user_lname", "email"}).
			AddRow(int64(3), "Ada", "Lovelace", "ada@example.org"))
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE user_id = \\? AND delete_at IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	user, err := store.GetUser(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.DisplayName())

	_, err = store.GetUser(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLockerHoldsAndReleasesLock(t *testing.T) {
	db, mock := newMockGormDB(t)
	locker := NewGormLocker(db)

	mock.ExpectQuery("SELECT GET_LOCK\\(\\?, 0\\)").WithArgs("dar_reminders").
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(1))
	mock.ExpectQuery("SELECT RELEASE_LOCK\\(\\?\\)").WithArgs("dar_reminders").
		WillReturnRows(sqlmock.NewRows([]string{"released"}).AddRow(1))

	ran := false
	err := locker.WithLock(context.Background(), "dar_reminders", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLockerReportsHeldLock(t *testing.T) {
	db, mock := newMockGormDB(t)
	locker := NewGormLocker(db)

	mock.ExpectQuery("SELECT GET_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(0))

	err := locker.WithLock(context.Background(), "dar_reminders", func(context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockHeld)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReminderMarkStoreUpsertsAndLoads(t *testing.T) {
	db, mock := newMockGormDB(t)
	marks := NewGormReminderMarkStore(db)
	activity := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO `dar_reminder_marks`.*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, marks.SaveMark(context.Background(), models.ReminderMark{
		ApplicationID: 3,
		ActivityAt:    activity,
		Interval:      1,
		SentAt:        activity.Add(7 * 24 * time.Hour),
	}))

	mock.ExpectQuery("SELECT \\* FROM `dar_reminder_marks` WHERE application_id IN").
		WithArgs(3, 4).
		WillReturnRows(sqlmock.NewRows([]string{"application_id", "activity_at", "interval_no", "sent_at"}).
			AddRow(3, activity, 1, activity.Add(7*24*time.Hour)))
	got, err := marks.MarksFor(context.Background(), []int{3, 4})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[3].Covers(activity, 1))
	assert.False(t, got[3].Covers(activity, 2))
	assert.False(t, got[3].Covers(activity.Add(time.Hour), 1))

	empty, err := marks.MarksFor(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}
