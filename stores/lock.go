package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrLockHeld is returned when another process holds the named lock.
var ErrLockHeld = errors.New("lock already held")

// Locker runs fn while holding a named lock shared by every instance of the service.
type Locker interface {
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// GormLocker implements Locker with MySQL advisory locks. GET_LOCK is scoped to a
// connection, so the lock is taken and released on one pinned connection.
type GormLocker struct {
	db *gorm.DB
}

func NewGormLocker(db *gorm.DB) *GormLocker {
	return &GormLocker{db: db}
}

// WithLock runs fn under the advisory lock name. An empty name runs fn without locking.
func (l *GormLocker) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(name) == "" {
		return fn(ctx)
	}

	return l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		var ok int
		if err := conn.Raw("SELECT GET_LOCK(?, 0)", name).Scan(&ok).Error; err != nil {
			return fmt.Errorf("acquire lock %s: %w", name, err)
		}
		if ok != 1 {
			return ErrLockHeld
		}
		defer func() {
			var released int
			// Release with a fresh context so a cancelled run still frees the lock.
			_ = conn.WithContext(context.WithoutCancel(ctx)).Raw("SELECT RELEASE_LOCK(?)", name).Scan(&released).Error
		}()
		return fn(ctx)
	})
}
