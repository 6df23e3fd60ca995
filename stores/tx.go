package stores

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a gorm transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a gorm transaction from context if present.
func From(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	return tx, ok
}

// Transactor runs fn inside one storage transaction. Stores called with the context handed
// to fn take part in that transaction. A non-nil error from fn, a panic, or a context that
// is done before commit rolls everything back.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// GormTransactor implements Transactor on a gorm handle. When ctx already carries a
// transaction, fn runs in a savepoint of it so a caller that holds a transaction can pass it
// through.
type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	base := t.db
	if outer, ok := From(ctx); ok {
		base = outer
	}

	return base.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(WithTx(ctx, tx)); err != nil {
			return err
		}
		// A cancelled caller must not see a commit.
		return ctx.Err()
	})
}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := From(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
