package repositories

import (
	"context"

	"gorm.io/gorm"
)

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

// use resolves the handle a repository call should run on: the transaction
// when one is in flight, the base connection otherwise.
func use(db *gorm.DB, tx *gorm.DB, ctx context.Context) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
