package persistence

import (
	"context"

	"github.com/erp/migrator/internal/domain/shared"
	"gorm.io/gorm"
)

// findOne loads the first model matching query, mapping a miss to
// shared.ErrNotFound
func findOne[M any](ctx context.Context, db *gorm.DB, query string, args ...any) (*M, error) {
	var m M
	if err := db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// insert creates m, classifying unique violations against table
func insert(ctx context.Context, db *gorm.DB, table string, m any) error {
	return classifyWriteError(table, db.WithContext(ctx).Create(m).Error)
}

// save writes every column of m except the identity and creation time.
// Zero values are written too, so a cleared nullable column is persisted.
func save(ctx context.Context, db *gorm.DB, table string, m any) error {
	res := db.WithContext(ctx).Model(m).Select("*").Omit("id", "created_at").Updates(m)
	if res.Error != nil {
		return classifyWriteError(table, res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
