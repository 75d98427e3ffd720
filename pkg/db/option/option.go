package option

import (
	"mlshield-controlplane/pkg/db/pagination"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm query before execution.
type QueryOption func(*gorm.DB) *gorm.DB

func Apply(tx *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}

func Limit(n int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if n <= 0 {
			return tx
		}
		return tx.Limit(n)
	}
}

func OrderBy(expr string) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(expr)
	}
}

// ApplyPagination applies cursor pagination keyed on the id column. One extra
// row is fetched so the caller can detect whether more rows follow.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if p.Cursor != "" {
			tx = tx.Where("id > ?", p.Cursor)
		}
		if p.Limit > 0 {
			tx = tx.Limit(p.Limit + 1)
		}
		return tx
	}
}
