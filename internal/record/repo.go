package record

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repo 是五类提交记录共用的泛型 GORM 仓储。
// 记录只有 {absent, persisted} 两个状态：一次 Create 写入一行，
// 之后不存在任何更新或删除路径。五张表共用一份实现，避免五份拷贝各自漂移。
type Repo[T any] struct {
	db *gorm.DB
}

func NewRepo[T any](db *gorm.DB) *Repo[T] {
	return &Repo[T]{db: db}
}

func (r *Repo[T]) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

// Create 追加一行；行作为整体插入，不会出现只写部分列的行。
func (r *Repo[T]) Create(ctx context.Context, rec *T) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(rec).Error
}

// Count 表内总行数。
func (r *Repo[T]) Count(ctx context.Context) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var t T
	var total int64
	if err := db.Model(&t).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListByUsername 按用户名过滤 + 分页。
func (r *Repo[T]) ListByUsername(ctx context.Context, username string, offset, limit int) ([]T, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var t T
	q := db.Model(&t)
	if username != "" {
		q = q.Where("username = ?", username)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []T
	if err := q.Offset(offset).Limit(limit).Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}
