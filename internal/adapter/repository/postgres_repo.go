package repository

import (
	"context"
	"fmt"

	"xscanner/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresRepo 实现 port.Repository，负责分类结果的跨运行存储
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo 初始化数据库连接并自动迁移表结构
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 自动建表/更新 classified_items 表结构
	if err := db.AutoMigrate(&domain.ClassifiedItem{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &PostgresRepo{db: db}, nil
}

// Save 保存或更新一条发现 (按 tweet_id Upsert)
func (r *PostgresRepo) Save(ctx context.Context, item *domain.ClassifiedItem) error {
	result := r.db.WithContext(ctx).Save(item)
	return result.Error
}

// Exists 判断该推文是否已经入库
func (r *PostgresRepo) Exists(ctx context.Context, tweetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ClassifiedItem{}).
		Where("tweet_id = ?", tweetID).Count(&count).Error
	return count > 0, err
}

// GetRecent 取最近入库的 N 条，供 ask 模式做上下文
// 限制数量，防止 Token 爆炸
func (r *PostgresRepo) GetRecent(ctx context.Context, limit int) ([]*domain.ClassifiedItem, error) {
	var items []*domain.ClassifiedItem
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// GetUnnotified 获取还没推送过的发现，置信度高的排前面
func (r *PostgresRepo) GetUnnotified(ctx context.Context) ([]*domain.ClassifiedItem, error) {
	var items []*domain.ClassifiedItem
	err := r.db.WithContext(ctx).
		Where("already_notified = ?", false).
		Order("confidence DESC").
		Find(&items).Error
	return items, err
}

// MarkAsNotified 标记发现为已推送
func (r *PostgresRepo) MarkAsNotified(ctx context.Context, tweetID string) error {
	result := r.db.WithContext(ctx).Model(&domain.ClassifiedItem{}).
		Where("tweet_id = ?", tweetID).Update("already_notified", true)
	return result.Error
}
