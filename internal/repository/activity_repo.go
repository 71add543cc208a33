package repository

import (
	"context"

	"servicelink/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, requestType string, page, limit int) ([]model.ActivityLog, int64, error)
	ListByTarget(ctx context.Context, target string) ([]model.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *activityRepository) List(ctx context.Context, requestType string, page, limit int) ([]model.ActivityLog, int64, error) {
	var logs []model.ActivityLog
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ActivityLog{})
	if requestType != "" {
		query = query.Where("request_type = ?", requestType)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Performer")
	if requestType != "" {
		fetch = fetch.Where("request_type = ?", requestType)
	}
	if err := fetch.Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListByTarget returns the full trail of one request, oldest first, for the
// request timeline view.
func (r *activityRepository) ListByTarget(ctx context.Context, target string) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	err := GetDB(ctx, r.db).
		Preload("Performer").
		Where("target = ?", target).
		Order("created_at asc").
		Find(&logs).Error
	return logs, err
}
