package repository

import (
	"context"
	"errors"

	"servicelink/internal/model"

	"gorm.io/gorm"
)

// RequestStore implements lifecycle.Store over the per-type request tables.
// All methods resolve the table from the TypeConfig so one instance serves
// every request type.
type RequestStore struct {
	db *gorm.DB
}

func NewRequestStore(db *gorm.DB) *RequestStore {
	return &RequestStore{db: db}
}

// LatestID returns the highest primary key of the type's table. An advisory
// transaction lock keyed by the table name serializes concurrent reference
// allocations until the surrounding transaction commits, so two creates can
// never observe the same value.
func (s *RequestStore) LatestID(ctx context.Context, cfg model.TypeConfig) (uint, error) {
	db := GetDB(ctx, s.db)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", cfg.Table).Error; err != nil {
		return 0, err
	}

	var latest int64
	if err := db.Table(cfg.Table).Select("COALESCE(MAX(id), 0)").Scan(&latest).Error; err != nil {
		return 0, err
	}
	return uint(latest), nil
}

func (s *RequestStore) FindBase(ctx context.Context, cfg model.TypeConfig, reference string) (*model.RequestBase, bool, error) {
	var base model.RequestBase
	err := GetDB(ctx, s.db).
		Table(cfg.Table).
		Select("id", "reference_number", "status", "immediate_head_approval", "gso_director_approval",
			"operations_director_approval", "archived", "requested_by", "created_at", "updated_at").
		Where("reference_number = ?", reference).
		Take(&base).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &base, true, nil
}

func (s *RequestStore) UpdateFields(ctx context.Context, cfg model.TypeConfig, reference string, fields map[string]any) (int64, error) {
	res := GetDB(ctx, s.db).
		Table(cfg.Table).
		Where("reference_number = ?", reference).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// RequestDetailStore implements lifecycle.DetailStore over the shared
// request_details table, scoped by polymorphic owner.
type RequestDetailStore struct {
	db *gorm.DB
}

func NewRequestDetailStore(db *gorm.DB) *RequestDetailStore {
	return &RequestDetailStore{db: db}
}

func (s *RequestDetailStore) IDsByOwner(ctx context.Context, cfg model.TypeConfig, ownerID uint) ([]uint, error) {
	var ids []uint
	err := GetDB(ctx, s.db).
		Model(&model.RequestDetail{}).
		Where("owner_type = ? AND owner_id = ?", string(cfg.Type), ownerID).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *RequestDetailStore) DeleteByOwner(ctx context.Context, cfg model.TypeConfig, ownerID uint, ids []uint) error {
	return GetDB(ctx, s.db).
		Where("owner_type = ? AND owner_id = ? AND id IN ?", string(cfg.Type), ownerID, ids).
		Delete(&model.RequestDetail{}).Error
}

func (s *RequestDetailStore) Update(ctx context.Context, cfg model.TypeConfig, ownerID uint, detail model.RequestDetail) error {
	return GetDB(ctx, s.db).
		Model(&model.RequestDetail{}).
		Where("id = ? AND owner_type = ? AND owner_id = ?", detail.ID, string(cfg.Type), ownerID).
		Updates(map[string]any{
			"particulars": detail.Particulars,
			"quantity":    detail.Quantity,
			"description": detail.Description,
			"remarks":     detail.Remarks,
			"unit_cost":   detail.UnitCost,
		}).Error
}

func (s *RequestDetailStore) Insert(ctx context.Context, cfg model.TypeConfig, ownerID uint, detail *model.RequestDetail) error {
	detail.OwnerType = string(cfg.Type)
	detail.OwnerID = ownerID
	return GetDB(ctx, s.db).Create(detail).Error
}
