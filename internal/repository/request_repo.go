package repository

import (
	"context"
	"errors"

	"servicelink/internal/model"

	"gorm.io/gorm"
)

// RecordPtr constrains PT to a pointer to one of the request models.
type RecordPtr[T any] interface {
	*T
	model.Record
}

// RequestRepository is the typed data access layer for one request type. The
// single-field transition paths go through RequestStore instead; this
// repository covers the typed create/read surface.
type RequestRepository[T any, PT RecordPtr[T]] struct {
	db  *gorm.DB
	cfg model.TypeConfig
}

func NewRequestRepository[T any, PT RecordPtr[T]](db *gorm.DB, cfg model.TypeConfig) *RequestRepository[T, PT] {
	return &RequestRepository[T, PT]{db: db, cfg: cfg}
}

func (r *RequestRepository[T, PT]) Create(ctx context.Context, rec PT) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func (r *RequestRepository[T, PT]) FindByReference(ctx context.Context, reference string) (PT, error) {
	var rec T
	q := r.preloads(GetDB(ctx, r.db))
	if err := q.Where("reference_number = ?", reference).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListActive returns non-archived records, newest first. Archived records
// stay addressable through FindByReference.
func (r *RequestRepository[T, PT]) ListActive(ctx context.Context) ([]T, error) {
	var recs []T
	err := r.preloads(GetDB(ctx, r.db)).
		Where("archived = ?", false).
		Order("id DESC").
		Find(&recs).Error
	return recs, err
}

func (r *RequestRepository[T, PT]) ListByStatus(ctx context.Context, status string) ([]T, error) {
	var recs []T
	err := r.preloads(GetDB(ctx, r.db)).
		Where("status = ? AND archived = ?", status, false).
		Order("id DESC").
		Find(&recs).Error
	return recs, err
}

func (r *RequestRepository[T, PT]) preloads(db *gorm.DB) *gorm.DB {
	db = db.Preload("Requester")
	if r.cfg.HasDetails {
		db = db.Preload("Details")
	}
	return db
}

// IsNotFound reports whether err is the record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
