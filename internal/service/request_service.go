package service

import (
	"context"
	"errors"
	"fmt"

	"servicelink/internal/lifecycle"
	"servicelink/internal/model"
	"servicelink/internal/repository"
)

// ErrInvalidStatus is returned when a PUT body carries a non-string status.
var ErrInvalidStatus = errors.New("status must be a string")

// RequestService is the per-type façade the HTTP layer talks to. One generic
// implementation serves job, purchasing, venue and vehicle requests; the
// differences (prefix, details, archive endpoint, updatable columns) come
// from the TypeConfig.
type RequestService[T any] interface {
	Create(ctx context.Context, rec *T, actor string) (*T, error)
	Get(ctx context.Context, reference string) (*T, error)
	ListActive(ctx context.Context) ([]T, error)
	ListByStatus(ctx context.Context, status string) ([]T, error)
	Update(ctx context.Context, reference string, fields map[string]any, details []model.RequestDetail, actor string) (lifecycle.Result, error)
	SetArchived(ctx context.Context, reference string, archived bool, actor string) (lifecycle.Result, error)
	SetGate(ctx context.Context, reference string, gate model.Gate, value model.GateValue, actor string) (lifecycle.Result, error)
}

// RequestRepo is the slice of the data layer the service needs. It is
// satisfied by *repository.RequestRepository.
type RequestRepo[T any, PT repository.RecordPtr[T]] interface {
	Create(ctx context.Context, rec PT) error
	FindByReference(ctx context.Context, reference string) (PT, error)
	ListActive(ctx context.Context) ([]T, error)
	ListByStatus(ctx context.Context, status string) ([]T, error)
}

type requestService[T any, PT repository.RecordPtr[T]] struct {
	cfg    model.TypeConfig
	repo   RequestRepo[T, PT]
	store  lifecycle.Store
	engine *lifecycle.Engine
	tx     repository.TransactionManager
}

func NewRequestService[T any, PT repository.RecordPtr[T]](
	cfg model.TypeConfig,
	repo RequestRepo[T, PT],
	store lifecycle.Store,
	engine *lifecycle.Engine,
	tx repository.TransactionManager,
) RequestService[T] {
	return &requestService[T, PT]{cfg: cfg, repo: repo, store: store, engine: engine, tx: tx}
}

// Create allocates the reference number and inserts the record plus its
// detail rows in one transaction, so the allocation lock covers the insert
// and concurrent creates cannot collide.
func (s *requestService[T, PT]) Create(ctx context.Context, rec *T, actor string) (*T, error) {
	base := PT(rec).Base()
	base.ID = 0
	base.Archived = false
	if base.Status == "" {
		base.Status = model.StatusPending
	}
	// Gates always start Pending regardless of what the client sent.
	base.ImmediateHeadApproval = string(model.GatePending)
	base.GSODirectorApproval = string(model.GatePending)
	base.OperationsDirectorApproval = string(model.GatePending)
	if base.RequestedBy == nil {
		base.RequestedBy = parseUserID(actor)
	}

	if dc, ok := any(rec).(model.DetailCarrier); ok {
		rows := dc.DetailRows()
		for i := range rows {
			rows[i].ID = 0
		}
		dc.SetDetailRows(rows)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		ref, err := s.engine.AllocateReference(txCtx, s.cfg)
		if err != nil {
			return err
		}
		base.ReferenceNumber = ref
		if err := s.repo.Create(txCtx, PT(rec)); err != nil {
			return fmt.Errorf("failed to create %s request: %w", s.cfg.Type, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.engine.Emit(lifecycle.Event{
		Action:      model.ActionCreateRequest,
		RequestType: s.cfg.Type,
		Reference:   base.ReferenceNumber,
		Actor:       actor,
		Details:     fmt.Sprintf("%s request %s created", s.cfg.Type, base.ReferenceNumber),
	})
	return rec, nil
}

func (s *requestService[T, PT]) Get(ctx context.Context, reference string) (*T, error) {
	rec, err := s.repo.FindByReference(ctx, reference)
	return (*T)(rec), err
}

func (s *requestService[T, PT]) ListActive(ctx context.Context) ([]T, error) {
	return s.repo.ListActive(ctx)
}

func (s *requestService[T, PT]) ListByStatus(ctx context.Context, status string) ([]T, error) {
	return s.repo.ListByStatus(ctx, status)
}

// Update applies a whitelisted partial field set and, for detail-bearing
// types, replaces the detail list by id diff — all inside one transaction.
// A status change rides the engine's status transition so it is logged with
// its before/after values.
func (s *requestService[T, PT]) Update(ctx context.Context, reference string, fields map[string]any, details []model.RequestDetail, actor string) (lifecycle.Result, error) {
	result := lifecycle.ResultNotFound
	fieldsChanged := false

	// A non-string status cannot ride the engine's transition; reject it
	// instead of letting it slip through the generic column update.
	status, hasStatus := "", false
	if raw, ok := fields["status"]; ok {
		str, isString := raw.(string)
		if !isString {
			return lifecycle.ResultNotFound, ErrInvalidStatus
		}
		status, hasStatus = str, true
		delete(fields, "status")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.repo.FindByReference(txCtx, reference)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("failed to load %s request %s: %w", s.cfg.Type, reference, err)
		}

		if hasStatus {
			if _, err := s.engine.SetStatus(txCtx, s.cfg, reference, status, actor); err != nil {
				return err
			}
		}

		filtered := filterFields(fields, s.cfg.UpdatableFields)
		if len(filtered) > 0 {
			if _, err := s.store.UpdateFields(txCtx, s.cfg, reference, filtered); err != nil {
				return fmt.Errorf("failed to update %s request %s: %w", s.cfg.Type, reference, err)
			}
			fieldsChanged = true
		}

		if s.cfg.HasDetails && details != nil {
			if err := s.engine.ReplaceDetails(txCtx, s.cfg, rec.Base().ID, details); err != nil {
				return err
			}
			fieldsChanged = true
		}

		result = lifecycle.ResultUpdated
		return nil
	})
	if err != nil {
		return lifecycle.ResultNotFound, err
	}

	if result == lifecycle.ResultUpdated && fieldsChanged {
		s.engine.Emit(lifecycle.Event{
			Action:      model.ActionUpdateRequest,
			RequestType: s.cfg.Type,
			Reference:   reference,
			Actor:       actor,
			Details:     fmt.Sprintf("%s request %s updated", s.cfg.Type, reference),
		})
	}
	return result, nil
}

func (s *requestService[T, PT]) SetArchived(ctx context.Context, reference string, archived bool, actor string) (lifecycle.Result, error) {
	return s.engine.SetArchived(ctx, s.cfg, reference, archived, actor)
}

func (s *requestService[T, PT]) SetGate(ctx context.Context, reference string, gate model.Gate, value model.GateValue, actor string) (lifecycle.Result, error) {
	return s.engine.SetGate(ctx, s.cfg, reference, gate, value, actor)
}

func filterFields(fields map[string]any, allowed []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, key := range allowed {
		if v, ok := fields[key]; ok {
			out[key] = v
		}
	}
	return out
}
