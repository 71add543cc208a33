// Package lifecycle implements the request lifecycle engine shared by the
// four request types: reference number allocation, approval gate transitions,
// status/archive transitions and detail list replacement. It is pure logic
// over a Store collaborator — persistence and HTTP concerns live elsewhere.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"servicelink/internal/model"
)

// Result classifies the outcome of a single-field transition.
type Result int

const (
	// ResultUpdated means the field changed and an event was dispatched.
	ResultUpdated Result = iota
	// ResultNoOp means the record exists but already held the requested
	// value. No event is dispatched.
	ResultNoOp
	// ResultNotFound means no record matches the reference number.
	ResultNotFound
)

func (r Result) String() string {
	switch r {
	case ResultUpdated:
		return "updated"
	case ResultNoOp:
		return "no-op"
	default:
		return "not found"
	}
}

// Store is the durable request collection the engine drives. Implementations
// are keyed by TypeConfig.Table; every method respects an in-flight
// transaction carried on the context.
type Store interface {
	// LatestID returns the highest primary key of the type's table, 0 when
	// empty. Implementations must serialize concurrent callers for the
	// duration of the surrounding transaction so two creates can never read
	// the same value.
	LatestID(ctx context.Context, cfg model.TypeConfig) (uint, error)
	// FindBase loads the shared lifecycle fields of one record.
	FindBase(ctx context.Context, cfg model.TypeConfig, reference string) (*model.RequestBase, bool, error)
	// UpdateFields writes the given columns on the record matching the
	// reference number and reports how many rows matched.
	UpdateFields(ctx context.Context, cfg model.TypeConfig, reference string, fields map[string]any) (int64, error)
}

// DetailStore persists the particulars line items of detail-bearing types.
type DetailStore interface {
	IDsByOwner(ctx context.Context, cfg model.TypeConfig, ownerID uint) ([]uint, error)
	DeleteByOwner(ctx context.Context, cfg model.TypeConfig, ownerID uint, ids []uint) error
	Update(ctx context.Context, cfg model.TypeConfig, ownerID uint, detail model.RequestDetail) error
	Insert(ctx context.Context, cfg model.TypeConfig, ownerID uint, detail *model.RequestDetail) error
}

// Engine owns the transition rules for every request record. One instance
// serves all four request types; per-type behavior comes from the TypeConfig
// passed to each call.
type Engine struct {
	store      Store
	details    DetailStore
	dispatcher Dispatcher
	now        func() time.Time
}

func NewEngine(store Store, details DetailStore, dispatcher Dispatcher) *Engine {
	return &Engine{
		store:      store,
		details:    details,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// AllocateReference computes the next reference number for a request type:
// highest primary key plus one, zero-padded to five digits, prefixed with the
// type tag and current year. The caller must invoke it inside the same
// transaction as the create so the store's serialization covers both steps.
// The sequence is globally monotonic per type; the year is display text and
// does not reset the numbering.
func (e *Engine) AllocateReference(ctx context.Context, cfg model.TypeConfig) (string, error) {
	latest, err := e.store.LatestID(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to read latest %s id: %w", cfg.Type, err)
	}
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, e.now().Year(), latest+1), nil
}

// SetGate transitions exactly one approval gate. The other two gates and the
// lifecycle status are never touched; no ordering between gates is enforced.
func (e *Engine) SetGate(ctx context.Context, cfg model.TypeConfig, reference string, gate model.Gate, value model.GateValue, actor string) (Result, error) {
	base, found, err := e.store.FindBase(ctx, cfg, reference)
	if err != nil {
		return ResultNotFound, fmt.Errorf("failed to load %s request %s: %w", cfg.Type, reference, err)
	}
	if !found {
		return ResultNotFound, nil
	}
	if base.GateField(gate) == string(value) {
		return ResultNoOp, nil
	}

	rows, err := e.store.UpdateFields(ctx, cfg, reference, map[string]any{gate.Column(): string(value)})
	if err != nil {
		return ResultNotFound, fmt.Errorf("failed to update %s on %s: %w", gate.Column(), reference, err)
	}
	if rows == 0 {
		return ResultNotFound, nil
	}

	e.emit(Event{
		Action:      model.ActionUpdateApproval,
		RequestType: cfg.Type,
		Reference:   reference,
		Gate:        gate,
		Value:       string(value),
		Actor:       actor,
		Recipient:   recipientOf(base),
		Details:     fmt.Sprintf("%s %s by %s", gate, value, gate.Role()),
	})
	return ResultUpdated, nil
}

// SetStatus writes the free-form lifecycle status. Any label is accepted from
// any prior status; the status axis is deliberately not validated against the
// approval gates.
func (e *Engine) SetStatus(ctx context.Context, cfg model.TypeConfig, reference, status, actor string) (Result, error) {
	base, found, err := e.store.FindBase(ctx, cfg, reference)
	if err != nil {
		return ResultNotFound, fmt.Errorf("failed to load %s request %s: %w", cfg.Type, reference, err)
	}
	if !found {
		return ResultNotFound, nil
	}
	if base.Status == status {
		return ResultNoOp, nil
	}

	rows, err := e.store.UpdateFields(ctx, cfg, reference, map[string]any{"status": status})
	if err != nil {
		return ResultNotFound, fmt.Errorf("failed to update status on %s: %w", reference, err)
	}
	if rows == 0 {
		return ResultNotFound, nil
	}

	e.emit(Event{
		Action:      model.ActionUpdateStatus,
		RequestType: cfg.Type,
		Reference:   reference,
		Value:       status,
		Actor:       actor,
		Recipient:   recipientOf(base),
		Details:     fmt.Sprintf("status changed from %s to %s", base.Status, status),
	})
	return ResultUpdated, nil
}

// SetArchived toggles the archive flag. Archiving hides a record from default
// listings without deleting it and is always reversible.
func (e *Engine) SetArchived(ctx context.Context, cfg model.TypeConfig, reference string, archived bool, actor string) (Result, error) {
	base, found, err := e.store.FindBase(ctx, cfg, reference)
	if err != nil {
		return ResultNotFound, fmt.Errorf("failed to load %s request %s: %w", cfg.Type, reference, err)
	}
	if !found {
		return ResultNotFound, nil
	}
	if base.Archived == archived {
		return ResultNoOp, nil
	}

	rows, err := e.store.UpdateFields(ctx, cfg, reference, map[string]any{"archived": archived})
	if err != nil {
		return ResultNotFound, fmt.Errorf("failed to update archive flag on %s: %w", reference, err)
	}
	if rows == 0 {
		return ResultNotFound, nil
	}

	action := model.ActionArchiveRequest
	detail := "request archived"
	if !archived {
		action = model.ActionRestoreRequest
		detail = "request restored from archive"
	}
	e.emit(Event{
		Action:      action,
		RequestType: cfg.Type,
		Reference:   reference,
		Value:       fmt.Sprintf("%t", archived),
		Actor:       actor,
		Recipient:   recipientOf(base),
		Details:     detail,
	})
	return ResultUpdated, nil
}

// ReplaceDetails reconciles the stored detail rows of one record against the
// incoming list: rows whose ids vanished are deleted, rows carrying an id are
// updated in place, rows without an id are inserted. Behavior is identical
// for every detail-bearing type and runs inside the caller's transaction.
func (e *Engine) ReplaceDetails(ctx context.Context, cfg model.TypeConfig, ownerID uint, incoming []model.RequestDetail) error {
	if !cfg.HasDetails {
		return nil
	}

	existing, err := e.details.IDsByOwner(ctx, cfg, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list details for %s %d: %w", cfg.Type, ownerID, err)
	}

	keep := make(map[uint]bool, len(incoming))
	for _, d := range incoming {
		if d.ID != 0 {
			keep[d.ID] = true
		}
	}

	var stale []uint
	for _, id := range existing {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := e.details.DeleteByOwner(ctx, cfg, ownerID, stale); err != nil {
			return fmt.Errorf("failed to delete stale details for %s %d: %w", cfg.Type, ownerID, err)
		}
	}

	for _, d := range incoming {
		if d.ID != 0 {
			if err := e.details.Update(ctx, cfg, ownerID, d); err != nil {
				return fmt.Errorf("failed to update detail %d: %w", d.ID, err)
			}
			continue
		}
		detail := d
		if err := e.details.Insert(ctx, cfg, ownerID, &detail); err != nil {
			return fmt.Errorf("failed to insert detail: %w", err)
		}
	}

	return nil
}

func recipientOf(base *model.RequestBase) string {
	if base.RequestedBy != nil {
		return base.RequestedBy.String()
	}
	return ""
}

// Emit publishes an event on behalf of callers that perform transitions
// outside the engine (create, field updates).
func (e *Engine) Emit(ev Event) { e.emit(ev) }

func (e *Engine) emit(ev Event) {
	if e.dispatcher == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.now()
	}
	e.dispatcher.Dispatch(ev)
}
