package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"servicelink/internal/lifecycle"
	"servicelink/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// passthroughTx runs the unit of work without a database.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// memStore backs the lifecycle engine during service tests.
type memStore struct {
	latest  uint
	records map[string]*model.RequestBase
	updates []map[string]any
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*model.RequestBase{}}
}

func (s *memStore) add(ref string) *model.RequestBase {
	base := &model.RequestBase{
		ReferenceNumber:            ref,
		Status:                     model.StatusPending,
		ImmediateHeadApproval:      string(model.GatePending),
		GSODirectorApproval:        string(model.GatePending),
		OperationsDirectorApproval: string(model.GatePending),
	}
	s.records[ref] = base
	return base
}

func (s *memStore) LatestID(ctx context.Context, cfg model.TypeConfig) (uint, error) {
	return s.latest, nil
}

func (s *memStore) FindBase(ctx context.Context, cfg model.TypeConfig, reference string) (*model.RequestBase, bool, error) {
	base, ok := s.records[reference]
	if !ok {
		return nil, false, nil
	}
	snapshot := *base
	return &snapshot, true, nil
}

func (s *memStore) UpdateFields(ctx context.Context, cfg model.TypeConfig, reference string, fields map[string]any) (int64, error) {
	if _, ok := s.records[reference]; !ok {
		return 0, nil
	}
	base := s.records[reference]
	for column, value := range fields {
		switch column {
		case "status":
			base.Status = value.(string)
		case "archived":
			base.Archived = value.(bool)
		case "immediate_head_approval":
			base.ImmediateHeadApproval = value.(string)
		case "gso_director_approval":
			base.GSODirectorApproval = value.(string)
		case "operations_director_approval":
			base.OperationsDirectorApproval = value.(string)
		}
	}
	s.updates = append(s.updates, fields)
	return 1, nil
}

// memDetails counts detail writes without persisting them.
type memDetails struct {
	existing []uint
	deleted  []uint
	updated  int
	inserted int
}

func (d *memDetails) IDsByOwner(ctx context.Context, cfg model.TypeConfig, ownerID uint) ([]uint, error) {
	return d.existing, nil
}

func (d *memDetails) DeleteByOwner(ctx context.Context, cfg model.TypeConfig, ownerID uint, ids []uint) error {
	d.deleted = append(d.deleted, ids...)
	return nil
}

func (d *memDetails) Update(ctx context.Context, cfg model.TypeConfig, ownerID uint, detail model.RequestDetail) error {
	d.updated++
	return nil
}

func (d *memDetails) Insert(ctx context.Context, cfg model.TypeConfig, ownerID uint, detail *model.RequestDetail) error {
	d.inserted++
	return nil
}

// memJobRepo is an in-memory RequestRepo over job requests.
type memJobRepo struct {
	records   map[string]*model.JobRequest
	createErr error
	created   []*model.JobRequest
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{records: map[string]*model.JobRequest{}}
}

func (r *memJobRepo) Create(ctx context.Context, rec *model.JobRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, rec)
	r.records[rec.ReferenceNumber] = rec
	return nil
}

func (r *memJobRepo) FindByReference(ctx context.Context, reference string) (*model.JobRequest, error) {
	rec, ok := r.records[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (r *memJobRepo) ListActive(ctx context.Context) ([]model.JobRequest, error) {
	var out []model.JobRequest
	for _, rec := range r.records {
		if !rec.Archived {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memJobRepo) ListByStatus(ctx context.Context, status string) ([]model.JobRequest, error) {
	var out []model.JobRequest
	for _, rec := range r.records {
		if rec.Status == status && !rec.Archived {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// The single generic implementation must instantiate, and satisfy the
// pointer-typed service interface, for every request model.
var (
	_ = NewRequestService[model.JobRequest, *model.JobRequest]
	_ = NewRequestService[model.PurchasingRequest, *model.PurchasingRequest]
	_ = NewRequestService[model.VenueRequest, *model.VenueRequest]
	_ = NewRequestService[model.VehicleRequest, *model.VehicleRequest]
)

type serviceFixture struct {
	svc     RequestService[model.JobRequest]
	repo    *memJobRepo
	store   *memStore
	details *memDetails
	events  []lifecycle.Event
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:    newMemJobRepo(),
		store:   newMemStore(),
		details: &memDetails{},
	}
	engine := lifecycle.NewEngine(f.store, f.details, lifecycle.DispatcherFunc(func(ev lifecycle.Event) {
		f.events = append(f.events, ev)
	}))
	cfg, ok := model.ConfigFor(model.TypeJob)
	require.True(t, ok)
	f.svc = NewRequestService[model.JobRequest](cfg, f.repo, f.store, engine, passthroughTx{})
	return f
}

func TestCreateAllocatesReferenceAndResetsGates(t *testing.T) {
	f := newServiceFixture(t)
	f.store.latest = 4

	rec := &model.JobRequest{
		Department: "Registrar",
		Purpose:    "Replace broken door hinge",
		Details:    []model.RequestDetail{{Particulars: "Hinges", Quantity: 2}},
	}
	// Client-supplied lifecycle state must be discarded on create.
	rec.ID = 99
	rec.Status = ""
	rec.ImmediateHeadApproval = string(model.GateApproved)
	rec.Details[0].ID = 42

	created, err := f.svc.Create(context.Background(), rec, "")
	require.NoError(t, err)

	want := fmt.Sprintf("JR-%d-00005", time.Now().Year())
	assert.Equal(t, want, created.ReferenceNumber)
	assert.Equal(t, uint(0), created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, string(model.GatePending), created.ImmediateHeadApproval)
	assert.Equal(t, string(model.GatePending), created.GSODirectorApproval)
	assert.Equal(t, string(model.GatePending), created.OperationsDirectorApproval)
	assert.Equal(t, uint(0), created.Details[0].ID)

	require.Len(t, f.repo.created, 1)
	require.Len(t, f.events, 1)
	assert.Equal(t, model.ActionCreateRequest, f.events[0].Action)
	assert.Equal(t, model.TypeJob, f.events[0].RequestType)
	assert.Equal(t, want, f.events[0].Reference)
}

func TestCreateSurfacesRepositoryError(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.createErr = fmt.Errorf("db down")

	_, err := f.svc.Create(context.Background(), &model.JobRequest{Department: "GSO"}, "")
	require.Error(t, err)
	assert.Empty(t, f.events, "no event for a failed create")
}

func TestGetReturnsTypedRecord(t *testing.T) {
	f := newServiceFixture(t)
	rec := &model.JobRequest{Department: "GSO", Purpose: "Repaint hallway"}
	rec.ReferenceNumber = "JR-2026-00010"
	f.repo.records[rec.ReferenceNumber] = rec

	got, err := f.svc.Get(context.Background(), rec.ReferenceNumber)
	require.NoError(t, err)
	assert.Same(t, rec, got)

	_, err = f.svc.Get(context.Background(), "JR-2026-00404")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateRejectsNonStringStatus(t *testing.T) {
	f := newServiceFixture(t)
	rec := &model.JobRequest{Department: "GSO"}
	rec.ReferenceNumber = "JR-2026-00005"
	f.repo.records[rec.ReferenceNumber] = rec
	f.store.add(rec.ReferenceNumber)

	_, err := f.svc.Update(context.Background(), rec.ReferenceNumber, map[string]any{"status": 42}, nil, "")
	require.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, f.store.updates, "nothing written for a rejected status")
	assert.Empty(t, f.events)
}

func TestUpdateWhitelistsFieldsAndRoutesStatus(t *testing.T) {
	f := newServiceFixture(t)
	rec := &model.JobRequest{Department: "GSO"}
	rec.ReferenceNumber = "JR-2026-00001"
	f.repo.records[rec.ReferenceNumber] = rec
	f.store.add(rec.ReferenceNumber)

	fields := map[string]any{
		"purpose":          "Updated purpose",
		"status":           "Ongoing",
		"reference_number": "JR-2026-99999", // not updatable, must be dropped
		"archived":         true,            // not updatable either
	}
	result, err := f.svc.Update(context.Background(), rec.ReferenceNumber, fields, nil, "")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ResultUpdated, result)

	// One write from the status transition, one from the whitelisted fields.
	require.Len(t, f.store.updates, 2)
	assert.Equal(t, map[string]any{"status": "Ongoing"}, f.store.updates[0])
	assert.Equal(t, map[string]any{"purpose": "Updated purpose"}, f.store.updates[1])

	var actions []string
	for _, ev := range f.events {
		actions = append(actions, ev.Action)
	}
	assert.Equal(t, []string{model.ActionUpdateStatus, model.ActionUpdateRequest}, actions)
}

func TestUpdateReplacesDetails(t *testing.T) {
	f := newServiceFixture(t)
	rec := &model.JobRequest{Department: "GSO"}
	rec.ID = 7
	rec.ReferenceNumber = "JR-2026-00002"
	f.repo.records[rec.ReferenceNumber] = rec
	f.store.add(rec.ReferenceNumber)
	f.details.existing = []uint{10, 11}

	details := []model.RequestDetail{
		{ID: 10, Particulars: "Paint"}, // kept
		{Particulars: "Brushes"},       // new
	}
	result, err := f.svc.Update(context.Background(), rec.ReferenceNumber, map[string]any{}, details, "")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ResultUpdated, result)

	assert.Equal(t, []uint{11}, f.details.deleted)
	assert.Equal(t, 1, f.details.updated)
	assert.Equal(t, 1, f.details.inserted)
}

func TestUpdateUnknownReference(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.svc.Update(context.Background(), "JR-2026-00404", map[string]any{"purpose": "x"}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ResultNotFound, result)
	assert.Empty(t, f.store.updates)
	assert.Empty(t, f.events)
}

func TestSetGateAndArchiveDelegateToEngine(t *testing.T) {
	f := newServiceFixture(t)
	f.store.add("JR-2026-00003")

	result, err := f.svc.SetGate(context.Background(), "JR-2026-00003", model.GateGSODirector, model.GateApproved, "")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ResultUpdated, result)

	result, err = f.svc.SetArchived(context.Background(), "JR-2026-00003", true, "")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ResultUpdated, result)

	result, err = f.svc.SetArchived(context.Background(), "JR-2026-00003", true, "")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ResultNoOp, result)
}
