package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"servicelink/internal/lifecycle"
	"servicelink/internal/middleware"
	"servicelink/internal/model"
	"servicelink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubService records calls and returns canned results.
type stubService[T any] struct {
	records map[string]*T
	list    []T

	createErr     error
	updateErr     error
	updateResult  lifecycle.Result
	archiveResult lifecycle.Result
	gateResult    lifecycle.Result

	lastActor    string
	lastFields   map[string]any
	lastDetails  []model.RequestDetail
	lastGate     model.Gate
	lastValue    model.GateValue
	lastArchived bool
}

func newStubService[T any]() *stubService[T] {
	return &stubService[T]{records: map[string]*T{}}
}

func (s *stubService[T]) Create(ctx context.Context, rec *T, actor string) (*T, error) {
	s.lastActor = actor
	if s.createErr != nil {
		return nil, s.createErr
	}
	return rec, nil
}

func (s *stubService[T]) Get(ctx context.Context, reference string) (*T, error) {
	rec, ok := s.records[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (s *stubService[T]) ListActive(ctx context.Context) ([]T, error) {
	return s.list, nil
}

func (s *stubService[T]) ListByStatus(ctx context.Context, status string) ([]T, error) {
	return s.list, nil
}

func (s *stubService[T]) Update(ctx context.Context, reference string, fields map[string]any, details []model.RequestDetail, actor string) (lifecycle.Result, error) {
	s.lastActor = actor
	s.lastFields = fields
	s.lastDetails = details
	return s.updateResult, s.updateErr
}

func (s *stubService[T]) SetArchived(ctx context.Context, reference string, archived bool, actor string) (lifecycle.Result, error) {
	s.lastArchived = archived
	return s.archiveResult, nil
}

func (s *stubService[T]) SetGate(ctx context.Context, reference string, gate model.Gate, value model.GateValue, actor string) (lifecycle.Result, error) {
	s.lastActor = actor
	s.lastGate = gate
	s.lastValue = value
	return s.gateResult, nil
}

var _ service.RequestService[model.JobRequest] = (*stubService[model.JobRequest])(nil)

func signToken(t *testing.T, sub, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(middleware.GetJWTSecret())
	require.NoError(t, err)
	return signed
}

func jobRouter(t *testing.T) (*gin.Engine, *stubService[model.JobRequest]) {
	t.Helper()
	cfg, ok := model.ConfigFor(model.TypeJob)
	require.True(t, ok)
	svc := newStubService[model.JobRequest]()
	r := gin.New()
	NewRequestHandler[model.JobRequest](cfg, svc).RegisterRoutes(r.Group(""))
	return r, svc
}

func doRequest(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRequiresToken(t *testing.T) {
	r, _ := jobRouter(t)
	w := doRequest(r, http.MethodPost, "/api/job", "", `{"department":"GSO"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateReturnsCreatedRecord(t *testing.T) {
	r, svc := jobRouter(t)
	token := signToken(t, "11111111-1111-1111-1111-111111111111", model.RoleStaff)

	w := doRequest(r, http.MethodPost, "/api/job", token, `{"department":"Registrar","purpose":"Fix ceiling"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", svc.lastActor)
	assert.Contains(t, w.Body.String(), "Registrar")
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	r, _ := jobRouter(t)
	token := signToken(t, "u1", model.RoleStaff)

	w := doRequest(r, http.MethodPost, "/api/job", token, `{"department":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEmptyIsNotFound(t *testing.T) {
	r, svc := jobRouter(t)
	token := signToken(t, "u1", model.RoleStaff)

	w := doRequest(r, http.MethodGet, "/api/job", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.list = []model.JobRequest{{Department: "GSO"}}
	w = doRequest(r, http.MethodGet, "/api/job", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListByStatusEmptyIsNotFound(t *testing.T) {
	r, _ := jobRouter(t)
	token := signToken(t, "u1", model.RoleStaff)

	w := doRequest(r, http.MethodGet, "/api/job/status/Completed", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUnknownReference(t *testing.T) {
	r, svc := jobRouter(t)
	token := signToken(t, "u1", model.RoleStaff)

	w := doRequest(r, http.MethodGet, "/api/job/JR-2026-00404", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	rec := &model.JobRequest{Department: "GSO"}
	rec.ReferenceNumber = "JR-2026-00001"
	svc.records["JR-2026-00001"] = rec
	w = doRequest(r, http.MethodGet, "/api/job/JR-2026-00001", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateSplitsFieldsAndDetails(t *testing.T) {
	r, svc := jobRouter(t)
	token := signToken(t, "u1", model.RoleStaff)

	body := `{"purpose":"New purpose","details":[{"particulars":"Paint","quantity":3}]}`
	w := doRequest(r, http.MethodPut, "/api/job/JR-2026-00001", token, body)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, map[string]any{"purpose": "New purpose"}, svc.lastFields)
	require.Len(t, svc.lastDetails, 1)
	assert.Equal(t, "Paint", svc.lastDetails[0].Particulars)
	assert.Equal(t, 3, svc.lastDetails[0].Quantity)
}

func TestUpdateInvalidStatusIsBadRequest(t *testing.T) {
	r, svc := jobRouter(t)
	svc.updateErr = service.ErrInvalidStatus
	token := signToken(t, "u1", model.RoleStaff)

	w := doRequest(r, http.MethodPut, "/api/job/JR-2026-00001", token, `{"status":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUnknownReferenceIsNotFound(t *testing.T) {
	r, svc := jobRouter(t)
	svc.updateResult = lifecycle.ResultNotFound
	token := signToken(t, "u1", model.RoleStaff)

	w := doRequest(r, http.MethodPut, "/api/job/JR-2026-00404", token, `{"purpose":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArchiveRoute(t *testing.T) {
	r, svc := jobRouter(t)
	token := signToken(t, "u1", model.RoleStaff)

	w := doRequest(r, http.MethodDelete, "/api/job/JR-2026-00001/archive/1", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.lastArchived)

	w = doRequest(r, http.MethodDelete, "/api/job/JR-2026-00001/archive/0", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.lastArchived)

	w = doRequest(r, http.MethodDelete, "/api/job/JR-2026-00001/archive/maybe", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVehicleHasNoArchiveRoute(t *testing.T) {
	cfg, ok := model.ConfigFor(model.TypeVehicle)
	require.True(t, ok)
	r := gin.New()
	NewRequestHandler[model.VehicleRequest](cfg, newStubService[model.VehicleRequest]()).RegisterRoutes(r.Group(""))
	token := signToken(t, "u1", model.RoleStaff)

	w := doRequest(r, http.MethodDelete, "/api/vehicle/SV-2026-00001/archive/1", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGateRouteBindsRoleAndCanonicalizesValue(t *testing.T) {
	r, svc := jobRouter(t)
	director := signToken(t, "u2", model.RoleGSODirector)

	w := doRequest(r, http.MethodPatch, "/api/job/JR-2026-00001/gso_director_approval/approved", director, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.GateGSODirector, svc.lastGate)
	assert.Equal(t, model.GateApproved, svc.lastValue)

	// "denied" is the historical spelling of a rejection.
	w = doRequest(r, http.MethodPatch, "/api/job/JR-2026-00001/gso_director_approval/denied", director, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.GateRejected, svc.lastValue)

	w = doRequest(r, http.MethodPatch, "/api/job/JR-2026-00001/gso_director_approval/perhaps", director, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	staff := signToken(t, "u1", model.RoleStaff)
	w = doRequest(r, http.MethodPatch, "/api/job/JR-2026-00001/gso_director_approval/approved", staff, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := signToken(t, "u3", model.RoleAdmin)
	w = doRequest(r, http.MethodPatch, "/api/job/JR-2026-00001/operations_director_approval/rejected", admin, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.GateOperationsDirector, svc.lastGate)
}

func TestGateRepeatIsOkNotError(t *testing.T) {
	r, svc := jobRouter(t)
	svc.gateResult = lifecycle.ResultNoOp
	director := signToken(t, "u2", model.RoleImmediateHead)

	w := doRequest(r, http.MethodPatch, "/api/job/JR-2026-00001/immediate_head_approval/approved", director, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already")
}
