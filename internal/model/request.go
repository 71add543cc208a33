package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequestType tags one of the four request families handled by the office.
type RequestType string

const (
	TypeJob        RequestType = "job"
	TypePurchasing RequestType = "purchasing"
	TypeVenue      RequestType = "venue"
	TypeVehicle    RequestType = "vehicle"
)

// Lifecycle status labels. The status column is free text — these are the
// values the office actually uses, not an enforced enum.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusRejected   = "Rejected"
	StatusCanceled   = "Canceled"
)

// RequestBase carries the fields shared by every request type: the immutable
// reference number, the free-form lifecycle status, the three approval gates
// and the archive flag. Status and the gates are independent axes — nothing
// cross-validates them.
type RequestBase struct {
	ID                         uint       `gorm:"primaryKey" json:"id"`
	ReferenceNumber            string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"reference_number"`
	Status                     string     `gorm:"type:varchar(50);not null;default:'Pending'" json:"status"`
	ImmediateHeadApproval      string     `gorm:"type:varchar(20);not null;default:'Pending'" json:"immediate_head_approval"`
	GSODirectorApproval        string     `gorm:"column:gso_director_approval;type:varchar(20);not null;default:'Pending'" json:"gso_director_approval"`
	OperationsDirectorApproval string     `gorm:"type:varchar(20);not null;default:'Pending'" json:"operations_director_approval"`
	Archived                   bool       `gorm:"not null;default:false" json:"archived"`
	Overall                    GateValue  `gorm:"-" json:"overall_approval"`
	RequestedBy                *uuid.UUID `gorm:"type:uuid;index" json:"requested_by"`
	Requester                  *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	CreatedAt                  time.Time  `json:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"`
}

// Base exposes the shared fields to code generic over the four request types.
func (b *RequestBase) Base() *RequestBase { return b }

// Record is satisfied by every request model through the embedded
// RequestBase; generic repositories and services rely on it.
type Record interface {
	Base() *RequestBase
}

// DetailCarrier is implemented by the detail-bearing request types.
type DetailCarrier interface {
	DetailRows() []RequestDetail
	SetDetailRows([]RequestDetail)
}

// AfterFind derives the combined approval view shown alongside the three
// gates. The field is never persisted; it always reflects the stored gates.
func (b *RequestBase) AfterFind(*gorm.DB) error {
	b.refreshOverall()
	return nil
}

// AfterCreate keeps the derived view populated on create responses.
func (b *RequestBase) AfterCreate(*gorm.DB) error {
	b.refreshOverall()
	return nil
}

func (b *RequestBase) refreshOverall() {
	b.Overall = OverallApproval(
		GateValue(b.ImmediateHeadApproval),
		GateValue(b.GSODirectorApproval),
		GateValue(b.OperationsDirectorApproval),
	)
}

// GateField returns the current value of one approval gate.
func (b *RequestBase) GateField(g Gate) string {
	switch g {
	case GateImmediateHead:
		return b.ImmediateHeadApproval
	case GateGSODirector:
		return b.GSODirectorApproval
	default:
		return b.OperationsDirectorApproval
	}
}

// RequestDetail is a particulars line item owned by a job, purchasing or
// venue request. Rows are replaced wholesale on update via an id diff.
type RequestDetail struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OwnerType   string          `gorm:"type:varchar(20);not null;index:idx_request_details_owner" json:"-"`
	OwnerID     uint            `gorm:"not null;index:idx_request_details_owner" json:"-"`
	Particulars string          `gorm:"type:varchar(255);not null" json:"particulars"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	Description string          `gorm:"type:text" json:"description"`
	Remarks     string          `gorm:"type:text" json:"remarks"`
	UnitCost    decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"unit_cost"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (RequestDetail) TableName() string { return "request_details" }

// JobRequest is a repair/maintenance job order.
type JobRequest struct {
	RequestBase
	Department  string          `gorm:"type:varchar(100)" json:"department"`
	Location    string          `gorm:"type:varchar(255)" json:"location"`
	NatureOfJob string          `gorm:"type:varchar(255)" json:"nature_of_job"`
	DateNeeded  *time.Time      `json:"date_needed"`
	Purpose     string          `gorm:"type:text" json:"purpose"`
	Details     []RequestDetail `gorm:"polymorphic:Owner;polymorphicValue:job" json:"details"`
}

func (JobRequest) TableName() string { return "job_requests" }

func (r *JobRequest) DetailRows() []RequestDetail     { return r.Details }
func (r *JobRequest) SetDetailRows(d []RequestDetail) { r.Details = d }

// PurchasingRequest is a procurement request with costed line items.
type PurchasingRequest struct {
	RequestBase
	Department    string          `gorm:"type:varchar(100)" json:"department"`
	Supplier      string          `gorm:"type:varchar(255)" json:"supplier"`
	DateNeeded    *time.Time      `json:"date_needed"`
	Purpose       string          `gorm:"type:text" json:"purpose"`
	EstimatedCost decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"estimated_cost"`
	Details       []RequestDetail `gorm:"polymorphic:Owner;polymorphicValue:purchasing" json:"details"`
}

func (PurchasingRequest) TableName() string { return "purchasing_requests" }

func (r *PurchasingRequest) DetailRows() []RequestDetail     { return r.Details }
func (r *PurchasingRequest) SetDetailRows(d []RequestDetail) { r.Details = d }

// VenueRequest books a venue for an event.
type VenueRequest struct {
	RequestBase
	Department string          `gorm:"type:varchar(100)" json:"department"`
	Venue      string          `gorm:"type:varchar(255)" json:"venue"`
	EventName  string          `gorm:"type:varchar(255)" json:"event_name"`
	StartTime  *time.Time      `json:"start_time"`
	EndTime    *time.Time      `json:"end_time"`
	Purpose    string          `gorm:"type:text" json:"purpose"`
	Details    []RequestDetail `gorm:"polymorphic:Owner;polymorphicValue:venue" json:"details"`
}

func (VenueRequest) TableName() string { return "venue_requests" }

func (r *VenueRequest) DetailRows() []RequestDetail     { return r.Details }
func (r *VenueRequest) SetDetailRows(d []RequestDetail) { r.Details = d }

// VehicleRequest books a service vehicle. Vehicle requests carry no detail
// line items and are never archived.
type VehicleRequest struct {
	RequestBase
	Department    string     `gorm:"type:varchar(100)" json:"department"`
	Vehicle       string     `gorm:"type:varchar(100)" json:"vehicle"`
	Driver        string     `gorm:"type:varchar(100)" json:"driver"`
	Destination   string     `gorm:"type:varchar(255)" json:"destination"`
	DepartureTime *time.Time `json:"departure_time"`
	ReturnTime    *time.Time `json:"return_time"`
	Passengers    int        `gorm:"default:1" json:"passengers"`
	Purpose       string     `gorm:"type:text" json:"purpose"`
}

func (VehicleRequest) TableName() string { return "vehicle_requests" }

// TypeConfig parameterizes the lifecycle engine per request type: reference
// prefix, backing table, whether detail rows apply, whether the archive
// endpoint exists, and the columns a PUT may touch.
type TypeConfig struct {
	Type            RequestType
	Prefix          string
	Table           string
	HasDetails      bool
	Archivable      bool
	UpdatableFields []string
}

var typeConfigs = map[RequestType]TypeConfig{
	TypeJob: {
		Type: TypeJob, Prefix: "JR", Table: "job_requests",
		HasDetails: true, Archivable: true,
		UpdatableFields: []string{"department", "location", "nature_of_job", "date_needed", "purpose", "status"},
	},
	TypePurchasing: {
		Type: TypePurchasing, Prefix: "PR", Table: "purchasing_requests",
		HasDetails: true, Archivable: true,
		UpdatableFields: []string{"department", "supplier", "date_needed", "purpose", "estimated_cost", "status"},
	},
	TypeVenue: {
		Type: TypeVenue, Prefix: "VR", Table: "venue_requests",
		HasDetails: true, Archivable: true,
		UpdatableFields: []string{"department", "venue", "event_name", "start_time", "end_time", "purpose", "status"},
	},
	TypeVehicle: {
		Type: TypeVehicle, Prefix: "SV", Table: "vehicle_requests",
		HasDetails: false, Archivable: false,
		UpdatableFields: []string{"department", "vehicle", "driver", "destination", "departure_time", "return_time", "passengers", "purpose", "status"},
	},
}

// ConfigFor looks up the engine configuration for a request type tag.
func ConfigFor(t RequestType) (TypeConfig, bool) {
	cfg, ok := typeConfigs[t]
	return cfg, ok
}

// Configs returns every registered type configuration.
func Configs() []TypeConfig {
	return []TypeConfig{
		typeConfigs[TypeJob],
		typeConfigs[TypePurchasing],
		typeConfigs[TypeVenue],
		typeConfigs[TypeVehicle],
	}
}
