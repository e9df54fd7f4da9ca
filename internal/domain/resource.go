package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// ResourceKind tags what a resource reference points to.
type ResourceKind string

const (
	KindRoom      ResourceKind = "room"
	KindEquipment ResourceKind = "equipment"
	KindRole      ResourceKind = "role"
	KindWorker    ResourceKind = "worker"
	KindProduct   ResourceKind = "product"
)

// AddonKinds are the kinds offered next to a chosen slot.
var AddonKinds = []ResourceKind{KindEquipment, KindRole, KindProduct}

func (k ResourceKind) IsValid() bool {
	switch k {
	case KindRoom, KindEquipment, KindRole, KindWorker, KindProduct:
		return true
	}
	return false
}

// IsExclusive reports whether at most one non-cancelled hold may cover an instant.
func (k ResourceKind) IsExclusive() bool {
	return k == KindRoom || k == KindEquipment || k == KindWorker
}

// IsPooled reports whether the kind is a role backed by a roster.
func (k ResourceKind) IsPooled() bool {
	return k == KindRole
}

// IsTimed reports whether holds of this kind occupy a time window.
func (k ResourceKind) IsTimed() bool {
	return k != KindProduct
}

// ResourceRef is the tagged reference {kind, id} stored on a hold.
type ResourceRef struct {
	Kind ResourceKind `json:"kind"`
	ID   int64        `json:"id"`
}

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Resource is a bookable entity.
type Resource struct {
	ID         int64           `json:"id"`
	Kind       ResourceKind    `json:"kind"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	FlatPrice  decimal.Decimal `json:"flatPrice"`
	TimeZone   string          `json:"timeZone"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (r *Resource) Ref() ResourceRef {
	return ResourceRef{Kind: r.Kind, ID: r.ID}
}

// Location resolves the resource's IANA time zone; empty means UTC.
func (r *Resource) Location() (*time.Location, error) {
	if r.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("resource %d: unknown time zone %q: %w", r.ID, r.TimeZone, err)
	}
	return loc, nil
}

// Price computes the charge for holding the resource over window,
// quantity times. Products ignore the window.
func (r *Resource) Price(window Interval, quantity int) decimal.Decimal {
	q := decimal.NewFromInt(int64(quantity))
	if !r.Kind.IsTimed() {
		return r.FlatPrice.Mul(q)
	}
	minutes := decimal.NewFromInt(int64(window.Duration() / time.Minute))
	return r.HourlyRate.Mul(minutes).Div(decimal.NewFromInt(60)).Mul(q).Round(2)
}

// ScheduleWindow is one open-hours entry of a weekly schedule.
type ScheduleWindow struct {
	Weekday   time.Weekday     `json:"weekday"`
	OpenTime  types.TimeString `json:"openTime"`
	CloseTime types.TimeString `json:"closeTime"`
}

// WeeklySchedule is the recurring open hours of a resource.
type WeeklySchedule []ScheduleWindow
