package models

import "time"

type UnitStatus string

const (
	UnitAvailable   UnitStatus = "available"
	UnitOccupied    UnitStatus = "occupied"
	UnitCleaning    UnitStatus = "cleaning"
	UnitMaintenance UnitStatus = "maintenance"
	UnitReserved    UnitStatus = "reserved" // temporary hold, not backed by a booking
)

// ManualUnitStatuses are the statuses an operator may set directly.
// "occupied" is derived from an active booking covering now and is never set by hand.
var ManualUnitStatuses = map[UnitStatus]bool{
	UnitAvailable:   true,
	UnitCleaning:    true,
	UnitMaintenance: true,
	UnitReserved:    true,
}

type Unit struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Number    string     `json:"number" gorm:"not null;unique"`
	Status    UnitStatus `json:"status" gorm:"type:VARCHAR(20);not null;default:'available'"`
	HoldUntil *time.Time `json:"hold_until,omitempty"` // only meaningful while Status == reserved
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HoldExpired reports whether a temporary hold has lapsed.
func (u *Unit) HoldExpired(now time.Time) bool {
	return u.Status == UnitReserved && u.HoldUntil != nil && !u.HoldUntil.After(now)
}
