package models

import (
	"time"

	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingPendingDeposit BookingStatus = "pending_deposit"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingCheckedIn      BookingStatus = "checked_in"
	BookingCheckedOut     BookingStatus = "checked_out"
	BookingCancelled      BookingStatus = "cancelled"
)

type BookingType string

const (
	BookingDaily  BookingType = "daily"
	BookingYearly BookingType = "yearly"
)

// ActiveBookingStatuses are the statuses that occupy a unit's calendar.
// Two bookings in this set may never overlap on the same unit.
var ActiveBookingStatuses = []BookingStatus{
	BookingPendingDeposit, BookingConfirmed, BookingCheckedIn,
}

var validNext = map[BookingStatus]map[BookingStatus]bool{
	BookingPendingDeposit: {BookingConfirmed: true, BookingCancelled: true},
	BookingConfirmed:      {BookingCheckedIn: true, BookingCancelled: true},
	BookingCheckedIn:      {BookingCheckedOut: true, BookingCancelled: true},
	BookingCheckedOut:     {},
	BookingCancelled:      {},
}

// CanTransition reports whether the state machine permits from → to.
func CanTransition(from, to BookingStatus) bool {
	return validNext[from][to]
}

func (s BookingStatus) Active() bool {
	for _, a := range ActiveBookingStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// Booking is a time-boxed reservation of one unit.
// The interval is half-open: check_out is exclusive, so a same-day
// checkout/check-in pair on one unit does not collide.
type Booking struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	CustomerID uint     `json:"-" gorm:"not null;index"`
	Customer   Customer `json:"customer" gorm:"foreignKey:CustomerID;references:Id"`
	UnitID     uint     `json:"-" gorm:"not null;index"`
	Unit       Unit     `json:"unit" gorm:"foreignKey:UnitID;references:ID"`

	CheckIn  time.Time `json:"check_in" gorm:"not null"`
	CheckOut time.Time `json:"check_out" gorm:"not null"`

	Status      BookingStatus `json:"status" gorm:"type:VARCHAR(20);not null;index"`
	BookingType BookingType   `json:"booking_type" gorm:"type:VARCHAR(10);not null;default:'daily'"`

	Subtotal           float64        `json:"subtotal" gorm:"type:numeric(12,2)"`
	DiscountAmount     float64        `json:"discount_amount" gorm:"type:numeric(12,2)"`
	TaxAmount          float64        `json:"tax_amount" gorm:"type:numeric(12,2)"`
	TotalPrice         float64        `json:"total_price" gorm:"type:numeric(12,2)"`
	AdditionalServices datatypes.JSON `json:"additional_services" gorm:"type:jsonb"`

	Invoices []Invoice `json:"invoices,omitempty" gorm:"foreignKey:BookingID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps tests the half-open intervals [b.CheckIn, b.CheckOut) and [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.CheckIn.Before(end) && b.CheckOut.After(start)
}

// Covers reports whether t falls inside [check_in, check_out).
func (b *Booking) Covers(t time.Time) bool {
	return !t.Before(b.CheckIn) && t.Before(b.CheckOut)
}
