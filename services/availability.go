package services

import (
	"errors"
	"time"

	"vermietung-backend/models"
)

// Availability answers whether a unit is free over a half-open interval.
// Overlap test: existing.check_in < end AND existing.check_out > start.
type Availability struct {
	store Store
}

func NewAvailability(store Store) *Availability {
	return &Availability{store: store}
}

// Available reports whether unitID is free over [start, end). Bookings with
// an active status count as occupying; excludeBookingID (when non-zero) is
// left out so a booking can be re-validated against everyone but itself.
// A failed query propagates as a RemoteFailure, never as "available".
func (a *Availability) Available(unitID uint, start, end time.Time, excludeBookingID uint) (bool, error) {
	if err := validateInterval(start, end); err != nil {
		return false, err
	}
	conflicts, err := a.store.ActiveBookingsOverlapping(unitID, start, end, excludeBookingID)
	if err != nil {
		return false, &RemoteFailure{Op: "availability query", Err: err}
	}
	return len(conflicts) == 0, nil
}

// FirstConflict returns a ConflictError naming the first booking in the way,
// or nil when the interval is free.
func (a *Availability) FirstConflict(unitID uint, start, end time.Time, excludeBookingID uint) error {
	if err := validateInterval(start, end); err != nil {
		return err
	}
	conflicts, err := a.store.ActiveBookingsOverlapping(unitID, start, end, excludeBookingID)
	if err != nil {
		return &RemoteFailure{Op: "availability query", Err: err}
	}
	if len(conflicts) == 0 {
		return nil
	}
	return &ConflictError{
		UnitID:         unitID,
		Start:          start,
		End:            end,
		OtherBookingID: conflicts[0].ID,
	}
}

// ReleaseExpiredHold flips a lapsed temporary hold back to available.
// Called on read paths so stale holds do not block new bookings.
func (a *Availability) ReleaseExpiredHold(unit *models.Unit, now time.Time) error {
	if !unit.HoldExpired(now) {
		return nil
	}
	unit.Status = models.UnitAvailable
	unit.HoldUntil = nil
	if err := a.store.SetUnitStatus(unit.ID, models.UnitAvailable, nil); err != nil {
		return &RemoteFailure{Op: "release unit hold", Err: err}
	}
	return nil
}

func validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return &ValidationError{Field: "interval", Reason: "start and end are required"}
	}
	if !start.Before(end) {
		return &ValidationError{Field: "interval", Reason: "check_in must be before check_out"}
	}
	return nil
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
