package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Store implementations when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ConflictError reports an interval overlap on a unit. It names the concrete
// conflict so the caller can show which booking is in the way.
type ConflictError struct {
	UnitID         uint
	Start, End     time.Time
	OtherBookingID uint
}

func (e *ConflictError) Error() string {
	if e.OtherBookingID != 0 {
		return fmt.Sprintf("unit %d is not free from %s to %s: conflicts with booking %d",
			e.UnitID, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"), e.OtherBookingID)
	}
	return fmt.Sprintf("unit %d is not free from %s to %s",
		e.UnitID, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// ImmutableError reports a date mutation forbidden by the booking's financial state.
type ImmutableError struct {
	BookingID uint
	Reason    string
}

func (e *ImmutableError) Error() string {
	return fmt.Sprintf("booking %d cannot be modified: %s", e.BookingID, e.Reason)
}

// NoOpenPeriodError reports a posting date outside any open accounting period.
type NoOpenPeriodError struct {
	Date time.Time
}

func (e *NoOpenPeriodError) Error() string {
	return fmt.Sprintf("no open accounting period covers %s", e.Date.Format("2006-01-02"))
}

// ValidationError reports a malformed interval or missing field before any
// store round trip happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RemoteFailure wraps a collaborator/store call that failed. A failed
// availability query propagates as one of these, never as "available".
type RemoteFailure struct {
	Op  string
	Err error
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RemoteFailure) Unwrap() error { return e.Err }

// ReversalItemError is one failed item of a batched reversal.
type ReversalItemError struct {
	PaymentID uint
	Err       error
}

func (e *ReversalItemError) Error() string {
	return fmt.Sprintf("payment %d: %v", e.PaymentID, e.Err)
}

// ReversalError collects per-item failures of a cancellation batch. The
// surrounding transaction rolls back, so none of the partial reversals stick.
type ReversalError struct {
	BookingID uint
	Items     []ReversalItemError
}

func (e *ReversalError) Error() string {
	return fmt.Sprintf("reversal of booking %d failed on %d item(s): %v", e.BookingID, len(e.Items), e.Items[0].Err)
}
