package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports malformed or unknown input (text, callback, slot label).
	ErrValidation = errors.New("booking: invalid request")
	// ErrForbidden reports a User invoking an admin-only operation.
	ErrForbidden = errors.New("booking: admin only")
	// ErrQuotaExceeded reports that the session already holds its daily maximum.
	ErrQuotaExceeded = errors.New("booking: daily quota exceeded")
	// ErrConflict reports that a slot was committed by someone else between proposal and approval.
	ErrConflict = errors.New("booking: slot already taken")
	// ErrNotBooked reports a start attempt on a slot the session does not own.
	ErrNotBooked = errors.New("booking: slot not booked")
	// ErrNotInUse reports a finish attempt without a started rent.
	ErrNotInUse = errors.New("booking: rent not started")
	// ErrNotOwned reports a finish attempt on a slot other than the started one.
	ErrNotOwned = errors.New("booking: slot not owned")
	// ErrAlreadyInUse reports a second start by the session that already holds the device.
	ErrAlreadyInUse = errors.New("booking: rent already started")
	// ErrResourceBusy reports that another session holds the device.
	ErrResourceBusy = errors.New("booking: device in use")
	// ErrTooEarly reports a start before the slot begins.
	ErrTooEarly = errors.New("booking: slot has not started")
	// ErrExpired reports a start long after the slot window closed.
	ErrExpired = errors.New("booking: slot expired")
	// ErrUnavailable reports a User acting while the service is halted.
	ErrUnavailable = errors.New("booking: service unavailable")
)

// BusyError carries the handle of the session currently holding the device.
type BusyError struct {
	Holder string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("booking: device in use by %s", e.Holder)
}

// Unwrap lets errors.Is match ErrResourceBusy.
func (e *BusyError) Unwrap() error { return ErrResourceBusy }

// Code returns a stable identifier used by handler summaries.
func (e *BusyError) Code() string { return "resource_busy" }
