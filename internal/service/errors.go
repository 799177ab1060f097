package service

import (
	"errors"
	"fmt"
)

var (
	ErrSlotUnavailable   = errors.New("requested time is not available")
	ErrPastDate          = errors.New("date is in the past")
	ErrDateTooFar        = errors.New("date is too far in the future")
	ErrClosedDay         = errors.New("the salon is closed on this day")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidTransition = errors.New("status change not allowed")
	ErrForbidden         = errors.New("operation not permitted")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
