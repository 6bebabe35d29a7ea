package wifi

import (
	"errors"
	"fmt"
)

var (
	ErrNotSupported     = errors.New("not supported")
	ErrNotFound         = errors.New("not found")
	ErrNotAvailable     = errors.New("not available")
	ErrOperationFailed  = errors.New("operation failed")
	ErrWirelessDisabled = errors.New("wireless is disabled")
	ErrNoWifi           = errors.New("no wireless service available")
	ErrNotConnected     = errors.New("not connected")
)

// Platform status codes that callers and drivers need to tell apart.
const (
	StatusSuccess          uint32 = 0
	StatusAccessDenied     uint32 = 5
	StatusInvalidHandle    uint32 = 6
	StatusNotSupported     uint32 = 50
	StatusInvalidParameter uint32 = 87
	StatusAlreadyExists    uint32 = 183
	StatusServiceNotActive uint32 = 1062
	StatusNotFound         uint32 = 1168
	StatusBadProfile       uint32 = 1206
	StatusInvalidState     uint32 = 0x139F
)

// PlatformError is a non-zero status returned by the wireless service.
type PlatformError struct {
	Op   string
	Code uint32
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s failed with status 0x%x", e.Op, e.Code)
}

// Is maps well known status codes onto the package's sentinel errors.
func (e *PlatformError) Is(target error) bool {
	switch e.Code {
	case StatusInvalidState:
		return target == ErrNotConnected
	case StatusServiceNotActive:
		return target == ErrNoWifi
	case StatusNotFound:
		return target == ErrNotFound
	case StatusNotSupported:
		return target == ErrNotSupported
	case StatusBadProfile:
		return target == ErrOperationFailed
	}
	return false
}
