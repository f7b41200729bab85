package vmm

import (
	"errors"
	"fmt"
)

// ErrorCode represents the kind of memory-management failure
type ErrorCode int

const (
	// Generic errors
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInternal
	ErrCodeInvalidArgument

	// Region and VMA errors
	ErrCodeInvalidRegionID
	ErrCodeRegionInUse
	ErrCodeInvalidVMAID
	ErrCodeOverlapDetected
	ErrCodeCeilingExceeded
	ErrCodeAllocationTooSmall

	// Paging errors
	ErrCodeFrameExhausted
	ErrCodeSwapExhausted
	ErrCodeInvalidAddress
	ErrCodeOutOfBounds

	// Device errors
	ErrCodeDeviceIO
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "Unknown",
	ErrCodeInternal:           "Internal",
	ErrCodeInvalidArgument:    "InvalidArgument",
	ErrCodeInvalidRegionID:    "InvalidRegionId",
	ErrCodeRegionInUse:        "RegionInUse",
	ErrCodeInvalidVMAID:       "InvalidVmaId",
	ErrCodeOverlapDetected:    "OverlapDetected",
	ErrCodeCeilingExceeded:    "CeilingExceeded",
	ErrCodeAllocationTooSmall: "AllocationTooSmall",
	ErrCodeFrameExhausted:     "FrameExhausted",
	ErrCodeSwapExhausted:      "SwapExhausted",
	ErrCodeInvalidAddress:     "InvalidAddress",
	ErrCodeOutOfBounds:        "OutOfBounds",
	ErrCodeDeviceIO:           "DeviceIO",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// VMError represents a memory-manager error with context
type VMError struct {
	Code    ErrorCode
	Message string
	Op      string // Operation that failed
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *VMError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *VMError) Unwrap() error {
	return e.Err
}

// Is matches any *VMError with the same code
func (e *VMError) Is(target error) bool {
	if t, ok := target.(*VMError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewVMError creates a new memory-manager error
func NewVMError(code ErrorCode, op, message string, err error) *VMError {
	return &VMError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Sentinels usable with errors.Is
var (
	ErrInvalidArgument    = &VMError{Code: ErrCodeInvalidArgument, Message: "invalid argument"}
	ErrInvalidRegionID    = &VMError{Code: ErrCodeInvalidRegionID, Message: "invalid region id"}
	ErrRegionInUse        = &VMError{Code: ErrCodeRegionInUse, Message: "region in use"}
	ErrInvalidVMAID       = &VMError{Code: ErrCodeInvalidVMAID, Message: "invalid vma id"}
	ErrOverlapDetected    = &VMError{Code: ErrCodeOverlapDetected, Message: "overlap detected"}
	ErrCeilingExceeded    = &VMError{Code: ErrCodeCeilingExceeded, Message: "ceiling exceeded"}
	ErrAllocationTooSmall = &VMError{Code: ErrCodeAllocationTooSmall, Message: "allocation too small"}
	ErrFrameExhausted     = &VMError{Code: ErrCodeFrameExhausted, Message: "frame exhausted"}
	ErrSwapExhausted      = &VMError{Code: ErrCodeSwapExhausted, Message: "swap exhausted"}
	ErrInvalidAddress     = &VMError{Code: ErrCodeInvalidAddress, Message: "invalid address"}
	ErrOutOfBounds        = &VMError{Code: ErrCodeOutOfBounds, Message: "out of bounds"}
)

// Helper functions for common errors

func errInvalidArgument(op, message string) *VMError {
	return NewVMError(ErrCodeInvalidArgument, op, message, nil)
}

func errInvalidRegionID(op string, rgid int) *VMError {
	return NewVMError(
		ErrCodeInvalidRegionID,
		op,
		fmt.Sprintf("region %d is out of range or not allocated", rgid),
		nil,
	)
}

func errRegionInUse(op string, rgid int) *VMError {
	return NewVMError(
		ErrCodeRegionInUse,
		op,
		fmt.Sprintf("region %d is already allocated", rgid),
		nil,
	)
}

func errInvalidVMAID(op string, vmaID int) *VMError {
	return NewVMError(
		ErrCodeInvalidVMAID,
		op,
		fmt.Sprintf("vma %d not found", vmaID),
		nil,
	)
}

func errOverlap(op string, vmaID, sibling int) *VMError {
	return NewVMError(
		ErrCodeOverlapDetected,
		op,
		fmt.Sprintf("vma %d would overlap vma %d", vmaID, sibling),
		nil,
	)
}

func errCeiling(op string, end, ceiling uint32) *VMError {
	return NewVMError(
		ErrCodeCeilingExceeded,
		op,
		fmt.Sprintf("end %d exceeds virtual memory size %d", end, ceiling),
		nil,
	)
}

func errFrameExhausted(op string) *VMError {
	return NewVMError(
		ErrCodeFrameExhausted,
		op,
		"no free RAM frame and no evictable page",
		nil,
	)
}

func errSwapExhausted(op string, swpType uint32) *VMError {
	return NewVMError(
		ErrCodeSwapExhausted,
		op,
		fmt.Sprintf("no free slot on swap device %d", swpType),
		nil,
	)
}

func errInvalidAddress(op string, addr uint32) *VMError {
	return NewVMError(
		ErrCodeInvalidAddress,
		op,
		fmt.Sprintf("address %d is not mapped by any vma", addr),
		nil,
	)
}

func errOutOfBounds(op string, rgid int, offset, size uint32) *VMError {
	return NewVMError(
		ErrCodeOutOfBounds,
		op,
		fmt.Sprintf("offset %d outside region %d of size %d", offset, rgid, size),
		nil,
	)
}

func errReclaimed(op string) *VMError {
	return NewVMError(
		ErrCodeInvalidArgument,
		op,
		"address space has been reclaimed",
		nil,
	)
}

func errInternal(op, message string) *VMError {
	return NewVMError(ErrCodeInternal, op, message, nil)
}

func errDevice(op string, err error) *VMError {
	return NewVMError(
		ErrCodeDeviceIO,
		op,
		"device operation failed",
		err,
	)
}

// IsErrorCode checks if err (or anything it wraps) carries code
func IsErrorCode(err error, code ErrorCode) bool {
	var ve *VMError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrCodeUnknown
func GetErrorCode(err error) ErrorCode {
	var ve *VMError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ErrCodeUnknown
}
