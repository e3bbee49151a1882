// Package gudaprim structured error types for better error handling
package gudaprim

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Memory errors
	ErrTypeMemory ErrorType = iota
	// Invalid argument errors
	ErrTypeInvalidArg
	// Execution errors
	ErrTypeExecution
	// Device errors
	ErrTypeDevice
	// Timer misuse
	ErrTypeTimer
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gudaprim %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("gudaprim %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a predefined error of the same type, op and
// message. This lets errors.Is match sentinels that were re-created with a
// different cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Op == t.Op && e.Message == t.Message
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeDevice:
		return "Device"
	case ErrTypeTimer:
		return "Timer"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeMemory,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &Error{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewDeviceError creates a device error
func NewDeviceError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeDevice,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewTimerError creates a timer usage error
func NewTimerError(op string, message string) error {
	return &Error{
		Type:    ErrTypeTimer,
		Op:      op,
		Message: message,
	}
}

// Common pre-defined errors

var (
	// ErrOutOfMemory indicates memory allocation failure
	ErrOutOfMemory = NewMemoryError("Malloc", "out of memory", nil)

	// ErrInvalidSize indicates invalid size parameter
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be positive")

	// ErrDoubleFree indicates double free attempt
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrUnknownPointer indicates a pointer that was not allocated by the pool
	ErrUnknownPointer = NewMemoryError("Free", "pointer not found in allocation pool", nil)

	// ErrContextDestroyed indicates use of a context after Destroy
	ErrContextDestroyed = NewDeviceError("Context", "context has been destroyed", nil)

	// ErrStreamDestroyed indicates work submitted to a destroyed stream
	ErrStreamDestroyed = NewExecutionError("Stream", "stream has been destroyed", nil)

	// ErrKernelFailed indicates a kernel thread failed during a launch
	ErrKernelFailed = NewExecutionError("Kernel", "kernel execution failed", nil)

	// ErrEventNotRecorded indicates an event queried before it completed
	ErrEventNotRecorded = NewExecutionError("Event", "event has not been recorded", nil)

	// ErrTimerRunning indicates Start on a timer that is already running
	ErrTimerRunning = NewTimerError("Start", "timer is already running")

	// ErrTimerNotRunning indicates Stop on a timer that was never started
	ErrTimerNotRunning = NewTimerError("Stop", "timer is not running")

	// ErrNoMeasurement indicates Elapsed outside a completed interval
	ErrNoMeasurement = NewTimerError("Elapsed", "no completed interval")
)

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool {
	return isType(err, ErrTypeMemory)
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	return isType(err, ErrTypeInvalidArg)
}

// IsExecutionError checks if an error is a kernel or stream execution error
func IsExecutionError(err error) bool {
	return isType(err, ErrTypeExecution)
}

// IsDeviceError checks if an error is a device error
func IsDeviceError(err error) bool {
	return isType(err, ErrTypeDevice)
}

// IsTimerError checks if an error is a timer misuse error
func IsTimerError(err error) bool {
	return isType(err, ErrTypeTimer)
}
