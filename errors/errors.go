// Package errors provides the error types shared by the guest core and the host.
// All error types support unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrAborted is matched by every *AbortError via errors.Is.
var ErrAborted = stdErrors.New("module aborted")

// AbortError reports that the guest called the abort hook.
// In a native (non-Wasm) build of the guest core the hook panics with this value.
type AbortError struct {
	Code int32
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("module aborted with code %d", e.Code)
}

// Is implements errors.Is against ErrAborted.
func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

// MemoryAccessError reports a read or write outside linear memory.
type MemoryAccessError struct {
	Op     string // "read" or "write"
	Offset uint32
	Length uint32
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("memory %s out of range: offset=%#x length=%d", e.Op, e.Offset, e.Length)
}

// ExportError reports a missing or mistyped guest export.
type ExportError struct {
	Err  error
	Name string
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("export %q not found", e.Name)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// FormatError reports a string format the host cannot encode.
type FormatError struct {
	Format int32
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported string format %d", e.Format)
}

// AllocError reports a failed guest allocation requested by the host.
type AllocError struct {
	Err  error
	Size int32
}

func (e *AllocError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("guest allocation of %d bytes failed: %v", e.Size, e.Err)
	}
	return fmt.Sprintf("guest allocation of %d bytes failed", e.Size)
}

func (e *AllocError) Unwrap() error {
	return e.Err
}
