package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortError(t *testing.T) {
	err := fmt.Errorf("call failed: %w", &AbortError{Code: 7})

	assert.True(t, stdErrors.Is(err, ErrAborted))

	var abort *AbortError
	require.True(t, stdErrors.As(err, &abort))
	assert.Equal(t, int32(7), abort.Code)
	assert.Equal(t, "module aborted with code 7", abort.Error())
}

func TestExportError(t *testing.T) {
	missing := &ExportError{Name: "allocate"}
	assert.Equal(t, `export "allocate" not found`, missing.Error())
	assert.Nil(t, missing.Unwrap())

	inner := stdErrors.New("wrong signature")
	wrapped := &ExportError{Name: "deallocate", Err: inner}
	assert.Equal(t, `export "deallocate": wrong signature`, wrapped.Error())
	assert.ErrorIs(t, wrapped, inner)
}

func TestAllocError(t *testing.T) {
	inner := stdErrors.New("trap")
	err := &AllocError{Size: 16, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "16 bytes")
	assert.Equal(t, "guest allocation of 8 bytes failed", (&AllocError{Size: 8}).Error())
}

func TestMemoryAccessError(t *testing.T) {
	err := &MemoryAccessError{Op: "read", Offset: 0x10000, Length: 4}
	assert.Equal(t, "memory read out of range: offset=0x10000 length=4", err.Error())
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "unsupported string format 9", (&FormatError{Format: 9}).Error())
}
