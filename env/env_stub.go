//go:build !wasip1

package env

import (
	"time"

	"github.com/kaylienode/wasmabi/errors"
)

var start = time.Now()

// Fail panics with *errors.AbortError in native builds. It never returns.
func Fail(code int32) {
	panic(&errors.AbortError{Code: code})
}

// CurrentTime returns monotonic nanoseconds since the process started.
func CurrentTime() uint64 {
	return uint64(time.Since(start).Nanoseconds())
}
