package host

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/slotcache"
)

var (
	ErrNilBackend = errors.New("host: backend is required")
	// ErrNested is returned when Execute is called while another execution
	// is running on the same Env.
	ErrNested = errors.New("host: execution already in progress")
)

// HostError is the panic value raised when the backend fails a host call.
// The host primitive either succeeds or aborts the execution.
type HostError struct {
	Op  string // "read", "write", "clear" or "commit"
	Key slotcache.Key
	Err error
}

func (e *HostError) Error() string {
	if e.Op == "commit" {
		return fmt.Sprintf("host: commit failed: %v", e.Err)
	}
	return fmt.Sprintf("host: %s %s failed: %v", e.Op, e.Key, e.Err)
}

func (e *HostError) Unwrap() error { return e.Err }

// AbortError reports an execution that ended without committing.
// Cause is the program's error, a fatal storage failure, or the context error.
type AbortError struct {
	ExecID string
	Cause  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("host: execution %s aborted: %v", e.ExecID, e.Cause)
}

func (e *AbortError) Unwrap() error { return e.Cause }

// fatalCause reports whether a recovered panic value is one of the fatal
// storage conditions that abort an execution.
func fatalCause(r any) (error, bool) {
	switch v := r.(type) {
	case *slotcache.CodecError:
		return v, true
	case *slotcache.AliasError:
		return v, true
	case *HostError:
		return v, true
	default:
		return nil, false
	}
}
