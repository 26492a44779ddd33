package register

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// A Kind classifies why a block could not be mapped.
type Kind int

// The ways acquiring a block can fail. None of them is retried.
const (
	NotFound Kind = iota + 1
	PermissionDenied
	Unsupported
)

// Sentinels matched by errors.Is against any *MapError of the same Kind.
var (
	ErrNotFound         = errors.New("device not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnsupported      = errors.New("mapping not supported")
)

func (k Kind) sentinel() error {
	switch k {
	case NotFound:
		return ErrNotFound
	case PermissionDenied:
		return ErrPermissionDenied
	case Unsupported:
		return ErrUnsupported
	default:
		return nil
	}
}

func (k Kind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// A MapError reports a failure to open or map a physical register block.
type MapError struct {
	Kind   Kind
	Path   string
	Offset int64
	Length int
	Err    error
}

func (e *MapError) Error() string {
	msg := fmt.Sprintf("cannot map %d bytes at %#x of %q: %s", e.Length, e.Offset, e.Path, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying system error, if any.
func (e *MapError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's Kind.
func (e *MapError) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// kindOf classifies an error returned while opening the device file.
func kindOf(err error) Kind {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return NotFound
	case errors.Is(err, os.ErrPermission):
		return PermissionDenied
	default:
		return Unsupported
	}
}
