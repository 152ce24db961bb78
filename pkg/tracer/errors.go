package tracer

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var (
	ErrParentExited     = errors.New("process finished")
	ErrParentSignaled   = errors.New("process finished with signal")
	ErrParentNotWaiting = errors.New("parent is not blocked in a wait call")
	ErrPathTooLong      = errors.New("directory name too long")
	ErrScratchMismatch  = errors.New("scratch page not mapped at the requested address")
)

// OperationError reports a failed tracing, mapping or memory primitive.
type OperationError struct {
	Op  string
	Pid int
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s (pid %d): %v", e.Op, e.Pid, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

func opError(op string, pid int, err error) error {
	return &OperationError{Op: op, Pid: pid, Err: err}
}

// Syscall results are negative errnos seen through an unsigned register.
const maxErrno = uint64(0xfffffffffffff001)

func negErrno(errno unix.Errno) uint64 {
	return uint64(-int64(errno))
}

func resultErr(v uint64) error {
	if v < maxErrno {
		return nil
	}
	return unix.Errno(-int64(v))
}
