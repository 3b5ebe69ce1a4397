package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrTotalChunksMismatch means a chunk announcement disagreed with the
	// chunk count the session was opened with. The conflicting event is
	// rejected rather than silently overwriting the session.
	ErrTotalChunksMismatch = errors.New("total chunk count changed mid-session")

	// ErrChunkIndexOutOfRange means an announced index fell outside
	// [0, totalChunks).
	ErrChunkIndexOutOfRange = errors.New("chunk index out of range")

	// ErrMissingChunk means a reorder buffer slot was empty at merge time.
	// Cannot happen with correct dedup accounting, but the merge guards
	// against it anyway.
	ErrMissingChunk = errors.New("missing chunk at merge time")
)

// TransferError wraps an error with the operation and file it belongs to.
type TransferError struct {
	Op   string
	File string
	Err  error
}

func (e *TransferError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}

func NewFileError(op, file string, err error) *TransferError {
	return &TransferError{Op: op, File: file, Err: err}
}
