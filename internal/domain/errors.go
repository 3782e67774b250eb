package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. The typed errors below match them.
var (
	ErrFetch        = errors.New("fetch failed")
	ErrBackend      = errors.New("translation backend failed")
	ErrTimeout      = errors.New("translation backend timed out")
	ErrBatchDropped = errors.New("batch dropped")
	ErrPersistence  = errors.New("persist failed")
)

// FetchError is a network or non-2xx failure from the dataset source or the
// product lookup service.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// BackendError is a failed call to the translation backend. A call that ran
// past its deadline has Timeout set and also matches ErrTimeout.
type BackendError struct {
	StatusCode int
	Body       string
	Timeout    bool
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("backend timeout: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("backend error: %d - %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("backend error: %v", e.Err)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend || (e.Timeout && target == ErrTimeout)
}

// BatchDroppedError marks a batch that exhausted its retries. Its positions
// [Offset, Offset+Size) are left unfilled.
type BatchDroppedError struct {
	Offset int
	Size   int
	Err    error
}

func (e *BatchDroppedError) Error() string {
	return fmt.Sprintf("batch [%d,%d) dropped: %v", e.Offset, e.Offset+e.Size, e.Err)
}

func (e *BatchDroppedError) Unwrap() error { return e.Err }

func (e *BatchDroppedError) Is(target error) bool { return target == ErrBatchDropped }

// PersistenceError is a failure to write translated output.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
