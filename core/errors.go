package core

import (
	"errors"

	"github.com/nasdf/docstore/storage"
)

var (
	// ErrInvalidLocation is returned when a collection directory or document name cannot be resolved.
	ErrInvalidLocation = storage.ErrInvalidLocation
	// ErrWriteFailed is returned when a document could not be written.
	ErrWriteFailed = errors.New("document write failed")
	// ErrDeleteFailed is returned when a document could not be deleted.
	ErrDeleteFailed = errors.New("document delete failed")
	// ErrDocumentUnavailable is returned when a named document does not exist.
	ErrDocumentUnavailable = errors.New("document unavailable")
	// ErrStorageUnavailable is returned when the collection has been closed.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrOperationPanicked is returned when an operation panicked before it completed.
	ErrOperationPanicked = errors.New("operation panicked")
	// ErrIteratorDone is returned when Next is called on an exhausted iterator.
	ErrIteratorDone = errors.New("iterator done")
)
