// Package apperr defines the failure taxonomy shared across the application.
package apperr

import "errors"

var (
	// ErrFolderNotFound means a suffix-named vault folder could not be located.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrDocumentNotFound means the target document does not exist. Fatal per
	// event: retrying will not make a missing file appear.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDayBlockNotFound means the document is missing the expected day
	// heading. Fatal per event: the document structure has drifted and needs
	// manual repair.
	ErrDayBlockNotFound = errors.New("day block not found")
	// ErrTransient marks a store failure that persisted through bounded
	// retries (rate limiting, 5xx).
	ErrTransient = errors.New("transient store error")
)
