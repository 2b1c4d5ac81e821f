// Package storage defines the document store abstraction over the vault.
package storage

import "context"

// EntryInfo describes one child of a vault folder.
type EntryInfo struct {
	Name     string
	IsFolder bool
}

// Provider is the interface for vault document operations. Paths are
// forward-slash separated and relative to the vault root.
type Provider interface {
	// Read returns the raw bytes of the document at path.
	// Returns apperr.ErrDocumentNotFound when the document does not exist.
	Read(ctx context.Context, path string) ([]byte, error)
	// Write replaces the full content of the document at path, creating it
	// (and any parent folders) when absent.
	Write(ctx context.Context, path string, content []byte) error
	// List returns the immediate children of folder.
	// Returns apperr.ErrFolderNotFound when the folder does not exist.
	List(ctx context.Context, folder string) ([]EntryInfo, error)
}
