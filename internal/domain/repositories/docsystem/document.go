package docsystem

import (
	"context"

	"motion/internal/domain/models/docsystem"
)

// DocumentRepository defines data access operations for documents.
// Every method is a single-record (or single-query) operation; callers
// compose them into cascades.
type DocumentRepository interface {
	// Create inserts a new document and fills in ID, CreationSeq and timestamps
	Create(ctx context.Context, doc *docsystem.Document) error

	// GetByID retrieves a document by ID regardless of owner.
	// Returns domain.ErrNotFound when missing.
	GetByID(ctx context.Context, id string) (*docsystem.Document, error)

	// ListChildren lists documents owned by userID whose parent is parentID
	// (nil = root level), newest-first. archived filters by archive state; nil = both.
	ListChildren(ctx context.Context, userID string, parentID *string, archived *bool) ([]docsystem.Document, error)

	// ListByUser lists documents owned by userID with the given archive state, newest-first.
	// A non-empty titleQuery filters titles case-insensitively.
	ListByUser(ctx context.Context, userID string, archived bool, titleQuery string) ([]docsystem.Document, error)

	// Patch atomically applies a partial update and returns the patched document.
	// Returns domain.ErrNotFound when missing.
	Patch(ctx context.Context, id string, patch *docsystem.DocumentPatch) (*docsystem.Document, error)

	// Delete hard-deletes one document and returns it. Children are untouched.
	Delete(ctx context.Context, id string) (*docsystem.Document, error)
}
