package docsystem

import (
	"context"

	"motion/internal/domain/models/docsystem"
)

// DocumentService handles document business logic.
// userID is the caller identity resolved by the auth middleware; "" means the
// request carried no identity.
type DocumentService interface {
	// CreateDocument creates a document owned by userID and returns its ID
	CreateDocument(ctx context.Context, userID string, req *CreateDocumentRequest) (string, error)

	// GetDocument returns a document to its owner, or to anyone when it is
	// published and not archived
	GetDocument(ctx context.Context, userID, documentID string) (*docsystem.Document, error)

	// ListSidebar lists one level of the caller's non-archived tree
	ListSidebar(ctx context.Context, userID string, parentDocument *string) ([]docsystem.Document, error)

	// ListTrash lists the caller's archived documents (flat)
	ListTrash(ctx context.Context, userID string) ([]docsystem.Document, error)

	// SearchDocuments lists the caller's non-archived documents, optionally filtered by title
	SearchDocuments(ctx context.Context, userID string, req *SearchDocumentsRequest) ([]docsystem.Document, error)

	// UpdateDocument applies a partial update
	UpdateDocument(ctx context.Context, userID, documentID string, req *UpdateDocumentRequest) (*docsystem.Document, error)

	// ArchiveDocument soft-deletes a document; descendants follow asynchronously
	ArchiveDocument(ctx context.Context, userID, documentID string) (*docsystem.Document, error)

	// RestoreDocument un-archives a document; descendants follow asynchronously
	RestoreDocument(ctx context.Context, userID, documentID string) (*docsystem.Document, error)

	// RemoveDocument hard-deletes a single document
	RemoveDocument(ctx context.Context, userID, documentID string) (*docsystem.Document, error)

	// RemoveIcon clears the document icon
	RemoveIcon(ctx context.Context, userID, documentID string) (*docsystem.Document, error)

	// RemoveCoverImage deletes the cover blob (best effort) and clears the reference
	RemoveCoverImage(ctx context.Context, userID, documentID string) (*docsystem.Document, error)
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	Title          string  `json:"title"`
	ParentDocument *string `json:"parent_document,omitempty"` // nil or "" = root level
}

// UpdateDocumentRequest is a partial update; nil fields are left untouched
type UpdateDocumentRequest struct {
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	CoverImage  *string `json:"cover_image,omitempty"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

// SearchDocumentsRequest represents a search request. An empty query returns
// every non-archived document the caller owns.
type SearchDocumentsRequest struct {
	Query string `json:"query"`
}
