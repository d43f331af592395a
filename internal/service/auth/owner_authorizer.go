package auth

import (
	"fmt"

	"motion/internal/domain"
	"motion/internal/domain/models/docsystem"
	"motion/internal/domain/services"
)

// OwnerBasedAuthorizer implements DocumentAuthorizer using ownership checks.
// A user can modify a document only if they own it; reading additionally
// succeeds for anyone when the document is published and not archived.
type OwnerBasedAuthorizer struct{}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer() services.DocumentAuthorizer {
	return &OwnerBasedAuthorizer{}
}

// CanRead checks if userID may read doc
func (a *OwnerBasedAuthorizer) CanRead(userID string, doc *docsystem.Document) error {
	if doc.IsPubliclyReadable() {
		return nil
	}
	return a.CanModify(userID, doc)
}

// CanModify checks if userID owns doc
func (a *OwnerBasedAuthorizer) CanModify(userID string, doc *docsystem.Document) error {
	if userID == "" {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrUnauthorized)
	}
	if doc.UserID != userID {
		return fmt.Errorf("access denied to document %s: %w", doc.ID, domain.ErrForbidden)
	}
	return nil
}
