package docsystem

import (
	"context"
	"errors"
	"fmt"

	"motion/internal/config"
	"motion/internal/domain"
	docsysRepo "motion/internal/domain/repositories/docsystem"
)

// ParentValidator checks parent references before a document is attached
// to the tree.
type ParentValidator struct {
	docRepo  docsysRepo.DocumentRepository
	maxDepth int
}

// NewParentValidator creates a new parent validator bounded by config.MaxTreeDepth
func NewParentValidator(docRepo docsysRepo.DocumentRepository) *ParentValidator {
	return &ParentValidator{
		docRepo:  docRepo,
		maxDepth: config.MaxTreeDepth,
	}
}

// ValidateParent ensures parentID exists, is owned by userID, and that a new
// child under it stays within the depth bound. Ancestor chains that loop are
// rejected. A dangling ancestor reference ends the walk.
// Returns domain.ErrValidation on any violation.
func (v *ParentValidator) ValidateParent(ctx context.Context, parentID, userID string) error {
	parent, err := v.docRepo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: parent document %s not found", domain.ErrValidation, parentID)
		}
		return err
	}
	// Foreign parents are reported as missing
	if parent.UserID != userID {
		return fmt.Errorf("%w: parent document %s not found", domain.ErrValidation, parentID)
	}

	seen := map[string]bool{parent.ID: true}
	ancestors := 0
	for cur := parent; ; {
		ancestors++
		if ancestors > v.maxDepth {
			return fmt.Errorf("%w: documents cannot be nested more than %d levels deep", domain.ErrValidation, v.maxDepth)
		}
		if cur.ParentDocument == nil {
			return nil
		}
		if seen[*cur.ParentDocument] {
			return fmt.Errorf("%w: parent document %s is part of a cycle", domain.ErrValidation, parentID)
		}

		next, err := v.docRepo.GetByID(ctx, *cur.ParentDocument)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		seen[next.ID] = true
		cur = next
	}
}
