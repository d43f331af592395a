package services

import "motion/internal/domain/models/docsystem"

// DocumentAuthorizer decides whether a caller may act on a document that has
// already been loaded.
//
// Services call the authorizer after loading the record so that NotFound is
// reported before any access decision.
type DocumentAuthorizer interface {
	// CanRead checks read access: published and not archived is public,
	// everything else requires the owner
	CanRead(userID string, doc *docsystem.Document) error

	// CanModify checks write access: owner only
	CanModify(userID string, doc *docsystem.Document) error
}
