package docsystem

import (
	"time"
)

// Document is the unit of content. Documents nest through ParentDocument and are
// always owned by exactly one user.
type Document struct {
	ID             string    `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Content        *string   `json:"content,omitempty" db:"content"` // Serialized rich text, opaque here
	Icon           *string   `json:"icon,omitempty" db:"icon"`
	CoverImage     *string   `json:"cover_image,omitempty" db:"cover_image"` // URL into object storage
	ParentDocument *string   `json:"parent_document,omitempty" db:"parent_document"` // NULL = root level
	UserID         string    `json:"user_id" db:"user_id"`
	IsArchived     bool      `json:"is_archived" db:"is_archived"`
	IsPublished    bool      `json:"is_published" db:"is_published"`
	CreationSeq    int64     `json:"-" db:"creation_seq"` // Insertion order, newest-first sort key
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// IsPubliclyReadable reports whether anyone may read the document without identity.
func (d *Document) IsPubliclyReadable() bool {
	return d.IsPublished && !d.IsArchived
}

// DocumentPatch is a single-record partial update. Nil fields are left untouched.
// Clear* flags set the column to NULL and take precedence over the matching value.
type DocumentPatch struct {
	Title       *string
	Content     *string
	Icon        *string
	CoverImage  *string
	IsPublished *bool
	IsArchived  *bool

	ClearIcon       bool
	ClearCoverImage bool
	ClearParent     bool
}

// IsEmpty reports whether applying the patch would change nothing.
func (p *DocumentPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Icon == nil && p.CoverImage == nil &&
		p.IsPublished == nil && p.IsArchived == nil &&
		!p.ClearIcon && !p.ClearCoverImage && !p.ClearParent
}

// Apply writes the patch onto doc in place.
func (p *DocumentPatch) Apply(doc *Document) {
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Content != nil {
		doc.Content = p.Content
	}
	if p.Icon != nil {
		doc.Icon = p.Icon
	}
	if p.CoverImage != nil {
		doc.CoverImage = p.CoverImage
	}
	if p.IsPublished != nil {
		doc.IsPublished = *p.IsPublished
	}
	if p.IsArchived != nil {
		doc.IsArchived = *p.IsArchived
	}
	if p.ClearIcon {
		doc.Icon = nil
	}
	if p.ClearCoverImage {
		doc.CoverImage = nil
	}
	if p.ClearParent {
		doc.ParentDocument = nil
	}
}
