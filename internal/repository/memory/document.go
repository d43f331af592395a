package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"motion/internal/domain"
	models "motion/internal/domain/models/docsystem"
	docsysRepo "motion/internal/domain/repositories/docsystem"
)

type documentRow struct {
	doc models.Document
}

// DocumentRepository implements DocumentRepository on a Store
type DocumentRepository struct {
	store *Store
	now   func() time.Time
}

// NewDocumentRepository creates a new in-memory document repository
func NewDocumentRepository(store *Store) docsysRepo.DocumentRepository {
	return &DocumentRepository{store: store, now: time.Now}
}

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.seq++
	now := r.now().UTC()
	doc.ID = uuid.NewString()
	doc.CreationSeq = r.store.seq
	doc.CreatedAt = now
	doc.UpdatedAt = now

	r.store.documents[doc.ID] = &documentRow{doc: cloneDocument(*doc)}
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	doc := cloneDocument(row.doc)
	return &doc, nil
}

// ListChildren lists one level of a user's tree
func (r *DocumentRepository) ListChildren(ctx context.Context, userID string, parentID *string, archived *bool) ([]models.Document, error) {
	return r.list(func(d *models.Document) bool {
		if d.UserID != userID {
			return false
		}
		if parentID == nil {
			if d.ParentDocument != nil {
				return false
			}
		} else if d.ParentDocument == nil || *d.ParentDocument != *parentID {
			return false
		}
		return archived == nil || d.IsArchived == *archived
	}), nil
}

// ListByUser lists all of a user's documents in one archive state
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string, archived bool, titleQuery string) ([]models.Document, error) {
	needle := strings.ToLower(titleQuery)
	return r.list(func(d *models.Document) bool {
		return d.UserID == userID &&
			d.IsArchived == archived &&
			strings.Contains(strings.ToLower(d.Title), needle)
	}), nil
}

// Patch applies a partial update
func (r *DocumentRepository) Patch(ctx context.Context, id string, patch *models.DocumentPatch) (*models.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	if !patch.IsEmpty() {
		patch.Apply(&row.doc)
		row.doc = cloneDocument(row.doc)
		row.doc.UpdatedAt = r.now().UTC()
	}

	doc := cloneDocument(row.doc)
	return &doc, nil
}

// Delete hard-deletes a single document
func (r *DocumentRepository) Delete(ctx context.Context, id string) (*models.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.store.documents, id)
	return &row.doc, nil
}

func (r *DocumentRepository) list(match func(*models.Document) bool) []models.Document {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	documents := []models.Document{}
	for _, row := range r.store.documents {
		if match(&row.doc) {
			documents = append(documents, cloneDocument(row.doc))
		}
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].CreationSeq > documents[j].CreationSeq
	})
	return documents
}

// cloneDocument copies pointer fields so callers never alias stored state
func cloneDocument(d models.Document) models.Document {
	d.Content = clonePtr(d.Content)
	d.Icon = clonePtr(d.Icon)
	d.CoverImage = clonePtr(d.CoverImage)
	d.ParentDocument = clonePtr(d.ParentDocument)
	return d
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
