package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"motion/internal/domain"
	models "motion/internal/domain/models/docsystem"
	docsysRepo "motion/internal/domain/repositories/docsystem"
	"motion/internal/repository/postgres"
)

const documentColumns = `id, title, content, icon, cover_image, parent_document, user_id,
	is_archived, is_published, creation_seq, created_at, updated_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, content, icon, cover_image, parent_document, user_id, is_archived, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, creation_seq, created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Title,
		doc.Content,
		doc.Icon,
		doc.CoverImage,
		doc.ParentDocument,
		doc.UserID,
		doc.IsArchived,
		doc.IsPublished,
	).Scan(&doc.ID, &doc.CreationSeq, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// ListChildren lists one level of a user's tree
func (r *PostgresDocumentRepository) ListChildren(ctx context.Context, userID string, parentID *string, archived *bool) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1`, documentColumns, r.tables.Documents)
	args := []any{userID}
	paramIndex := 2

	if parentID == nil {
		query += ` AND parent_document IS NULL`
	} else {
		query += fmt.Sprintf(` AND parent_document = $%d`, paramIndex)
		args = append(args, *parentID)
		paramIndex++
	}

	if archived != nil {
		query += fmt.Sprintf(` AND is_archived = $%d`, paramIndex)
		args = append(args, *archived)
	}

	query += ` ORDER BY creation_seq DESC`

	documents, err := r.queryDocuments(ctx, query, args...)
	if err != nil {
		// A malformed parent ID cannot match any row
		if postgres.IsPgInvalidTextError(err) {
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("list child documents: %w", err)
	}
	return documents, nil
}

// ListByUser lists all of a user's documents in one archive state
func (r *PostgresDocumentRepository) ListByUser(ctx context.Context, userID string, archived bool, titleQuery string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 AND is_archived = $2`,
		documentColumns, r.tables.Documents)
	args := []any{userID, archived}

	if titleQuery != "" {
		query += ` AND title ILIKE $3 ESCAPE '\'`
		args = append(args, "%"+escapeLike(titleQuery)+"%")
	}

	query += ` ORDER BY creation_seq DESC`

	documents, err := r.queryDocuments(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user documents: %w", err)
	}
	return documents, nil
}

// Patch applies a partial update in a single UPDATE ... RETURNING statement
func (r *PostgresDocumentRepository) Patch(ctx context.Context, id string, patch *models.DocumentPatch) (*models.Document, error) {
	query, args := patchQuery(r.tables.Documents, id, patch)
	if query == "" {
		return r.GetByID(ctx, id)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("patch document: %w", err)
	}

	return doc, nil
}

// Delete hard-deletes a single document
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, r.tables.Documents, documentColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("delete document: %w", err)
	}

	return doc, nil
}

func (r *PostgresDocumentRepository) queryDocuments(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	documents := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return documents, nil
}

// patchQuery builds the UPDATE for patch, or "" when there is nothing to set.
// Clear flags win over the matching value.
func patchQuery(table, id string, patch *models.DocumentPatch) (string, []any) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Content != nil {
		set("content", *patch.Content)
	}
	switch {
	case patch.ClearIcon:
		sets = append(sets, "icon = NULL")
	case patch.Icon != nil:
		set("icon", *patch.Icon)
	}
	switch {
	case patch.ClearCoverImage:
		sets = append(sets, "cover_image = NULL")
	case patch.CoverImage != nil:
		set("cover_image", *patch.CoverImage)
	}
	if patch.IsPublished != nil {
		set("is_published", *patch.IsPublished)
	}
	if patch.IsArchived != nil {
		set("is_archived", *patch.IsArchived)
	}
	if patch.ClearParent {
		sets = append(sets, "parent_document = NULL")
	}

	if len(sets) == 0 {
		return "", nil
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d RETURNING %s`,
		table, strings.Join(sets, ", "), len(args), documentColumns)
	return query, args
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.Icon,
		&doc.CoverImage,
		&doc.ParentDocument,
		&doc.UserID,
		&doc.IsArchived,
		&doc.IsPublished,
		&doc.CreationSeq,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
