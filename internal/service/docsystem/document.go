package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"motion/internal/config"
	"motion/internal/domain"
	models "motion/internal/domain/models/docsystem"
	"motion/internal/domain/repositories"
	docsysRepo "motion/internal/domain/repositories/docsystem"
	"motion/internal/domain/services"
	docsysSvc "motion/internal/domain/services/docsystem"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo    docsysRepo.DocumentRepository
	jobQueue   docsysRepo.CascadeJobQueue
	txManager  repositories.TransactionManager
	authorizer services.DocumentAuthorizer
	validator  *ParentValidator
	cache      docsysSvc.DocumentCache
	storage    docsysSvc.ObjectStorage
	notifier   docsysSvc.CascadeNotifier
	logger     *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	jobQueue docsysRepo.CascadeJobQueue,
	txManager repositories.TransactionManager,
	authorizer services.DocumentAuthorizer,
	validator *ParentValidator,
	cache docsysSvc.DocumentCache,
	storage docsysSvc.ObjectStorage,
	notifier docsysSvc.CascadeNotifier,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		jobQueue:   jobQueue,
		txManager:  txManager,
		authorizer: authorizer,
		validator:  validator,
		cache:      cache,
		storage:    storage,
		notifier:   notifier,
		logger:     logger,
	}
}

// CreateDocument creates a new document owned by userID
func (s *documentService) CreateDocument(ctx context.Context, userID string, req *docsysSvc.CreateDocumentRequest) (string, error) {
	if err := requireIdentity(userID); err != nil {
		return "", err
	}

	// Normalize empty string parent to nil for root-level documents
	if req.ParentDocument != nil && *req.ParentDocument == "" {
		req.ParentDocument = nil
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = config.DefaultDocumentTitle
	}

	if err := s.validateCreateRequest(req); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.ParentDocument != nil {
		if err := s.validator.ValidateParent(ctx, *req.ParentDocument, userID); err != nil {
			return "", err
		}
	}

	doc := &models.Document{
		Title:          req.Title,
		ParentDocument: req.ParentDocument,
		UserID:         userID,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return "", err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"user_id", userID,
		"parent_document", req.ParentDocument,
	)

	return doc.ID, nil
}

// GetDocument retrieves a document, going through the cache first.
// Cached documents are still subject to the read check.
func (s *documentService) GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, gen, err := s.cache.Get(ctx, documentID)
	cacheOK := err == nil
	if !cacheOK {
		s.logger.Warn("document cache read failed", "id", documentID, "error", err)
	}

	if doc == nil {
		doc, err = s.docRepo.GetByID(ctx, documentID)
		if err != nil {
			return nil, err
		}
		// Without a generation the entry could outlive a concurrent invalidation
		if cacheOK {
			if err := s.cache.Set(ctx, doc, gen); err != nil {
				s.logger.Warn("document cache write failed", "id", documentID, "error", err)
			}
		}
	}

	if err := s.authorizer.CanRead(userID, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// ListSidebar lists the non-archived children of parentDocument (nil = root level)
func (s *documentService) ListSidebar(ctx context.Context, userID string, parentDocument *string) ([]models.Document, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	if parentDocument != nil && *parentDocument == "" {
		parentDocument = nil
	}

	archived := false
	return s.docRepo.ListChildren(ctx, userID, parentDocument, &archived)
}

// ListTrash lists the caller's archived documents
func (s *documentService) ListTrash(ctx context.Context, userID string) ([]models.Document, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}

	return s.docRepo.ListByUser(ctx, userID, true, "")
}

// SearchDocuments lists the caller's non-archived documents, filtered by title when a query is given
func (s *documentService) SearchDocuments(ctx context.Context, userID string, req *docsysSvc.SearchDocumentsRequest) ([]models.Document, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Query, validation.RuneLength(0, config.MaxDocumentTitleLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.docRepo.ListByUser(ctx, userID, false, req.Query)
}

// UpdateDocument applies a partial update
func (s *documentService) UpdateDocument(ctx context.Context, userID, documentID string, req *docsysSvc.UpdateDocumentRequest) (*models.Document, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.loadForModify(ctx, userID, documentID); err != nil {
		return nil, err
	}

	doc, err := s.patch(ctx, documentID, &models.DocumentPatch{
		Title:       req.Title,
		Content:     req.Content,
		Icon:        req.Icon,
		CoverImage:  req.CoverImage,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document updated",
		"id", documentID,
		"user_id", userID,
	)

	return doc, nil
}

// ArchiveDocument archives the document and enqueues the descendant sweep
func (s *documentService) ArchiveDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	if _, err := s.loadForModify(ctx, userID, documentID); err != nil {
		return nil, err
	}

	archived := true
	doc, err := s.patchAndCascade(ctx, userID, documentID, &models.DocumentPatch{IsArchived: &archived})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document archived",
		"id", documentID,
		"user_id", userID,
	)

	return doc, nil
}

// RestoreDocument un-archives the document and enqueues the descendant sweep.
// A document whose parent is still archived is moved to the root level.
func (s *documentService) RestoreDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	existing, err := s.loadForModify(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	archived := false
	patch := &models.DocumentPatch{IsArchived: &archived}

	if existing.ParentDocument != nil {
		parent, err := s.docRepo.GetByID(ctx, *existing.ParentDocument)
		switch {
		case err == nil:
			patch.ClearParent = parent.IsArchived
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	doc, err := s.patchAndCascade(ctx, userID, documentID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("document restored",
		"id", documentID,
		"user_id", userID,
		"detached", patch.ClearParent,
	)

	return doc, nil
}

// RemoveDocument hard-deletes one document. Children keep their parent reference.
func (s *documentService) RemoveDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	if _, err := s.loadForModify(ctx, userID, documentID); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.Delete(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, documentID)

	s.logger.Info("document removed",
		"id", documentID,
		"user_id", userID,
	)

	return doc, nil
}

// RemoveIcon clears the document icon
func (s *documentService) RemoveIcon(ctx context.Context, userID, documentID string) (*models.Document, error) {
	if _, err := s.loadForModify(ctx, userID, documentID); err != nil {
		return nil, err
	}

	return s.patch(ctx, documentID, &models.DocumentPatch{ClearIcon: true})
}

// RemoveCoverImage deletes the cover blob, then clears the reference.
// Storage failures are logged and do not block clearing.
func (s *documentService) RemoveCoverImage(ctx context.Context, userID, documentID string) (*models.Document, error) {
	existing, err := s.loadForModify(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	if existing.CoverImage != nil && *existing.CoverImage != "" {
		if err := s.storage.Delete(ctx, *existing.CoverImage); err != nil {
			s.logger.Warn("failed to delete cover image",
				"id", documentID,
				"url", *existing.CoverImage,
				"error", err,
			)
		}
	}

	return s.patch(ctx, documentID, &models.DocumentPatch{ClearCoverImage: true})
}

// loadForModify fetches a document from the store and checks write access.
// NotFound takes precedence over access errors.
func (s *documentService) loadForModify(ctx context.Context, userID, documentID string) (*models.Document, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.CanModify(userID, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *documentService) patch(ctx context.Context, documentID string, patch *models.DocumentPatch) (*models.Document, error) {
	doc, err := s.docRepo.Patch(ctx, documentID, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, documentID)
	return doc, nil
}

// patchAndCascade commits the root patch together with a cascade job for its
// descendants, then wakes the cascade workers.
func (s *documentService) patchAndCascade(ctx context.Context, userID, documentID string, patch *models.DocumentPatch) (*models.Document, error) {
	var doc *models.Document
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.docRepo.Patch(txCtx, documentID, patch)
		if err != nil {
			return err
		}

		return s.jobQueue.Enqueue(txCtx, &models.CascadeJob{
			RootID:   documentID,
			UserID:   userID,
			Archived: *patch.IsArchived,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, documentID)
	s.notifier.Notify()

	return doc, nil
}

func (s *documentService) invalidate(ctx context.Context, ids ...string) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("document cache invalidation failed", "ids", ids, "error", err)
	}
}

// validateCreateRequest validates a document creation request
func (s *documentService) validateCreateRequest(req *docsysSvc.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.RuneLength(1, config.MaxDocumentTitleLength),
		),
	)
}

// validateUpdateRequest validates a partial update. Only provided fields are checked.
func (s *documentService) validateUpdateRequest(req *docsysSvc.UpdateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.NilOrNotEmpty,
			validation.RuneLength(1, config.MaxDocumentTitleLength),
		),
	)
}

func requireIdentity(userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	return nil
}
