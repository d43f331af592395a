package handler

import (
	"context"
	"log/slog"
	"net/http"

	models "motion/internal/domain/models/docsystem"
	docsysSvc "motion/internal/domain/services/docsystem"
	"motion/internal/httputil"
)

// DocumentHandler handles HTTP requests for documents
type DocumentHandler struct {
	docService docsysSvc.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService docsysSvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// CreateDocumentResponse is the body returned by CreateDocument
type CreateDocumentResponse struct {
	ID string `json:"id"`
}

// CreateDocument creates a new document
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.docService.CreateDocument(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, CreateDocumentResponse{ID: id})
}

// GetDocument returns one document. Published documents need no identity.
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := PathParam(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ListSidebar lists one level of the caller's tree
// GET /api/documents/sidebar?parent_document={id}
func (h *DocumentHandler) ListSidebar(w http.ResponseWriter, r *http.Request) {
	parent, err := QueryID(r, "parent_document")
	if err != nil {
		handleError(w, err)
		return
	}

	docs, err := h.docService.ListSidebar(r.Context(), httputil.GetUserID(r), parent)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// ListTrash lists the caller's archived documents
// GET /api/documents/trash
func (h *DocumentHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docService.ListTrash(r.Context(), httputil.GetUserID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// SearchDocuments lists the caller's non-archived documents
// GET /api/documents/search?q={query}
func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	req := docsysSvc.SearchDocumentsRequest{Query: r.URL.Query().Get("q")}

	docs, err := h.docService.SearchDocuments(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// UpdateDocument applies a partial update
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := PathParam(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	var req docsysSvc.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docService.UpdateDocument(r.Context(), httputil.GetUserID(r), id, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ArchiveDocument moves a document and, asynchronously, its subtree to the trash
// POST /api/documents/{id}/archive
func (h *DocumentHandler) ArchiveDocument(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.docService.ArchiveDocument)
}

// RestoreDocument brings a document and, asynchronously, its subtree back from the trash
// POST /api/documents/{id}/restore
func (h *DocumentHandler) RestoreDocument(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.docService.RestoreDocument)
}

// RemoveDocument permanently deletes one document
// DELETE /api/documents/{id}
func (h *DocumentHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.docService.RemoveDocument)
}

// RemoveIcon clears a document's icon
// DELETE /api/documents/{id}/icon
func (h *DocumentHandler) RemoveIcon(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.docService.RemoveIcon)
}

// RemoveCoverImage deletes a document's cover image
// DELETE /api/documents/{id}/cover-image
func (h *DocumentHandler) RemoveCoverImage(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.docService.RemoveCoverImage)
}

// HealthCheck reports liveness
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type documentMutation func(ctx context.Context, userID, documentID string) (*models.Document, error)

// mutate runs a body-less single-document operation addressed by {id}
func (h *DocumentHandler) mutate(w http.ResponseWriter, r *http.Request, op documentMutation) {
	id, err := PathParam(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}

	doc, err := op(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// fail logs unexpected errors before mapping them to a response
func (h *DocumentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !isDomainError(err) {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	handleError(w, err)
}
