package handler

import "net/http"

// RegisterRoutes mounts the document API on mux.
// Literal segments (sidebar, trash, search) win over {id} by pattern precedence.
func RegisterRoutes(mux *http.ServeMux, h *DocumentHandler) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/documents", h.CreateDocument)
	mux.HandleFunc("GET /api/documents/sidebar", h.ListSidebar)
	mux.HandleFunc("GET /api/documents/trash", h.ListTrash)
	mux.HandleFunc("GET /api/documents/search", h.SearchDocuments)
	mux.HandleFunc("GET /api/documents/{id}", h.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", h.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", h.RemoveDocument)
	mux.HandleFunc("POST /api/documents/{id}/archive", h.ArchiveDocument)
	mux.HandleFunc("POST /api/documents/{id}/restore", h.RestoreDocument)
	mux.HandleFunc("DELETE /api/documents/{id}/icon", h.RemoveIcon)
	mux.HandleFunc("DELETE /api/documents/{id}/cover-image", h.RemoveCoverImage)
}
