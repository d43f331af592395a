package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motion/internal/cache"
	models "motion/internal/domain/models/docsystem"
	docsysSvc "motion/internal/domain/services/docsystem"
	"motion/internal/httputil"
	"motion/internal/repository/memory"
	"motion/internal/service/auth"
	serviceDocsys "motion/internal/service/docsystem"
	"motion/internal/storage"
)

type apiEnv struct {
	mux    *http.ServeMux
	worker *serviceDocsys.CascadeWorker
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	repo := memory.NewDocumentRepository(store)
	queue := memory.NewCascadeJobQueue(store)
	docCache := cache.NewNoop()
	worker := serviceDocsys.NewCascadeWorker(repo, queue, docCache, docsysSvc.CascadeOptions{}, logger)

	svc := serviceDocsys.NewDocumentService(
		repo,
		queue,
		memory.NewTransactionManager(),
		auth.NewOwnerBasedAuthorizer(),
		serviceDocsys.NewParentValidator(repo),
		docCache,
		storage.NewNoop(logger),
		worker,
		logger,
	)

	mux := http.NewServeMux()
	RegisterRoutes(mux, NewDocumentHandler(svc, logger))
	return &apiEnv{mux: mux, worker: worker}
}

func (e *apiEnv) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req = req.WithContext(httputil.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) createDoc(t *testing.T, userID, body string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/documents", userID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp CreateDocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func decodeDoc(t *testing.T, rec *httptest.ResponseRecorder) models.Document {
	t.Helper()
	var doc models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	return doc
}

func decodeDocs(t *testing.T, rec *httptest.ResponseRecorder) []models.Document {
	t.Helper()
	var docs []models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	return docs
}

func TestDocumentAPI_Lifecycle(t *testing.T) {
	env := newAPIEnv(t)

	parent := env.createDoc(t, "alice", `{"title":"Untitled"}`)
	child := env.createDoc(t, "alice", `{"title":"Child","parent_document":"`+parent+`"}`)

	rec := env.do(t, http.MethodGet, "/api/documents/sidebar?parent_document="+parent, "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decodeDocs(t, rec)
	require.Len(t, docs, 1)
	assert.Equal(t, child, docs[0].ID)

	rec = env.do(t, http.MethodPatch, "/api/documents/"+parent, "alice", `{"title":"Renamed","is_published":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeDoc(t, rec)
	assert.Equal(t, "Renamed", doc.Title)
	assert.True(t, doc.IsPublished)

	// Published documents are readable without identity
	rec = env.do(t, http.MethodGet, "/api/documents/"+parent, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/documents/"+parent+"/archive", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeDoc(t, rec).IsArchived)
	require.NoError(t, env.worker.Drain(context.Background()))

	rec = env.do(t, http.MethodGet, "/api/documents/trash", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeDocs(t, rec), 2)

	rec = env.do(t, http.MethodGet, "/api/documents/"+parent, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "archived documents are no longer public")

	rec = env.do(t, http.MethodPost, "/api/documents/"+parent+"/restore", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, env.worker.Drain(context.Background()))

	rec = env.do(t, http.MethodGet, "/api/documents/search?q=child", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	docs = decodeDocs(t, rec)
	require.Len(t, docs, 1)
	assert.False(t, docs[0].IsArchived)

	rec = env.do(t, http.MethodDelete, "/api/documents/"+parent, "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, parent, decodeDoc(t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/documents/"+parent, "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentAPI_IconAndCover(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createDoc(t, "alice", `{"title":"Doc"}`)

	rec := env.do(t, http.MethodPatch, "/api/documents/"+id, "alice", `{"icon":"🚀","cover_image":"gs://covers/a.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/documents/"+id+"/icon", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeDoc(t, rec).Icon)

	rec = env.do(t, http.MethodDelete, "/api/documents/"+id+"/cover-image", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeDoc(t, rec).CoverImage)
}

func TestDocumentAPI_Errors(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createDoc(t, "alice", `{"title":"Private"}`)
	missing := "9f0e2a4c-1111-4c1b-9d7e-2b3c4d5e6f70"

	tests := []struct {
		name       string
		method     string
		path       string
		userID     string
		body       string
		wantStatus int
	}{
		{name: "create without identity", method: http.MethodPost, path: "/api/documents", body: `{"title":"x"}`, wantStatus: http.StatusUnauthorized},
		{name: "create with bad json", method: http.MethodPost, path: "/api/documents", userID: "alice", body: `{"title":`, wantStatus: http.StatusBadRequest},
		{name: "create under missing parent", method: http.MethodPost, path: "/api/documents", userID: "alice", body: `{"parent_document":"` + missing + `"}`, wantStatus: http.StatusBadRequest},
		{name: "get private anonymously", method: http.MethodGet, path: "/api/documents/" + id, wantStatus: http.StatusUnauthorized},
		{name: "get private as other user", method: http.MethodGet, path: "/api/documents/" + id, userID: "bob", wantStatus: http.StatusForbidden},
		{name: "get missing", method: http.MethodGet, path: "/api/documents/" + missing, userID: "alice", wantStatus: http.StatusNotFound},
		{name: "get malformed id", method: http.MethodGet, path: "/api/documents/not-a-uuid", userID: "alice", wantStatus: http.StatusBadRequest},
		{name: "sidebar malformed parent", method: http.MethodGet, path: "/api/documents/sidebar?parent_document=nope", userID: "alice", wantStatus: http.StatusBadRequest},
		{name: "trash without identity", method: http.MethodGet, path: "/api/documents/trash", wantStatus: http.StatusUnauthorized},
		{name: "update as other user", method: http.MethodPatch, path: "/api/documents/" + id, userID: "bob", body: `{"title":"Mine"}`, wantStatus: http.StatusForbidden},
		{name: "update unknown field", method: http.MethodPatch, path: "/api/documents/" + id, userID: "alice", body: `{"owner":"bob"}`, wantStatus: http.StatusBadRequest},
		{name: "archive missing", method: http.MethodPost, path: "/api/documents/" + missing + "/archive", userID: "alice", wantStatus: http.StatusNotFound},
		{name: "remove as other user", method: http.MethodDelete, path: "/api/documents/" + id, userID: "bob", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.userID, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHealthCheck(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
