package docsystem

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"motion/internal/cache"
	models "motion/internal/domain/models/docsystem"
	docsysRepo "motion/internal/domain/repositories/docsystem"
	docsysSvc "motion/internal/domain/services/docsystem"
	"motion/internal/repository/memory"
	"motion/internal/service/auth"
)

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeStorage) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return f.err
}

type testEnv struct {
	svc     docsysSvc.DocumentService
	worker  *CascadeWorker
	repo    docsysRepo.DocumentRepository
	store   *memory.Store
	storage *fakeStorage
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	return newTestEnvWithRepo(t, store, memory.NewDocumentRepository(store))
}

func newTestEnvWithRepo(t *testing.T, store *memory.Store, repo docsysRepo.DocumentRepository) *testEnv {
	t.Helper()
	return newTestEnvWithCache(t, store, repo, cache.NewNoop())
}

func newTestEnvWithCache(t *testing.T, store *memory.Store, repo docsysRepo.DocumentRepository, docCache docsysSvc.DocumentCache) *testEnv {
	t.Helper()
	logger := discardLogger()
	queue := memory.NewCascadeJobQueue(store)
	worker := NewCascadeWorker(repo, queue, docCache, docsysSvc.CascadeOptions{
		Workers:     2,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	}, logger)
	storage := &fakeStorage{}

	svc := NewDocumentService(
		repo,
		queue,
		memory.NewTransactionManager(),
		auth.NewOwnerBasedAuthorizer(),
		NewParentValidator(repo),
		docCache,
		storage,
		worker,
		logger,
	)

	return &testEnv{svc: svc, worker: worker, repo: repo, store: store, storage: storage}
}

func (e *testEnv) create(t *testing.T, userID, title string, parent *string) string {
	t.Helper()
	id, err := e.svc.CreateDocument(context.Background(), userID, &docsysSvc.CreateDocumentRequest{
		Title:          title,
		ParentDocument: parent,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) get(t *testing.T, id string) *models.Document {
	t.Helper()
	doc, err := e.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return doc
}

func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, e.worker.Drain(context.Background()))
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// mapRedis is an in-process cache.RedisClient
type mapRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapRedis() *mapRedis {
	return &mapRedis{data: map[string]string{}}
}

func (m *mapRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *mapRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	return nil
}

func (m *mapRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mapRedis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *mapRedis) Close() error { return nil }

// gateRepo parks the first armed call to a method after it has read from the
// store, until release is closed
type gateRepo struct {
	docsysRepo.DocumentRepository
	mu      sync.Mutex
	armed   string
	entered chan struct{}
	release chan struct{}
}

func newGateRepo(repo docsysRepo.DocumentRepository) *gateRepo {
	return &gateRepo{
		DocumentRepository: repo,
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
}

func (r *gateRepo) arm(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = method
}

func (r *gateRepo) wait(method string) {
	r.mu.Lock()
	hit := r.armed == method
	if hit {
		r.armed = ""
	}
	r.mu.Unlock()

	if hit {
		close(r.entered)
		<-r.release
	}
}

func (r *gateRepo) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-r.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("gated call was never made")
	}
}

func (r *gateRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	doc, err := r.DocumentRepository.GetByID(ctx, id)
	r.wait("GetByID")
	return doc, err
}

func (r *gateRepo) ListChildren(ctx context.Context, userID string, parentID *string, archived *bool) ([]models.Document, error) {
	children, err := r.DocumentRepository.ListChildren(ctx, userID, parentID, archived)
	r.wait("ListChildren")
	return children, err
}
