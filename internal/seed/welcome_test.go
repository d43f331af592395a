package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motion/internal/cache"
	docsysSvc "motion/internal/domain/services/docsystem"
	"motion/internal/repository/memory"
	"motion/internal/service/auth"
	serviceDocsys "motion/internal/service/docsystem"
	"motion/internal/storage"
)

func countNodes(nodes []Node) int {
	n := len(nodes)
	for _, node := range nodes {
		n += countNodes(node.Children)
	}
	return n
}

func TestWelcomeTree(t *testing.T) {
	nodes, err := WelcomeTree()
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	assert.Equal(t, "Getting Started", nodes[0].Title)
	assert.Equal(t, 6, countNodes(nodes))
}

func TestParseTree_Invalid(t *testing.T) {
	_, err := ParseTree([]byte("title: [unterminated"))
	assert.Error(t, err)
}

func TestSeeder_Seed(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	repo := memory.NewDocumentRepository(store)
	queue := memory.NewCascadeJobQueue(store)
	worker := serviceDocsys.NewCascadeWorker(repo, queue, cache.NewNoop(), docsysSvc.CascadeOptions{}, logger)
	svc := serviceDocsys.NewDocumentService(
		repo, queue, memory.NewTransactionManager(), auth.NewOwnerBasedAuthorizer(),
		serviceDocsys.NewParentValidator(repo), cache.NewNoop(), storage.NewNoop(logger), worker, logger,
	)

	nodes, err := WelcomeTree()
	require.NoError(t, err)

	created, err := NewSeeder(svc, logger).Seed(ctx, "alice", nodes)
	require.NoError(t, err)
	assert.Equal(t, countNodes(nodes), created)

	roots, err := svc.ListSidebar(ctx, "alice", nil)
	require.NoError(t, err)
	require.Len(t, roots, 3)
	// Newest first: the last root in the file was created last
	assert.Equal(t, "Quick notes", roots[0].Title)

	published := roots[1]
	assert.Equal(t, "Published example", published.Title)
	assert.True(t, published.IsPublished)

	doc, err := svc.GetDocument(ctx, "", published.ID)
	require.NoError(t, err)
	assert.NotNil(t, doc.Content)

	gettingStarted := roots[2]
	children, err := svc.ListSidebar(ctx, "alice", &gettingStarted.ID)
	require.NoError(t, err)
	assert.Len(t, children, 2)
}
