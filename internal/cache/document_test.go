package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motion/internal/domain/models/docsystem"
)

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	f.ttls[key] = ttl
	return n, nil
}

func (f *fakeRedis) Close() error { return nil }

func TestDocumentCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	c := NewDocumentCache(client, time.Minute)

	icon := "📄"
	doc := &docsystem.Document{ID: "d1", Title: "Notes", Icon: &icon, UserID: "u1", IsPublished: true, CreationSeq: 42}
	require.NoError(t, c.Set(ctx, doc, 0))
	assert.Equal(t, time.Minute, client.ttls["doc:d1"])

	got, gen, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(0), gen)
	assert.Equal(t, "Notes", got.Title)
	assert.Equal(t, int64(42), got.CreationSeq)
	require.NotNil(t, got.Icon)
	assert.Equal(t, icon, *got.Icon)
	assert.True(t, got.IsPublished)
}

func TestDocumentCache_MissAndInvalidate(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	c := NewDocumentCache(client, time.Minute)

	got, _, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, &docsystem.Document{ID: "d1"}, 0))
	require.NoError(t, c.Set(ctx, &docsystem.Document{ID: "d2"}, 0))
	require.NoError(t, c.Invalidate(ctx, "d1", "d2"))
	assert.NotContains(t, client.data, "doc:d1")
	assert.NotContains(t, client.data, "doc:d2")
	assert.Equal(t, "1", client.data["docgen:d1"])
	assert.Equal(t, time.Minute+generationSlack, client.ttls["docgen:d1"])

	got, gen, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), gen)
}

func TestDocumentCache_ClientError(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	c := NewDocumentCache(client, time.Minute)

	_, _, err := c.Get(ctx, "d1")
	assert.ErrorIs(t, err, client.err)
	assert.Error(t, c.Invalidate(ctx, "d1"))
}

func TestDocumentCache_WriteRacingInvalidationIsIgnored(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	c := NewDocumentCache(client, time.Minute)

	// A reader misses and remembers the generation before loading from the store
	got, gen, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	require.Nil(t, got)

	// The owner unpublishes in the meantime
	require.NoError(t, c.Invalidate(ctx, "d1"))

	// The reader then writes back what it loaded before the update
	stale := &docsystem.Document{ID: "d1", UserID: "u1", IsPublished: true}
	require.NoError(t, c.Set(ctx, stale, gen))

	got, current, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, got, "entry from an older generation must not be served")
	assert.Equal(t, gen+1, current)

	// A load under the current generation is served again
	fresh := &docsystem.Document{ID: "d1", UserID: "u1"}
	require.NoError(t, c.Set(ctx, fresh, current))
	got, _, err = c.Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsPublished)
}
