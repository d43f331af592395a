// Package cache provides the read-through document cache used by GetDocument.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"motion/internal/domain/models/docsystem"
	docsysSvc "motion/internal/domain/services/docsystem"
)

const (
	documentKeyPrefix   = "doc:"
	generationKeyPrefix = "docgen:"

	// Generation counters must outlive every entry written under them
	generationSlack = 24 * time.Hour
)

// DocumentCache stores documents as JSON under doc:<id>, tagged with the
// generation counter kept under docgen:<id>
type DocumentCache struct {
	client RedisClient
	ttl    time.Duration
}

// NewDocumentCache creates a Redis-backed document cache
func NewDocumentCache(client RedisClient, ttl time.Duration) docsysSvc.DocumentCache {
	return &DocumentCache{client: client, ttl: ttl}
}

// Get returns the cached document and the current generation of id. A miss,
// or an entry written under an older generation, returns a nil document.
func (c *DocumentCache) Get(ctx context.Context, id string) (*docsystem.Document, int64, error) {
	gen, err := c.generation(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	raw, err := c.client.Get(ctx, documentKey(id))
	if errors.Is(err, ErrMiss) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("cache get %s: %w", id, err)
	}

	var entry cachedDocument
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, 0, fmt.Errorf("decode cached document %s: %w", id, err)
	}
	if entry.Generation != gen {
		return nil, gen, nil
	}
	return entry.toDocument(), gen, nil
}

// Set caches doc for the configured TTL under generation
func (c *DocumentCache) Set(ctx context.Context, doc *docsystem.Document, generation int64) error {
	raw, err := json.Marshal(newCachedDocument(doc, generation))
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	if err := c.client.Set(ctx, documentKey(doc.ID), raw, c.ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", doc.ID, err)
	}
	return nil
}

// Invalidate bumps the generation of each id, then drops the entries
func (c *DocumentCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		if _, err := c.client.Incr(ctx, generationKey(id), c.ttl+generationSlack); err != nil {
			return fmt.Errorf("cache bump generation %s: %w", id, err)
		}
		keys[i] = documentKey(id)
	}
	if err := c.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (c *DocumentCache) generation(ctx context.Context, id string) (int64, error) {
	raw, err := c.client.Get(ctx, generationKey(id))
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation %s: %w", id, err)
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode generation %s: %w", id, err)
	}
	return gen, nil
}

func documentKey(id string) string {
	return documentKeyPrefix + id
}

func generationKey(id string) string {
	return generationKeyPrefix + id
}

// cachedDocument keeps CreationSeq, which the API representation omits
type cachedDocument struct {
	docsystem.Document
	CreationSeq int64 `json:"creation_seq"`
	Generation  int64 `json:"generation"`
}

func newCachedDocument(doc *docsystem.Document, generation int64) cachedDocument {
	return cachedDocument{Document: *doc, CreationSeq: doc.CreationSeq, Generation: generation}
}

func (c cachedDocument) toDocument() *docsystem.Document {
	doc := c.Document
	doc.CreationSeq = c.CreationSeq
	return &doc
}

// Noop is the cache used when Redis is not configured
type Noop struct{}

// NewNoop creates a cache that never hits
func NewNoop() docsysSvc.DocumentCache {
	return Noop{}
}

func (Noop) Get(ctx context.Context, id string) (*docsystem.Document, int64, error) {
	return nil, 0, nil
}
func (Noop) Set(ctx context.Context, doc *docsystem.Document, generation int64) error { return nil }
func (Noop) Invalidate(ctx context.Context, ids ...string) error                    { return nil }
