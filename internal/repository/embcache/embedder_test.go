package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/conceptd/internal/domain"
)

func TestEmbed_MissCallsInnerAndCaches(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 3,
		TotalTokens:  3,
	}}
	cache, ms, counter := newTestCache(t, inner)

	var cachedKey string
	var cachedData []byte
	ms.setFn = func(_ context.Context, key string, value []byte) error {
		cachedKey = key
		cachedData = value
		return nil
	}

	result, err := cache.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if result.TotalTokens != 3 {
		t.Errorf("miss must report real token usage, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(cachedKey, cacheKeyPrefix) {
		t.Errorf("unexpected cache key %q", cachedKey)
	}
	if len(cachedData) != 8 {
		t.Errorf("expected 8 bytes for 2 float32s, got %d", len(cachedData))
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("expected 1 miss, got %f", got)
	}
}

func TestEmbed_HitSkipsInner(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	cache, ms, counter := newTestCache(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes([]float32{0.5, 0.25}), nil
	}

	result, err := cache.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("hit must not call the provider, got %d calls", inner.calls)
	}
	if len(result.Embedding) != 2 || result.Embedding[0] != 0.5 {
		t.Errorf("unexpected cached vector: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Errorf("hit must report zero tokens, got %d", result.TotalTokens)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 hit, got %f", got)
	}
}

func TestEmbed_CorruptCacheEntryFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	cache, ms, _ := newTestCache(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil // not a multiple of 4
	}

	result, err := cache.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry must fall through to the provider, got %d calls", inner.calls)
	}
	if len(result.Embedding) != 1 {
		t.Errorf("unexpected result: %v", result.Embedding)
	}
}

func TestEmbed_StoreGetErrorDegrades(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	cache, ms, _ := newTestCache(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}

	if _, err := cache.Embed(context.Background(), "some text"); err != nil {
		t.Fatalf("cache read failure must not fail the embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected provider call, got %d", inner.calls)
	}
}

func TestEmbed_StoreSetErrorIgnored(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	cache, ms, _ := newTestCache(t, inner)

	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("oom")
	}

	result, err := cache.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("cache write failure must not fail the embed: %v", err)
	}
	if len(result.Embedding) != 1 {
		t.Errorf("unexpected result: %v", result.Embedding)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	innerErr := domain.ErrEmbeddingProviderError
	cache, ms, _ := newTestCache(t, &mockEmbedder{err: innerErr})

	_, err := cache.Embed(context.Background(), "some text")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected provider error, got %v", err)
	}
	if ms.setCalls != 0 {
		t.Error("failed embeds must not be cached")
	}
}

func TestCacheKey_StablePerText(t *testing.T) {
	cache, _, _ := newTestCache(t, &mockEmbedder{})

	a := cache.cacheKey("gravity: pulls things down")
	b := cache.cacheKey("gravity: pulls things down")
	c := cache.cacheKey("gravity: pulls things up")

	if a != b {
		t.Error("same text must produce the same key")
	}
	if a == c {
		t.Error("different text must produce different keys")
	}
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-8}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d != %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("component %d mismatch: %v != %v", i, in[i], out[i])
		}
	}
}
