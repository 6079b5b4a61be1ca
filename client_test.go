package conceptd

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/conceptd/internal/db"
)

// memStore is an in-memory db.Store so client tests run without a database.
type memStore struct {
	mu   sync.Mutex
	json map[string][]byte
	kv   map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{
		json: make(map[string][]byte),
		kv:   make(map[string][]byte),
	}
}

func (m *memStore) Ping(_ context.Context) error { return nil }
func (m *memStore) Close()                       {}

func (m *memStore) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

func (m *memStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.json[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.json[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	// JSON.GET "$" wraps the document in a one-element array.
	out := make([]byte, 0, len(data)+2)
	out = append(out, '[')
	out = append(out, data...)
	out = append(out, ']')
	return out, nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.json, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.json[key]
	return ok, nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.json {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = append([]byte(nil), value...)
	return nil
}

var _ db.Store = (*memStore)(nil)

type fakeEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	cfg := &clientConfig{addrs: []string{"127.0.0.1:6379"}}
	for _, o := range opts {
		o.apply(cfg)
	}
	return wireClient(newMemStore(), cfg)
}

func TestOptions_Apply(t *testing.T) {
	cfg := &clientConfig{}
	emb := &fakeEmbedder{}
	for _, o := range []Option{
		WithValkey("db.internal:6379", "hunter2"),
		WithEmbedder(emb),
	} {
		o.apply(cfg)
	}

	if cfg.driver != "valkey" {
		t.Errorf("expected driver valkey, got %q", cfg.driver)
	}
	if len(cfg.addrs) != 1 || cfg.addrs[0] != "db.internal:6379" {
		t.Errorf("unexpected addrs %v", cfg.addrs)
	}
	if cfg.password != "hunter2" {
		t.Errorf("unexpected password %q", cfg.password)
	}
	if cfg.embedder == nil {
		t.Error("embedder not applied")
	}

	WithRedis("other:6380", "").apply(cfg)
	if cfg.driver != "redis" || cfg.addrs[0] != "other:6380" {
		t.Errorf("redis option not applied: %+v", cfg)
	}
}

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error without address")
	}
	if !strings.Contains(err.Error(), "address required") {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestClient_CreateAndGet(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateConcept(ctx, Concept{Name: "gravity", Usage: "pulls things down"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created.ID) != 24 {
		t.Fatalf("expected 24-char id, got %q", created.ID)
	}
	if created.NormalizedEmbedding != nil {
		t.Errorf("create must not compute an embedding, got %v", created.NormalizedEmbedding)
	}

	got, err := c.GetConcept(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "gravity" || got.Usage != "pulls things down" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestClient_CreateValidation(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.CreateConcept(context.Background(), Concept{Usage: "u"}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := c.CreateConcept(context.Background(), Concept{Name: "n"}); err == nil {
		t.Error("expected error for missing usage")
	}
}

func TestClient_UpdateRecomputesEmbedding(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{3, 4}}
	c := newTestClient(t, WithEmbedder(emb))
	ctx := context.Background()

	created, err := c.CreateConcept(ctx, Concept{Name: "Foo", Usage: "bar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	usage := "baz"
	updated, err := c.UpdateConcept(ctx, created.ID, ConceptPatch{Usage: &usage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Name != "Foo" {
		t.Errorf("name must be untouched, got %q", updated.Name)
	}
	if updated.Usage != "baz" {
		t.Errorf("expected updated usage, got %q", updated.Usage)
	}
	if len(emb.texts) != 1 || emb.texts[0] != "Foo: baz" {
		t.Errorf("expected embed of %q, got %v", "Foo: baz", emb.texts)
	}
	// The raw [3 4] vector is normalized before persisting.
	if len(updated.NormalizedEmbedding) != 2 || updated.NormalizedEmbedding[0] != 0.6 {
		t.Errorf("expected unit-norm vector, got %v", updated.NormalizedEmbedding)
	}
}

func TestClient_UpdateEmptyPatchIsNoOp(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1}}
	c := newTestClient(t, WithEmbedder(emb))
	ctx := context.Background()

	created, err := c.CreateConcept(ctx, Concept{Name: "Foo", Usage: "bar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.UpdateConcept(ctx, created.ID, ConceptPatch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Foo" || got.Usage != "bar" {
		t.Errorf("record must be unchanged: %+v", got)
	}
	if len(emb.texts) != 0 {
		t.Errorf("empty patch must not embed, got %v", emb.texts)
	}
}

func TestClient_UpdateWithoutEmbedderFails(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateConcept(ctx, Concept{Name: "Foo", Usage: "bar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := "Quux"
	_, err = c.UpdateConcept(ctx, created.ID, ConceptPatch{Name: &name})
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestClient_EmbedderFailureSurfacesAsProviderError(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("timeout")}
	c := newTestClient(t, WithEmbedder(emb))
	ctx := context.Background()

	created, err := c.CreateConcept(ctx, Concept{Name: "Foo", Usage: "bar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	usage := "baz"
	_, err = c.UpdateConcept(ctx, created.ID, ConceptPatch{Usage: &usage})
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestClient_InvalidID(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.GetConcept(ctx, "bogus"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID from get, got %v", err)
	}
	if _, err := c.UpdateConcept(ctx, "bogus", ConceptPatch{}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID from update, got %v", err)
	}
	if err := c.DeleteConcept(ctx, "bogus"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID from delete, got %v", err)
	}
}

func TestClient_DeleteTwice(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateConcept(ctx, Concept{Name: "Foo", Usage: "bar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.DeleteConcept(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.DeleteConcept(ctx, created.ID); !errors.Is(err, ErrConceptNotFound) {
		t.Errorf("expected ErrConceptNotFound on repeat delete, got %v", err)
	}
}

func TestClient_List(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	for _, name := range []string{"gravity", "entropy", "inertia"} {
		if _, err := c.CreateConcept(ctx, Concept{Name: name, Usage: "physics"}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	got, err := c.ListConcepts(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 concepts, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].ID > got[i].ID {
			t.Fatal("expected listing ordered by id")
		}
	}
}
