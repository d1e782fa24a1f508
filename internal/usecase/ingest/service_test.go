package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
	"github.com/hyperlocal-cloud/bazaar/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterLLMMetrics()
	m.Run()
}

// --- Mocks ---

type mockProcessor struct {
	mu    sync.Mutex
	calls []string
	items map[string]domain.ProcessedItem
}

func (m *mockProcessor) ProcessItem(_ context.Context, path string) domain.ProcessedItem {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()
	if it, ok := m.items[path]; ok {
		return it
	}
	return domain.ProcessedItem{Item: domain.Degraded(path)}
}

type mockGen struct {
	out string
	err error
}

func (m *mockGen) Generate(_ context.Context, _ string, _ bool) (string, error) {
	return m.out, m.err
}

type mockEmbedder struct {
	vectors [][]float32
	err     error
	called  bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ []string) ([][]float32, error) {
	m.called = true
	return m.vectors, m.err
}

type mockRecords struct {
	upserted []domain.Record
	err      error
}

func (m *mockRecords) Upsert(_ context.Context, rec domain.Record) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, rec)
	return nil
}

type mockVectors struct {
	dim         int
	err         error
	collections []string
	ids         []string
	vectors     [][]float32
}

func (m *mockVectors) Dimensions() int { return m.dim }

func (m *mockVectors) Upsert(_ context.Context, collection, id string, vector []float32, _ map[string]any) error {
	if m.err != nil {
		return m.err
	}
	m.collections = append(m.collections, collection)
	m.ids = append(m.ids, id)
	m.vectors = append(m.vectors, vector)
	return nil
}

type mockBus struct {
	keys []string
	err  error
}

func (m *mockBus) Publish(_ context.Context, routingKey string, _ any) error {
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, routingKey)
	return nil
}

func newService(p *mockProcessor, g *mockGen, e *mockEmbedder, r *mockRecords, v *mockVectors, b *mockBus) *Service {
	return New(p, g, e, r, v, b, 4)
}

func item(path string, kind domain.MediaKind, fragment string, tags ...string) domain.ProcessedItem {
	return domain.ProcessedItem{
		Item:     domain.MediaItem{Path: path, Kind: kind, Tags: tags},
		Fragment: fragment,
	}
}

// --- Tests ---

func TestIngestAudioListing(t *testing.T) {
	proc := &mockProcessor{items: map[string]domain.ProcessedItem{
		"pitch.wav": item("pitch.wav", domain.MediaAudio, "A cozy room near the lake.", "homestay", "lakeside"),
	}}
	gen := &mockGen{out: "A cozy lakeside homestay with a private room."}
	emb := &mockEmbedder{vectors: [][]float32{{0.1, 0.2, 0.3}}}
	recs := &mockRecords{}
	vecs := &mockVectors{dim: 3}
	bus := &mockBus{}

	rec, err := newService(proc, gen, emb, recs, vecs, bus).Ingest(context.Background(), Request{
		Type:       domain.RecordListing,
		OwnerID:    "vendor-1",
		Price:      1200,
		Location:   "Pokhara",
		MediaPaths: []string{"pitch.wav"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if rec.ID == "" {
		t.Error("id was not assigned")
	}
	if rec.CreatedAt == "" {
		t.Error("created_at was not assigned")
	}
	if rec.Title != "homestay" {
		t.Errorf("title = %q, want first tag", rec.Title)
	}
	if rec.Description != gen.out {
		t.Errorf("description = %q", rec.Description)
	}
	if len(recs.upserted) != 1 {
		t.Fatalf("document upserts = %d, want 1", len(recs.upserted))
	}
	if len(vecs.ids) != 1 || vecs.ids[0] != rec.ID {
		t.Errorf("vector id = %v, want %s", vecs.ids, rec.ID)
	}
	if vecs.collections[0] != "vendor_listings_vectors" {
		t.Errorf("vector collection = %s", vecs.collections[0])
	}
	if len(bus.keys) != 1 || bus.keys[0] != "listing.created" {
		t.Errorf("published keys = %v", bus.keys)
	}
}

func TestIngestEventRouting(t *testing.T) {
	proc := &mockProcessor{items: map[string]domain.ProcessedItem{}}
	gen := &mockGen{out: "desc"}
	emb := &mockEmbedder{vectors: [][]float32{{0.5, 0.5}}}
	recs := &mockRecords{}
	vecs := &mockVectors{dim: 2}
	bus := &mockBus{}

	rec, err := newService(proc, gen, emb, recs, vecs, bus).Ingest(context.Background(), Request{
		Type:        domain.RecordEvent,
		OwnerID:     "agency-1",
		Title:       "Lantern festival",
		ScheduledAt: "2026-10-02T18:00:00Z",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.Title != "Lantern festival" {
		t.Errorf("caller title was not kept: %q", rec.Title)
	}
	if rec.ScheduledAt != "2026-10-02T18:00:00Z" {
		t.Errorf("scheduled_at = %q", rec.ScheduledAt)
	}
	if vecs.collections[0] != "agency_events_vectors" {
		t.Errorf("vector collection = %s", vecs.collections[0])
	}
	if bus.keys[0] != "event.created" {
		t.Errorf("routing key = %s", bus.keys[0])
	}
}

func TestIngestEmbeddingFailureStoresZeroVector(t *testing.T) {
	proc := &mockProcessor{items: map[string]domain.ProcessedItem{
		"pitch.wav": item("pitch.wav", domain.MediaAudio, "notes", "trek"),
	}}
	recs := &mockRecords{}
	vecs := &mockVectors{dim: 4}
	bus := &mockBus{}

	rec, err := newService(proc, &mockGen{out: "desc"},
		&mockEmbedder{err: domain.ErrUpstreamUnavailable}, recs, vecs, bus,
	).Ingest(context.Background(), Request{Type: domain.RecordListing, MediaPaths: []string{"pitch.wav"}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(recs.upserted) != 1 {
		t.Fatal("document record missing")
	}
	if len(vecs.vectors) != 1 {
		t.Fatal("vector record missing")
	}
	for i, v := range vecs.vectors[0] {
		if v != 0 {
			t.Errorf("vector[%d] = %f, want 0", i, v)
		}
	}
	if len(vecs.vectors[0]) != 4 {
		t.Errorf("vector dim = %d, want 4", len(vecs.vectors[0]))
	}
	_ = rec
}

func TestIngestDocumentWriteFailureIsFatal(t *testing.T) {
	proc := &mockProcessor{items: map[string]domain.ProcessedItem{}}
	recs := &mockRecords{err: errors.New("store down")}
	vecs := &mockVectors{dim: 2}
	bus := &mockBus{}

	_, err := newService(proc, &mockGen{out: "d"}, &mockEmbedder{vectors: [][]float32{{1, 2}}}, recs, vecs, bus).
		Ingest(context.Background(), Request{Type: domain.RecordListing})
	if err == nil {
		t.Fatal("expected hard failure")
	}
	if errors.Is(err, domain.ErrPartialWrite) {
		t.Error("document-store failure must not be a partial write")
	}
	if len(vecs.ids) != 0 {
		t.Error("vector upsert ran after document failure")
	}
	if len(bus.keys) != 0 {
		t.Error("publish ran after document failure")
	}
}

func TestIngestLaterStepFailureIsPartialWrite(t *testing.T) {
	proc := &mockProcessor{items: map[string]domain.ProcessedItem{}}
	recs := &mockRecords{}
	vecs := &mockVectors{dim: 2, err: errors.New("index down")}
	bus := &mockBus{}

	rec, err := newService(proc, &mockGen{out: "d"}, &mockEmbedder{vectors: [][]float32{{1, 2}}}, recs, vecs, bus).
		Ingest(context.Background(), Request{Type: domain.RecordListing})

	if !errors.Is(err, domain.ErrPartialWrite) {
		t.Fatalf("err = %v, want partial write", err)
	}
	if rec.ID == "" {
		t.Error("partial write must still return the persisted record")
	}
	var pw *domain.PartialWriteError
	if !errors.As(err, &pw) {
		t.Fatal("expected *PartialWriteError")
	}
	if len(pw.Steps) != 1 || pw.Steps[0] != "vector" {
		t.Errorf("failed steps = %v", pw.Steps)
	}
	// The publish still ran despite the vector failure.
	if len(bus.keys) != 1 {
		t.Errorf("published keys = %v", bus.keys)
	}
}

func TestIngestTagDedupAcrossItems(t *testing.T) {
	proc := &mockProcessor{items: map[string]domain.ProcessedItem{
		"a.wav": item("a.wav", domain.MediaAudio, "f1", "spa", "yoga"),
		"b.jpg": item("b.jpg", domain.MediaImage, "", "yoga", "Yoga", "warm"),
	}}
	recs := &mockRecords{}
	vecs := &mockVectors{dim: 2}

	rec, err := newService(proc, &mockGen{out: "d"}, &mockEmbedder{vectors: [][]float32{{1, 2}}}, recs, vecs, &mockBus{}).
		Ingest(context.Background(), Request{Type: domain.RecordListing, MediaPaths: []string{"a.wav", "b.jpg"}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	want := []string{"spa", "yoga", "Yoga", "warm"}
	if len(rec.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", rec.Tags, want)
	}
	for i := range want {
		if rec.Tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, rec.Tags[i], want[i])
		}
	}
}

func TestIngestAllFragmentsEmptyUsesDefaultDescription(t *testing.T) {
	proc := &mockProcessor{items: map[string]domain.ProcessedItem{
		"bad.wav": {Item: domain.Degraded("bad.wav")},
	}}
	gen := &mockGen{err: errors.New("must not be called")}
	recs := &mockRecords{}

	rec, err := newService(proc, gen, &mockEmbedder{vectors: [][]float32{{1, 2}}}, recs, &mockVectors{dim: 2}, &mockBus{}).
		Ingest(context.Background(), Request{Type: domain.RecordListing, MediaPaths: []string{"bad.wav"}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.Description != defaultDescription {
		t.Errorf("description = %q, want fixed default", rec.Description)
	}
	if rec.Title != defaultTitle {
		t.Errorf("title = %q, want fixed default", rec.Title)
	}
	if !strings.Contains(rec.Media[0].Path, "bad.wav") {
		t.Errorf("degraded media missing: %v", rec.Media)
	}
}

func TestIngestProcessesAllItems(t *testing.T) {
	proc := &mockProcessor{items: map[string]domain.ProcessedItem{}}
	paths := []string{"a.wav", "b.jpg", "c.jpg", "d.mp3", "e.png", "f.ogg"}

	_, err := newService(proc, &mockGen{out: "d"}, &mockEmbedder{vectors: [][]float32{{1, 2}}},
		&mockRecords{}, &mockVectors{dim: 2}, &mockBus{}).
		Ingest(context.Background(), Request{Type: domain.RecordListing, MediaPaths: paths})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(proc.calls) != len(paths) {
		t.Errorf("processed %d items, want %d", len(proc.calls), len(paths))
	}
}
