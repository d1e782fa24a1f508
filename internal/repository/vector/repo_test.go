package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperlocal-cloud/bazaar/internal/db"
)

type mockStore struct {
	exists        bool
	existsErr     error
	created       []*db.IndexDefinition
	createErr     error
	hsets         map[string]map[string]string
	hsetErr       error
	searchResult  *db.SearchResult
	searchErr     error
	searchQueries []*db.KNNQuery
}

func newMockStore() *mockStore {
	return &mockStore{hsets: map[string]map[string]string{}}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	m.hsets[key] = fields
	return nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, def)
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.searchQueries = append(m.searchQueries, q)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResult == nil {
		return &db.SearchResult{}, nil
	}
	return m.searchResult, nil
}

func TestUpsert_CreatesCollectionOnFirstUse(t *testing.T) {
	s := newMockStore()
	repo := New(s, 2).WithHNSW(HNSWConfig{M: 16, EFConstruct: 200})

	err := repo.Upsert(context.Background(), "vendor_listings_vectors", "l1",
		[]float32{0.1, 0.2}, map[string]any{"id": "l1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.created) != 1 {
		t.Fatalf("expected 1 index creation, got %d", len(s.created))
	}
	def := s.created[0]
	if def.Name != "idx:vendor_listings_vectors" {
		t.Errorf("index name = %q", def.Name)
	}
	if def.VectorDim != 2 || def.M != 16 {
		t.Errorf("unexpected definition: %+v", def)
	}

	// Second upsert must not re-create.
	err = repo.Upsert(context.Background(), "vendor_listings_vectors", "l2",
		[]float32{0.3, 0.4}, map[string]any{"id": "l2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.created) != 1 {
		t.Errorf("expected collection cached after first use, got %d creations", len(s.created))
	}

	if _, ok := s.hsets["bazaarvec:vendor_listings_vectors:l1"]; !ok {
		t.Error("entry key missing")
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	repo := New(newMockStore(), 4)
	err := repo.Upsert(context.Background(), "c", "id", []float32{0.1}, nil)
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestUpsert_ExistingIndexSkipsCreate(t *testing.T) {
	s := newMockStore()
	s.exists = true
	repo := New(s, 1)

	if err := repo.Upsert(context.Background(), "c", "id", []float32{0.5}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.created) != 0 {
		t.Errorf("expected no index creation, got %d", len(s.created))
	}
}

func TestSearch_MapsHits(t *testing.T) {
	s := newMockStore()
	s.exists = true
	s.searchResult = &db.SearchResult{
		Total: 2,
		Entries: []db.SearchEntry{
			{Key: "bazaarvec:agency_events_vectors:e1", Score: 0.9, Fields: map[string]string{"payload": `{"id":"e1","title":"Harvest festival"}`}},
			{Key: "bazaarvec:agency_events_vectors:e2", Score: 0.4, Fields: map[string]string{"payload": `not json`}},
		},
	}
	repo := New(s, 2)

	hits, err := repo.Search(context.Background(), "agency_events_vectors", []float32{0.1, 0.2}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "e1" || hits[0].Score != 0.9 {
		t.Errorf("hit 0 = %+v", hits[0])
	}
	if hits[0].Payload["title"] != "Harvest festival" {
		t.Errorf("payload not parsed: %+v", hits[0].Payload)
	}
	// Unparsable payload degrades to nil payload, id still round-trips.
	if hits[1].ID != "e2" || hits[1].Payload != nil {
		t.Errorf("hit 1 = %+v", hits[1])
	}

	q := s.searchQueries[0]
	if q.K != 10 || q.IndexName != "idx:agency_events_vectors" {
		t.Errorf("query = %+v", q)
	}
}

func TestSearch_StoreError(t *testing.T) {
	s := newMockStore()
	s.exists = true
	s.searchErr = errors.New("boom")
	repo := New(s, 2)

	if _, err := repo.Search(context.Background(), "c", []float32{0.1, 0.2}, 5); err == nil {
		t.Fatal("expected error")
	}
}
