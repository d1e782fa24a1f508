package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agent/vendor/create-listing" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req CreateListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.VendorID != "v1" {
			t.Errorf("vendor_id = %s", req.VendorID)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(CreateListingResponse{
			Status:  "ok",
			Listing: Record{ID: "l1", Title: "Homestay"},
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).CreateListing(context.Background(), CreateListingRequest{
		VendorID:   "v1",
		Price:      1200,
		MediaFiles: []string{"pitch.wav"},
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	if resp.Listing.ID != "l1" {
		t.Errorf("listing = %+v", resp.Listing)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Results: []SearchHit{{ID: "l1", Score: 0.92}},
		})
	}))
	defer srv.Close()

	hits, err := New(srv.URL).Search(context.Background(), SearchRequest{Query: "homestay", Mode: "via_vendor"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "l1" {
		t.Errorf("hits = %v", hits)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	}))
	defer srv.Close()

	err := New(srv.URL).UpdateMetadata(context.Background(), UpdateMetadataRequest{
		Collection: "listings", ID: "ghost", Update: map[string]any{},
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "not found" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
