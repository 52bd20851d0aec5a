package albert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListCollectionsShapes(t *testing.T) {
	// The API has shipped three response shapes; the client accepts all.
	shapes := map[string]string{
		"openai wrapper": `{"data": [{"id": 7, "name": "legal_timeline"}]}`,
		"bare array":     `[{"id": "7", "name": "legal_timeline"}]`,
		"collections":    `{"collections": [{"id": 7, "name": "legal_timeline"}]}`,
	}

	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/collections" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(body))
			}))
			defer srv.Close()

			c := New("test-key", srv.URL, "")
			colls, err := c.ListCollections(context.Background())
			if err != nil {
				t.Fatalf("ListCollections: %v", err)
			}
			if len(colls) != 1 || colls[0].ID != "7" || colls[0].Name != "legal_timeline" {
				t.Errorf("unexpected collections: %+v", colls)
			}
		})
	}
}

func TestEnsureCollectionFindsExisting(t *testing.T) {
	created := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"data": [{"id": 42, "name": "legal_timeline"}]}`))
		case http.MethodPost:
			created = true
			w.Write([]byte(`{"id": 99}`))
		}
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, "")
	id, err := c.EnsureCollection(context.Background(), "legal_timeline", "desc")
	if err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if id != "42" {
		t.Errorf("id = %q, want 42", id)
	}
	if created {
		t.Error("existing collection was re-created")
	}
}

func TestEnsureCollectionCreates(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"data": []}`))
		case http.MethodPost:
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			gotModel = payload["model"]
			w.Write([]byte(`{"id": 99}`))
		}
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, "")
	id, err := c.EnsureCollection(context.Background(), "legal_timeline", "desc")
	if err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if id != "99" {
		t.Errorf("id = %q, want 99", id)
	}
	if gotModel != DefaultEmbedModel {
		t.Errorf("model = %q, want %q", gotModel, DefaultEmbedModel)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["prompt"] != "2016-08-08 Loi Travail" {
			t.Errorf("prompt = %v", payload["prompt"])
		}
		w.Write([]byte(`{"chunks": [{"score": 0.93, "content": "2016-08-08 Loi Travail"}]}`))
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, "")
	results, err := c.Search(context.Background(), "42", "2016-08-08 Loi Travail", 1, 0.85)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Score != 0.93 {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestDoErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, "")
	if _, err := c.ListCollections(context.Background()); err == nil {
		t.Error("expected error on 404")
	}
}

func TestNoAPIKey(t *testing.T) {
	c := New("", "http://unreachable.invalid", "")
	if c.Available() {
		t.Error("Available with empty key")
	}
	if _, err := c.ListCollections(context.Background()); err == nil {
		t.Error("expected error without API key")
	}
}
