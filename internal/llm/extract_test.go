package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// fakeProvider returns canned content without any HTTP.
type fakeProvider struct {
	content string
	err     error
	gotReq  Request
}

func (f *fakeProvider) Name() string    { return "fake" }
func (f *fakeProvider) Available() bool { return true }

func (f *fakeProvider) Generate(_ context.Context, req Request) (Response, error) {
	f.gotReq = req
	if f.err != nil {
		return Response{}, f.err
	}
	return Response{Content: f.content, Model: "fake-model"}, nil
}

func TestExtractEvents(t *testing.T) {
	p := &fakeProvider{content: `[
		{"date": "2016-08-08", "title": "Loi Travail", "type": "loi"},
		{"date": "8 août 2016 environ", "title": "Date en prose"},
		{"date": "aucune", "title": "Date invalide"}
	]`}

	got := ExtractEvents(context.Background(), p, "extrait les événements", "texte de réponse", "")
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].Date != "2016-08-08" || got[0].Title != "Loi Travail" {
		t.Errorf("unexpected first candidate: %+v", got[0])
	}
	// Prose dates are normalized to ISO.
	if got[1].Date != "2016-08-08" {
		t.Errorf("prose date not normalized: %q", got[1].Date)
	}

	if p.gotReq.Temperature != 0 {
		t.Errorf("extraction temperature = %v, want 0", p.gotReq.Temperature)
	}
	if p.gotReq.SystemPrompt != "extrait les événements" {
		t.Errorf("system prompt = %q", p.gotReq.SystemPrompt)
	}
}

func TestExtractEventsStripsFences(t *testing.T) {
	p := &fakeProvider{content: "```json\n[{\"date\": \"2016-08-08\", \"title\": \"Loi Travail\"}]\n```"}

	got := ExtractEvents(context.Background(), p, "prompt", "texte", "")
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(got), got)
	}
}

func TestExtractEventsUsesExtractionModel(t *testing.T) {
	p := &fakeProvider{content: `[]`}

	ExtractEvents(context.Background(), p, "prompt", "texte", "albert-small")
	if p.gotReq.Model != "albert-small" {
		t.Errorf("model = %q, want albert-small", p.gotReq.Model)
	}
}

func TestExtractEventsDegradesToEmpty(t *testing.T) {
	cases := map[string]Provider{
		"provider error": &fakeProvider{err: errors.New("backend down")},
		"invalid JSON":   &fakeProvider{content: "je ne peux pas répondre en JSON"},
		"nil provider":   nil,
	}

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ExtractEvents(context.Background(), p, "prompt", "texte", ""); len(got) != 0 {
				t.Errorf("got %d candidates, want 0: %+v", len(got), got)
			}
		})
	}
}

func TestLoadExtractionPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.yml")
	content := "timeline_extraction_prompt: |\n  Extrait les événements juridiques datés.\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadExtractionPrompt(path)
	if err != nil {
		t.Fatalf("LoadExtractionPrompt: %v", err)
	}
	if got != "Extrait les événements juridiques datés.\n" {
		t.Errorf("prompt = %q", got)
	}
}

func TestLoadExtractionPromptMissingKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.yml")
	os.WriteFile(path, []byte("autre_cle: valeur\n"), 0644)

	if _, err := LoadExtractionPrompt(path); err == nil {
		t.Error("expected error for missing prompt key")
	}
}

func TestOpenAIProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["model"] != "albert-large" {
			t.Errorf("model = %v", payload["model"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model": "albert-large",
			"choices": []map[string]any{
				{"message": map[string]string{"content": "réponse"}, "finish_reason": "stop"},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL, "albert-large")
	resp, err := p.Generate(context.Background(), Request{UserPrompt: "question"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Content != "réponse" || resp.Model != "albert-large" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestOpenAIProviderUnavailable(t *testing.T) {
	p := NewOpenAIProvider("", "", "")
	if p.Available() {
		t.Error("Available with empty key")
	}
	if _, err := p.Generate(context.Background(), Request{UserPrompt: "q"}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestOpenAIProviderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL, "")
	if _, err := p.Generate(context.Background(), Request{UserPrompt: "q"}); err == nil {
		t.Error("expected error on non-200 status")
	}
}
