// Package albert is a client for the Albert collections API
// (https://albert.api.etalab.gouv.fr), the vector-search service backing
// the remote timeline store. Calls are synchronous with a bounded
// timeout; there is no retry logic at this layer.
package albert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Albert endpoint.
const DefaultBaseURL = "https://albert.api.etalab.gouv.fr/v1"

// DefaultEmbedModel is the embedding model used for new collections.
const DefaultEmbedModel = "BAAI/bge-m3"

// Client talks to the Albert collections and search endpoints.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Client. baseURL and model fall back to the public
// endpoint and default embedding model when empty.
func New(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultEmbedModel
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// Available returns true if an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Collection describes one remote collection.
type Collection struct {
	ID   string
	Name string
}

// Document is one stored document with its metadata payload.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// SearchResult is one nearest-neighbor hit.
type SearchResult struct {
	Score    float64        `json:"score"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// collectionJSON tolerates the API returning ids as numbers or strings.
type collectionJSON struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// ListCollections lists all collections. The API has returned three
// response shapes over time (OpenAI-style {"data": [...]}, a bare array,
// and {"collections": [...]}); all are accepted.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	body, err := c.do(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return nil, err
	}

	var raw []collectionJSON
	var wrapper struct {
		Data        []collectionJSON `json:"data"`
		Collections []collectionJSON `json:"collections"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && (wrapper.Data != nil || wrapper.Collections != nil) {
		raw = wrapper.Data
		if raw == nil {
			raw = wrapper.Collections
		}
	} else if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("albert: unexpected collections response: %w", err)
	}

	out := make([]Collection, 0, len(raw))
	for _, coll := range raw {
		out = append(out, Collection{ID: coll.ID.String(), Name: coll.Name})
	}
	return out, nil
}

// CreateCollection creates a collection and returns its id.
func (c *Client) CreateCollection(ctx context.Context, name, description string) (string, error) {
	payload := map[string]string{
		"name":        name,
		"description": description,
		"model":       c.model,
	}
	body, err := c.do(ctx, http.MethodPost, "/collections", payload)
	if err != nil {
		return "", err
	}

	var created struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("albert: unexpected create response: %w", err)
	}
	if created.ID.String() == "" {
		return "", fmt.Errorf("albert: create returned no collection id")
	}
	return created.ID.String(), nil
}

// EnsureCollection finds the named collection or creates it.
//
// List-then-create is racy: two processes initializing simultaneously can
// create duplicate collections. Not handled; timeline storage is
// non-critical and a single writer per conversation is assumed.
func (c *Client) EnsureCollection(ctx context.Context, name, description string) (string, error) {
	colls, err := c.ListCollections(ctx)
	if err != nil {
		return "", err
	}
	for _, coll := range colls {
		if coll.Name == name {
			return coll.ID, nil
		}
	}
	return c.CreateCollection(ctx, name, description)
}

// AddDocument stores a document in the collection.
func (c *Client) AddDocument(ctx context.Context, collectionID string, doc Document) error {
	_, err := c.do(ctx, http.MethodPost, "/collections/"+collectionID+"/documents", doc)
	return err
}

// ListDocuments lists every document in the collection.
func (c *Client) ListDocuments(ctx context.Context, collectionID string) ([]Document, error) {
	body, err := c.do(ctx, http.MethodGet, "/collections/"+collectionID+"/documents", nil)
	if err != nil {
		return nil, err
	}

	var docs []Document
	var wrapper struct {
		Data []Document `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Data != nil {
		return wrapper.Data, nil
	}
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("albert: unexpected documents response: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes one document.
func (c *Client) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/collections/"+collectionID+"/documents/"+documentID, nil)
	return err
}

// Search runs a semantic search over the collection and returns the
// matched chunks with their similarity scores.
func (c *Client) Search(ctx context.Context, collectionID, query string, limit int, scoreThreshold float64) ([]SearchResult, error) {
	payload := map[string]any{
		"collections":     []string{collectionID},
		"prompt":          query,
		"k":               limit,
		"score_threshold": scoreThreshold,
	}
	body, err := c.do(ctx, http.MethodPost, "/search", payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Chunks []SearchResult `json:"chunks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("albert: unexpected search response: %w", err)
	}
	return resp.Chunks, nil
}

// do executes one API call and returns the response body. 2xx only;
// anything else is an error carrying a truncated body excerpt.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if !c.Available() {
		return nil, fmt.Errorf("albert: no API key configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("albert: rate limiter wait failed: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("albert: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("albert: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("albert: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("albert: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("albert: %s %s returned status %d: %s",
			method, path, resp.StatusCode, excerpt(body))
	}
	return body, nil
}

func excerpt(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
