package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Qdrant is a minimal REST client to a Qdrant server. Collections are created
// with cosine distance.
type Qdrant struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type QdrantOption func(*Qdrant)

// WithQdrantAPIKey sets the api-key header for authenticated servers
func WithQdrantAPIKey(key string) QdrantOption {
	return func(q *Qdrant) {
		q.apiKey = key
	}
}

// WithQdrantHTTPClient replaces the default HTTP client
func WithQdrantHTTPClient(client *http.Client) QdrantOption {
	return func(q *Qdrant) {
		q.client = client
	}
}

// NewQdrant creates a Qdrant-backed VectorStore for the given base URL,
// e.g. http://localhost:6333
func NewQdrant(baseURL string, opts ...QdrantOption) *Qdrant {
	q := &Qdrant{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

func (q *Qdrant) Count(ctx context.Context, collection string) (int, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}

	status, err := q.do(ctx, http.MethodGet, "/collections/"+collection, nil, &resp)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	if status >= 300 {
		return 0, goerr.New("failed to get collection info", goerr.V("collection", collection), goerr.V("status", status))
	}

	return resp.Result.PointsCount, nil
}

func (q *Qdrant) Create(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return goerr.New("invalid vector dimension", goerr.V("dimension", dimension))
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}

	status, err := q.do(ctx, http.MethodPut, "/collections/"+collection, body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return goerr.New("failed to create collection", goerr.V("collection", collection), goerr.V("status", status))
	}

	return nil
}

func (q *Qdrant) Drop(ctx context.Context, collection string) error {
	status, err := q.do(ctx, http.MethodDelete, "/collections/"+collection, nil, nil)
	if err != nil {
		return err
	}
	if status >= 300 && status != http.StatusNotFound {
		return goerr.New("failed to drop collection", goerr.V("collection", collection), goerr.V("status", status))
	}

	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, collection string, entries []*model.CatalogEntry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return goerr.New("entries and vectors length mismatch",
			goerr.V("entries", len(entries)), goerr.V("vectors", len(vectors)))
	}

	points := make([]map[string]any, len(entries))
	for i, entry := range entries {
		points[i] = map[string]any{
			"id":      uuid.NewString(),
			"vector":  vectors[i],
			"payload": entryPayload(entry),
		}
	}

	body := map[string]any{"points": points}
	status, err := q.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return goerr.New("failed to upsert points", goerr.V("collection", collection), goerr.V("status", status))
	}

	return nil
}

func (q *Qdrant) Query(ctx context.Context, collection string, vector []float32, limit int) ([]*model.Restaurant, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result []struct {
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	status, err := q.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body, &resp)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, goerr.New("failed to search points", goerr.V("collection", collection), goerr.V("status", status))
	}

	restaurants := make([]*model.Restaurant, 0, len(resp.Result))
	for _, r := range resp.Result {
		restaurants = append(restaurants, payloadRestaurant(r.Payload))
	}

	return restaurants, nil
}

func (q *Qdrant) Sample(ctx context.Context, collection string, limit int) ([]*model.Restaurant, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}

	status, err := q.do(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", body, &resp)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, goerr.New("failed to scroll points", goerr.V("collection", collection), goerr.V("status", status))
	}

	restaurants := make([]*model.Restaurant, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		restaurants = append(restaurants, payloadRestaurant(p.Payload))
	}

	return restaurants, nil
}

// do sends one request and decodes the response body into out when given.
// It returns the HTTP status code so callers can treat 404 as absence.
func (q *Qdrant) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create request", goerr.V("path", path))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, goerr.Wrap(err, "request to vector store failed", goerr.V("path", path))
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, goerr.Wrap(err, "failed to decode response", goerr.V("path", path))
		}
	}

	return resp.StatusCode, nil
}

func entryPayload(entry *model.CatalogEntry) map[string]any {
	return map[string]any{
		"name":       entry.Name,
		"categories": entry.Categories,
		"rating":     entry.Rating,
		"address":    entry.Address,
		"zip_code":   entry.ZIPCode,
	}
}

func payloadRestaurant(payload map[string]any) *model.Restaurant {
	str := func(key string) string {
		v, _ := payload[key].(string)
		return v
	}

	return &model.Restaurant{
		Name:       str("name"),
		Categories: str("categories"),
		Rating:     str("rating"),
		Address:    str("address"),
		ZIPCode:    str("zip_code"),
	}
}

var _ VectorStore = (*Qdrant)(nil)
