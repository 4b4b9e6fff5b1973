package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process VectorStore using brute-force cosine similarity.
// It backs tests and local runs without a Qdrant server; collections do not
// survive the process.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimension int
	entries   []*model.CatalogEntry
	vectors   [][]float32
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]*memoryCollection),
	}
}

func (m *Memory) Count(ctx context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return 0, nil
	}
	return len(col.entries), nil
}

func (m *Memory) Create(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return goerr.New("invalid vector dimension", goerr.V("dimension", dimension))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = &memoryCollection{dimension: dimension}
	return nil
}

func (m *Memory) Drop(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}

func (m *Memory) Upsert(ctx context.Context, collection string, entries []*model.CatalogEntry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return goerr.New("entries and vectors length mismatch",
			goerr.V("entries", len(entries)), goerr.V("vectors", len(vectors)))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collection]
	if !ok {
		return goerr.New("collection does not exist", goerr.V("collection", collection))
	}

	for _, v := range vectors {
		if len(v) != col.dimension {
			return goerr.New("vector dimension mismatch",
				goerr.V("expected", col.dimension), goerr.V("actual", len(v)))
		}
	}

	col.entries = append(col.entries, entries...)
	col.vectors = append(col.vectors, vectors...)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, vector []float32, limit int) ([]*model.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return nil, goerr.New("collection does not exist", goerr.V("collection", collection))
	}

	idxs := make([]int, len(col.vectors))
	scores := make([]float64, len(col.vectors))
	for i, v := range col.vectors {
		idxs[i] = i
		scores[i] = cosineSimilarity(v, vector)
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})

	if limit > len(idxs) {
		limit = len(idxs)
	}
	restaurants := make([]*model.Restaurant, 0, limit)
	for _, i := range idxs[:limit] {
		r := col.entries[i].Restaurant
		restaurants = append(restaurants, &r)
	}

	return restaurants, nil
}

func (m *Memory) Sample(ctx context.Context, collection string, limit int) ([]*model.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return nil, goerr.New("collection does not exist", goerr.V("collection", collection))
	}

	if limit > len(col.entries) {
		limit = len(col.entries)
	}
	restaurants := make([]*model.Restaurant, 0, limit)
	for _, entry := range col.entries[:limit] {
		r := entry.Restaurant
		restaurants = append(restaurants, &r)
	}

	return restaurants, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ VectorStore = (*Memory)(nil)
