package repository

import (
	"context"

	"github.com/m-mizutani/dashbot/pkg/model"
)

// VectorStore defines the interface for restaurant vector collections. One
// collection holds the embeddings for one ZIP+craving combination and is
// recreated wholesale on every rebuild.
type VectorStore interface {
	// Count returns the number of entries in a collection. A missing
	// collection counts as 0, not an error.
	Count(ctx context.Context, collection string) (int, error)

	// Create creates an empty collection for vectors of the given dimension
	Create(ctx context.Context, collection string, dimension int) error

	// Drop removes a collection. Dropping a missing collection is not an error
	Drop(ctx context.Context, collection string) error

	// Upsert stores entries together with their embedding vectors
	Upsert(ctx context.Context, collection string, entries []*model.CatalogEntry, vectors [][]float32) error

	// Query returns up to limit restaurants nearest to the query vector
	Query(ctx context.Context, collection string, vector []float32, limit int) ([]*model.Restaurant, error)

	// Sample returns up to limit entries in storage order, for inspection
	Sample(ctx context.Context, collection string, limit int) ([]*model.Restaurant, error)
}
