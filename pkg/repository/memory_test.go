package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/repository"
	"github.com/m-mizutani/gt"
)

func entry(name string) *model.CatalogEntry {
	return &model.CatalogEntry{
		Restaurant: model.Restaurant{
			Name:    name,
			Rating:  "4.0",
			ZIPCode: "98105",
		},
		EmbeddingText: name,
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()

	t.Run("missing collection counts zero", func(t *testing.T) {
		count, err := store.Count(ctx, "restaurants_98105")
		gt.NoError(t, err)
		gt.V(t, count).Equal(0)
	})

	t.Run("upsert and count", func(t *testing.T) {
		gt.NoError(t, store.Create(ctx, "restaurants_98105", 3))
		gt.NoError(t, store.Upsert(ctx, "restaurants_98105",
			[]*model.CatalogEntry{entry("A"), entry("B"), entry("C")},
			[][]float32{{1, 0, 0}, {0, 1, 0}, {0.9, 0.1, 0}},
		))

		count, err := store.Count(ctx, "restaurants_98105")
		gt.NoError(t, err)
		gt.V(t, count).Equal(3)
	})

	t.Run("query ranks by cosine similarity", func(t *testing.T) {
		results, err := store.Query(ctx, "restaurants_98105", []float32{1, 0, 0}, 2)
		gt.NoError(t, err)
		gt.V(t, len(results)).Equal(2)
		gt.V(t, results[0].Name).Equal("A")
		gt.V(t, results[1].Name).Equal("C")
	})

	t.Run("sample respects limit", func(t *testing.T) {
		samples, err := store.Sample(ctx, "restaurants_98105", 2)
		gt.NoError(t, err)
		gt.V(t, len(samples)).Equal(2)
	})

	t.Run("dimension mismatch rejected", func(t *testing.T) {
		err := store.Upsert(ctx, "restaurants_98105",
			[]*model.CatalogEntry{entry("D")}, [][]float32{{1, 0}})
		gt.Error(t, err)
	})

	t.Run("drop removes collection", func(t *testing.T) {
		gt.NoError(t, store.Drop(ctx, "restaurants_98105"))
		count, err := store.Count(ctx, "restaurants_98105")
		gt.NoError(t, err)
		gt.V(t, count).Equal(0)
	})

	t.Run("create resets previous entries", func(t *testing.T) {
		gt.NoError(t, store.Create(ctx, "restaurants_98122", 2))
		gt.NoError(t, store.Upsert(ctx, "restaurants_98122",
			[]*model.CatalogEntry{entry("old")}, [][]float32{{1, 0}}))
		gt.NoError(t, store.Create(ctx, "restaurants_98122", 2))

		count, err := store.Count(ctx, "restaurants_98122")
		gt.NoError(t, err)
		gt.V(t, count).Equal(0)
	})
}
