package search

import (
	"context"
	"sort"
	"strings"

	"github.com/m-mizutani/dashbot/pkg/adapter"
	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/repository"
	"github.com/m-mizutani/dashbot/pkg/utils/logging"
)

const (
	// candidateLimit is how many neighbors are pulled before exclusion and
	// ranking cut the list down
	candidateLimit = 30

	// resultLimit caps how many restaurants one reply presents
	resultLimit = 3
)

// Ingestor builds the collection for a ZIP+craving when it does not exist yet
type Ingestor interface {
	Run(ctx context.Context, zipCode, craving string) error
}

// Input describes one restaurant search
type Input struct {
	Craving      string
	ZIPCode      string
	Neighborhood string

	// Exclude lists restaurant names already shown to the user
	Exclude []string
}

// UseCase runs the restaurant search pipeline: clean the craving, resolve the
// collection (building it on miss), embed the query, and rank the neighbors.
type UseCase struct {
	gemini adapter.Gemini
	store  repository.VectorStore
	ingest Ingestor
}

func New(gemini adapter.Gemini, store repository.VectorStore, ingest Ingestor) *UseCase {
	return &UseCase{
		gemini: gemini,
		store:  store,
		ingest: ingest,
	}
}

// Search returns up to 3 restaurants for the craving, best rated first. It
// never fails: a fetch+build failure yields a single system-notice entry, and
// any other degradation yields an empty list.
func (uc *UseCase) Search(ctx context.Context, input Input) []*model.Restaurant {
	logger := logging.From(ctx)

	craving := model.CleanCraving(input.Craving)

	collection, ok := uc.resolve(ctx, input.ZIPCode, craving)
	if !ok {
		logger.Info("no data for ZIP, fetching now", "zip", input.ZIPCode, "craving", craving)
		if err := uc.ingest.Run(ctx, input.ZIPCode, craving); err != nil {
			logger.Error("failed to fetch and build restaurant data", "error", err, "zip", input.ZIPCode)
			return []*model.Restaurant{
				model.NewNoticeRestaurant(input.ZIPCode,
					"Could not fetch restaurant data. Please try again or check your ZIP code."),
			}
		}

		collection, ok = uc.resolve(ctx, input.ZIPCode, craving)
		if !ok {
			logger.Warn("collection still missing after fetch", "zip", input.ZIPCode, "craving", craving)
			return nil
		}
	}

	query := searchQuery(craving, input.Neighborhood, input.ZIPCode)
	logger.Debug("searching restaurants", "query", query, "collection", collection)

	vector, err := uc.gemini.Embedding(ctx, query)
	if err != nil {
		logger.Error("failed to embed search query", "error", err, "query", query)
		return nil
	}

	candidates, err := uc.store.Query(ctx, collection, vector, candidateLimit)
	if err != nil {
		logger.Error("vector query failed", "error", err, "collection", collection)
		return nil
	}

	return rank(candidates, input.Exclude)
}

// resolve maps a ZIP+craving to its collection name when the collection
// exists and holds entries. Empty collections count as missing.
func (uc *UseCase) resolve(ctx context.Context, zipCode, craving string) (string, bool) {
	logger := logging.From(ctx)
	collection := model.CollectionName(zipCode, craving)

	count, err := uc.store.Count(ctx, collection)
	if err != nil {
		logger.Warn("could not check collection", "collection", collection, "error", err)
		return collection, false
	}
	if count == 0 {
		return collection, false
	}

	logger.Debug("resolved collection", "collection", collection, "count", count)
	return collection, true
}

func searchQuery(craving, neighborhood, zipCode string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{craving, neighborhood, zipCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// rank drops excluded names, stable-sorts by rating descending, and keeps the
// top 3. Non-numeric ratings rank as 0.
func rank(candidates []*model.Restaurant, exclude []string) []*model.Restaurant {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	kept := make([]*model.Restaurant, 0, len(candidates))
	for _, r := range candidates {
		if excluded[r.Name] {
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].RatingValue() > kept[b].RatingValue()
	})

	if len(kept) > resultLimit {
		kept = kept[:resultLimit]
	}
	return kept
}
