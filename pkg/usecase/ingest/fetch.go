package ingest

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/m-mizutani/dashbot/pkg/adapter"
	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// genericTypes are place type tags too broad to describe a restaurant
var genericTypes = map[string]bool{
	"point_of_interest": true,
	"establishment":     true,
	"food":              true,
	"restaurant":        true,
}

const maxCategories = 3

// Fetcher retrieves nearby restaurants for a ZIP code from the places API and
// writes them as a dataset file for the builder.
type Fetcher struct {
	places   adapter.Places
	datasets *adapter.DatasetStore
}

func NewFetcher(places adapter.Places, datasets *adapter.DatasetStore) *Fetcher {
	return &Fetcher{
		places:   places,
		datasets: datasets,
	}
}

// Fetch looks up restaurants around the ZIP code, optionally filtered by a
// craving keyword, and returns the path of the written dataset file.
func (f *Fetcher) Fetch(ctx context.Context, zipCode, craving string) (string, error) {
	logger := logging.From(ctx)

	if !model.ValidZIP(zipCode) {
		return "", goerr.New("invalid ZIP code", goerr.V("zip", zipCode))
	}

	lat, lng, err := f.places.Geocode(ctx, zipCode)
	if err != nil {
		return "", goerr.Wrap(err, "failed to locate ZIP code", goerr.V("zip", zipCode))
	}
	logger.Info("located ZIP code", "zip", zipCode, "lat", lat, "lng", lng)

	places, err := f.places.NearbyRestaurants(ctx, lat, lng, model.CleanCraving(craving))
	if err != nil {
		return "", goerr.Wrap(err, "failed to search nearby restaurants", goerr.V("zip", zipCode))
	}

	entries := buildCatalog(places, zipCode, craving)
	if len(entries) == 0 {
		return "", goerr.New("no restaurants found", goerr.V("zip", zipCode), goerr.V("craving", craving))
	}

	path, err := f.datasets.Write(zipCode, craving, entries)
	if err != nil {
		return "", err
	}
	logger.Info("saved restaurant dataset", "path", path, "count", len(entries))

	return path, nil
}

// buildCatalog turns raw place results into dataset entries: cleans category
// tags, fills missing ZIP codes from the request, synthesizes the embedding
// text, dedupes by name+address, and sorts by rating descending.
func buildCatalog(places []*adapter.Place, zipCode, craving string) []*model.CatalogEntry {
	seen := make(map[string]bool, len(places))
	entries := make([]*model.CatalogEntry, 0, len(places))

	for _, p := range places {
		if p.Name == "" {
			continue
		}
		key := p.Name + "|" + p.Vicinity
		if seen[key] {
			continue
		}
		seen[key] = true

		rating := "N/A"
		if p.Rating != nil {
			rating = strconv.FormatFloat(*p.Rating, 'g', -1, 64)
		}

		categories := cleanCategories(p.Types)
		extractedZIP := model.AddressZIP(p.Vicinity)
		if extractedZIP == "" {
			extractedZIP = zipCode
		}

		entries = append(entries, &model.CatalogEntry{
			Restaurant: model.Restaurant{
				Name:       p.Name,
				Rating:     rating,
				Categories: categories,
				Address:    p.Vicinity,
				ZIPCode:    extractedZIP,
			},
			EmbeddingText: embeddingText(p.Name, categories, p.Vicinity, rating),
		})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].RatingValue() > entries[b].RatingValue()
	})

	return entries
}

func cleanCategories(types []string) string {
	categories := make([]string, 0, maxCategories)
	for _, t := range types {
		if genericTypes[t] {
			continue
		}
		categories = append(categories, titleCase(strings.ReplaceAll(t, "_", " ")))
		if len(categories) == maxCategories {
			break
		}
	}
	if len(categories) == 0 {
		return "Restaurant"
	}
	return strings.Join(categories, ", ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func embeddingText(name, categories, address, rating string) string {
	return name + ". Category: " + categories + ". " +
		"Known for " + categories + " dishes. Located at " + address + ". " +
		"Rated " + rating + " stars. A popular spot for people craving " + categories + " or similar foods."
}
