package ingest

import (
	"context"

	"github.com/m-mizutani/dashbot/pkg/adapter"
	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/repository"
	"github.com/m-mizutani/dashbot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// upsertBatchSize bounds how many points go into one vector store write
const upsertBatchSize = 100

// Builder loads a fetched dataset, embeds its entries, and recreates the
// matching vector store collection.
type Builder struct {
	gemini   adapter.Gemini
	store    repository.VectorStore
	datasets *adapter.DatasetStore
}

func NewBuilder(gemini adapter.Gemini, store repository.VectorStore, datasets *adapter.DatasetStore) *Builder {
	return &Builder{
		gemini:   gemini,
		store:    store,
		datasets: datasets,
	}
}

// Build picks the newest dataset file for the ZIP code (or the newest of all
// when zipCode is empty), embeds its entries, and rebuilds the collection
// named by the ZIP and craving recovered from the file name. It returns the
// collection name and the verified entry count.
func (b *Builder) Build(ctx context.Context, zipCode string) (string, int, error) {
	logger := logging.From(ctx)

	path, err := b.datasets.Latest(zipCode)
	if err != nil {
		return "", 0, err
	}

	fileZIP, craving, ok := adapter.ParseDatasetName(path)
	if !ok {
		return "", 0, goerr.New("unrecognized dataset file name", goerr.V("path", path))
	}
	collection := model.CollectionName(fileZIP, craving)
	logger.Info("building collection", "collection", collection, "dataset", path)

	entries, err := b.datasets.Read(path)
	if err != nil {
		return "", 0, err
	}

	entries = dedupe(entries)
	if len(entries) == 0 {
		return "", 0, goerr.New("dataset holds no valid restaurants", goerr.V("path", path))
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.EmbeddingText
	}
	vectors, err := b.gemini.EmbedTexts(ctx, texts)
	if err != nil {
		return "", 0, goerr.Wrap(err, "failed to embed dataset", goerr.V("path", path))
	}

	// Rebuild from scratch so stale entries never linger
	if err := b.store.Drop(ctx, collection); err != nil {
		return "", 0, goerr.Wrap(err, "failed to drop previous collection", goerr.V("collection", collection))
	}
	if err := b.store.Create(ctx, collection, len(vectors[0])); err != nil {
		return "", 0, goerr.Wrap(err, "failed to create collection", goerr.V("collection", collection))
	}

	for start := 0; start < len(entries); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := b.store.Upsert(ctx, collection, entries[start:end], vectors[start:end]); err != nil {
			return "", 0, goerr.Wrap(err, "failed to store embeddings",
				goerr.V("collection", collection), goerr.V("batch_start", start))
		}
	}

	count, err := b.store.Count(ctx, collection)
	if err != nil {
		return "", 0, goerr.Wrap(err, "failed to verify collection", goerr.V("collection", collection))
	}
	if count != len(entries) {
		return "", 0, goerr.New("collection count mismatch after build",
			goerr.V("collection", collection), goerr.V("expected", len(entries)), goerr.V("actual", count))
	}
	logger.Info("collection built", "collection", collection, "count", count)

	return collection, count, nil
}

func dedupe(entries []*model.CatalogEntry) []*model.CatalogEntry {
	seen := make(map[string]bool, len(entries))
	kept := entries[:0]
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}
		key := entry.Name + "|" + entry.Address
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, entry)
	}
	return kept
}
