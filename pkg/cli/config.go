package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/dashbot/pkg/adapter"
	"github.com/m-mizutani/dashbot/pkg/repository"
	"github.com/m-mizutani/dashbot/pkg/usecase/ingest"
	"github.com/m-mizutani/dashbot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	logLevel string

	// Vector store
	storeType    string
	qdrantURL    string
	qdrantAPIKey string
	datasetDir   string

	// Adapters
	geminiAPIKey string
	placesAPIKey string

	fetchTimeout time.Duration
}

// globalFlags returns flags common to every command
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("DASHBOT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// storeFlags returns flags for the vector store and dataset directory
func storeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Vector store backend (qdrant or memory)",
			Value:       "qdrant",
			Sources:     cli.EnvVars("DASHBOT_STORE"),
			Destination: &cfg.storeType,
		},
		&cli.StringFlag{
			Name:        "qdrant-url",
			Usage:       "Qdrant server URL",
			Value:       "http://localhost:6333",
			Sources:     cli.EnvVars("QDRANT_URL"),
			Destination: &cfg.qdrantURL,
		},
		&cli.StringFlag{
			Name:        "qdrant-api-key",
			Usage:       "Qdrant API key",
			Sources:     cli.EnvVars("QDRANT_API_KEY"),
			Destination: &cfg.qdrantAPIKey,
		},
		&cli.StringFlag{
			Name:        "dataset-dir",
			Usage:       "Directory for fetched restaurant datasets",
			Value:       "./data",
			Sources:     cli.EnvVars("DASHBOT_DATASET_DIR"),
			Destination: &cfg.datasetDir,
		},
	}
}

// llmFlags returns flags for LLM and embedding configuration
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key for completions and embeddings",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
	}
}

// placesFlags returns flags for the places lookup
func placesFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "places-api-key",
			Usage:       "Google Places API key",
			Sources:     cli.EnvVars("GOOGLE_PLACES_API_KEY"),
			Destination: &cfg.placesAPIKey,
		},
	}
}

// loggerContext builds the command logger and attaches it to the context.
// Logs go to stderr so they never interleave with chat output on stdout.
func (cfg *config) loggerContext(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newVectorStore creates the configured vector store
func (cfg *config) newVectorStore() (repository.VectorStore, error) {
	switch cfg.storeType {
	case "qdrant":
		if cfg.qdrantURL == "" {
			return nil, goerr.New("qdrant-url is required")
		}
		return repository.NewQdrant(cfg.qdrantURL, repository.WithQdrantAPIKey(cfg.qdrantAPIKey)), nil
	case "memory":
		return repository.NewMemory(), nil
	default:
		return nil, goerr.New("unknown store type", goerr.V("store", cfg.storeType))
	}
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" {
		return nil, goerr.New("gemini-api-key is required")
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiAPIKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini adapter")
	}
	return gemini, nil
}

// newPlaces creates a new Places adapter instance
func (cfg *config) newPlaces() (adapter.Places, error) {
	if cfg.placesAPIKey == "" {
		return nil, goerr.New("places-api-key is required")
	}
	return adapter.NewPlaces(cfg.placesAPIKey), nil
}

// newDatasets creates the dataset store
func (cfg *config) newDatasets() *adapter.DatasetStore {
	return adapter.NewDatasetStore(cfg.datasetDir)
}

// newPipeline wires fetcher and builder into one bounded fetch+build pipeline
func (cfg *config) newPipeline(gemini adapter.Gemini, store repository.VectorStore, places adapter.Places) *ingest.Pipeline {
	datasets := cfg.newDatasets()
	fetcher := ingest.NewFetcher(places, datasets)
	builder := ingest.NewBuilder(gemini, store, datasets)
	return ingest.NewPipeline(fetcher, builder, ingest.WithTimeout(cfg.fetchTimeout))
}
