package ingest

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultTimeout bounds one fetch+build run triggered from inside a chat turn
const DefaultTimeout = 3 * time.Minute

// Pipeline runs fetch-then-build as one bounded operation. It is what the
// chat path invokes when a collection is missing.
type Pipeline struct {
	fetcher *Fetcher
	builder *Builder
	timeout time.Duration
}

type PipelineOption func(*Pipeline)

// WithTimeout bounds one pipeline run. Non-positive values keep the default.
func WithTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPipeline(fetcher *Fetcher, builder *Builder, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		builder: builder,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run fetches restaurant data for the ZIP code and craving and builds its
// collection. The whole run is bounded by the pipeline timeout so a slow
// external service cannot hang a chat turn indefinitely.
func (p *Pipeline) Run(ctx context.Context, zipCode, craving string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.fetcher.Fetch(ctx, zipCode, craving); err != nil {
		return goerr.Wrap(err, "fetch failed", goerr.V("zip", zipCode), goerr.V("craving", craving))
	}

	if _, _, err := p.builder.Build(ctx, zipCode); err != nil {
		return goerr.Wrap(err, "build failed", goerr.V("zip", zipCode))
	}

	return nil
}
