package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/dashbot/pkg/usecase/ingest"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func buildCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "build",
		Usage:     "Build the vector collection from the newest fetched dataset",
		ArgsUsage: "[zip]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			store, err := cfg.newVectorStore()
			if err != nil {
				return err
			}

			// ZIP is optional: without it the newest dataset of all wins
			zipCode := c.Args().Get(0)

			builder := ingest.NewBuilder(gemini, store, cfg.newDatasets())
			collection, count, err := builder.Build(ctx, zipCode)
			if err != nil {
				return goerr.Wrap(err, "build failed")
			}

			fmt.Fprintf(c.Root().Writer, "Collection %s built with %d restaurants\n", collection, count)
			return nil
		},
	}
}
