package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const sampleLimit = 5

func inspectCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, storeFlags(&cfg)...)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show collection status and sample entries",
		ArgsUsage: "<zip> [craving]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			zipCode := c.Args().Get(0)
			if zipCode == "" {
				return goerr.New("zip code argument is required")
			}
			craving := c.Args().Get(1)

			store, err := cfg.newVectorStore()
			if err != nil {
				return err
			}

			collection := model.CollectionName(zipCode, craving)
			out := c.Root().Writer

			count, err := store.Count(ctx, collection)
			if err != nil {
				return goerr.Wrap(err, "failed to check collection", goerr.V("collection", collection))
			}

			fmt.Fprintf(out, "Collection: %s\n", collection)
			fmt.Fprintf(out, "Total restaurants: %d\n", count)
			if count == 0 {
				fmt.Fprintf(out, "\nThe collection is empty. Run 'dashbot fetch %s' and 'dashbot build %s' first.\n", zipCode, zipCode)
				return nil
			}

			all, err := store.Sample(ctx, collection, count)
			if err != nil {
				return goerr.Wrap(err, "failed to scan collection", goerr.V("collection", collection))
			}

			samples := all
			if len(samples) > sampleLimit {
				samples = samples[:sampleLimit]
			}

			fmt.Fprintf(out, "\nSample entries:\n")
			for i, r := range samples {
				fmt.Fprintf(out, "\n%d. %s\n", i+1, r.Name)
				fmt.Fprintf(out, "   📍 %s\n", r.Address)
				fmt.Fprintf(out, "   🏷️  %s\n", r.Categories)
				fmt.Fprintf(out, "   ⭐ Rating: %s\n", r.Rating)
				fmt.Fprintf(out, "   📮 ZIP: %s\n", r.ZIPCode)
			}

			withZIP := 0
			for _, r := range all {
				if r.ZIPCode != "" {
					withZIP++
				}
			}

			fmt.Fprintf(out, "\nWith ZIP codes: %d\n", withZIP)
			fmt.Fprintf(out, "Without ZIP codes: %d\n", len(all)-withZIP)
			return nil
		},
	}
}
