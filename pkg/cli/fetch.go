package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/dashbot/pkg/usecase/ingest"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func fetchCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, placesFlags(&cfg)...)

	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch nearby restaurants for a ZIP code into a dataset file",
		ArgsUsage: "[zip] [craving]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			places, err := cfg.newPlaces()
			if err != nil {
				return err
			}

			zipCode := c.Args().Get(0)
			craving := c.Args().Get(1)
			if zipCode == "" {
				if zipCode, craving, err = promptFetchArgs(); err != nil {
					return err
				}
			}

			fetcher := ingest.NewFetcher(places, cfg.newDatasets())
			path, err := fetcher.Fetch(ctx, zipCode, craving)
			if err != nil {
				return goerr.Wrap(err, "fetch failed")
			}

			fmt.Fprintf(c.Root().Writer, "Saved restaurant dataset: %s\n", path)
			return nil
		},
	}
}

// promptFetchArgs asks for the ZIP code and craving interactively when they
// were not given as arguments
func promptFetchArgs() (zipCode, craving string, err error) {
	rl, err := readline.New("Enter ZIP code: ")
	if err != nil {
		return "", "", goerr.Wrap(err, "failed to initialize input")
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return "", "", goerr.Wrap(err, "failed to read ZIP code")
	}
	zipCode = strings.TrimSpace(line)

	rl.SetPrompt("Enter craving (e.g. 'indian', 'mexican', 'sushi'): ")
	line, err = rl.Readline()
	if err != nil {
		return "", "", goerr.Wrap(err, "failed to read craving")
	}
	craving = strings.TrimSpace(line)

	return zipCode, craving, nil
}
