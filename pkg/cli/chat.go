package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/dashbot/pkg/adapter"
	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/usecase/chat"
	"github.com/m-mizutani/dashbot/pkg/usecase/ingest"
	"github.com/m-mizutani/dashbot/pkg/usecase/search"
	"github.com/m-mizutani/dashbot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const greeting = "👋 Hey! I'm Dash, your personal DoorDash food finder! " +
	"I'll help you discover amazing restaurants near you. What's your name?"

// stagePrompts mirror the front-end input placeholders per dialogue stage
var stagePrompts = map[model.Stage]string{
	model.StageName:         "Type your name > ",
	model.StageZIP:          "Enter your 5-digit ZIP code > ",
	model.StageNeighborhood: "e.g., Capitol Hill, Downtown > ",
	model.StageCraving:      "What are you craving? 🍕🍜🍣 > ",
}

func chatCommand() *cli.Command {
	var (
		cfg       config
		rulesPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "rules",
			Usage:       "YAML file overriding the tone/intent keyword tables",
			Sources:     cli.EnvVars("DASHBOT_RULES"),
			Destination: &rulesPath,
		},
		&cli.DurationFlag{
			Name:        "fetch-timeout",
			Usage:       "Timeout for fetching restaurant data inside a chat turn",
			Value:       ingest.DefaultTimeout,
			Sources:     cli.EnvVars("DASHBOT_FETCH_TIMEOUT"),
			Destination: &cfg.fetchTimeout,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, placesFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to DashBot and get restaurant recommendations",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)
			logger := logging.From(ctx)

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			store, err := cfg.newVectorStore()
			if err != nil {
				return err
			}

			// A missing places key is not fatal for chat: searches over
			// existing collections still work, fetch-on-miss degrades to the
			// error notice.
			if cfg.placesAPIKey == "" {
				logger.Warn("places-api-key is not set, fetching new restaurant data will fail")
			}
			places := adapter.NewPlaces(cfg.placesAPIKey)

			pipeline := cfg.newPipeline(gemini, store, places)
			searcher := search.New(gemini, store, pipeline)

			opts := []chat.Option{}
			if rulesPath != "" {
				rules, err := chat.LoadRules(rulesPath)
				if err != nil {
					return err
				}
				opts = append(opts, chat.WithRules(rules))
			}
			bot := chat.New(gemini, searcher, opts...)

			return runChatLoop(ctx, c, bot)
		},
	}
}

func runChatLoop(ctx context.Context, c *cli.Command, bot *chat.UseCase) error {
	rl, err := readline.New("")
	if err != nil {
		return goerr.Wrap(err, "failed to initialize input")
	}
	defer rl.Close()

	out := c.Root().Writer
	session := model.NewSession()

	fmt.Fprintf(out, "%s\n", greeting)
	fmt.Fprintf(out, "(type 'start over' to restart, 'exit' to quit)\n\n")

	for {
		rl.SetPrompt(stagePrompts[session.Stage])

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read input")
		}

		message := strings.TrimSpace(line)
		switch {
		case message == "":
			continue
		case message == "exit":
			fmt.Fprintf(out, "\nSee you next time! 🍜\n")
			return nil
		case strings.EqualFold(message, "start over"):
			session.Reset()
			fmt.Fprintf(out, "\n%s\n\n", greeting)
			continue
		}

		sp := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
		sp.Suffix = " 🍳 Cooking up your restaurant list..."
		sp.Start()
		reply := bot.Reply(ctx, session, message)
		sp.Stop()

		fmt.Fprintf(out, "\n%s\n\n", reply)
	}

	fmt.Fprintf(out, "\nSee you next time! 🍜\n")
	return nil
}
