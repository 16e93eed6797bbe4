package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"Painter/ai"
	"Painter/bot"
	"Painter/core"
	"Painter/lib/sl"
	"Painter/metrics"
	"Painter/storage"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("painter", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts core.RunOptions
	fs.StringVar(&opts.Prompt, "prompt", "", "The prompt for image generation (required)")
	fs.StringVar(&opts.Size, "size", core.Sizes[0], "Size of the generated image: 1024x1024, 1792x1024 or 1024x1792")
	fs.StringVar(&opts.Quality, "quality", core.Qualities[0], "Quality of the generated image: standard or hd")
	fs.IntVar(&opts.Count, "n", 1, "Number of images to generate (1-10)")
	fs.StringVar(&opts.OutputDir, "output-dir", "generated_images", "Directory to save the generated images")
	fs.BoolVar(&opts.UseReflection, "use-reflection", false, "Use reflection to improve the prompt")
	fs.BoolVar(&opts.ShowImprovedPrompt, "show-improved-prompt", false, "Show the improved prompt before generating images")
	fs.StringVar(&opts.Model, "model", "gpt-4", "Model to use for prompt enhancement")
	fs.StringVar(&opts.LogFile, "log-file", "generation_logs.jsonl", "File to append generation logs to")
	configPath := fs.String("conf", "", "Optional path to a YAML config file")
	credit := fs.Bool("credit", false, "Print the account credit and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if !*credit {
		if err := opts.Validate(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			fs.Usage()
			return exitUsage
		}
	}

	conf, err := core.LoadConfig(*configPath)
	if err != nil {
		var confErr *core.ConfigurationError
		if errors.As(err, &confErr) {
			fmt.Fprintln(stderr, "Error: Missing required environment variables:")
			for _, name := range confErr.Missing {
				fmt.Fprintf(stderr, "- %s\n", name)
			}
			fmt.Fprintln(stderr, "\nPlease make sure these variables are set in your .env file")
			return exitError
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	log := setupLogger(conf.Env, stderr)
	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("base_url", conf.BaseURL),
		sl.Secret("api_key", conf.APIKey),
	).Debug("configuration loaded")

	creds := conf.Credentials()
	if *credit {
		return checkCredit(ctx, ai.NewCreditChecker(creds, log), stdout, stderr)
	}

	primary := storage.NewJSONLStore(opts.LogFile)
	var mirrors []storage.RecordStore
	if conf.Mongo.Enabled {
		mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%s",
			conf.Mongo.User, conf.Mongo.Password,
			conf.Mongo.Host, conf.Mongo.Port)
		store, err := storage.NewMongoStorage(mongoURI, conf.Mongo.Database, log)
		if err != nil {
			log.With(
				slog.String("db", conf.Mongo.Database),
				slog.String("user", conf.Mongo.User),
				slog.String("host", conf.Mongo.Host),
			).Error("mongo unavailable, logging to file only", sl.Err(err))
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					log.Warn("closing mongo", sl.Err(err))
				}
			}()
			mirrors = append(mirrors, store)
		}
	}

	options := []core.RunnerOption{
		core.WithOutput(stdout),
		core.WithSystemPrompt(ai.SystemPromptImage),
		core.WithImageModel(conf.ImageModel),
		core.WithObserver(metrics.New(conf.MetricsFile)),
	}
	if conf.Telegram.Enabled {
		notifier, err := bot.NewNotifier(conf.Telegram.Token, conf.Telegram.ChatID, log)
		if err != nil {
			log.Error("telegram notifications disabled", sl.Err(err))
		} else {
			options = append(options, core.WithNotifier(notifier))
		}
	}

	runner := core.NewRunner(
		ai.NewReflection(creds, log),
		ai.NewImageClient(creds, conf.ImageModel, log),
		ai.NewSaver(opts.OutputDir, log),
		log,
		options...,
	)

	if _, err = runner.Run(ctx, opts, primary, mirrors...); err != nil {
		var genErr *core.GenerationError
		if !errors.As(err, &genErr) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitError
	}
	return exitOK
}

func checkCredit(ctx context.Context, checker *ai.CreditChecker, stdout, stderr io.Writer) int {
	credit, err := checker.Check(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	out, err := json.MarshalIndent(credit, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintln(stdout, string(out))
	return exitOK
}

func setupLogger(env string, w io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
