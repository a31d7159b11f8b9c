package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mymmrac/telego"

	"telegram-moderation-bot/bot"
	"telegram-moderation-bot/classifier"
	"telegram-moderation-bot/config"
	"telegram-moderation-bot/moderation"
	"telegram-moderation-bot/storage"
	"telegram-moderation-bot/web"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging (LevelInfo)")
	veryVerbose := flag.Bool("vv", false, "Enable very verbose logging (LevelDebug)")
	flag.Parse()

	setLogLevel(*verbose, *veryVerbose)

	if err := godotenv.Load(); err != nil {
		slog.Warn("main: Failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("main: Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("main: Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	slog.Debug("main: Storage initialized", "db_path", cfg.DatabasePath)

	api, err := telego.NewBot(cfg.TelegramBotToken, telego.WithDiscardLogger())
	if err != nil {
		slog.Error("main: Failed to initialize Telegram client", "error", err)
		os.Exit(1)
	}

	var moderator moderation.Classifier
	if cfg.OpenAIAPIKey != "" {
		moderator = classifier.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		slog.Info("main: AI moderator enabled", "model", cfg.OpenAIModel)
	} else {
		slog.Info("main: AI moderator disabled, no OPENAI_API_KEY")
	}

	platform := bot.NewTelegram(api)
	engine := moderation.NewEngine(platform, store, moderator, cfg.BotOwnerID)
	ledger := moderation.NewLedger(store)
	escalator := moderation.NewEscalator(platform, store, ledger)

	b := bot.New(api, store, engine, ledger, escalator, cfg.BotOwnerID)

	server := web.NewServer(store)
	go func() {
		if err := server.Listen(cfg.HTTPAddr); err != nil {
			slog.Error("main: Dashboard server stopped", "error", err)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		slog.Info("main: Shutting down")
		if err := server.Shutdown(); err != nil {
			slog.Warn("main: Dashboard shutdown failed", "error", err)
		}
		b.Stop()
	}()

	slog.Info("main: Starting bot")
	if err := b.Run(); err != nil {
		slog.Error("main: Bot stopped with error", "error", err)
		os.Exit(1)
	}
}

// setLogLevel configures the logging level based on the provided flags
func setLogLevel(verbose, veryVerbose bool) {
	logLevel := slog.LevelWarn // Default level
	if veryVerbose {
		logLevel = slog.LevelDebug
	} else if verbose {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
