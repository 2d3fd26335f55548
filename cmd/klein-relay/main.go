package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"

	"github.com/fpt/klein-relay/internal/config"
	"github.com/fpt/klein-relay/internal/relay"
	"github.com/fpt/klein-relay/internal/server"
	"github.com/fpt/klein-relay/internal/telegram"
	"github.com/fpt/klein-relay/pkg/client"
	"github.com/fpt/klein-relay/pkg/conversation"
	pkgLogger "github.com/fpt/klein-relay/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $HOME/.klein-relay/config.yaml if present)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides config")
	flag.Parse()

	userConfig, err := config.DefaultUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize user config: %v\n", err)
		os.Exit(1)
	}

	cfgPath := userConfig.ResolveConfigPath(*configPath)
	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		settings.LogLevel = *logLevel
	}
	if err := config.ValidateSettings(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	level := pkgLogger.ParseLevel(settings.LogLevel)
	out := os.Stdout
	pkgLogger.SetGlobalLoggerWithConsoleWriter(level, out)
	logger := pkgLogger.NewLoggerWithConsoleWriter(level, out)

	llm, err := client.NewLLMClient(settings.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM client: %v\n", err)
		os.Exit(1)
	}
	images := client.NewImageGenerator(llm)

	notifier, err := telegram.NewNotifier(telegram.Config{
		Token:       settings.Telegram.Token,
		APIEndpoint: settings.Telegram.APIEndpoint,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create Telegram notifier: %v\n", err)
		os.Exit(1)
	}

	store := conversation.NewStore(conversation.Config{
		MaxTurns: settings.Relay.HistoryTurns,
		MaxUsers: settings.Relay.MaxUsers,
	})
	storeLogger := logger.WithComponent("store")
	store.OnEvict(func(userID int64) {
		storeLogger.Debug("Evicted least recently used conversation", "user_id", userID)
	})

	dispatcher, err := relay.NewDispatcher(relay.Config{
		Store:    store,
		LLM:      llm,
		Images:   images,
		Notifier: notifier,
		Branding: relay.Branding{
			BotName:   settings.Relay.Branding.BotName,
			Developer: settings.Relay.Branding.Developer,
			PoweredBy: settings.Relay.Branding.PoweredBy,
		},
		ExposeErrors: settings.Relay.ExposeErrors,
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create dispatcher: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Addr:          ":" + strconv.Itoa(settings.Server.Port),
		WebhookSecret: settings.Telegram.Token,
		Dispatcher:    dispatcher,
		Users:         store,
		Banner:        fmt.Sprintf("🤖 %s Telegram Bot Running!", settings.Relay.Branding.BotName),
		DedupeTTL:     settings.Server.DedupeTTL,
		Logger:        logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	if settings.Telegram.RegisterWebhook {
		if err := notifier.RegisterWebhook(settings.Telegram.WebhookEndpoint()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register webhook: %v\n", err)
			os.Exit(1)
		}
	}

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.InfoWithIntention(pkgLogger.IntentionShutdown, "Received signal, shutting down", "signal", sig)
		cancel()
	}()

	title := color.New(color.FgHiCyan, color.Bold)
	title.Println("klein-relay starting...")
	fmt.Printf("  Bot:     @%s\n", notifier.Username())
	fmt.Printf("  Backend: %s (%s)\n", settings.LLM.Backend, llm.ModelID())
	if images != nil {
		fmt.Printf("  Images:  %s\n", settings.LLM.Image.Model)
	}
	fmt.Printf("  Port:    %d\n", settings.Server.Port)
	if settings.Telegram.RegisterWebhook {
		fmt.Println("  Webhook: registered")
	}
	fmt.Println()

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
