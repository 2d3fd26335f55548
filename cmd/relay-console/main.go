package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/fpt/klein-relay/internal/config"
	"github.com/fpt/klein-relay/internal/console"
	"github.com/fpt/klein-relay/internal/relay"
	"github.com/fpt/klein-relay/pkg/client"
	"github.com/fpt/klein-relay/pkg/conversation"
	pkgLogger "github.com/fpt/klein-relay/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $HOME/.klein-relay/config.yaml if present)")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	userID := flag.Int64("user", 1, "User id to talk as")
	imageDir := flag.String("image-dir", "", "Directory for generated images (default: $HOME/.klein-relay/images)")
	flag.Parse()

	userConfig, err := config.DefaultUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize user config: %v\n", err)
		os.Exit(1)
	}

	settings, err := config.LoadSettings(userConfig.ResolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	// No Telegram here, so only the provider settings must be valid.
	if err := config.ValidateLLMSettings(settings.LLM); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Console output belongs to the REPL; logs go to the file only.
	level := pkgLogger.ParseLevel(*logLevel)
	pkgLogger.SetGlobalLoggerWithConsoleWriter(level, io.Discard)
	logger := pkgLogger.NewLoggerWithConsoleWriter(level, io.Discard)

	llm, err := client.NewLLMClient(settings.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM client: %v\n", err)
		os.Exit(1)
	}

	dir := *imageDir
	if dir == "" {
		dir = filepath.Join(userConfig.BaseDir, "images")
	}
	colored := !color.NoColor
	notifier := console.NewNotifier(console.NotifierConfig{
		Out:      os.Stdout,
		ImageDir: dir,
		Colored:  colored,
		Logger:   logger,
	})

	dispatcher, err := relay.NewDispatcher(relay.Config{
		Store: conversation.NewStore(conversation.Config{
			MaxTurns: settings.Relay.HistoryTurns,
			MaxUsers: settings.Relay.MaxUsers,
		}),
		LLM:      llm,
		Images:   client.NewImageGenerator(llm),
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

	err = console.RunREPL(context.Background(), console.REPLConfig{
		Dispatcher:  dispatcher,
		Notifier:    notifier,
		HistoryFile: userConfig.HistoryFile,
		UserID:      *userID,
		BotName:     settings.Relay.Branding.BotName,
		Model:       llm.ModelID(),
		Out:         os.Stdout,
		Colored:     colored,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Console error: %v\n", err)
		os.Exit(1)
	}
}
