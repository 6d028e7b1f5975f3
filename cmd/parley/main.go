// ABOUTME: Entry point for the parley demo bot
// ABOUTME: Drives the dialog runtime from a terminal REPL with SQLite-backed state

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"

	"github.com/parleybot/parley/internal/activity"
	"github.com/parleybot/parley/internal/config"
	"github.com/parleybot/parley/internal/refcodec"
	"github.com/parleybot/parley/internal/runtime"
	"github.com/parleybot/parley/internal/state"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the parley config file.
// Priority: PARLEY_CONFIG env var > XDG_CONFIG_HOME/parley/parley.yaml > ~/.config/parley/parley.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PARLEY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "parley.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "parley", "parley.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: parley <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  chat [token]  Start a chat session, or resume one from its token")
		fmt.Println("  init          Create a starter config file")
		fmt.Println("  version       Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "chat":
		token := ""
		if len(os.Args) > 2 {
			token = os.Args[2]
		}
		err = runChat(ctx, token)
	case "init":
		err = runInit()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging configures the default slog logger from config.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// runChat starts an interactive session driving the demo dialogs. A non-empty
// token resumes the conversation it was minted for.
func runChat(ctx context.Context, token string) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg)
	logger := slog.Default()

	codec, err := refcodec.New([]byte(cfg.Codec.Secret))
	if err != nil {
		return fmt.Errorf("creating reference codec: %w", err)
	}
	ref, token, err := sessionReference(codec, token)
	if err != nil {
		return err
	}

	store, err := state.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	dialogs, err := demoDialogs(logger)
	if err != nil {
		return fmt.Errorf("registering dialogs: %w", err)
	}

	runner, err := runtime.NewRunner(dialogs, cfg.Dialogs.Root, store, logger, runtime.Options{
		ReplayTTL:        cfg.Runtime.ReplayTTL,
		ReplayMaxEntries: cfg.Runtime.ReplayMaxEntries,
	})
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}
	defer runner.Close()

	userColor := color.New(color.FgCyan)
	botColor := color.New(color.FgGreen, color.Bold)

	fmt.Println("parley chat - type a message, Ctrl-D to quit")
	fmt.Printf("resume later with: parley chat %s\n", token)
	fmt.Println()

	// Kick off the conversation with an initial empty turn so the root
	// dialog can prompt first.
	if err := runTurn(ctx, runner, botColor, ref, ""); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		userColor.Print("you> ")
		if !scanner.Scan() {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := runTurn(ctx, runner, botColor, ref, scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// runTurn sends one line of input through the runner and prints the replies.
func runTurn(ctx context.Context, runner *runtime.Runner, botColor *color.Color, ref activity.ConversationReference, text string) error {
	act := activity.NewMessage(ref.ConversationID, ref.User, text)
	act.ChannelID = ref.ChannelID
	act.ServiceURL = ref.ServiceURL
	act.Recipient = ref.Bot

	replies, _, err := runner.ProcessTurn(ctx, act)
	if err != nil {
		return fmt.Errorf("processing turn: %w", err)
	}
	for _, reply := range replies {
		if reply.Text != "" {
			botColor.Printf("bot> %s\n", reply.Text)
		}
	}
	return nil
}

// runInit writes a starter config file if one doesn't exist yet.
func runInit() error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	starter := `database:
  path: ${HOME}/.local/share/parley/state.db

dialogs:
  root: greeting

codec:
  secret: change-me

runtime:
  replay_ttl: 5m
  replay_max_entries: 10000

logging:
  level: info
  format: console
`
	if err := os.WriteFile(path, []byte(starter), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote starter config to %s\n", path)
	return nil
}
