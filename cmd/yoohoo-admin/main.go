package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yoohoo-guru/yoohoo-api/config"
	"github.com/yoohoo-guru/yoohoo-api/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdin  io.Reader
	Stdout io.Writer
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations (use --status to list them instead)",
			run:         runMigrations,
		},
		"db-seed": {
			name:        "db-seed",
			description: "Run migrations and seed development accounts and posts",
			run:         runDBSeed,
		},
		"create-account": {
			name:        "create-account",
			description: "Create an account with a role, including admin",
			run:         runCreateAccount,
		},
		"set-role": {
			name:        "set-role",
			description: "Change the role of an existing account",
			run:         runSetRole,
		},
		"inspect-session": {
			name:        "inspect-session",
			description: "Verify a session token with the configured secret and print its claims",
			run:         runInspectSession,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: yoohoo-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	for _, c := range sortedCommands() {
		if err := writef(w, "  %-24s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
