// Package main is the entry point of the itch-rewards command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version is the release version, overridden at build time with -ldflags.
var Version = "dev"

type command struct {
	name        string
	description string
	run         func(ctx context.Context, args []string) error
}

var commands = []command{
	{"recalculate", "Update reward quantity and description from configuration file", runRecalculate},
	{"schedule", "Recalculate rewards periodically", runSchedule},
	{"list", "List all rewards for a game", runList},
	{"list-games", "List all games", runListGames},
	{"update", "Update a reward", runUpdate},
	{"setup", "Save cookies for itch.io and create reward config example file", runSetup},
	{"sync", "Copy games, rewards and purchases into the PostgreSQL mirror", runSync},
	{"version", "Print version", runVersion},
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	os.Exit(run(os.Args[1:]))
}

// run dispatches to a command and returns the process exit code.
func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}

	name := args[0]
	switch name {
	case "-v", "--version", "v":
		name = "version"
	case "-h", "--help", "help":
		usage()
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if err := cmd.run(ctx, args[1:]); err != nil {
			if !errors.Is(err, errUsage) {
				log.Error().Err(err).Str("command", name).Msg("Command failed")
			}
			return 1
		}
		return 0
	}

	fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", name)
	usage()
	return 1
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [options]\n\nCommands:\n", os.Args[0])
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-12s # %s\n", cmd.name, cmd.description)
	}
	fmt.Fprintln(os.Stderr, "\nGlobal options:\n  -h            # Show help for command")
}

func runVersion(_ context.Context, _ []string) error {
	fmt.Printf("ItchRewards %s\n", Version)
	return nil
}

// configureLogging applies the configured level and output format.
func configureLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
