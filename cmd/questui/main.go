// Command questui serves the submission gallery bundle and proxies the quest
// REST API to a running backend for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"quest-ui/internal/app"
)

func main() {
	opts := parseFlags(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "questui: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) app.Options {
	fs := flag.NewFlagSet("questui", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "Path to the JSON config file; empty runs on defaults and environment.")
	envFiles := fs.String("env", ".env", "Comma-separated .env files to load before reading QUESTUI_* variables.")
	logDir := fs.String("log-dir", "data", "Directory for the rotated server log.")
	_ = fs.Parse(args)

	return app.Options{
		ConfigPath: *configPath,
		EnvFiles:   splitList(*envFiles),
		LogDir:     *logDir,
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
