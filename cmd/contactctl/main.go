// Command contactctl inspects and edits the local contact attribute cache.
//
// Usage:
//
//	contactctl [flags] <command> [args...]
//
// Run without a command to list the commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-contact-attrs/internal/config"
	"github.com/MKhiriev/go-contact-attrs/internal/logger"
	"github.com/MKhiriev/go-contact-attrs/internal/service"
	"github.com/MKhiriev/go-contact-attrs/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "contactctl:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, rest, err := config.GetStructuredConfig(args)
	if err != nil {
		return fmt.Errorf("error getting configs: %w", err)
	}

	role := cfg.App.LogRole
	if role == "" {
		role = "contactctl"
	}
	log := logger.NewLogger(role)
	if err = logger.SetLevel(cfg.App.LogLevel); err != nil {
		return err
	}
	log.Debug().Str("version", orNA(buildVersion)).Str("date", orNA(buildDate)).Str("commit", orNA(buildCommit)).Msg("starting")

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("error creating storages: %w", err)
	}
	defer storages.Close()

	services := service.NewServices(storages, cfg, log)

	return newCLI(services, os.Stdout).dispatch(log.WithContext(ctx), rest)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
