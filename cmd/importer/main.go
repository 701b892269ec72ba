package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"mares.app/internal/adapters/infrastructure"
	"mares.app/internal/app"
	"mares.app/internal/config"
	"mares.app/internal/core/legacy"
	"mares.app/internal/ports"
	"mares.app/pkg/logger"
)

var CLI struct {
	Path     string `help:"Legacy banco.js file to import. Defaults to IMPORT_DEFAULT_PATH." type:"path"`
	Year     int    `help:"Year the legacy tables describe." required:""`
	Truncate bool   `help:"Delete the target year's days and readings before importing."`
	LogFile  string `help:"Also write import logs as JSON to this file." type:"path" name:"log-file"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("importer"),
		kong.Description("Import legacy tide tables into the database"),
		kong.UsageOnError(),
	)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found or error loading it")
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level := logger.ParseLevel(cfg.LogLevel)
	base := logger.NewWithLevel(level)
	base.SetDefault()

	var importLogger ports.Logger = infrastructure.NewSlogLoggerAdapter(base.Logger)
	if CLI.LogFile != "" {
		fileLogger, err := infrastructure.NewFileLoggerAdapter(CLI.LogFile, level)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() { _ = fileLogger.Close() }()
		importLogger = infrastructure.TeeLogger{importLogger, fileLogger}
	}

	deps, err := app.NewDependencyContainer(cfg, app.DependencyOptions{Logger: importLogger})
	if err != nil {
		return fmt.Errorf("create dependency container: %w", err)
	}
	defer func() { _ = deps.Cleanup() }()

	importer, err := deps.NewImporter()
	if err != nil {
		return err
	}

	path := CLI.Path
	if path == "" {
		path = cfg.Import.DefaultPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := importer.ImportFile(ctx, path, legacy.Options{
		Year:     CLI.Year,
		Truncate: CLI.Truncate,
	})
	if err != nil {
		return err
	}

	if CLI.Truncate {
		fmt.Printf("Removed %d existing days of %d.\n", result.DaysDeleted, CLI.Year)
	}
	fmt.Printf("Import finished. Days created: %d, Readings created: %d\n", result.DaysCreated, result.ReadingsCreated)
	if result.ReadingsUpdated > 0 {
		fmt.Printf("Readings updated: %d\n", result.ReadingsUpdated)
	}
	if len(result.Warnings) > 0 {
		fmt.Printf("Skipped entries: %d (see log for details)\n", len(result.Warnings))
	}
	return nil
}
