package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/export"
	"github.com/pageguard/pageguard/internal/logger"
	"github.com/pageguard/pageguard/internal/logstore"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		outputPath = flag.String("output", "", "Output file (.parquet, .csv, or .json)")
		batchSize  = flag.Int("batch-size", 1000, "Rows fetched from the store per batch")
	)
	flag.Parse()

	if *outputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: logexport -output <file.parquet|file.csv|file.json> [-config <path>] [-batch-size <n>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	archiver, closeStore, err := openArchiver(cfg, log)
	if err != nil {
		log.Fatal("Failed to open log store", zap.Error(err))
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the export on Ctrl-C; partial output files are left on disk.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Interrupt received, stopping export")
		cancel()
	}()

	pipeline := export.NewPipeline(archiver, &export.Config{BatchSize: *batchSize}, log.WithComponent("export").Logger)

	result, err := pipeline.ExportFile(ctx, *outputPath)
	if err != nil {
		log.Fatal("Export failed", zap.Error(err))
	}

	fmt.Printf("Exported %d records in %d batches to %s (%s)\n",
		result.TotalRecords, result.Batches, result.OutputFile, result.Duration.Round(time.Millisecond))
}

// openArchiver opens the configured log store backend as a scannable archive.
func openArchiver(cfg *config.Config, log *logger.Logger) (logstore.Archiver, func(), error) {
	storeLog := log.WithComponent("logstore").Logger

	switch cfg.LogStore.Backend {
	case "postgres":
		store, err := logstore.NewPostgresStore(cfg.LogStore, storeLog)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "file":
		store, err := logstore.NewFileStore(cfg.LogStore.Directory, storeLog)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported log store backend: %s", cfg.LogStore.Backend)
	}
}
