package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pageguard/pageguard/internal/logstore"
	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"
)

// Pipeline streams encryption-log rows out of a store into an audit archive.
// Only ciphertext leaves the store; exports carry no plaintext.
type Pipeline struct {
	archiver logstore.Archiver
	config   *Config
	logger   *zap.Logger
}

// NewPipeline creates a new export pipeline
func NewPipeline(archiver logstore.Archiver, config *Config, logger *zap.Logger) *Pipeline {
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	return &Pipeline{
		archiver: archiver,
		config:   config,
		logger:   logger,
	}
}

// ExportFile writes all stored log rows to the given path. The format is
// inferred from the file extension (Parquet, CSV, or JSON lines).
func (p *Pipeline) ExportFile(ctx context.Context, path string) (*Result, error) {
	format := DetectFileFormat(path)
	p.logger.Info("Starting log export",
		zap.String("file", path),
		zap.String("format", string(format)),
		zap.Int("batch_size", p.config.BatchSize))

	start := time.Now()
	result := &Result{OutputFile: path}

	var err error
	switch format {
	case FormatParquet:
		err = p.exportParquet(ctx, path, result)
	case FormatCSV:
		err = p.exportCSV(ctx, path, result)
	case FormatJSON:
		err = p.exportJSON(ctx, path, result)
	default:
		return result, fmt.Errorf("unsupported output format: %s", path)
	}
	if err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	p.logger.Info("Log export completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// forEachBatch pages through the store until it is exhausted.
func (p *Pipeline) forEachBatch(ctx context.Context, result *Result, fn func([]logstore.ArchiveRecord) error) error {
	offset := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := p.archiver.Scan(ctx, offset, p.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to scan log store: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		result.TotalRecords += int64(len(batch))
		result.Batches++
		offset += len(batch)
	}
}

// exportParquet writes rows as a Parquet file.
func (p *Pipeline) exportParquet(ctx context.Context, path string, result *Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewWriter(file, parquet.SchemaOf(logstore.ArchiveRecord{}))

	err = p.forEachBatch(ctx, result, func(batch []logstore.ArchiveRecord) error {
		for i := range batch {
			if err := writer.Write(&batch[i]); err != nil {
				return fmt.Errorf("failed to write Parquet record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize Parquet file: %w", err)
	}
	return nil
}

// exportCSV writes rows as a CSV file with a header row.
func (p *Pipeline) exportCSV(ctx context.Context, path string, result *Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"reference", "seq", "kind", "category", "ciphertext", "position", "created_at"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	return p.forEachBatch(ctx, result, func(batch []logstore.ArchiveRecord) error {
		for _, rec := range batch {
			row := []string{
				rec.Reference,
				strconv.Itoa(rec.Seq),
				rec.Kind,
				rec.Category,
				rec.Ciphertext,
				strconv.Itoa(rec.Position),
				strconv.FormatInt(rec.CreatedAt, 10),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// exportJSON writes rows as JSON lines, one object per row.
func (p *Pipeline) exportJSON(ctx context.Context, path string, result *Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)

	return p.forEachBatch(ctx, result, func(batch []logstore.ArchiveRecord) error {
		for _, rec := range batch {
			if err := encoder.Encode(rec); err != nil {
				return fmt.Errorf("failed to write JSON record: %w", err)
			}
		}
		return nil
	})
}
