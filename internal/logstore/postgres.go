package logstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/transform"
	"go.uber.org/zap"
)

// PostgresStore persists encryption logs in PostgreSQL.
type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS encryption_logs (
	id          BIGSERIAL PRIMARY KEY,
	reference   TEXT NOT NULL,
	seq         INT NOT NULL,
	kind        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	ciphertext  TEXT NOT NULL,
	position    INT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS encryption_logs_reference_idx ON encryption_logs (reference);`

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(cfg config.LogStoreConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &PostgresStore{db: db, logger: logger}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize log store: %w", err)
	}

	logger.Info("Log store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns))

	return store, nil
}

// initialize checks the connection and creates the schema.
func (s *PostgresStore) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}

// Append stores one batch of log entries atomically and returns its reference.
func (s *PostgresStore) Append(ctx context.Context, entries []transform.LogEntry) (string, error) {
	reference, err := newReference()
	if err != nil {
		return "", err
	}

	records := toArchive(reference, entries, time.Now())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO encryption_logs (reference, seq, kind, category, ciphertext, position)
		VALUES (:reference, :seq, :kind, :category, :ciphertext, :position)`

	for _, rec := range records {
		if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
			s.logger.Error("Failed to insert log entry",
				zap.Error(err),
				zap.String("reference", reference),
				zap.Int("seq", rec.Seq))
			return "", fmt.Errorf("failed to insert log entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit log batch: %w", err)
	}

	s.logger.Debug("Log batch stored",
		zap.String("reference", reference),
		zap.Int("entries", len(entries)))

	return reference, nil
}

// Read loads a log batch by reference, in original sequence order.
func (s *PostgresStore) Read(ctx context.Context, reference string) ([]transform.LogEntry, error) {
	if !validReference(reference) {
		return nil, fmt.Errorf("invalid log reference: %q", reference)
	}

	var records []ArchiveRecord
	const query = `
		SELECT reference, seq, kind, category, ciphertext, position,
		       EXTRACT(EPOCH FROM created_at)::bigint AS created_at
		FROM encryption_logs
		WHERE reference = $1
		ORDER BY seq`

	if err := s.db.SelectContext(ctx, &records, query, reference); err != nil {
		return nil, fmt.Errorf("failed to read log batch: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no log batch with reference %q", reference)
	}

	return fromArchive(records), nil
}

// Scan pages through all stored rows for export.
func (s *PostgresStore) Scan(ctx context.Context, offset, limit int) ([]ArchiveRecord, error) {
	var records []ArchiveRecord
	const query = `
		SELECT reference, seq, kind, category, ciphertext, position,
		       EXTRACT(EPOCH FROM created_at)::bigint AS created_at
		FROM encryption_logs
		ORDER BY id
		OFFSET $1 LIMIT $2`

	if err := s.db.SelectContext(ctx, &records, query, offset, limit); err != nil {
		return nil, fmt.Errorf("failed to scan log entries: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// maskDatabaseURL masks credentials in a database URL for logging.
func maskDatabaseURL(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		rest := url[i+3:]
		if at := strings.Index(rest, "@"); at >= 0 {
			return url[:i+3] + "***@" + rest[at+1:]
		}
	}
	return url
}
