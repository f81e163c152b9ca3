// verify-db applies migrations/NNN_name.sql files in order under an advisory lock,
// recording a checksum for each so edited migrations are caught.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"rice-mill/internal/config"
	"rice-mill/internal/db"
)

const migrationLockID = 7462839

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel, "text")

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	logger.Info("[CONNECT] success")

	m := &migrator{pool: pool, dir: dir, logger: logger}
	if err := m.run(ctx); err != nil {
		pool.Close()
		logger.Fatal(err)
	}
	logger.Info("[DONE] All migrations processed.")
}

type migrator struct {
	pool   *pgxpool.Pool
	dir    string
	logger logrus.FieldLogger
}

func (m *migrator) run(ctx context.Context) error {
	conn, err := m.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if err := m.setupSchemaMigrations(ctx); err != nil {
		return err
	}

	files, err := discoverMigrations(m.dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := m.apply(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// acquireLock holds a session advisory lock on a dedicated connection until it is released.
func (m *migrator) acquireLock(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("[LOCK] failed to acquire connection for lock: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockID).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("[LOCK] failed to query advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, errors.New("[LOCK] failed: another migrator is currently running")
	}

	m.logger.Info("[LOCK] success")
	return conn, nil
}

func (m *migrator) setupSchemaMigrations(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	if err != nil {
		return fmt.Errorf("[ERROR] failed to create schema_migrations table: %w", err)
	}
	return nil
}

// migrationFile is one discovered NNN_description.sql file.
type migrationFile struct {
	Version  string
	Filename string
	SQL      []byte
	Checksum string
}

// discoverMigrations reads every .sql file in dir, sorted by filename, rejecting
// malformed names and duplicate versions.
func discoverMigrations(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("[DISCOVER] failed to read migrations directory: %w", err)
	}

	var files []migrationFile
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := entry.Name()
		version, err := extractVersion(name)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("[DISCOVER] duplicate version %s: %s and %s", version, prev, name)
		}
		seen[version] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("[DISCOVER] failed to read %s: %w", name, err)
		}
		sum := sha256.Sum256(body)
		files = append(files, migrationFile{Version: version, Filename: name, SQL: body, Checksum: hex.EncodeToString(sum[:])})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}

func extractVersion(filename string) (string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("[DISCOVER] invalid migration filename format: %s. Expected format NNN_description.sql", filename)
	}
	return parts[0], nil
}

func (m *migrator) apply(ctx context.Context, f migrationFile) error {
	var existing string
	err := m.pool.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", f.Version).Scan(&existing)
	switch {
	case err == nil:
		if existing != f.Checksum {
			return fmt.Errorf("[ERROR] checksum mismatch for %s. Expected %s, got %s", f.Filename, existing, f.Checksum)
		}
		m.logger.Infof("[SKIP] %s", f.Filename)
		return nil
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return fmt.Errorf("[ERROR] failed to query schema_migrations for %s: %w", f.Filename, err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("[ERROR] failed to begin transaction for %s: %w", f.Filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(f.SQL)); err != nil {
		return fmt.Errorf("[ERROR] failed to execute migration %s: %w", f.Filename, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		f.Version, f.Filename, f.Checksum,
	); err != nil {
		return fmt.Errorf("[ERROR] failed to insert migration record for %s: %w", f.Filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("[ERROR] failed to commit transaction for %s: %w", f.Filename, err)
	}

	m.logger.Infof("[APPLY] %s", f.Filename)
	return nil
}
