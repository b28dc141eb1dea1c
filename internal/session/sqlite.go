package session

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// SQLite stores the session in a small SQLite database under the state directory.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) dir/session.db and applies its schema.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "session.db")
	if err := runMigrations("migrations/sqlite", "sqlite://"+dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	// One writer keeps the grouped writes serialized.
	db.SetMaxOpenConns(1)

	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_values`)
	if err != nil {
		return nil, fmt.Errorf("querying session values: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning session value: %w", err)
		}
		values[k] = v
	}
	return values, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning session write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_values`); err != nil {
		return fmt.Errorf("replacing session values: %w", err)
	}
	for k, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_values (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
			k, v,
		); err != nil {
			return fmt.Errorf("writing session key %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_values`)
	if err != nil {
		return fmt.Errorf("deleting session values: %w", err)
	}
	return nil
}

// Close closes the session database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// runMigrations applies the embedded migrations under dir to the database at url.
func runMigrations(dir, url string) error {
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("loading session migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running session migrations: %w", err)
	}
	return nil
}
