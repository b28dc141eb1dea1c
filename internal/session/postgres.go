package session

import (
	"context"
	"fmt"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores sessions in a shared PostgreSQL table, one row set per device.
type Postgres struct {
	pool   *pgxpool.Pool
	device string
}

// OpenPostgres connects to dsn, applies the schema and scopes all reads and
// writes to the given device name.
func OpenPostgres(ctx context.Context, dsn, device string) (*Postgres, error) {
	if device == "" {
		return nil, fmt.Errorf("postgres session backend requires a device name")
	}
	if err := runMigrations("migrations/postgres", dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool, device: device}, nil
}

func (p *Postgres) Load(ctx context.Context) (map[string]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key, value FROM session_values WHERE device = $1`, p.device)
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

func (p *Postgres) Save(ctx context.Context, values map[string]string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM session_values WHERE device = $1`, p.device); err != nil {
			return fmt.Errorf("replacing session values: %w", err)
		}
		for k, v := range values {
			if _, err := tx.Exec(ctx,
				`INSERT INTO session_values (device, key, value) VALUES ($1, $2, $3)`,
				p.device, k, v,
			); err != nil {
				return fmt.Errorf("writing session key %s: %w", k, err)
			}
		}
		return nil
	})
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM session_values WHERE device = $1`, p.device); err != nil {
		return fmt.Errorf("deleting session values: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
