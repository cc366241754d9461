// Package rulesdb wraps the relational rules database (NCCI denial alerts,
// NCD tracking, ICD crosswalk master). The database is a read-only
// collaborator: this package only runs parameterized SELECTs.
package rulesdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Row is one result row keyed by lowercase column name. NULL values are
// represented as empty strings; callers that need NULL/empty distinction do
// not exist in this pipeline (both mean "no evidence").
type Row map[string]string

// Querier is the query seam used by the crosswalk resolver and evidence
// aggregator. Tests substitute fakes; production uses *DB.
type Querier interface {
	Select(ctx context.Context, query string, args ...any) ([]Row, error)
}

// DB is a pgx-backed Querier.
type DB struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open connects to the rules database with a bounded connection pool.
func Open(ctx context.Context, dsn string, maxConns int32, log zerolog.Logger) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Debug().Str("component", "rulesdb").Msg("rules database connection established")

	return &DB{pool: pool, log: log}, nil
}

// Select runs a parameterized query and scans every row into a Row map.
// Columns are keyed by their lowercase names; values are stringified.
func (d *DB) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = stringify(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return out, nil
}

// Close releases the connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
