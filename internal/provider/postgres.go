package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	appLog "simtl/internal/log"
	"simtl/internal/model"
)

// Querier is the part of *pgxpool.Pool the provider needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres turns the rows of one query into records keyed by column name.
type Postgres struct {
	db    Querier
	query string
	args  []any
}

// NewPostgres returns a provider running query with args on every render.
func NewPostgres(db Querier, query string, args ...any) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("provider: postgres querier is nil")
	}
	if query == "" {
		return nil, errors.New("provider: postgres query is empty")
	}
	return &Postgres{db: db, query: query, args: args}, nil
}

func (p *Postgres) Models(ctx context.Context) ([]model.Record, error) {
	started := time.Now()

	rows, err := p.db.Query(ctx, p.query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("provider: query: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("provider: read row: %w", err)
		}
		fields := rows.FieldDescriptions()
		rec := make(model.Record, len(fields))
		for i, fd := range fields {
			if i < len(values) {
				rec[fd.Name] = plainValue(values[i])
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("provider: iterate rows: %w", err)
	}

	appLog.Debug("postgres records loaded", "rows", len(records), "duration", time.Since(started))
	return records, nil
}

// plainValue unwraps pgtype values the date normalizer does not know.
func plainValue(v any) any {
	switch val := v.(type) {
	case pgtype.Date:
		if !val.Valid {
			return nil
		}
		return val.Time
	case pgtype.Timestamp:
		if !val.Valid {
			return nil
		}
		return val.Time
	case pgtype.Timestamptz:
		if !val.Valid {
			return nil
		}
		return val.Time
	}
	return v
}
