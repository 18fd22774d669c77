package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidbz/precedent/internal/domain"
)

// Config contains the clinical record store connection settings.
type Config struct {
	URL      string `env:"POSTGRES_URL"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"4"`
	MinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"0"`
}

// listCases reads one keyset page of case_records. NULL scalars collapse to zero values;
// NULL jsonb columns stay nil.
const listCases = `SELECT id,
       COALESCE(embedding, '{}'::float8[]),
       COALESCE(age, 0),
       COALESCE(sex, ''),
       COALESCE(admission_id, ''),
       COALESCE(icd_codes, '{}'::text[]),
       COALESCE(icd_labels, '{}'::text[]),
       COALESCE(note, ''),
       vitals, outcomes, treatments, diagnostics, metadata
FROM case_records
WHERE id > $1
ORDER BY id
LIMIT $2`

// querier is the part of *pgxpool.Pool used by Source.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewPool opens and pings a pgx connection pool.
func NewPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("postgres url is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return pool, nil
}

// Source implements domain.CaseSource over the case_records table.
type Source struct {
	db querier
}

// NewSource creates a case source. Pass a *pgxpool.Pool.
func NewSource(db querier) *Source {
	return &Source{db: db}
}

// List returns up to limit records with id greater than afterID, ordered by id.
func (s *Source) List(ctx context.Context, afterID string, limit int) ([]domain.CaseRecord, error) {
	if limit <= 0 {
		return []domain.CaseRecord{}, nil
	}

	rows, err := s.db.Query(ctx, listCases, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query case_records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.CaseRecord, 0, limit)
	for rows.Next() {
		var (
			record                                              domain.CaseRecord
			vitals, outcomes, treatments, diagnostics, metadata []byte
		)

		if scanErr := rows.Scan(
			&record.ID,
			&record.Embedding,
			&record.Age,
			&record.Sex,
			&record.AdmissionID,
			&record.ICDCodes,
			&record.ICDLabels,
			&record.Note,
			&vitals, &outcomes, &treatments, &diagnostics, &metadata,
		); scanErr != nil {
			return nil, fmt.Errorf("scan case record: %w", scanErr)
		}

		record.Vitals = rawJSON(vitals)
		record.Outcomes = rawJSON(outcomes)
		record.Treatments = rawJSON(treatments)
		record.Diagnostics = rawJSON(diagnostics)
		record.Metadata = rawJSON(metadata)

		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate case_records: %w", rowsErr)
	}

	return records, nil
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
