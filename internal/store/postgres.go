package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT PRIMARY KEY,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps each collection as one JSONB row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Read(ctx context.Context, collection string) ([]byte, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1`,
		collection,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("select document: %w", err)
	}
	return body, nil
}

// Write upserts every document in a single transaction.
func (s *PostgresStore) Write(ctx context.Context, docs ...Document) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, doc := range docs {
			_, err := tx.Exec(ctx,
				`INSERT INTO documents (collection, body, updated_at)
				 VALUES ($1, $2::jsonb, now())
				 ON CONFLICT (collection) DO UPDATE
				 SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
				doc.Collection, string(doc.Data),
			)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", doc.Collection, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data []byte) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, body) VALUES ($1, $2::jsonb)
		 ON CONFLICT (collection) DO NOTHING`,
		collection, string(data),
	)
	if err != nil {
		return false, fmt.Errorf("insert document: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
