package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/postgres"
)

const documentsTable = "trust_documents"

const createDocumentsTable = `CREATE TABLE IF NOT EXISTS trust_documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresBackend keeps one row per document in trust_documents.
type PostgresBackend struct {
	client *postgres.Client
}

// NewPostgresBackend creates the documents table if needed.
func NewPostgresBackend(ctx context.Context, client *postgres.Client) (*PostgresBackend, error) {
	if _, err := client.DB.ExecContext(ctx, createDocumentsTable); err != nil {
		return nil, fmt.Errorf("creating %s table: %w", documentsTable, err)
	}
	return &PostgresBackend{client: client}, nil
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	query, args, err := psql.Select("body").
		From(documentsTable).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building read query: %w", err)
	}
	var body string
	err = b.client.DB.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return []byte(body), nil
}

// Write upserts every document in one transaction.
func (b *PostgresBackend) Write(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	err := b.client.InTx(ctx, func(tx *sql.Tx) error {
		for _, doc := range docs {
			query, args, err := psql.Insert(documentsTable).
				Columns("name", "body", "updated_at").
				Values(doc.Name, string(doc.Body), sq.Expr("NOW()")).
				Suffix("ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at").
				ToSql()
			if err != nil {
				return fmt.Errorf("building upsert for %s: %w", doc.Name, err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("upserting %s: %w", doc.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.WriteFailed(docNames(docs), err)
	}
	return nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

func (b *PostgresBackend) Close() error {
	return b.client.Close()
}
