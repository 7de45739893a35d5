package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertDocumentSQL = `
INSERT INTO documents (id, content, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, COALESCE($5, now()))
ON CONFLICT (id) DO UPDATE SET
    content = EXCLUDED.content,
    embedding = EXCLUDED.embedding,
    metadata = EXCLUDED.metadata`

const searchDocumentsSQL = `
SELECT id, content, metadata, created_at,
       1 - (embedding <=> $1) AS similarity
FROM documents
WHERE $2::jsonb IS NULL OR metadata @> $2::jsonb
ORDER BY embedding <=> $1
LIMIT $3`

const countDocumentsSQL = `
SELECT count(*) FROM documents
WHERE $1::jsonb IS NULL OR metadata @> $1::jsonb`

const deleteBySourceTypeSQL = `
DELETE FROM documents
WHERE metadata->>'source_type' = $1`

// PgxQuerier is the production Querier backed by a pgx connection pool.
type PgxQuerier struct {
	pool *pgxpool.Pool
}

// NewPgxQuerier wraps a pgx pool as a Querier.
func NewPgxQuerier(pool *pgxpool.Pool) *PgxQuerier {
	return &PgxQuerier{pool: pool}
}

// UpsertDocument inserts or updates a document row, preserving the
// original created_at on update.
func (q *PgxQuerier) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	var createdAt any
	if arg.CreatedAt.Valid {
		createdAt = arg.CreatedAt
	}
	_, err := q.pool.Exec(ctx, upsertDocumentSQL,
		arg.ID, arg.Content, arg.Embedding, arg.Metadata, createdAt)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// SearchDocuments runs cosine-distance top-k search with an optional
// metadata containment filter.
func (q *PgxQuerier) SearchDocuments(ctx context.Context, arg SearchDocumentsParams) ([]SearchDocumentsRow, error) {
	var filter any
	if len(arg.FilterMetadata) > 0 {
		filter = arg.FilterMetadata
	}

	rows, err := q.pool.Query(ctx, searchDocumentsSQL,
		arg.QueryEmbedding, filter, arg.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var results []SearchDocumentsRow
	for rows.Next() {
		var row SearchDocumentsRow
		if err := rows.Scan(&row.ID, &row.Content, &row.Metadata, &row.CreatedAt, &row.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

// CountDocuments counts rows matching the metadata filter.
func (q *PgxQuerier) CountDocuments(ctx context.Context, filterMetadata []byte) (int64, error) {
	var filter any
	if len(filterMetadata) > 0 {
		filter = filterMetadata
	}

	var count int64
	err := q.pool.QueryRow(ctx, countDocumentsSQL, filter).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// DeleteBySourceType removes every row with the given metadata source_type.
func (q *PgxQuerier) DeleteBySourceType(ctx context.Context, sourceType string) (int64, error) {
	tag, err := q.pool.Exec(ctx, deleteBySourceTypeSQL, sourceType)
	if err != nil {
		return 0, fmt.Errorf("delete by source type: %w", err)
	}
	return tag.RowsAffected(), nil
}

// compile-time interface check
var _ Querier = (*PgxQuerier)(nil)
