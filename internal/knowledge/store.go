// Package knowledge stores retrievable documents in PostgreSQL with
// pgvector embeddings. It is the persistence layer behind the RAG
// pipeline: documents go in with an embedding generated by the configured
// embedder, and come back out via cosine-similarity search.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// MaxEmbedPayloadBytes is the ceiling on the combined content size of a
// single embedding request. The remote embedding API rejects payloads
// around 36 KB, so requests are refused locally before they travel.
const MaxEmbedPayloadBytes = 36000

// ErrPayloadTooLarge indicates the combined document content exceeds
// MaxEmbedPayloadBytes and the embed request was not attempted.
var ErrPayloadTooLarge = errors.New("embedding payload too large")

// UpsertDocumentParams carries one document row for insert-or-update.
type UpsertDocumentParams struct {
	ID        string
	Content   string
	Embedding *pgvector.Vector
	Metadata  []byte
	CreatedAt pgtype.Timestamptz
}

// SearchDocumentsParams carries a vector search request.
type SearchDocumentsParams struct {
	QueryEmbedding *pgvector.Vector
	FilterMetadata []byte
	ResultLimit    int32
}

// SearchDocumentsRow is one vector search hit.
type SearchDocumentsRow struct {
	ID         string
	Content    string
	Metadata   []byte
	CreatedAt  pgtype.Timestamptz
	Similarity float64
}

// Querier defines the database operations the store needs. The interface
// lives with its consumer so that tests can supply a mock and production
// can supply the pgx implementation.
type Querier interface {
	// UpsertDocument inserts or updates a document row.
	UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error

	// SearchDocuments performs cosine-distance top-k search, optionally
	// filtered by metadata containment. FilterMetadata nil means no filter.
	SearchDocuments(ctx context.Context, arg SearchDocumentsParams) ([]SearchDocumentsRow, error)

	// CountDocuments counts rows matching the metadata filter; nil counts all.
	CountDocuments(ctx context.Context, filterMetadata []byte) (int64, error)

	// DeleteBySourceType deletes every row whose metadata source_type
	// matches, returning the number of rows removed.
	DeleteBySourceType(ctx context.Context, sourceType string) (int64, error)
}

// Store manages documents with vector search. Safe for concurrent use.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store. A nil logger falls back to slog.Default().
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// AddDocuments embeds all documents in a single request and upserts each
// row. The combined content must stay under MaxEmbedPayloadBytes; larger
// inputs return ErrPayloadTooLarge without touching the embedder. Callers
// that need finer-grained batching split the slice before calling.
func (s *Store) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	total := 0
	input := make([]*ai.Document, 0, len(docs))
	for _, doc := range docs {
		total += len(doc.Content)
		input = append(input, &ai.Document{
			Content: []*ai.Part{ai.NewTextPart(doc.Content)},
		})
	}
	if total > MaxEmbedPayloadBytes {
		return fmt.Errorf("%w: %d bytes across %d documents (limit %d)",
			ErrPayloadTooLarge, total, len(docs), MaxEmbedPayloadBytes)
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: input})
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(docs) {
		return fmt.Errorf("embedder returned %d embeddings for %d documents",
			len(resp.Embeddings), len(docs))
	}

	for i, doc := range docs {
		if len(resp.Embeddings[i].Embedding) == 0 {
			return fmt.Errorf("empty embedding returned for document %q", doc.ID)
		}
		embedding := pgvector.NewVector(resp.Embeddings[i].Embedding)

		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %q: %w", doc.ID, err)
		}

		err = s.queries.UpsertDocument(ctx, UpsertDocumentParams{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: &embedding,
			Metadata:  metadataJSON,
			CreatedAt: pgtype.Timestamptz{Time: doc.CreatedAt, Valid: !doc.CreatedAt.IsZero()},
		})
		if err != nil {
			return fmt.Errorf("upsert document %q: %w", doc.ID, err)
		}
	}

	s.logger.Debug("documents added", "count", len(docs), "payload_bytes", total)
	return nil
}

// SimilaritySearch embeds the query and returns the most similar documents.
// A per-call timeout (default 10s, see WithTimeout) bounds both the
// embedding call and the vector query.
func (s *Store) SimilaritySearch(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	resp, err := s.embedder.Embed(queryCtx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(query)}},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned for query")
	}

	queryEmbedding := pgvector.NewVector(resp.Embeddings[0].Embedding)

	params := SearchDocumentsParams{
		QueryEmbedding: &queryEmbedding,
		ResultLimit:    cfg.topK,
	}
	if len(cfg.filter) > 0 {
		filterJSON, err := json.Marshal(cfg.filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		params.FilterMetadata = filterJSON
	}

	rows, err := s.queries.SearchDocuments(queryCtx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return rowsToResults(rows), nil
}

// Count returns the number of documents matching the filter; a nil or
// empty filter counts everything.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int, error) {
	var filterJSON []byte
	if len(filter) > 0 {
		var err error
		filterJSON, err = json.Marshal(filter)
		if err != nil {
			return 0, fmt.Errorf("marshal filter: %w", err)
		}
	}

	count, err := s.queries.CountDocuments(ctx, filterJSON)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	if count > math.MaxInt {
		return 0, fmt.Errorf("document count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// DeleteBySource removes every document with the given source_type and
// returns the number removed.
func (s *Store) DeleteBySource(ctx context.Context, sourceType string) (int, error) {
	removed, err := s.queries.DeleteBySourceType(ctx, sourceType)
	if err != nil {
		return 0, fmt.Errorf("delete by source %q: %w", sourceType, err)
	}
	s.logger.Debug("documents deleted", "source_type", sourceType, "count", removed)
	return int(removed), nil
}

func rowsToResults(rows []SearchDocumentsRow) []Result {
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]string
		if len(row.Metadata) > 0 {
			// Ignore malformed metadata rather than failing the search.
			_ = json.Unmarshal(row.Metadata, &metadata)
		}

		var createdAt time.Time
		if row.CreatedAt.Valid {
			createdAt = row.CreatedAt.Time
		}

		results = append(results, Result{
			Document: Document{
				ID:        row.ID,
				Content:   row.Content,
				Metadata:  metadata,
				CreatedAt: createdAt,
			},
			Score: row.Similarity,
		})
	}
	return results
}
