package knowledge

import "time"

// Source type constants for documents stored in the vector index.
const (
	// SourceTestCases marks documents built from persisted test cases.
	SourceTestCases = "test_cases"

	// SourceDocumentation marks documents built from API documentation.
	SourceDocumentation = "documentation"
)

// Document is a unit of retrievable knowledge.
type Document struct {
	// ID uniquely identifies the document. Upserting an existing ID
	// replaces the stored content and embedding.
	ID string

	// Content is the text that gets embedded and retrieved.
	Content string

	// Metadata carries searchable attributes, e.g. source_type.
	Metadata map[string]string

	// CreatedAt is the document creation time. Zero means unknown.
	CreatedAt time.Time
}

// Result is a search hit with its similarity score.
type Result struct {
	Document Document

	// Score is cosine similarity in [0, 1]; higher is more similar.
	Score float64
}

// searchConfig holds resolved search options.
type searchConfig struct {
	topK    int32
	filter  map[string]string
	timeout time.Duration
}

// SearchOption customizes a Search call.
type SearchOption func(*searchConfig)

// WithTopK sets the maximum number of results. Values outside [1, 100]
// fall back to the default of 5.
func WithTopK(k int) SearchOption {
	return func(cfg *searchConfig) {
		if k >= 1 && k <= 100 {
			cfg.topK = int32(k)
		}
	}
}

// WithFilter restricts results to documents whose metadata contains the
// given key/value pair. May be applied multiple times.
func WithFilter(key, value string) SearchOption {
	return func(cfg *searchConfig) {
		if cfg.filter == nil {
			cfg.filter = make(map[string]string)
		}
		cfg.filter[key] = value
	}
}

// WithTimeout overrides the per-search timeout (default 10s).
func WithTimeout(d time.Duration) SearchOption {
	return func(cfg *searchConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) searchConfig {
	cfg := searchConfig{
		topK:    5,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
