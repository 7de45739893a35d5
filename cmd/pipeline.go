package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qaforge/casegen/db"
	"github.com/qaforge/casegen/internal/config"
	"github.com/qaforge/casegen/internal/genai"
	"github.com/qaforge/casegen/internal/knowledge"
	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/planner"
	"github.com/qaforge/casegen/internal/rag"
	"github.com/qaforge/casegen/internal/store"
)

// pipeline bundles the live handles the generation commands need. Built
// once per command invocation, closed on exit.
type pipeline struct {
	cfg       *config.Config
	logger    log.Logger
	store     *store.Store
	pool      *pgxpool.Pool
	knowledge *knowledge.Store
	model     *genai.Client
	planner   *planner.Engine
	workflow  *rag.Workflow
}

// newPipeline wires config, store, database, embedder and model into a
// ready workflow, running migrations on the way.
func newPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	g, err := genai.Init(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	ks := knowledge.New(knowledge.NewPgxQuerier(pool), genai.Embedder(g, cfg), logger)
	model := genai.NewClient(g, cfg, logger)
	index := rag.NewKnowledgeIndex(ks)

	workflow := rag.NewWorkflow(model, index, logger,
		rag.WithRetriever(rag.NewRetriever(index, logger, rag.WithTopK(cfg.TopK))))
	if err := workflow.Initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return &pipeline{
		cfg:       cfg,
		logger:    logger,
		store:     openStore(cfg, logger),
		pool:      pool,
		knowledge: ks,
		model:     model,
		planner:   planner.NewEngine(model, logger),
		workflow:  workflow,
	}, nil
}

// Close releases the database pool.
func (p *pipeline) Close() {
	p.pool.Close()
}

// resumeEmbedded marks the workflow Embedded when the index already holds
// documents from an earlier run, and errors otherwise.
func (p *pipeline) resumeEmbedded(ctx context.Context) error {
	if p.workflow.Resume(ctx) {
		return nil
	}
	return fmt.Errorf("%w: run 'casegen embed' first", rag.ErrNotEmbedded)
}
