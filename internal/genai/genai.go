// Package genai wires the Genkit runtime: model client and embedder
// construction for the Google AI provider. The rest of the codebase
// depends on the narrow ModelClient/Embedder surfaces, never on Genkit
// directly.
package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/qaforge/casegen/internal/config"
	"github.com/qaforge/casegen/internal/log"
)

// Init initializes Genkit with the Google AI plugin. Requires
// GEMINI_API_KEY (or GOOGLE_API_KEY) in the environment.
func Init(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY", config.ErrMissingAPIKey)
	}
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	return g, nil
}

// Embedder returns the configured embedding model.
func Embedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// Client is the generative model client used by the planner and the
// generation workflow.
type Client struct {
	g         *genkit.Genkit
	modelName string
	logger    log.Logger
}

// NewClient creates a model client. Bare model names get the googleai/
// provider prefix.
func NewClient(g *genkit.Genkit, cfg *config.Config, logger log.Logger) *Client {
	name := cfg.ModelName
	if !strings.Contains(name, "/") {
		name = "googleai/" + name
	}
	return &Client{
		g:         g,
		modelName: name,
		logger:    logger.With("component", "genai", "model", name),
	}
}

// Generate sends the prompt to the model and returns the response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("model generation: %w", err)
	}

	text := resp.Text()
	c.logger.Debug("model response", "prompt_chars", len(prompt), "response_chars", len(text))
	return text, nil
}
