package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/weecici/audio-rag/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return NewWithOptions(baseURL, genModel, embedModel, Options{})
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func NewWithOptions(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

// Generator exposes the text model behind /api/generate: one-shot prompt
// completions, optionally with a system instruction.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	return g.client.generate(ctx, map[string]any{
		"model":  g.client.genModel,
		"prompt": prompt,
		"stream": false,
	})
}

func (g *Generator) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return g.client.generate(ctx, map[string]any{
		"model":  g.client.genModel,
		"system": system,
		"prompt": prompt,
		"stream": false,
	})
}

// Embedder turns chunk texts into dense vectors via /api/embed. Requests go
// out in fixed-size sequential batches; when a chunk has a title it is
// prepended to the text so the vector carries the topical hint.
type Embedder struct {
	client    *Client
	batchSize int
	dimension int
}

// NewEmbedder builds an embedder with the given batch size and expected
// vector dimension. dimension <= 0 disables the dimension check.
func NewEmbedder(client *Client, batchSize, dimension int) *Embedder {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Embedder{client: client, batchSize: batchSize, dimension: dimension}
}

func (e *Embedder) Encode(ctx context.Context, texts []string, titles []*string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(texts))
	for i, text := range texts {
		if i < len(titles) && titles[i] != nil && *titles[i] != "" {
			inputs[i] = *titles[i] + "\n" + text
		} else {
			inputs[i] = text
		}
	}

	out := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += e.batchSize {
		end := min(start+e.batchSize, len(inputs))
		vectors, err := e.embedBatch(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed batch returned %d vectors for %d inputs", len(vectors), end-start)
		}
		for _, vector := range vectors {
			if e.dimension > 0 && len(vector) != e.dimension {
				return nil, fmt.Errorf("embedding dimension %d, expected %d", len(vector), e.dimension)
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": inputs,
	}
	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.call(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) call(ctx context.Context, path string, payload, out any, operation string) error {
	fn := func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, fn, classifyOllamaError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
