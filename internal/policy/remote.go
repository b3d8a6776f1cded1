package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	geminiEndpoint     = "https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent"
	geminiMaxRetries   = 3
	geminiRetryBackoff = 500 * time.Millisecond
)

// GeminiEmbedder produces embeddings via the Gemini embedContent REST API.
// The endpoint surface we need is a single POST, so this talks HTTP directly
// instead of pulling in the full SDK.
type GeminiEmbedder struct {
	apiKey string
	model  string
	dim    int
	client *http.Client
}

// NewGeminiEmbedder creates an embedder for the given model. A zero dim
// defaults to 768, the output size of the text-embedding models.
func NewGeminiEmbedder(apiKey, model string, dim int) *GeminiEmbedder {
	if model == "" {
		model = "text-embedding-004"
	}
	if dim <= 0 {
		dim = 768
	}
	return &GeminiEmbedder{
		apiKey: apiKey,
		model:  model,
		dim:    dim,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type geminiEmbedRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	OutputDimensionality int `json:"outputDimensionality,omitempty"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Embed calls the embedContent endpoint with retry on transient failures.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var req geminiEmbedRequest
	req.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	req.OutputDimensionality = e.dim

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < geminiMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(geminiRetryBackoff * time.Duration(attempt)):
			}
		}
		vec, retryable, err := e.doEmbed(ctx, body)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("gemini embed: %w", lastErr)
}

func (e *GeminiEmbedder) doEmbed(ctx context.Context, body []byte) ([]float32, bool, error) {
	url := fmt.Sprintf(geminiEndpoint, e.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var out geminiEmbedResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("decode embed response: %w", err)
	}
	if out.Error != nil {
		return nil, false, fmt.Errorf("api error %d: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, false, fmt.Errorf("empty embedding in response")
	}
	return out.Embedding.Values, false, nil
}

// Dim returns the embedding dimension.
func (e *GeminiEmbedder) Dim() int { return e.dim }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
