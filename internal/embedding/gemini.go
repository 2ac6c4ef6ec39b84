package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini embeds text through the Google Generative Language embedContent API.
// The primary model accepts a retrieval task hint and an output dimensionality;
// the legacy model takes neither and is used as a retry target when the
// primary call fails.
type Gemini struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	taskHints bool
	client    *http.Client
}

// NewGemini creates a provider for the given embedding model. taskHints
// controls whether the request carries a task type and dimensionality.
func NewGemini(apiKey, model string, dimension int, taskHints bool) *Gemini {
	return &Gemini{
		apiKey:    apiKey,
		model:     model,
		baseURL:   geminiBaseURL,
		dimension: dimension,
		taskHints: taskHints,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewGeminiWithBaseURL is NewGemini pointed at a different endpoint, used in tests.
func NewGeminiWithBaseURL(apiKey, model, baseURL string, dimension int, taskHints bool) *Gemini {
	g := NewGemini(apiKey, model, dimension, taskHints)
	g.baseURL = baseURL
	return g
}

func (g *Gemini) Name() string            { return "gemini/" + g.model }
func (g *Gemini) Eligible(_ Request) bool { return g.apiKey != "" }

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Content              geminiContent `json:"content"`
	TaskType             string        `json:"taskType,omitempty"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (g *Gemini) Embed(ctx context.Context, req Request) ([]float32, error) {
	body := geminiEmbedRequest{
		Content: geminiContent{Parts: []geminiPart{{Text: req.Text}}},
	}
	if g.taskHints {
		body.TaskType = "RETRIEVAL_DOCUMENT"
		if req.Task == TaskQuery {
			body.TaskType = "RETRIEVAL_QUERY"
		}
		body.OutputDimensionality = g.dimension
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gemini embedding: status %d: %s", resp.StatusCode, b)
	}

	var out geminiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("gemini embedding: decode: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini embedding: empty vector")
	}
	return out.Embedding.Values, nil
}
