package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OpenRouter embeds text through the OpenRouter embeddings endpoint using the
// caller's own credential. It only applies when the user has opted into paid
// embeddings and supplied a key.
type OpenRouter struct {
	client     openai.Client
	model      string
	dimensions int
}

func NewOpenRouter(baseURL, model string, dimensions int) *OpenRouter {
	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenRouter{
		client:     openai.NewClient(opts...),
		model:      model,
		dimensions: dimensions,
	}
}

func (o *OpenRouter) Name() string { return "openrouter/" + o.model }

func (o *OpenRouter) Eligible(req Request) bool {
	return req.Paid && req.APIKey != ""
}

func (o *OpenRouter) Embed(ctx context.Context, req Request) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: o.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(req.Text),
		},
	}
	if o.dimensions > 0 {
		params.Dimensions = param.NewOpt(int64(o.dimensions))
	}

	resp, err := o.client.Embeddings.New(ctx, params, option.WithAPIKey(req.APIKey))
	if err != nil {
		return nil, fmt.Errorf("openrouter embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openrouter embedding: empty response")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
