package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client completes chats through the OpenAI-compatible OpenRouter endpoint.
type Client struct {
	client  openai.Client
	http    *http.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return &Client{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(httpClient),
		),
		http:    httpClient,
		baseURL: baseURL,
	}
}

// Chat runs one non-streaming completion and returns the assistant text.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    msgs,
		Temperature: param.NewOpt(0.7),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params, option.WithAPIKey(req.APIKey))
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps API failures onto the user-visible taxonomy.
func classify(err error) error {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return fmt.Errorf("completion call: %w", err)
	}

	switch apierr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %v", ErrContextTooLarge, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "context") {
		return fmt.Errorf("%w: %v", ErrContextTooLarge, err)
	}
	return fmt.Errorf("completion call: %w", err)
}

// ListModels fetches the OpenRouter model catalog with the caller's key.
// ContextLength comes back in tokens and is reported as-is.
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrInvalidCredential, resp.StatusCode)
	default:
		return nil, fmt.Errorf("listing models: status %d", resp.StatusCode)
	}

	var out struct {
		Data []ModelInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("listing models: decode: %w", err)
	}
	return out.Data, nil
}

// FilterModels returns only free or only paid models from the catalog.
func FilterModels(all []ModelInfo, paid bool) []ModelInfo {
	var out []ModelInfo
	for _, m := range all {
		if m.Free() != paid {
			out = append(out, m)
		}
	}
	return out
}
