package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrDimensionMismatch is returned when a vector does not match the
// collection's declared dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Client talks to a Qdrant-compatible similarity-search service over its
// HTTP/JSON interface. One client serves one collection with a fixed vector
// dimension and cosine distance.
type Client struct {
	baseURL    string
	collection string
	dimension  int
	http       *http.Client
}

func NewClient(baseURL, collection string, dimension int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		dimension:  dimension,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   15 * time.Second,
		},
	}
}

// Collection returns the collection name served by this client.
func (c *Client) Collection() string { return c.collection }

type payload struct {
	UserID           string `json:"userId"`
	ChannelID        string `json:"channelId"`
	UserMessage      string `json:"userMessage"`
	AIResponse       string `json:"aiResponse"`
	Model            string `json:"model"`
	Timestamp        string `json:"timestamp"`
	ConversationText string `json:"conversationText"`
}

type fieldMatch struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

type scopeFilter struct {
	Must []fieldMatch `json:"must"`
}

func scopedFilter(userID, channelID string) scopeFilter {
	var user, channel fieldMatch
	user.Key = "userId"
	user.Match.Value = userID
	channel.Key = "channelId"
	channel.Match.Value = channelID
	return scopeFilter{Must: []fieldMatch{user, channel}}
}

// EnsureCollection checks for the collection and creates it if absent.
// It is idempotent: an already-existing collection is success, including
// when a concurrent caller wins the creation race.
func (c *Client) EnsureCollection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/collections/"+c.collection, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode != http.StatusNotFound:
		return fmt.Errorf("checking collection: status %d", resp.StatusCode)
	}

	create := map[string]any{
		"vectors": map[string]any{
			"size":     c.dimension,
			"distance": "Cosine",
		},
	}
	status, body, err := c.do(ctx, http.MethodPut, "/collections/"+c.collection, create, nil)
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	if status == http.StatusConflict || strings.Contains(strings.ToLower(body), "already exists") {
		return nil
	}
	if status >= 400 {
		return fmt.Errorf("creating collection: status %d: %s", status, body)
	}
	return nil
}

// Upsert writes one point under the given id. The payload carries every
// Exchange field so search results can be rendered without a second lookup.
func (c *Client) Upsert(ctx context.Context, id string, vector []float32, ex Exchange) error {
	if len(vector) != c.dimension {
		return fmt.Errorf("%w: got %d, collection expects %d", ErrDimensionMismatch, len(vector), c.dimension)
	}

	point := map[string]any{
		"id":     id,
		"vector": vector,
		"payload": payload{
			UserID:           ex.UserID,
			ChannelID:        ex.ChannelID,
			UserMessage:      ex.UserMessage,
			AIResponse:       ex.AIResponse,
			Model:            ex.Model,
			Timestamp:        ex.Timestamp.UTC().Format(time.RFC3339),
			ConversationText: ex.ConversationText,
		},
	}
	body := map[string]any{"points": []any{point}}

	status, respBody, err := c.do(ctx, http.MethodPut, "/collections/"+c.collection+"/points", body, nil)
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("upserting point: status %d: %s", status, respBody)
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		ID      any     `json:"id"`
		Score   float32 `json:"score"`
		Payload payload `json:"payload"`
	} `json:"result"`
}

// Search returns exchanges similar to the query vector, scoped strictly to
// the given user and channel, ordered by descending score.
func (c *Client) Search(ctx context.Context, vector []float32, userID, channelID string, limit int) ([]Hit, error) {
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: got %d, collection expects %d", ErrDimensionMismatch, len(vector), c.dimension)
	}
	if limit <= 0 {
		limit = 5
	}

	body := map[string]any{
		"vector":       vector,
		"filter":       scopedFilter(userID, channelID),
		"limit":        limit,
		"with_payload": true,
	}

	var out searchResponse
	status, respBody, err := c.do(ctx, http.MethodPost, "/collections/"+c.collection+"/points/search", body, &out)
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}
	if status >= 400 {
		return nil, fmt.Errorf("searching points: status %d: %s", status, respBody)
	}

	hits := make([]Hit, 0, len(out.Result))
	for _, r := range out.Result {
		hits = append(hits, Hit{
			ID:          fmt.Sprint(r.ID),
			Score:       r.Score,
			UserMessage: r.Payload.UserMessage,
			AIResponse:  r.Payload.AIResponse,
			Model:       r.Payload.Model,
			Timestamp:   parseTimestamp(r.Payload.Timestamp),
		})
	}
	return hits, nil
}

// DeleteByFilter removes every point belonging to the (user, channel) pair.
func (c *Client) DeleteByFilter(ctx context.Context, userID, channelID string) error {
	body := map[string]any{"filter": scopedFilter(userID, channelID)}

	status, respBody, err := c.do(ctx, http.MethodPost, "/collections/"+c.collection+"/points/delete", body, nil)
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("deleting points: status %d: %s", status, respBody)
	}
	return nil
}

type scrollResponse struct {
	Result struct {
		Points []struct {
			ID      any     `json:"id"`
			Payload payload `json:"payload"`
		} `json:"points"`
	} `json:"result"`
}

// ScrollRecent lists the most recent exchanges for the (user, channel) pair
// without a query vector, newest first.
func (c *Client) ScrollRecent(ctx context.Context, userID, channelID string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	body := map[string]any{
		"filter":       scopedFilter(userID, channelID),
		"limit":        limit,
		"with_payload": true,
		"order_by": []map[string]string{
			{"key": "timestamp", "direction": "desc"},
		},
	}

	var out scrollResponse
	status, respBody, err := c.do(ctx, http.MethodPost, "/collections/"+c.collection+"/points/scroll", body, &out)
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}
	if status >= 400 {
		return nil, fmt.Errorf("scrolling points: status %d: %s", status, respBody)
	}

	hits := make([]Hit, 0, len(out.Result.Points))
	for _, p := range out.Result.Points {
		hits = append(hits, Hit{
			ID:          fmt.Sprint(p.ID),
			UserMessage: p.Payload.UserMessage,
			AIResponse:  p.Payload.AIResponse,
			Model:       p.Payload.Model,
			Timestamp:   parseTimestamp(p.Payload.Timestamp),
		})
	}
	return hits, nil
}

// do issues one JSON request and optionally decodes the response body into out.
// It returns the status code and a body snippet for error reporting.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, string, error) {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, "", err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, "", err
	}
	if out != nil && resp.StatusCode < 400 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, "", fmt.Errorf("decoding response: %w", err)
		}
	}

	snippet := string(raw)
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}
	return resp.StatusCode, snippet, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
