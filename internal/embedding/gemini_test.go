package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiPrimarySendsTaskHints(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float32{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	g := NewGeminiWithBaseURL("key", "gemini-embedding-001", srv.URL, 3, true)
	vec, err := g.Embed(context.Background(), Request{Text: "hello", Task: TaskQuery})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vec))
	}

	if captured["taskType"] != "RETRIEVAL_QUERY" {
		t.Errorf("taskType = %v, want RETRIEVAL_QUERY", captured["taskType"])
	}
	if captured["outputDimensionality"] != float64(3) {
		t.Errorf("outputDimensionality = %v, want 3", captured["outputDimensionality"])
	}
}

func TestGeminiDocumentTask(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float32{1}},
		})
	}))
	defer srv.Close()

	g := NewGeminiWithBaseURL("key", "gemini-embedding-001", srv.URL, 1, true)
	if _, err := g.Embed(context.Background(), Request{Text: "doc", Task: TaskDocument}); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if captured["taskType"] != "RETRIEVAL_DOCUMENT" {
		t.Errorf("taskType = %v, want RETRIEVAL_DOCUMENT", captured["taskType"])
	}
}

func TestGeminiLegacyOmitsHints(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float32{1}},
		})
	}))
	defer srv.Close()

	g := NewGeminiWithBaseURL("key", "embedding-001", srv.URL, 1, false)
	if _, err := g.Embed(context.Background(), Request{Text: "hi", Task: TaskQuery}); err != nil {
		t.Fatalf("embed: %v", err)
	}

	if _, ok := captured["taskType"]; ok {
		t.Error("legacy model must not send taskType")
	}
	if _, ok := captured["outputDimensionality"]; ok {
		t.Error("legacy model must not send outputDimensionality")
	}
}

func TestGeminiErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGeminiWithBaseURL("key", "gemini-embedding-001", srv.URL, 8, true)
	if _, err := g.Embed(context.Background(), Request{Text: "hi"}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestGeminiIneligibleWithoutKey(t *testing.T) {
	g := NewGemini("", "gemini-embedding-001", 8, true)
	if g.Eligible(Request{Text: "hi"}) {
		t.Error("provider without key must not be eligible")
	}
}
