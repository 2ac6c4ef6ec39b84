package embedding

import "context"

// Task hints asymmetric embedding models about how the text will be used.
type Task string

const (
	TaskQuery    Task = "query"
	TaskDocument Task = "document"
)

// Request carries the text to embed together with the caller's context.
// The per-user paid/free preference is resolved by the caller and passed
// explicitly; providers never consult ambient state.
type Request struct {
	Text   string
	Task   Task
	APIKey string // per-user credential for paid providers
	Paid   bool   // user opted into paid remote embeddings
}

// Provider generates a vector embedding for a single request.
type Provider interface {
	Name() string
	// Eligible reports whether this provider applies to the request.
	// Ineligible providers are skipped without counting as a failure.
	Eligible(req Request) bool
	Embed(ctx context.Context, req Request) ([]float32, error)
}
