package embedding

import (
	"context"
	"log/slog"
	"time"
)

// Chain tries remote providers in priority order and falls back to the
// deterministic local embedder when every remote attempt fails or none is
// eligible. Embed therefore never returns an error: the worst case is the
// local vector. Remote failures are logged, not propagated.
type Chain struct {
	remotes []Provider
	local   *Local
	timeout time.Duration
}

// NewChain builds a chain over the given remote providers, in order.
// The local floor is always appended implicitly.
func NewChain(dimension int, timeout time.Duration, remotes ...Provider) *Chain {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Chain{
		remotes: remotes,
		local:   NewLocal(dimension),
		timeout: timeout,
	}
}

// Embed returns the first successful remote embedding, or the local vector.
func (c *Chain) Embed(ctx context.Context, req Request) []float32 {
	for _, p := range c.remotes {
		if !p.Eligible(req) {
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		vec, err := p.Embed(attemptCtx, req)
		cancel()
		if err != nil {
			slog.Debug("embedding provider failed, falling through",
				"provider", p.Name(), "task", string(req.Task), "error", err)
			continue
		}
		if len(vec) != c.local.Dimensions() {
			slog.Warn("embedding dimension mismatch, falling through",
				"provider", p.Name(), "got", len(vec), "want", c.local.Dimensions())
			continue
		}

		slog.Debug("embedding generated", "provider", p.Name(), "dimension", len(vec))
		return vec
	}

	slog.Debug("using local embedding fallback", "task", string(req.Task))
	return c.local.Vector(req.Text)
}

// Dimensions returns the deployment's fixed embedding dimension.
func (c *Chain) Dimensions() int { return c.local.Dimensions() }
