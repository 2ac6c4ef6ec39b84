package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"recall/internal/cache"
)

// Turn is one role/content entry of a recency window.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	defaultStoreCap = 20
	defaultReadCap  = 10
	windowTTL       = 7 * 24 * time.Hour
	preferenceTTL   = 30 * 24 * time.Hour
)

// Options tunes the recency window. Zero values pick the defaults.
type Options struct {
	// StoreCap bounds the entries kept in the cache after an append.
	StoreCap int
	// ReadCap bounds the entries returned by Read; it is smaller than
	// StoreCap so recall and the TTL refresh cost stay bounded.
	ReadCap int
	TTL     time.Duration
}

// Store keeps the short-term recency window and per-user preferences in a
// key-value cache. Every read tolerates missing or corrupt entries: the
// window degrades to empty rather than failing the chat turn.
type Store struct {
	cache    cache.Cache
	storeCap int
	readCap  int
	ttl      time.Duration
}

func NewStore(c cache.Cache, opts Options) *Store {
	if opts.StoreCap <= 0 {
		opts.StoreCap = defaultStoreCap
	}
	if opts.ReadCap <= 0 {
		opts.ReadCap = defaultReadCap
	}
	if opts.TTL <= 0 {
		opts.TTL = windowTTL
	}
	return &Store{
		cache:    c,
		storeCap: opts.StoreCap,
		readCap:  opts.ReadCap,
		ttl:      opts.TTL,
	}
}

func windowKey(userID, channelID string) string {
	return fmt.Sprintf("conversation:%s:%s", userID, channelID)
}

// Read returns the last turns for the (user, channel) pair, oldest first,
// capped at ReadCap. A missing or unparsable window yields an empty slice.
func (s *Store) Read(ctx context.Context, userID, channelID string) []Turn {
	raw, ok, err := s.cache.Get(ctx, windowKey(userID, channelID))
	if err != nil {
		slog.Debug("recency window read failed", "user", userID, "channel", channelID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var window []Turn
	if err := json.Unmarshal([]byte(raw), &window); err != nil {
		slog.Warn("discarding corrupt recency window", "user", userID, "channel", channelID, "error", err)
		return nil
	}

	if len(window) > s.readCap {
		window = window[len(window)-s.readCap:]
	}
	return window
}

// Append adds a completed user/assistant pair to the window, truncates to
// StoreCap and rewrites the entry with a refreshed TTL.
//
// The read-modify-write is not atomic: two overlapping turns for the same
// pair can lose one update. That is accepted; the vector store still holds
// the full exchange.
func (s *Store) Append(ctx context.Context, userID, channelID, userMessage, aiResponse string) error {
	window := s.readFull(ctx, userID, channelID)
	window = append(window,
		Turn{Role: "user", Content: userMessage},
		Turn{Role: "assistant", Content: aiResponse},
	)
	if len(window) > s.storeCap {
		window = window[len(window)-s.storeCap:]
	}
	return s.write(ctx, userID, channelID, window)
}

// Clear resets the window to empty. The key is rewritten rather than deleted
// so the reset itself carries the standard TTL.
func (s *Store) Clear(ctx context.Context, userID, channelID string) error {
	return s.write(ctx, userID, channelID, []Turn{})
}

// readFull is Read without the ReadCap truncation, used by Append so the
// stored window keeps its larger cap.
func (s *Store) readFull(ctx context.Context, userID, channelID string) []Turn {
	raw, ok, err := s.cache.Get(ctx, windowKey(userID, channelID))
	if err != nil || !ok {
		return nil
	}
	var window []Turn
	if err := json.Unmarshal([]byte(raw), &window); err != nil {
		slog.Warn("discarding corrupt recency window", "user", userID, "channel", channelID, "error", err)
		return nil
	}
	return window
}

func (s *Store) write(ctx context.Context, userID, channelID string, window []Turn) error {
	raw, err := json.Marshal(window)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, windowKey(userID, channelID), string(raw), s.ttl)
}

// Embedding mode preference: "free" (default) or "paid".

const (
	ModeFree = "free"
	ModePaid = "paid"
)

func modeKey(userID string) string {
	return fmt.Sprintf("user:%s:embedding_mode", userID)
}

// EmbeddingMode returns the user's embedding mode preference, defaulting to
// free when unset or unreadable.
func (s *Store) EmbeddingMode(ctx context.Context, userID string) string {
	mode, ok, err := s.cache.Get(ctx, modeKey(userID))
	if err != nil {
		slog.Debug("embedding mode read failed", "user", userID, "error", err)
		return ModeFree
	}
	if !ok || mode != ModePaid {
		return ModeFree
	}
	return ModePaid
}

// SetEmbeddingMode persists the preference with a long TTL.
func (s *Store) SetEmbeddingMode(ctx context.Context, userID, mode string) error {
	if mode != ModeFree && mode != ModePaid {
		return fmt.Errorf("invalid embedding mode %q", mode)
	}
	return s.cache.Set(ctx, modeKey(userID), mode, preferenceTTL)
}
