package llm

import (
	"context"
	"time"

	"github.com/kdduha/proposal-relay/internal/models"
)

// Request is one generation call.
type Request struct {
	Endpoint  string
	RequestID string
	Payload   models.PromptPayload
	Model     string
	MaxTokens int64
	// MaxDuration bounds the whole call, first byte to last.
	MaxDuration time.Duration
}

// Iterator yields non-empty text deltas in upstream order.
type Iterator interface {
	Next() bool
	Delta() string
	Err() error
	Close() error
}

// Upstream opens a streaming generation call on a model provider. Errors that
// happen before any output must surface from Open or from the first Next.
type Upstream interface {
	Open(ctx context.Context, req Request) (Iterator, error)
}
