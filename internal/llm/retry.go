package llm

import (
	"context"
	"fmt"
	"time"
)

// CompleteWithRetry retries transient provider failures with linear backoff.
// A canceled context is never retried.
func CompleteWithRetry(ctx context.Context, c Completer, messages []Message, tools []ToolDef, attempts int) (*Completion, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * time.Second):
			}
		}

		completion, err := c.Complete(ctx, messages, tools)
		if err == nil {
			return completion, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("completion failed after %d attempts: %w", attempts, lastErr)
}
