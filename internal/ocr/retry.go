package ocr

import (
	"context"
	"time"
)

type retrying struct {
	Recognizer
	attempts int
	wait     time.Duration
}

// WithRetry retries r up to attempts times, waiting between tries.
func WithRetry(r Recognizer, attempts int, wait time.Duration) Recognizer {
	if attempts <= 1 {
		return r
	}
	return &retrying{Recognizer: r, attempts: attempts, wait: wait}
}

func (r *retrying) Recognize(ctx context.Context, img Image) (string, error) {
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.wait):
			}
		}
		text, err := r.Recognizer.Recognize(ctx, img)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}
