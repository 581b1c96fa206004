// Package ai talks to the text-generation backend.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Request is one completion call. Complex selects the longer, cooler
// generation profile used for reasoning-heavy turns.
type Request struct {
	Prompt  string
	Complex bool
}

// Provider generates a completion for a prompt.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var (
	// ErrTimeout is returned when the backend did not answer in time.
	ErrTimeout = errors.New("ai: inference timed out")
	// ErrUnreachable wraps transport failures and bad statuses.
	ErrUnreachable = errors.New("ai: backend unreachable")
)

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ai: backend returned %d: %s", e.Status, e.Body)
}

// StatusCode lets the retry limiter classify overloads.
func (e *HTTPError) StatusCode() int { return e.Status }

// Unwrap makes every HTTPError an ErrUnreachable.
func (e *HTTPError) Unwrap() error { return ErrUnreachable }

// FallbackText is what users see instead of a completion when err is set.
func FallbackText(err error) string {
	if errors.Is(err, ErrTimeout) {
		return "Désolé, l'IA met trop de temps à répondre... 😴"
	}
	return "Désolé, je n'arrive pas à joindre l'IA..."
}
