package llm

import "context"

// Params are the sampling settings sent with every completion request.
type Params struct {
	Temperature      float32
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
	MaxTokens        int
	N                int
}

type Provider interface {
	// StreamAnswer returns a stream of text chunks (incremental). chunks is
	// closed when the stream ends; errs then yields at most one error.
	StreamAnswer(ctx context.Context, prompt string, p Params) (chunks <-chan string, errs <-chan error)
	Close() error
}
