package llm

import (
	"context"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/yoockh/ideagen/internal/utils"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// model returns a per-request handle so sampling settings never leak between
// concurrent generations.
func (v *VertexGemini) model(p Params) *vertexgenai.GenerativeModel {
	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(p.Temperature)
	m.SetTopP(p.TopP)
	if p.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(p.MaxTokens))
	}
	if p.N > 0 {
		m.SetCandidateCount(int32(p.N))
	}
	return m
}

func (v *VertexGemini) StreamAnswer(ctx context.Context, prompt string, p Params) (<-chan string, <-chan error) {
	const op = "VertexGemini.StreamAnswer"

	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		it := v.model(p).GenerateContentStream(ctx, vertexgenai.Text(prompt))
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- utils.E(utils.CodeBadGateway, op, "completion stream aborted", err)
				return
			}

			// first candidate only, matching choices[0] on the OpenAI side
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				continue
			}
			for _, part := range resp.Candidates[0].Content.Parts {
				t, ok := part.(vertexgenai.Text)
				if !ok {
					continue
				}
				select {
				case out <- string(t):
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
	}()

	return out, errs
}
