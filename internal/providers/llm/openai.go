package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/ideagen/internal/metrics"
	"github.com/yoockh/ideagen/internal/stream"
	"github.com/yoockh/ideagen/internal/utils"
)

const maxErrorBody = 4 << 10

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// OpenAI streams chat completions from an OpenAI-compatible endpoint and
// decodes the raw `data:` framing itself.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	log     *logrus.Logger
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	if cfg.HTTPClient == nil {
		// no overall timeout: long generations must not be cut off mid-stream
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &OpenAI{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  cfg.HTTPClient,
		log:     cfg.Logger,
	}, nil
}

func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

func (o *OpenAI) request(prompt string, p Params) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:      p.Temperature,
		TopP:             p.TopP,
		FrequencyPenalty: p.FrequencyPenalty,
		PresencePenalty:  p.PresencePenalty,
		MaxTokens:        p.MaxTokens,
		N:                p.N,
		Stream:           true,
	}
}

func (o *OpenAI) StreamAnswer(ctx context.Context, prompt string, p Params) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if err := o.stream(ctx, prompt, p, out); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

func (o *OpenAI) stream(ctx context.Context, prompt string, p Params, out chan<- string) error {
	const op = "OpenAI.StreamAnswer"

	body, err := json.Marshal(o.request(prompt, p))
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "completion provider unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return utils.E(utils.CodeBadGateway, op,
			fmt.Sprintf("completion provider returned status %d", resp.StatusCode),
			errors.New(strings.TrimSpace(string(msg))))
	}

	log := o.log.WithFields(logrus.Fields{"provider": "openai", "model": o.model})

	dec := stream.NewDecoder()
	dec.OnDrop = func(payload []byte, err error) {
		metrics.FragmentsDropped.Inc()
		log.WithError(err).WithField("payload", string(payload)).Warn("dropping malformed stream fragment")
	}

	err = dec.Transform(ctx, resp.Body, func(text string) error {
		select {
		case out <- text:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return utils.E(utils.CodeBadGateway, op, "completion stream aborted", err)
	}
	return nil
}
