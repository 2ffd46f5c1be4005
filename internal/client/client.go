// Package client consumes the generation endpoint's event stream and
// accumulates the generated text fragment by fragment.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/ideagen/internal/models"
	"github.com/yoockh/ideagen/internal/stream"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	generatePath = "/api/generate"
	readSize     = 4096
	maxErrorBody = 4 << 10
)

// RenderFunc is called after every appended fragment with the text so far.
type RenderFunc func(text *models.GeneratedText)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generate: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("generate: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate posts req and streams the reply into acc, which is reset first.
// It returns the accumulated text once the response body ends.
func (c *Client) Generate(ctx context.Context, req models.GenerationRequest, acc *models.GeneratedText, render RenderFunc) (string, error) {
	acc.Reset()

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := Consume(resp.Body, acc, render, c.log); err != nil {
		return acc.String(), err
	}
	return acc.String(), nil
}

// Consume reads an SSE body until it ends, appending the text of every event
// to acc and calling render after each one. Events whose data is not valid
// JSON are logged and skipped.
func Consume(r io.Reader, acc *models.GeneratedText, render RenderFunc, l *logrus.Logger) error {
	if l == nil {
		l = logrus.StandardLogger()
	}

	parser := stream.NewParser(func(ev stream.Event) {
		var frag models.TextFragment
		if err := json.Unmarshal([]byte(ev.Data), &frag); err != nil {
			l.WithError(err).WithField("data", ev.Data).Error("skipping undecodable event")
			return
		}
		acc.Append(frag.Text)
		if render != nil {
			render(acc)
		}
	})

	// Decodes UTF-8 statefully: a code point split across reads is held
	// back until complete, invalid bytes become U+FFFD.
	decoded := transform.NewReader(r, unicode.UTF8.NewDecoder())

	buf := make([]byte, readSize)
	for {
		n, err := decoded.Read(buf)
		if n > 0 {
			parser.Feed(string(buf[:n]))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
