package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/ideagen/internal/providers/llm"
	"github.com/yoockh/ideagen/internal/services"
	"github.com/yoockh/ideagen/internal/utils"
)

// stubProvider replays tokens and then reports err, if any.
type stubProvider struct {
	tokens []string
	err    error
	calls  int
}

func (p *stubProvider) StreamAnswer(ctx context.Context, _ string, _ llm.Params) (<-chan string, <-chan error) {
	p.calls++
	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, tok := range p.tokens {
			select {
			case out <- tok:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if p.err != nil {
			errs <- p.err
		}
	}()
	return out, errs
}

func (p *stubProvider) Close() error { return nil }

func newGenerateRouter(p llm.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	l, _ := logtest.NewNullLogger()
	h := NewGenerateHandler(services.NewGenerationService(p), l)

	r := gin.New()
	r.POST("/api/generate", h.Generate)
	return r
}

func postGenerate(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerate_StreamsFragmentsAsEvents(t *testing.T) {
	p := &stubProvider{tokens: []string{"Build", " a blog"}}
	r := newGenerateRouter(p)

	w := postGenerate(r, `{"topic":"web development","proficiency":"beginner"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", w.Header().Get("Connection"))
	assert.Equal(t, "data: {\"text\":\"Build\"}\n\ndata: {\"text\":\" a blog\"}\n\n", w.Body.String())
	assert.Equal(t, 1, p.calls)
}

func TestGenerate_EscapesFragmentText(t *testing.T) {
	r := newGenerateRouter(&stubProvider{tokens: []string{"line one\nline \"two\"", ""}})

	w := postGenerate(r, `{"topic":"cli","proficiency":"advanced"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data: {\"text\":\"line one\\nline \\\"two\\\"\"}\n\ndata: {\"text\":\"\"}\n\n", w.Body.String())
}

func TestGenerate_RejectsIncompleteRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing topic", `{"proficiency":"beginner"}`},
		{"missing proficiency", `{"topic":"games"}`},
		{"empty topic", `{"topic":"","proficiency":"beginner"}`},
		{"empty object", `{}`},
		{"invalid json", `{"topic":`},
		{"empty body", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubProvider{tokens: []string{"never"}}
			r := newGenerateRouter(p)

			w := postGenerate(r, tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "No topic or proficiency level in the request", w.Body.String())
			assert.Zero(t, p.calls)
		})
	}
}

func TestGenerate_ProviderFailsBeforeFirstFragment(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"bad gateway", utils.E(utils.CodeBadGateway, "OpenAI.stream", "completion request rejected", nil), http.StatusBadGateway},
		{"unavailable", utils.E(utils.CodeUnavailable, "OpenAI.stream", "completion request failed", nil), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newGenerateRouter(&stubProvider{err: tc.err})

			w := postGenerate(r, `{"topic":"games","proficiency":"beginner"}`)

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			assert.NotContains(t, w.Body.String(), "data:")
		})
	}
}

func TestGenerate_MidStreamFailureKeepsPartialOutput(t *testing.T) {
	r := newGenerateRouter(&stubProvider{
		tokens: []string{"Build"},
		err:    utils.E(utils.CodeBadGateway, "OpenAI.stream", "completion stream aborted", nil),
	})

	w := postGenerate(r, `{"topic":"games","proficiency":"beginner"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data: {\"text\":\"Build\"}\n\n", w.Body.String())
}

func TestGenerate_EmptyCompletion(t *testing.T) {
	r := newGenerateRouter(&stubProvider{})

	w := postGenerate(r, `{"topic":"games","proficiency":"beginner"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Body.String())
}
