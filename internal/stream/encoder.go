package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yoockh/ideagen/internal/models"
)

// Event is one Server-Sent Event. On the producing side only Data is set.
type Event struct {
	ID    string
	Event string
	Data  string
	Retry int
}

// Encoder frames events onto w and flushes after each one when w supports it.
type Encoder struct {
	w   io.Writer
	buf bytes.Buffer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteText writes `data: {"text":...}\n\n`.
func (e *Encoder) WriteText(text string) error {
	data, err := MarshalText(text)
	if err != nil {
		return err
	}
	e.buf.Reset()
	e.buf.WriteString("data: ")
	e.buf.Write(data)
	e.buf.WriteString("\n\n")
	return e.flush()
}

func (e *Encoder) WriteEvent(ev Event) error {
	e.buf.Reset()
	if ev.Event != "" {
		e.buf.WriteString("event: " + ev.Event + "\n")
	}
	if ev.ID != "" {
		e.buf.WriteString("id: " + ev.ID + "\n")
	}
	if ev.Retry > 0 {
		e.buf.WriteString("retry: " + strconv.Itoa(ev.Retry) + "\n")
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		e.buf.WriteString("data: " + line + "\n")
	}
	e.buf.WriteByte('\n')
	return e.flush()
}

func (e *Encoder) flush() error {
	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		return err
	}
	if f, ok := e.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// MarshalText returns the JSON payload for one fragment without HTML escaping
// and without a trailing newline.
func MarshalText(text string) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(models.TextFragment{Text: text}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(b.Bytes(), []byte("\n")), nil
}
