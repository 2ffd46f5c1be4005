// Package stream translates a provider's streaming chat-completion body into
// Server-Sent Events and parses SSE back into events on the consuming side.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const (
	dataPrefix = "data:"

	// Sentinel is the payload the provider sends as its final event.
	Sentinel = "[DONE]"

	readSize = 4096
)

// ErrTruncated is returned when the provider body ends before the sentinel.
var ErrTruncated = errors.New("provider stream closed before " + Sentinel)

type State int

const (
	StateStreaming State = iota
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Decoder extracts text deltas from newline-delimited provider event lines.
// Lines may arrive split across any number of Feed calls.
type Decoder struct {
	partial []byte
	state   State

	// OnDrop, if set, is called for every data line whose payload is not valid JSON.
	OnDrop func(payload []byte, err error)
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) State() State { return d.state }

// Feed consumes the next chunk of provider bytes and returns the delta of
// every data line it completes. Once the sentinel is seen the rest of the
// input is discarded.
func (d *Decoder) Feed(chunk []byte) []string {
	if d.state != StateStreaming {
		return nil
	}
	d.partial = append(d.partial, chunk...)

	var out []string
	for d.state == StateStreaming {
		i := bytes.IndexByte(d.partial, '\n')
		if i < 0 {
			break
		}
		line := d.partial[:i]
		d.partial = d.partial[i+1:]
		if text, ok := d.decodeLine(line); ok {
			out = append(out, text)
		}
	}
	if d.state != StateStreaming {
		d.partial = nil
	}
	return out
}

// Flush treats any buffered bytes as a final line, for bodies whose last
// line has no trailing newline.
func (d *Decoder) Flush() []string {
	if d.state != StateStreaming || len(d.partial) == 0 {
		return nil
	}
	line := d.partial
	d.partial = nil
	if text, ok := d.decodeLine(line); ok {
		return []string{text}
	}
	return nil
}

func (d *Decoder) decodeLine(line []byte) (string, bool) {
	line = bytes.TrimSpace(line)
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return "", false
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if string(payload) == Sentinel {
		d.state = StateDone
		return "", false
	}

	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		if d.OnDrop != nil {
			d.OnDrop(payload, err)
		}
		return "", false
	}
	// The role announcement and usage chunks carry no content.
	if len(chunk.Choices) == 0 {
		return "", true
	}
	return chunk.Choices[0].Delta.Content, true
}

// Transform reads r until the sentinel, calling emit once per delta in order.
// It returns nil when the sentinel was seen. A read error, an emit error,
// context cancellation, or ErrTruncated moves the decoder to StateAborted.
func (d *Decoder) Transform(ctx context.Context, r io.Reader, emit func(text string) error) error {
	buf := make([]byte, readSize)
	for {
		if err := ctx.Err(); err != nil {
			d.state = StateAborted
			return err
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			for _, text := range d.Feed(buf[:n]) {
				if err := emit(text); err != nil {
					d.state = StateAborted
					return err
				}
			}
			if d.state == StateDone {
				return nil
			}
		}

		if rerr == nil {
			continue
		}
		if !errors.Is(rerr, io.EOF) {
			d.state = StateAborted
			return rerr
		}
		for _, text := range d.Flush() {
			if err := emit(text); err != nil {
				d.state = StateAborted
				return err
			}
		}
		if d.state == StateDone {
			return nil
		}
		d.state = StateAborted
		return ErrTruncated
	}
}
