package stream

import (
	"strconv"
	"strings"
)

// Parser is an incremental Server-Sent Events parser. Feed it decoded text in
// arbitrary pieces; onEvent is called once per blank-line-terminated event
// that carried at least one data field.
type Parser struct {
	onEvent func(Event)

	line    strings.Builder
	data    strings.Builder
	hasData bool
	event   string
	lastID  string
	retry   int

	started bool
	skipLF  bool
}

func NewParser(onEvent func(Event)) *Parser {
	return &Parser{onEvent: onEvent}
}

// Retry is the last reconnection delay, in milliseconds, announced by the server.
func (p *Parser) Retry() int { return p.retry }

func (p *Parser) Reset() {
	p.line.Reset()
	p.data.Reset()
	p.hasData = false
	p.event = ""
	p.lastID = ""
	p.retry = 0
	p.started = false
	p.skipLF = false
}

func (p *Parser) Feed(chunk string) {
	if !p.started && chunk != "" {
		p.started = true
		chunk = strings.TrimPrefix(chunk, "\uFEFF")
	}

	for len(chunk) > 0 {
		// second half of a \r\n pair split across chunks
		if p.skipLF {
			p.skipLF = false
			if chunk[0] == '\n' {
				chunk = chunk[1:]
				continue
			}
		}

		i := strings.IndexAny(chunk, "\r\n")
		if i < 0 {
			p.line.WriteString(chunk)
			return
		}
		p.line.WriteString(chunk[:i])
		if chunk[i] == '\r' {
			p.skipLF = true
		}
		chunk = chunk[i+1:]

		line := p.line.String()
		p.line.Reset()
		p.processLine(line)
	}
}

func (p *Parser) processLine(line string) {
	if line == "" {
		p.dispatch()
		return
	}
	if strings.HasPrefix(line, ":") {
		return
	}

	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "event":
		p.event = value
	case "data":
		p.data.WriteString(value)
		p.data.WriteByte('\n')
		p.hasData = true
	case "id":
		if !strings.Contains(value, "\x00") {
			p.lastID = value
		}
	case "retry":
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			p.retry = n
		}
	}
}

func (p *Parser) dispatch() {
	if !p.hasData {
		p.event = ""
		return
	}
	ev := Event{
		ID:    p.lastID,
		Event: p.event,
		Data:  strings.TrimSuffix(p.data.String(), "\n"),
		Retry: p.retry,
	}
	p.data.Reset()
	p.hasData = false
	p.event = ""

	if p.onEvent != nil {
		p.onEvent(ev)
	}
}
