package models

import "strings"

type Proficiency string

const (
	Beginner     Proficiency = "beginner"
	Intermediate Proficiency = "intermediate"
	Advanced     Proficiency = "advanced"
)

// Known reports whether p is one of the levels offered by the form.
// Other values are still accepted and embedded verbatim in the prompt.
func (p Proficiency) Known() bool {
	switch p {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

type GenerationRequest struct {
	Topic       string      `json:"topic"`
	Proficiency Proficiency `json:"proficiency"`
}

// TextFragment is the JSON payload of every SSE event sent to clients.
type TextFragment struct {
	Text string `json:"text"`
}

// GeneratedText accumulates streamed fragments in arrival order.
// It is owned by a single consumer and is not safe for concurrent use.
type GeneratedText struct {
	b         strings.Builder
	fragments int
}

func (g *GeneratedText) Reset() {
	g.b.Reset()
	g.fragments = 0
}

func (g *GeneratedText) Append(fragment string) {
	g.b.WriteString(fragment)
	g.fragments++
}

func (g *GeneratedText) String() string { return g.b.String() }

// Fragments is the number of fragments appended since the last Reset,
// including empty ones.
func (g *GeneratedText) Fragments() int { return g.fragments }

// Ideas splits the text into one entry per non-blank line.
func (g *GeneratedText) Ideas() []string {
	var out []string
	for _, line := range strings.Split(g.b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
