package stream

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_WriteText(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.WriteText("Build"))
	require.NoError(t, enc.WriteText(""))
	require.NoError(t, enc.WriteText("<a & b>\n\"q\""))

	assert.Equal(t,
		"data: {\"text\":\"Build\"}\n\n"+
			"data: {\"text\":\"\"}\n\n"+
			"data: {\"text\":\"<a & b>\\n\\\"q\\\"\"}\n\n",
		buf.String())
}

func TestEncoder_FlushesResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)

	require.NoError(t, enc.WriteText("hi"))
	assert.True(t, rec.Flushed)
}

func TestEncoder_WriteEvent(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.WriteEvent(Event{ID: "7", Event: "status", Data: "line one\nline two", Retry: 1500}))
	assert.Equal(t, "event: status\nid: 7\nretry: 1500\ndata: line one\ndata: line two\n\n", buf.String())
}

func TestEncoder_RoundTripThroughParser(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.WriteEvent(Event{Event: "status", Data: "a\nb"}))
	require.NoError(t, enc.WriteText("c"))

	var got []Event
	NewParser(func(ev Event) { got = append(got, ev) }).Feed(buf.String())

	require.Len(t, got, 2)
	assert.Equal(t, Event{Event: "status", Data: "a\nb"}, got[0])
	assert.Equal(t, Event{Data: `{"text":"c"}`}, got[1])
}

func TestMarshalText(t *testing.T) {
	b, err := MarshalText("Tom & Jerry <3")
	require.NoError(t, err)
	assert.Equal(t, `{"text":"Tom & Jerry <3"}`, string(b))
}
