package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/stt"
	"github.com/flixmarket/flixvoice/internal/tts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for use from bus handlers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPrinter_Speak(t *testing.T) {
	var out syncBuffer
	p := NewPrinter(&out)

	var events []string
	err := p.Speak(tts.Utterance{Text: "Opening your wallet."}, tts.Callbacks{
		OnStart: func() { events = append(events, "start") },
		OnEnd:   func() { events = append(events, "end") },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "end"}, events)
	assert.Contains(t, out.String(), "Opening your wallet.")
	assert.True(t, p.Supported())
	assert.Equal(t, []tts.Voice{Voice}, p.Voices())
}

func TestPrinter_OpenAndNotice(t *testing.T) {
	var out syncBuffer
	p := NewPrinter(&out)

	require.NoError(t, p.Open(context.Background(), "https://www.google.com/maps/search/?api=1&query=airport"))
	p.Notice("listening")
	p.Heard("take me to the airport")

	text := out.String()
	assert.Contains(t, text, "query=airport")
	assert.Contains(t, text, "listening")
	assert.Contains(t, text, "take me to the airport")
}

func TestPrinter_Watch(t *testing.T) {
	var out syncBuffer
	p := NewPrinter(&out)
	events := bus.NewEventBus()
	p.Watch(events)

	events.PublishSync(bus.Event{Type: bus.EventTypeSwitchTab, Data: map[string]any{"tab": "wallet"}})
	events.PublishSync(bus.Event{Type: bus.EventTypeActionFailed, Data: map[string]any{"type": "open_map", "error": "blocked"}})

	text := out.String()
	assert.Contains(t, text, "app.switch_tab")
	assert.Contains(t, text, "tab=wallet")
	assert.Contains(t, text, "error=blocked type=open_map")
}

func TestFormatData(t *testing.T) {
	assert.Equal(t, "a=1 b=two", formatData(map[string]any{"b": "two", "a": 1}))
	assert.Empty(t, formatData(nil))
}

func TestLineRecognizer(t *testing.T) {
	pr, pw := io.Pipe()
	var echoed []string
	var echoMu sync.Mutex
	r := NewLineRecognizer(pr, func(s string) {
		echoMu.Lock()
		echoed = append(echoed, s)
		echoMu.Unlock()
	}, zerolog.Nop())

	results := make(chan stt.Result, 4)
	ended := make(chan struct{}, 2)
	started := false
	require.NoError(t, r.Start(stt.Options{}, stt.Callbacks{
		OnStart:  func() { started = true },
		OnResult: func(rs []stt.Result) { results <- rs[0] },
		OnEnd:    func() { ended <- struct{}{} },
	}))
	assert.True(t, started)
	assert.True(t, r.Supported())

	_, err := io.WriteString(pw, "   \n  open my wallet  \n")
	require.NoError(t, err)

	select {
	case res := <-results:
		assert.Equal(t, "open my wallet", res.Transcript)
		assert.True(t, res.IsFinal)
		assert.InDelta(t, LineConfidence, res.Confidence, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("no result")
	}

	require.NoError(t, pw.Close())
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("recognizer did not finish")
	}
	assert.Len(t, ended, 1)
	assert.ErrorIs(t, r.Start(stt.Options{}, stt.Callbacks{}), io.EOF)

	echoMu.Lock()
	defer echoMu.Unlock()
	assert.Equal(t, []string{"open my wallet"}, echoed)
}

func TestLineRecognizer_DropsLinesWhileStopped(t *testing.T) {
	pr, pw := io.Pipe()
	results := make(chan stt.Result, 4)
	r := NewLineRecognizer(pr, nil, zerolog.Nop())

	require.NoError(t, r.Start(stt.Options{}, stt.Callbacks{
		OnResult: func(rs []stt.Result) { results <- rs[0] },
	}))
	require.NoError(t, r.Stop())

	_, err := io.WriteString(pw, "open my wallet\n")
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	<-r.Done()
	assert.Empty(t, results)
}

func TestLineRecognizer_Rewrite(t *testing.T) {
	results := make(chan stt.Result, 4)
	r := NewLineRecognizer(strings.NewReader("open my wallet\n"), nil, zerolog.Nop())
	r.SetRewrite(func(s string) string { return "hey flix " + s })

	require.NoError(t, r.Start(stt.Options{}, stt.Callbacks{
		OnResult: func(rs []stt.Result) { results <- rs[0] },
	}))
	<-r.Done()

	require.Len(t, results, 1)
	assert.Equal(t, "hey flix open my wallet", (<-results).Transcript)
}
