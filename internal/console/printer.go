// Package console provides terminal stand-ins for the host capabilities:
// typed lines as recognized speech, printed text as synthesized speech and
// printed links instead of opened ones.
package console

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/tts"
)

// Voice is the single voice the console offers.
var Voice = tts.Voice{ID: "console", Name: "Console", Language: "en-US", Default: true}

type styles struct {
	assistant lipgloss.Style
	user      lipgloss.Style
	link      lipgloss.Style
	event     lipgloss.Style
	failure   lipgloss.Style
	muted     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		assistant: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")),
		user: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981")),
		link: lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#3B82F6")),
		event: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")),
		failure: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444")),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true),
	}
}

// Printer writes assistant output to a terminal. It implements
// tts.Synthesizer so spoken responses show up as text.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	styles styles
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, styles: defaultStyles()}
}

var _ tts.Synthesizer = (*Printer)(nil)

func (p *Printer) println(label lipgloss.Style, prefix, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s\n", label.Render(prefix), text)
}

// Supported implements tts.Synthesizer.
func (p *Printer) Supported() bool { return true }

// Voices implements tts.Synthesizer.
func (p *Printer) Voices() []tts.Voice { return []tts.Voice{Voice} }

// Speak implements tts.Synthesizer. Printing is instant, so the utterance
// starts and ends before Speak returns.
func (p *Printer) Speak(u tts.Utterance, cb tts.Callbacks) error {
	if cb.OnStart != nil {
		cb.OnStart()
	}
	p.println(p.styles.assistant, "flix>", u.Text)
	if cb.OnEnd != nil {
		cb.OnEnd()
	}
	return nil
}

// Cancel implements tts.Synthesizer.
func (p *Printer) Cancel() {}

// Pause implements tts.Synthesizer.
func (p *Printer) Pause() {}

// Resume implements tts.Synthesizer.
func (p *Printer) Resume() {}

// Heard echoes a recognized utterance.
func (p *Printer) Heard(text string) {
	p.println(p.styles.user, "you>", text)
}

// Notice prints an informational line.
func (p *Printer) Notice(text string) {
	p.println(p.styles.muted, "--", text)
}

// Open prints url in place of opening it. It matches the signature of
// voice.BrowserOpener's current context fallback.
func (p *Printer) Open(_ context.Context, url string) error {
	p.println(p.styles.link, "open>", p.styles.link.Render(url))
	return nil
}

// Watch prints the host facing events published on events.
func (p *Printer) Watch(events *bus.EventBus) {
	events.SubscribeMultiple([]bus.EventType{
		bus.EventTypeSwitchTab,
		bus.EventTypeReadNotifications,
		bus.EventTypeSendMessage,
		bus.EventTypeAddFlixbits,
		bus.EventTypeReminderCreated,
		bus.EventTypeWakeWord,
	}, func(e bus.Event) {
		p.println(p.styles.event, string(e.Type), formatData(e.Data))
	})
	events.Subscribe(bus.EventTypeActionFailed, func(e bus.Event) {
		p.println(p.styles.failure, "failed>", formatData(e.Data))
	})
}

// formatData renders event data as sorted key=value pairs.
func formatData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}
