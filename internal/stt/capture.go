package stt

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/rs/zerolog"
)

// SettingsSource provides the current voice settings.
type SettingsSource interface {
	Settings() config.VoiceSettings
}

// CaptureConfig configures a Capture
type CaptureConfig struct {
	RestartDelay   time.Duration // pause before resuming after an engine end
	InterimResults bool
	BufferSize     int     // capacity of the Transcripts channel
	Filter         *Filter // optional filler filter applied to final text
}

// DefaultCaptureConfig returns sensible defaults
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		RestartDelay:   250 * time.Millisecond,
		InterimResults: true,
		BufferSize:     16,
	}
}

// Capture keeps a recognition engine listening while requested, restarting
// it when the engine ends a session on its own, and tracks the latest final
// transcript. Finals are published in order on one channel so a consumer
// sees utterances exactly as they were heard.
type Capture struct {
	engine   Recognizer
	settings SettingsSource
	cfg      CaptureConfig
	logger   zerolog.Logger

	mu           sync.Mutex
	session      uint64
	shouldListen bool
	listening    bool
	transcript   string
	interim      string
	confidence   float64
	lastErr      string
	restart      *time.Timer

	transcripts chan Transcript
}

// NewCapture creates a capture over engine. A nil engine is reported as unsupported.
func NewCapture(engine Recognizer, settings SettingsSource, cfg CaptureConfig, logger zerolog.Logger) *Capture {
	def := DefaultCaptureConfig()
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = def.RestartDelay
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}

	return &Capture{
		engine:   engine,
		settings: settings,
		cfg:      cfg,
		logger:   logger.With().Str("component", "capture").Logger(),

		transcripts: make(chan Transcript, cfg.BufferSize),
	}
}

// Transcripts delivers every finalized utterance in the order it was heard.
func (c *Capture) Transcripts() <-chan Transcript {
	return c.transcripts
}

// Supported reports whether the engine can recognize speech.
func (c *Capture) Supported() bool {
	return c.engine != nil && c.engine.Supported()
}

// StartListening begins continuous recognition. It does nothing when the
// engine is unsupported, voice is disabled, or capture is already active;
// the first two cases are reported as ErrUnsupported and ErrDisabled.
func (c *Capture) StartListening() error {
	if !c.Supported() {
		return ErrUnsupported
	}
	settings := c.settings.Settings()
	if !settings.Enabled {
		return ErrDisabled
	}

	c.mu.Lock()
	if c.shouldListen {
		c.mu.Unlock()
		return nil
	}
	c.shouldListen = true
	c.lastErr = ""
	c.stopRestartLocked()
	c.mu.Unlock()

	return c.startSession(settings.Language.Tag())
}

// StopListening ends recognition and disables auto-restart.
func (c *Capture) StopListening() {
	c.mu.Lock()
	active := c.shouldListen || c.listening
	c.shouldListen = false
	c.listening = false
	c.stopRestartLocked()
	// Late callbacks from the ending session are ignored
	c.session++
	c.mu.Unlock()

	if !active {
		return
	}
	if err := c.engine.Stop(); err != nil {
		c.logger.Warn().Err(err).Msg("engine stop failed")
	}
	c.logger.Debug().Msg("listening stopped")
}

// ResetTranscript clears the transcript, interim text and confidence.
func (c *Capture) ResetTranscript() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = ""
	c.interim = ""
	c.confidence = 0
}

// State returns a snapshot of the capture state.
func (c *Capture) State() State {
	supported := c.Supported()

	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Supported:  supported,
		Listening:  c.listening,
		Transcript: c.transcript,
		Interim:    c.interim,
		Confidence: c.confidence,
		Error:      c.lastErr,
	}
}

// IsListening reports whether an engine session is running.
func (c *Capture) IsListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

func (c *Capture) startSession(lang string) error {
	c.mu.Lock()
	c.session++
	id := c.session
	c.mu.Unlock()

	opts := Options{
		Language:       lang,
		Continuous:     true,
		InterimResults: c.cfg.InterimResults,
	}
	if err := c.engine.Start(opts, c.callbacks(id)); err != nil {
		c.mu.Lock()
		c.lastErr = err.Error()
		c.shouldListen = false
		c.mu.Unlock()
		c.logger.Error().Err(err).Msg("failed to start recognition")
		return fmt.Errorf("start recognition: %w", err)
	}

	c.logger.Debug().Str("lang", lang).Uint64("session", id).Msg("recognition session started")
	return nil
}

func (c *Capture) callbacks(id uint64) Callbacks {
	return Callbacks{
		OnStart: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if id != c.session {
				return
			}
			c.listening = true
			c.lastErr = ""
		},
		OnResult: func(results []Result) {
			c.handleResults(id, results)
		},
		OnEnd: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if id != c.session {
				return
			}
			c.listening = false
			if c.shouldListen {
				c.stopRestartLocked()
				c.restart = time.AfterFunc(c.cfg.RestartDelay, c.resume)
			}
		},
		OnError: func(err error) {
			if errors.Is(err, ErrNoSpeech) {
				c.logger.Debug().Msg("no speech in session")
				return
			}

			c.mu.Lock()
			if id != c.session {
				c.mu.Unlock()
				return
			}
			c.lastErr = err.Error()
			if errors.Is(err, ErrPermissionDenied) {
				c.shouldListen = false
			}
			c.mu.Unlock()
			c.logger.Warn().Err(err).Msg("recognition error")
		},
	}
}

// resume restarts recognition after an engine-initiated end.
func (c *Capture) resume() {
	settings := c.settings.Settings()

	c.mu.Lock()
	if !c.shouldListen || c.listening {
		c.mu.Unlock()
		return
	}
	if !settings.Enabled {
		c.shouldListen = false
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.logger.Debug().Msg("auto-restarting recognition")
	_ = c.startSession(settings.Language.Tag())
}

func (c *Capture) handleResults(id uint64, results []Result) {
	var final, interim strings.Builder
	var maxConfidence float64

	for _, r := range results {
		if r.IsFinal {
			final.WriteString(r.Transcript)
			if r.Confidence > maxConfidence {
				maxConfidence = r.Confidence
			}
		} else {
			interim.WriteString(r.Transcript)
		}
	}

	text := strings.TrimSpace(final.String())
	if text != "" && c.cfg.Filter != nil {
		cleaned, ok := c.cfg.Filter.Clean(text)
		if !ok {
			c.logger.Debug().Str("text", text).Msg("discarded filler-only utterance")
		}
		text = cleaned
	}

	c.mu.Lock()
	if id != c.session {
		c.mu.Unlock()
		return
	}
	c.interim = strings.TrimSpace(interim.String())
	if text == "" {
		c.mu.Unlock()
		return
	}
	c.transcript = text
	c.confidence = maxConfidence
	c.mu.Unlock()

	c.publish(Transcript{Text: text, Confidence: maxConfidence, At: time.Now()})
}

func (c *Capture) publish(t Transcript) {
	select {
	case c.transcripts <- t:
	default:
		c.logger.Warn().Str("text", t.Text).Msg("consumer lagging, transcript dropped")
	}
}

func (c *Capture) stopRestartLocked() {
	if c.restart != nil {
		c.restart.Stop()
		c.restart = nil
	}
}
