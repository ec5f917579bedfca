package tts

import (
	"errors"
	"strings"
	"sync"

	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/rs/zerolog"
)

// SettingsSource provides the current voice settings.
type SettingsSource interface {
	Settings() config.VoiceSettings
}

// SpeakOptions override the settings for one utterance. Zero values fall
// back to the current settings.
type SpeakOptions struct {
	Rate     float64
	Volume   *float64
	Language config.Language
	Gender   config.Gender
}

// Speaker speaks one utterance at a time. A new Speak preempts the current
// utterance instead of queueing behind it, and callbacks from a preempted
// utterance never touch the state. Failures are recorded, never returned.
type Speaker struct {
	engine   Synthesizer
	settings SettingsSource
	logger   zerolog.Logger

	// held from Cancel through engine.Speak so the last caller reaches the
	// engine last
	speakMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	speaking   bool
	paused     bool
	text       string
	lastErr    string
}

// NewSpeaker creates a speaker over engine. A nil engine is reported as unsupported.
func NewSpeaker(engine Synthesizer, settings SettingsSource, logger zerolog.Logger) *Speaker {
	return &Speaker{
		engine:   engine,
		settings: settings,
		logger:   logger.With().Str("component", "speaker").Logger(),
	}
}

// Supported reports whether the engine can synthesize speech.
func (s *Speaker) Supported() bool {
	return s.engine != nil && s.engine.Supported()
}

// Speak says text, interrupting anything currently being spoken. It does
// nothing when synthesis is unsupported, voice is disabled, or text is blank.
func (s *Speaker) Speak(text string, opts *SpeakOptions) {
	text = strings.TrimSpace(text)
	if text == "" || !s.Supported() {
		return
	}
	settings := s.settings.Settings()
	if !settings.Enabled {
		return
	}

	s.speakMu.Lock()
	defer s.speakMu.Unlock()

	s.engine.Cancel()

	s.mu.Lock()
	s.generation++
	id := s.generation
	s.speaking = true
	s.paused = false
	s.text = text
	s.lastErr = ""
	s.mu.Unlock()

	u := s.utterance(text, settings, opts)
	if err := s.engine.Speak(u, s.callbacks(id)); err != nil {
		s.fail(id, err)
	}
}

func (s *Speaker) utterance(text string, settings config.VoiceSettings, opts *SpeakOptions) Utterance {
	rate, volume := settings.Speed, settings.Volume
	lang, gender := settings.Language, settings.VoiceGender
	if opts != nil {
		if opts.Rate > 0 {
			rate = opts.Rate
		}
		if opts.Volume != nil {
			volume = *opts.Volume
		}
		if opts.Language != "" {
			lang = opts.Language
		}
		if opts.Gender != "" {
			gender = opts.Gender
		}
	}

	u := Utterance{
		Text:     text,
		Language: lang.Tag(),
		Rate:     clamp(rate, config.MinSpeed, config.MaxSpeed),
		Volume:   clamp(volume, 0, 1),
	}
	if v := SelectVoice(s.engine.Voices(), gender, lang); v != nil {
		voice := *v
		u.Voice = &voice
	}
	return u
}

func (s *Speaker) callbacks(id uint64) Callbacks {
	return Callbacks{
		OnStart: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if id == s.generation {
				s.speaking = true
			}
		},
		OnEnd: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if id == s.generation {
				s.speaking = false
				s.paused = false
				s.text = ""
			}
		},
		OnError: func(err error) {
			s.fail(id, err)
		},
	}
}

func (s *Speaker) fail(id uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.generation {
		return
	}
	s.speaking = false
	s.paused = false
	s.text = ""
	if errors.Is(err, ErrCanceled) {
		return
	}
	s.lastErr = err.Error()
	s.logger.Warn().Err(err).Msg("speech synthesis failed")
}

// Stop cancels the current utterance.
func (s *Speaker) Stop() {
	if !s.Supported() {
		return
	}
	s.speakMu.Lock()
	defer s.speakMu.Unlock()
	s.engine.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.speaking = false
	s.paused = false
	s.text = ""
}

// Pause suspends the current utterance.
func (s *Speaker) Pause() {
	s.mu.Lock()
	if !s.speaking || s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = true
	s.mu.Unlock()
	s.engine.Pause()
}

// Resume continues a paused utterance.
func (s *Speaker) Resume() {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = false
	s.mu.Unlock()
	s.engine.Resume()
}

// IsSpeaking reports whether an utterance is in progress.
func (s *Speaker) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Voices returns the engine's installed voices.
func (s *Speaker) Voices() []Voice {
	if !s.Supported() {
		return nil
	}
	return s.engine.Voices()
}

// State returns a snapshot of the speaker state.
func (s *Speaker) State() State {
	supported := s.Supported()

	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Supported: supported,
		Speaking:  s.speaking,
		Paused:    s.paused,
		Text:      s.text,
		Error:     s.lastErr,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
