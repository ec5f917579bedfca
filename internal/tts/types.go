// Package tts provides spoken feedback on top of a platform speech
// synthesis engine.
package tts

import "errors"

// Common errors
var (
	ErrUnsupported = errors.New("speech synthesis not supported")
	ErrCanceled    = errors.New("utterance canceled")
	ErrEngine      = errors.New("speech synthesis engine error")
)

// Synthesizer is the interface a platform speech engine must implement.
// Speak must not block until playback ends. For every accepted utterance the
// engine calls OnStart and then exactly one of OnEnd or OnError; a canceled
// utterance ends with OnError(ErrCanceled).
type Synthesizer interface {
	// Supported reports whether synthesis is available at all
	Supported() bool

	// Voices returns the installed voices
	Voices() []Voice

	// Speak starts speaking the utterance
	Speak(u Utterance, cb Callbacks) error

	// Cancel stops the current utterance
	Cancel()

	// Pause and Resume suspend and continue the current utterance
	Pause()
	Resume()
}

// Voice describes an installed voice
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"lang"`
	Gender   string `json:"gender,omitempty"` // male, female, or empty when unknown
	Default  bool   `json:"default,omitempty"`
}

// Utterance is a single request to speak
type Utterance struct {
	Text     string  `json:"text"`
	Language string  `json:"lang"`   // BCP 47 tag
	Rate     float64 `json:"rate"`   // 0.5 to 2.0
	Volume   float64 `json:"volume"` // 0 to 1
	Voice    *Voice  `json:"voice,omitempty"`
}

// Callbacks receive utterance lifecycle events
type Callbacks struct {
	OnStart func()
	OnEnd   func()
	OnError func(err error)
}

// State is a snapshot of the speaker state
type State struct {
	Supported bool   `json:"supported"`
	Speaking  bool   `json:"speaking"`
	Paused    bool   `json:"paused"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}
