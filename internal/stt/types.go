// Package stt provides continuous speech capture on top of a platform
// speech recognition engine.
package stt

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrUnsupported      = errors.New("speech recognition not supported")
	ErrDisabled         = errors.New("voice features disabled")
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNoSpeech         = errors.New("no speech detected")
	ErrEngine           = errors.New("speech recognition engine error")
)

// Recognizer is the interface a platform speech engine must implement.
// Engines deliver callbacks from their own goroutines; one session is active
// at a time and ends with OnEnd, also after OnError.
type Recognizer interface {
	// Supported reports whether recognition is available at all
	Supported() bool

	// Start begins a recognition session
	Start(opts Options, cb Callbacks) error

	// Stop ends the current session; OnEnd follows
	Stop() error
}

// Options configures a recognition session
type Options struct {
	Language       string `json:"lang"`           // BCP 47 tag, e.g. en-US
	Continuous     bool   `json:"continuous"`     // keep listening across utterances
	InterimResults bool   `json:"interimResults"` // deliver non-final hypotheses
}

// Callbacks receive engine events
type Callbacks struct {
	OnStart  func()
	OnResult func(results []Result)
	OnEnd    func()
	OnError  func(err error)
}

// Result is one recognition hypothesis
type Result struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"` // 0-1
	IsFinal    bool    `json:"isFinal"`
}

// Transcript is a finalized utterance published by Capture
type Transcript struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}

// State is a snapshot of the capture state
type State struct {
	Supported  bool    `json:"supported"`
	Listening  bool    `json:"listening"`
	Transcript string  `json:"transcript"`
	Interim    string  `json:"interim"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}
