// Package hostbridge connects the assistant to a host UI over WebSocket. The
// host owns the platform capabilities (speech recognition, speech synthesis,
// geolocation, opening links) and the server drives them remotely.
package hostbridge

import (
	"encoding/json"

	"github.com/flixmarket/flixvoice/internal/stt"
	"github.com/flixmarket/flixvoice/internal/tts"
)

// MessageType identifies a protocol message.
type MessageType string

// Host to server messages.
const (
	MsgHello              MessageType = "hello"
	MsgRecognitionStarted MessageType = "recognition.start"
	MsgRecognitionEnded   MessageType = "recognition.end"
	MsgRecognitionError   MessageType = "recognition.error"
	MsgRecognitionResult  MessageType = "recognition.result"
	MsgSpeechStarted      MessageType = "speech.start"
	MsgSpeechEnded        MessageType = "speech.end"
	MsgSpeechError        MessageType = "speech.error"
	MsgPosition           MessageType = "geolocation.position"
	MsgPositionError      MessageType = "geolocation.error"
	MsgOpenURLResult      MessageType = "open_url.result"
	MsgManualStart        MessageType = "control.manual_start"
	MsgManualStop         MessageType = "control.manual_stop"
	MsgWakeWord           MessageType = "control.wake_word"
	MsgSettingsUpdate     MessageType = "settings.update"
)

// Server to host messages. Bus events are forwarded with their event type.
const (
	MsgWelcome            MessageType = "welcome"
	MsgAck                MessageType = "ack"
	MsgStartRecognition   MessageType = "recognition.start"
	MsgStopRecognition    MessageType = "recognition.stop"
	MsgSpeak              MessageType = "speech.speak"
	MsgCancelSpeech       MessageType = "speech.cancel"
	MsgPauseSpeech        MessageType = "speech.pause"
	MsgResumeSpeech       MessageType = "speech.resume"
	MsgRequestPosition    MessageType = "geolocation.request"
	MsgOpenURL            MessageType = "open_url"
	MsgError              MessageType = "error"
)

// Envelope is the frame every message travels in. ID correlates requests
// with their replies.
type Envelope struct {
	Type MessageType     `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hello announces the host's capabilities.
type Hello struct {
	UserAgent   string      `json:"userAgent,omitempty"`
	Recognition bool        `json:"recognition"`
	Speech      bool        `json:"speech"`
	Geolocation bool        `json:"geolocation"`
	Voices      []tts.Voice `json:"voices,omitempty"`
}

// RecognitionResults carries one engine result batch.
type RecognitionResults struct {
	Results []stt.Result `json:"results"`
}

// ErrorPayload reports a host side failure. Codes follow the Web Speech and
// Geolocation APIs, e.g. "not-allowed", "no-speech", "permission_denied".
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// SpeakRequest asks the host to speak an utterance.
type SpeakRequest struct {
	Text   string  `json:"text"`
	Lang   string  `json:"lang"`
	Rate   float64 `json:"rate"`
	Volume float64 `json:"volume"`
	Voice  string  `json:"voice,omitempty"`
}

// Position is a geolocation fix.
type Position struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// PositionRequest mirrors the Geolocation API options.
type PositionRequest struct {
	EnableHighAccuracy bool  `json:"enableHighAccuracy"`
	TimeoutMs          int64 `json:"timeout"`
	MaximumAgeMs       int64 `json:"maximumAge"`
}

// Link targets.
const (
	TargetNew     = "_blank"
	TargetCurrent = "_self"
)

// OpenURLRequest asks the host to open a link.
type OpenURLRequest struct {
	URL    string `json:"url"`
	Target string `json:"target"`
}

// OpenURLResult reports whether the host could open a link.
type OpenURLResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// WakeWordToggle turns wake word listening on or off.
type WakeWordToggle struct {
	Enabled bool `json:"enabled"`
}
