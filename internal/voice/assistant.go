package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/command"
	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/flixmarket/flixvoice/internal/metrics"
	"github.com/flixmarket/flixvoice/internal/reminder"
	"github.com/flixmarket/flixvoice/internal/stt"
	"github.com/flixmarket/flixvoice/internal/tts"
	"github.com/rs/zerolog"
)

// Finals at or below this confidence are not dispatched.
const MinCommandConfidence = 0.5

// PromptText is spoken when the wake phrase arrives without a command.
const PromptText = "Yes? How can I help?"

// Config holds assistant configuration
type Config struct {
	Capture   stt.CaptureConfig
	Processor command.Config
	History   HistoryConfig
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Capture:   stt.DefaultCaptureConfig(),
		Processor: command.DefaultConfig(),
		History:   DefaultHistoryConfig(),
	}
}

// Deps are the platform capabilities the assistant runs on. Nil engines are
// treated as unsupported.
type Deps struct {
	Recognizer  stt.Recognizer
	Synthesizer tts.Synthesizer
	Geolocator  location.Geolocator
	Places      location.PlaceFinder
	Maps        location.MapLinkBuilder
	Opener      MapOpener
	Events      *bus.EventBus
	Reminders   *reminder.Inbox
}

// State is a snapshot of the assistant session.
type State struct {
	Enabled             bool                   `json:"enabled"`
	IsListening         bool                   `json:"isListening"`
	IsSpeaking          bool                   `json:"isSpeaking"`
	IsProcessing        bool                   `json:"isProcessing"`
	IsManualListening   bool                   `json:"isManualListening"`
	IsWakeWordListening bool                   `json:"isWakeWordListening"`
	UserLocation        *location.Coordinates  `json:"userLocation,omitempty"`
	Transcript          string                 `json:"transcript"`
	Interim             string                 `json:"interim,omitempty"`
	Confidence          float64                `json:"confidence"`
	LastResponse        *command.VoiceResponse `json:"lastResponse,omitempty"`
	RecognitionError    string                 `json:"recognitionError,omitempty"`
	SpeechError         string                 `json:"speechError,omitempty"`
	RecognitionSupport  bool                   `json:"recognitionSupported"`
	SpeechSupport       bool                   `json:"speechSupported"`
}

// Assistant owns the voice session. Wake word and manual listening are
// independent trigger modes over one capture; Run is the only consumer of
// capture events.
type Assistant struct {
	settings   *config.SettingsStore
	capture    *stt.Capture
	speaker    *tts.Speaker
	processor  *command.Processor
	executor   *Executor
	geolocator location.Geolocator
	events     *bus.EventBus
	history    *History
	wake       WakeTracker
	logger     zerolog.Logger

	mu           sync.RWMutex
	manual       bool
	wakeMode     bool
	userLocation *location.Coordinates
	lastResponse *command.VoiceResponse
}

// NewAssistant wires capture, speech, processing and action execution.
func NewAssistant(settings *config.SettingsStore, deps Deps, cfg Config, logger zerolog.Logger) *Assistant {
	a := &Assistant{
		settings:   settings,
		geolocator: deps.Geolocator,
		events:     deps.Events,
		history:    NewHistory(cfg.History),
		logger:     logger.With().Str("component", "assistant").Logger(),
	}

	a.capture = stt.NewCapture(deps.Recognizer, settings, cfg.Capture, logger)
	a.speaker = tts.NewSpeaker(deps.Synthesizer, settings, logger)
	a.executor = NewExecutor(ExecutorDeps{
		Maps:      deps.Maps,
		Opener:    deps.Opener,
		Events:    deps.Events,
		Reminders: deps.Reminders,
		Origin:    a.UserLocation,
		ReadAloud: func() bool { return settings.Settings().ReadNotifications },
	}, logger)
	a.processor = command.New(cfg.Processor, command.Deps{
		Places:       deps.Places,
		UserLocation: a.UserLocation,
		SideEffects:  a.executor,
		Personalized: func() bool { return settings.Settings().PersonalizedResponses },
	}, logger)

	settings.Subscribe(a.onSettings)
	if deps.Events != nil {
		deps.Events.Subscribe(bus.EventTypeReminderDue, a.onReminderDue)
	}
	return a
}

// Start brings the session up: a best-effort location fetch and capture in
// wake word mode. It does nothing while voice is disabled, and a missing
// recognition capability leaves the session running without listening.
func (a *Assistant) Start(ctx context.Context) error {
	settings := a.settings.Settings()
	if !settings.Enabled {
		a.logger.Info().Msg("voice assistant disabled")
		return nil
	}
	if settings.LocationServices {
		go a.RefreshLocation(ctx)
	}
	err := a.SetWakeWordListening(true)
	if errors.Is(err, stt.ErrUnsupported) || errors.Is(err, stt.ErrDisabled) {
		a.logger.Info().Err(err).Msg("speech recognition unavailable, listening skipped")
		return nil
	}
	return err
}

// Run consumes capture transcripts until ctx is done. Each transcript goes
// through the wake word gate and then manual dispatch, in the order heard.
func (a *Assistant) Run(ctx context.Context) error {
	transcripts := a.capture.Transcripts()
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-transcripts:
			a.handleTranscript(ctx, t)
		}
	}
}

func (a *Assistant) handleTranscript(ctx context.Context, t stt.Transcript) {
	a.publish(bus.EventTypeTranscript, map[string]any{"text": t.Text, "confidence": t.Confidence})
	if a.handleWake(ctx, t) {
		return
	}
	a.handleManual(ctx, t)
}

// handleWake is the wake word gate. It reports whether t was consumed.
func (a *Assistant) handleWake(ctx context.Context, t stt.Transcript) bool {
	a.mu.Lock()
	if !a.wakeMode || a.manual {
		a.mu.Unlock()
		return false
	}
	match, ok := MatchWake(t.Text, WakePhrases(a.settings.Settings()))
	if !ok {
		a.mu.Unlock()
		return false
	}
	if match.Command == "" {
		a.manual = true
	}
	a.mu.Unlock()

	a.capture.ResetTranscript()
	a.wake.Detected(match.Phrase)
	metrics.WakeWordDetections.Inc()
	a.publish(bus.EventTypeWakeWord, map[string]any{"phrase": match.Phrase, "command": match.Command})
	a.logger.Info().Str("phrase", match.Phrase).Str("command", match.Command).Msg("wake word detected")

	if match.Command == "" {
		a.speaker.Speak(PromptText, nil)
		return true
	}
	a.respond(ctx, match.Command, t.Confidence)
	return true
}

// handleManual dispatches a transcript while manual listening is on. One
// activation handles one command.
func (a *Assistant) handleManual(ctx context.Context, t stt.Transcript) {
	if t.Confidence <= MinCommandConfidence {
		return
	}

	a.mu.Lock()
	if !a.manual {
		a.mu.Unlock()
		return
	}
	a.manual = false
	keepListening := a.wakeMode
	a.mu.Unlock()

	if !keepListening {
		a.capture.StopListening()
	}
	a.capture.ResetTranscript()
	a.respond(ctx, t.Text, t.Confidence)
}

func (a *Assistant) respond(ctx context.Context, text string, confidence float64) {
	if expanded, ok := a.settings.Settings().ExpandShortcut(text); ok {
		a.logger.Debug().Str("shortcut", text).Str("command", expanded).Msg("voice shortcut")
		text = expanded
	}
	resp := a.processor.Process(ctx, text, confidence)

	a.mu.Lock()
	a.lastResponse = &resp
	a.mu.Unlock()
	a.history.Add(text, resp)
	a.publish(bus.EventTypeResponse, map[string]any{"command": text, "response": resp})

	if a.settings.Settings().AutoResponse {
		a.speaker.Speak(resp.Text, nil)
	}

	for _, action := range resp.Actions {
		if action.Scheduled {
			continue
		}
		// failures are reported by the executor
		_ = a.executor.Execute(ctx, action)
	}
}

// StartManualListening arms one manual command.
func (a *Assistant) StartManualListening() error {
	a.mu.Lock()
	a.manual = true
	a.mu.Unlock()

	a.capture.ResetTranscript()
	if err := a.capture.StartListening(); err != nil {
		a.mu.Lock()
		a.manual = false
		a.mu.Unlock()
		return err
	}
	a.publish(bus.EventTypeListeningStarted, map[string]any{"mode": "manual"})
	return nil
}

// StopManualListening disarms manual mode. Capture keeps running while wake
// word mode needs it.
func (a *Assistant) StopManualListening() {
	a.mu.Lock()
	a.manual = false
	keepListening := a.wakeMode
	a.mu.Unlock()

	if !keepListening {
		a.capture.StopListening()
		a.publish(bus.EventTypeListeningStopped, map[string]any{"mode": "manual"})
	}
}

// SetWakeWordListening turns wake word mode on or off.
func (a *Assistant) SetWakeWordListening(on bool) error {
	a.mu.Lock()
	a.wakeMode = on
	manual := a.manual
	a.mu.Unlock()

	if on {
		if err := a.capture.StartListening(); err != nil {
			a.mu.Lock()
			a.wakeMode = false
			a.mu.Unlock()
			a.logger.Warn().Err(err).Msg("wake word listening unavailable")
			return err
		}
		a.publish(bus.EventTypeListeningStarted, map[string]any{"mode": "wake_word"})
		return nil
	}
	if !manual {
		a.capture.StopListening()
		a.publish(bus.EventTypeListeningStopped, map[string]any{"mode": "wake_word"})
	}
	return nil
}

// UpdateSettings changes the voice settings.
func (a *Assistant) UpdateSettings(fn func(*config.VoiceSettings)) (config.VoiceSettings, error) {
	return a.settings.Update(fn)
}

// Settings returns the current voice settings.
func (a *Assistant) Settings() config.VoiceSettings {
	return a.settings.Settings()
}

func (a *Assistant) onSettings(s config.VoiceSettings) {
	a.publish(bus.EventTypeSettingsChanged, map[string]any{"settings": s})
	if s.Enabled {
		return
	}
	a.mu.Lock()
	a.manual = false
	a.wakeMode = false
	a.mu.Unlock()
	a.capture.StopListening()
	a.speaker.Stop()
	a.wake.Clear()
	a.logger.Info().Msg("voice disabled, session stopped")
}

func (a *Assistant) onReminderDue(e bus.Event) {
	text, _ := e.Data["text"].(string)
	if text == "" || !a.settings.Settings().ReadNotifications {
		return
	}
	a.speaker.Speak(text, nil)
}

// RefreshLocation fetches the current position. Failures are logged and the
// previous position is kept.
func (a *Assistant) RefreshLocation(ctx context.Context) {
	pos, err := location.CurrentPosition(ctx, a.geolocator)
	if err != nil {
		a.logger.Warn().Err(err).Msg("location unavailable")
		return
	}
	a.mu.Lock()
	a.userLocation = &pos
	a.mu.Unlock()
	a.logger.Debug().Float64("lat", pos.Lat).Float64("lng", pos.Lng).Msg("location updated")
}

// UserLocation returns the last known position, or nil.
func (a *Assistant) UserLocation() *location.Coordinates {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.userLocation == nil {
		return nil
	}
	pos := *a.userLocation
	return &pos
}

// LastResponse returns the most recent response, or nil.
func (a *Assistant) LastResponse() *command.VoiceResponse {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.lastResponse == nil {
		return nil
	}
	r := *a.lastResponse
	return &r
}

// History returns the recent exchanges.
func (a *Assistant) History() []Exchange {
	return a.history.Exchanges()
}

// LastWake returns the last detected wake phrase and when it was heard.
func (a *Assistant) LastWake() (string, time.Time) {
	return a.wake.LastDetected()
}

// Speaker exposes speech output for direct control (stop, pause, resume).
func (a *Assistant) Speaker() *tts.Speaker {
	return a.speaker
}

// Executor exposes action execution for replaying response actions.
func (a *Assistant) Executor() *Executor {
	return a.executor
}

// State returns a snapshot of the session.
func (a *Assistant) State() State {
	capture := a.capture.State()
	speech := a.speaker.State()

	s := State{
		Enabled:            a.settings.Settings().Enabled,
		IsListening:        capture.Listening,
		IsSpeaking:         speech.Speaking,
		IsProcessing:       a.processor.IsProcessing(),
		Transcript:         capture.Transcript,
		Interim:            capture.Interim,
		Confidence:         capture.Confidence,
		RecognitionError:   capture.Error,
		SpeechError:        speech.Error,
		RecognitionSupport: capture.Supported,
		SpeechSupport:      speech.Supported,
		UserLocation:       a.UserLocation(),
		LastResponse:       a.LastResponse(),
	}
	a.mu.RLock()
	s.IsManualListening = a.manual
	s.IsWakeWordListening = a.wakeMode
	a.mu.RUnlock()
	return s
}

// Stop ends the session and cancels pending side effects.
func (a *Assistant) Stop() {
	a.mu.Lock()
	a.manual = false
	a.wakeMode = false
	a.mu.Unlock()

	a.capture.StopListening()
	a.speaker.Stop()
	a.wake.Clear()
	a.processor.Close()
	a.logger.Info().Msg("voice assistant stopped")
}

func (a *Assistant) publish(t bus.EventType, data map[string]any) {
	if a.events == nil {
		return
	}
	a.events.Publish(bus.Event{Type: t, Data: data})
}
