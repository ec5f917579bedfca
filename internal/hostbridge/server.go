package hostbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/flixmarket/flixvoice/internal/metrics"
	"github.com/flixmarket/flixvoice/internal/stt"
	"github.com/flixmarket/flixvoice/internal/tts"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	// ErrNoHost is returned when no host is connected or it lacks the capability.
	ErrNoHost = errors.New("no host connected")
	// ErrHostGone is reported to pending requests when the host disconnects.
	ErrHostGone = errors.New("host disconnected")
	// ErrOpenRejected is returned when the host could not open a link.
	ErrOpenRejected = errors.New("host could not open link")
)

// Controller is the assistant surface driven by host control messages.
type Controller interface {
	Start(ctx context.Context) error
	StartManualListening() error
	StopManualListening()
	SetWakeWordListening(on bool) error
	UpdateSettings(fn func(*config.VoiceSettings)) (config.VoiceSettings, error)
	Settings() config.VoiceSettings
}

// Config configures the bridge server
type Config struct {
	AllowedOrigins []string      // empty allows any origin
	ReplyTimeout   time.Duration // how long to wait for open_url results
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		ReplyTimeout: 3 * time.Second,
	}
}

// Forwarded lists the bus events relayed to the host.
var Forwarded = []bus.EventType{
	bus.EventTypeResponse,
	bus.EventTypeActionFailed,
	bus.EventTypeSwitchTab,
	bus.EventTypeReadNotifications,
	bus.EventTypeSendMessage,
	bus.EventTypeAddFlixbits,
	bus.EventTypeReminderCreated,
	bus.EventTypeReminderDue,
	bus.EventTypeSettingsChanged,
}

// hostConn is one connected host. Writes are serialized per connection.
type hostConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (h *hostConn) send(env Envelope) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return h.ws.WriteJSON(env)
}

// Server accepts one host connection at a time and exposes it as the
// recognition, synthesis, geolocation and link opening engine. A new
// connection replaces the previous one.
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu         sync.Mutex
	host       *hostConn
	hello      Hello
	controller Controller
	ctx        context.Context

	recognition stt.Callbacks
	recognizing bool
	recSession  string // id the host echoes on recognition events

	utterance string // id of the utterance the host is speaking
	speech    tts.Callbacks

	pending map[string]chan Envelope
}

// NewServer creates a bridge server.
func NewServer(cfg Config, logger zerolog.Logger) *Server {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = DefaultConfig().ReplyTimeout
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger.With().Str("component", "hostbridge").Logger(),
		ctx:     context.Background(),
		pending: make(map[string]chan Envelope),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// SetController attaches the assistant. ctx bounds the sessions started on
// behalf of the host.
func (s *Server) SetController(ctx context.Context, c Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller = c
	s.ctx = ctx
}

// Forward relays host facing bus events to the connected host.
func (s *Server) Forward(events *bus.EventBus) {
	events.SubscribeMultiple(Forwarded, func(e bus.Event) {
		if err := s.send(MessageType(e.Type), "", e.Data); err != nil && !IsHostError(err) {
			s.logger.Warn().Err(err).Str("event", string(e.Type)).Msg("forward failed")
		}
	})
}

// RegisterRoutes registers the WebSocket endpoint.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/ws", s)
}

// Connected reports whether a host is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host != nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(s.cfg.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

// ServeHTTP upgrades the request and serves the host until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	h := &hostConn{ws: ws}

	s.mu.Lock()
	previous := s.host
	s.mu.Unlock()
	if previous != nil {
		s.logger.Info().Msg("replacing host connection")
		s.detach(previous)
		previous.ws.Close()
	}

	s.mu.Lock()
	s.host = h
	s.hello = Hello{}
	s.mu.Unlock()
	metrics.HostConnections.Inc()
	s.logger.Info().Str("remote", r.RemoteAddr).Msg("host connected")

	defer func() {
		metrics.HostConnections.Dec()
		s.detach(h)
		ws.Close()
		s.logger.Info().Str("remote", r.RemoteAddr).Msg("host disconnected")
	}()

	for {
		var env Envelope
		if err := ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		s.handle(h, env)
	}
}

// detach fails everything in flight on h once it is no longer the host.
func (s *Server) detach(h *hostConn) {
	s.mu.Lock()
	if s.host != h {
		s.mu.Unlock()
		return
	}
	s.host = nil
	rec := s.recognition
	recognizing := s.recognizing
	s.recognition = stt.Callbacks{}
	s.recognizing = false
	speech := s.speech
	speaking := s.utterance != ""
	s.utterance = ""
	s.speech = tts.Callbacks{}
	pending := s.pending
	s.pending = make(map[string]chan Envelope)
	s.mu.Unlock()

	if recognizing {
		if rec.OnError != nil {
			rec.OnError(fmt.Errorf("%w: %w", stt.ErrEngine, ErrHostGone))
		}
		if rec.OnEnd != nil {
			rec.OnEnd()
		}
	}
	if speaking && speech.OnError != nil {
		speech.OnError(fmt.Errorf("%w: %w", tts.ErrEngine, ErrHostGone))
	}
	for _, ch := range pending {
		close(ch)
	}
}

func (s *Server) handle(h *hostConn, env Envelope) {
	s.mu.Lock()
	current := s.host == h
	s.mu.Unlock()
	if !current {
		return
	}

	switch env.Type {
	case MsgHello:
		s.handleHello(h, env)

	case MsgRecognitionStarted, MsgRecognitionEnded, MsgRecognitionError, MsgRecognitionResult:
		s.handleRecognition(env)

	case MsgSpeechStarted, MsgSpeechEnded, MsgSpeechError:
		s.handleSpeech(env)

	case MsgPosition, MsgPositionError, MsgOpenURLResult:
		s.mu.Lock()
		ch, ok := s.pending[env.ID]
		delete(s.pending, env.ID)
		s.mu.Unlock()
		if ok {
			ch <- env
		}

	case MsgManualStart, MsgManualStop, MsgWakeWord, MsgSettingsUpdate:
		s.handleControl(h, env)

	default:
		s.logger.Debug().Str("type", string(env.Type)).Msg("unknown message type")
		s.reply(h, env.ID, fmt.Errorf("unknown message type %q", env.Type))
	}
}

func (s *Server) handleHello(h *hostConn, env Envelope) {
	var hello Hello
	if err := decode(env.Data, &hello); err != nil {
		s.reply(h, env.ID, err)
		return
	}

	s.mu.Lock()
	s.hello = hello
	c := s.controller
	ctx := s.ctx
	s.mu.Unlock()

	s.logger.Info().
		Bool("recognition", hello.Recognition).
		Bool("speech", hello.Speech).
		Bool("geolocation", hello.Geolocation).
		Int("voices", len(hello.Voices)).
		Msg("host capabilities")

	welcome := map[string]any{}
	if c != nil {
		welcome["settings"] = c.Settings()
	}
	if err := h.send(envelope(MsgWelcome, env.ID, welcome)); err != nil {
		s.logger.Warn().Err(err).Msg("welcome failed")
	}

	if c != nil {
		go func() {
			if err := c.Start(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("assistant start failed")
			}
		}()
	}
}

func (s *Server) handleRecognition(env Envelope) {
	s.mu.Lock()
	if env.ID != "" && env.ID != s.recSession {
		s.mu.Unlock()
		return
	}
	cb := s.recognition
	active := s.recognizing
	if env.Type == MsgRecognitionEnded {
		s.recognizing = false
	}
	s.mu.Unlock()
	if !active {
		return
	}

	switch env.Type {
	case MsgRecognitionStarted:
		if cb.OnStart != nil {
			cb.OnStart()
		}
	case MsgRecognitionResult:
		var r RecognitionResults
		if err := decode(env.Data, &r); err != nil {
			s.logger.Warn().Err(err).Msg("bad recognition result")
			return
		}
		if cb.OnResult != nil && len(r.Results) > 0 {
			cb.OnResult(r.Results)
		}
	case MsgRecognitionError:
		var p ErrorPayload
		_ = decode(env.Data, &p)
		if cb.OnError != nil {
			cb.OnError(recognitionError(p))
		}
	case MsgRecognitionEnded:
		if cb.OnEnd != nil {
			cb.OnEnd()
		}
	}
}

func recognitionError(p ErrorPayload) error {
	switch p.Code {
	case "not-allowed", "service-not-allowed":
		return stt.ErrPermissionDenied
	case "no-speech":
		return stt.ErrNoSpeech
	}
	return fmt.Errorf("%w: %s", stt.ErrEngine, p.Code)
}

func (s *Server) handleSpeech(env Envelope) {
	s.mu.Lock()
	if env.ID == "" || env.ID != s.utterance {
		s.mu.Unlock()
		return
	}
	cb := s.speech
	if env.Type != MsgSpeechStarted {
		s.utterance = ""
		s.speech = tts.Callbacks{}
	}
	s.mu.Unlock()

	switch env.Type {
	case MsgSpeechStarted:
		if cb.OnStart != nil {
			cb.OnStart()
		}
	case MsgSpeechEnded:
		if cb.OnEnd != nil {
			cb.OnEnd()
		}
	case MsgSpeechError:
		var p ErrorPayload
		_ = decode(env.Data, &p)
		err := fmt.Errorf("%w: %s", tts.ErrEngine, p.Code)
		if p.Code == "canceled" || p.Code == "interrupted" {
			err = tts.ErrCanceled
		}
		if cb.OnError != nil {
			cb.OnError(err)
		}
	}
}

func (s *Server) handleControl(h *hostConn, env Envelope) {
	s.mu.Lock()
	c := s.controller
	s.mu.Unlock()
	if c == nil {
		s.reply(h, env.ID, errors.New("assistant not ready"))
		return
	}

	var err error
	switch env.Type {
	case MsgManualStart:
		err = c.StartManualListening()
	case MsgManualStop:
		c.StopManualListening()
	case MsgWakeWord:
		var t WakeWordToggle
		if err = decode(env.Data, &t); err == nil {
			err = c.SetWakeWordListening(t.Enabled)
		}
	case MsgSettingsUpdate:
		if len(env.Data) == 0 {
			err = errors.New("missing settings")
			break
		}
		// fields missing from the message keep their current value
		next := c.Settings()
		if err = decode(env.Data, &next); err == nil {
			_, err = c.UpdateSettings(func(v *config.VoiceSettings) { *v = next })
		}
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("type", string(env.Type)).Msg("control message failed")
	}
	s.reply(h, env.ID, err)
}

// reply reports a failed request back to the host. Successful requests are
// only acknowledged when they carried an id.
func (s *Server) reply(h *hostConn, id string, err error) {
	if err == nil && id == "" {
		return
	}
	typ, data := MsgAck, map[string]any{"ok": true}
	if err != nil {
		typ, data = MsgError, map[string]any{"ok": false, "error": err.Error()}
	}
	if sendErr := h.send(envelope(typ, id, data)); sendErr != nil {
		s.logger.Warn().Err(sendErr).Msg("reply failed")
	}
}

func (s *Server) send(typ MessageType, id string, data any) error {
	s.mu.Lock()
	h := s.host
	s.mu.Unlock()
	if h == nil {
		return ErrNoHost
	}
	return h.send(envelope(typ, id, data))
}

// request sends a message and waits for the reply carrying the same id.
func (s *Server) request(ctx context.Context, typ MessageType, data any) (Envelope, error) {
	id := uuid.New().String()
	ch := make(chan Envelope, 1)

	s.mu.Lock()
	if s.host == nil {
		s.mu.Unlock()
		return Envelope{}, ErrNoHost
	}
	s.pending[id] = ch
	s.mu.Unlock()

	forget := func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}

	if err := s.send(typ, id, data); err != nil {
		forget()
		return Envelope{}, err
	}

	select {
	case env, ok := <-ch:
		if !ok {
			return Envelope{}, ErrHostGone
		}
		return env, nil
	case <-ctx.Done():
		forget()
		return Envelope{}, ctx.Err()
	}
}

func envelope(typ MessageType, id string, data any) Envelope {
	env := Envelope{Type: typ, ID: id}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			env.Data = raw
		}
	}
	return env
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// capabilities returns the host's hello when a host is connected.
func (s *Server) capabilities() (Hello, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hello, s.host != nil
}
