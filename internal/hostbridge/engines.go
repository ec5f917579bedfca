package hostbridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/flixmarket/flixvoice/internal/stt"
	"github.com/flixmarket/flixvoice/internal/tts"
	"github.com/google/uuid"
)

// Recognizer drives the host's speech recognition.
type Recognizer struct{ s *Server }

// Synthesizer drives the host's speech synthesis.
type Synthesizer struct{ s *Server }

// Recognizer returns the host recognition engine.
func (s *Server) Recognizer() *Recognizer { return &Recognizer{s: s} }

// Synthesizer returns the host synthesis engine.
func (s *Server) Synthesizer() *Synthesizer { return &Synthesizer{s: s} }

var (
	_ stt.Recognizer      = (*Recognizer)(nil)
	_ tts.Synthesizer     = (*Synthesizer)(nil)
	_ location.Geolocator = (*Server)(nil)
)

// Supported implements stt.Recognizer.
func (r *Recognizer) Supported() bool {
	hello, ok := r.s.capabilities()
	return ok && hello.Recognition
}

// Start implements stt.Recognizer.
func (r *Recognizer) Start(opts stt.Options, cb stt.Callbacks) error {
	s := r.s
	s.mu.Lock()
	if s.host == nil {
		s.mu.Unlock()
		return ErrNoHost
	}
	id := uuid.New().String()
	s.recognition = cb
	s.recognizing = true
	s.recSession = id
	s.mu.Unlock()

	if err := s.send(MsgStartRecognition, id, opts); err != nil {
		s.mu.Lock()
		s.recognizing = false
		s.recognition = stt.Callbacks{}
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", stt.ErrEngine, err)
	}
	return nil
}

// Stop implements stt.Recognizer. The host confirms with recognition.end.
func (r *Recognizer) Stop() error {
	return r.s.send(MsgStopRecognition, "", nil)
}

// Supported implements tts.Synthesizer.
func (t *Synthesizer) Supported() bool {
	hello, ok := t.s.capabilities()
	return ok && hello.Speech
}

// Voices implements tts.Synthesizer.
func (t *Synthesizer) Voices() []tts.Voice {
	hello, ok := t.s.capabilities()
	if !ok {
		return nil
	}
	return append([]tts.Voice(nil), hello.Voices...)
}

// Speak implements tts.Synthesizer.
func (t *Synthesizer) Speak(u tts.Utterance, cb tts.Callbacks) error {
	s := t.s
	id := uuid.New().String()

	s.mu.Lock()
	if s.host == nil {
		s.mu.Unlock()
		return ErrNoHost
	}
	s.utterance = id
	s.speech = cb
	s.mu.Unlock()

	req := SpeakRequest{Text: u.Text, Lang: u.Language, Rate: u.Rate, Volume: u.Volume}
	if u.Voice != nil {
		req.Voice = u.Voice.Name
	}
	if err := s.send(MsgSpeak, id, req); err != nil {
		s.mu.Lock()
		if s.utterance == id {
			s.utterance = ""
			s.speech = tts.Callbacks{}
		}
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", tts.ErrEngine, err)
	}
	return nil
}

// Cancel implements tts.Synthesizer. The pending utterance ends with
// ErrCanceled right away; late host events for it are dropped.
func (t *Synthesizer) Cancel() {
	s := t.s
	s.mu.Lock()
	cb := s.speech
	active := s.utterance != ""
	s.utterance = ""
	s.speech = tts.Callbacks{}
	s.mu.Unlock()

	_ = s.send(MsgCancelSpeech, "", nil)
	if active && cb.OnError != nil {
		cb.OnError(tts.ErrCanceled)
	}
}

// Pause implements tts.Synthesizer.
func (t *Synthesizer) Pause() { _ = t.s.send(MsgPauseSpeech, "", nil) }

// Resume implements tts.Synthesizer.
func (t *Synthesizer) Resume() { _ = t.s.send(MsgResumeSpeech, "", nil) }

// CurrentPosition implements location.Geolocator by asking the host.
func (s *Server) CurrentPosition(ctx context.Context) (location.Coordinates, error) {
	hello, ok := s.capabilities()
	if !ok || !hello.Geolocation {
		return location.Coordinates{}, ErrNoHost
	}

	req := PositionRequest{
		EnableHighAccuracy: true,
		TimeoutMs:          location.PositionTimeout.Milliseconds(),
		MaximumAgeMs:       300000,
	}
	env, err := s.request(ctx, MsgRequestPosition, req)
	if err != nil {
		return location.Coordinates{}, err
	}

	if env.Type == MsgPositionError {
		var p ErrorPayload
		_ = decode(env.Data, &p)
		if p.Code == "permission_denied" {
			return location.Coordinates{}, location.ErrPermissionDenied
		}
		return location.Coordinates{}, fmt.Errorf("geolocation %s: %s", p.Code, p.Message)
	}

	var pos Position
	if err := decode(env.Data, &pos); err != nil {
		return location.Coordinates{}, err
	}
	return location.Coordinates{Lat: pos.Lat, Lng: pos.Lng}, nil
}

// OpenNew asks the host to open url in a new context.
func (s *Server) OpenNew(ctx context.Context, url string) error {
	return s.openURL(ctx, url, TargetNew)
}

// OpenCurrent asks the host to open url in place.
func (s *Server) OpenCurrent(ctx context.Context, url string) error {
	return s.openURL(ctx, url, TargetCurrent)
}

func (s *Server) openURL(ctx context.Context, url, target string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReplyTimeout)
	defer cancel()

	env, err := s.request(ctx, MsgOpenURL, OpenURLRequest{URL: url, Target: target})
	if err != nil {
		return err
	}
	var res OpenURLResult
	if err := decode(env.Data, &res); err != nil {
		return err
	}
	if !res.OK {
		if res.Error == "" {
			return ErrOpenRejected
		}
		return fmt.Errorf("%w: %s", ErrOpenRejected, res.Error)
	}
	return nil
}

// IsHostError reports whether err came from a missing or departed host.
func IsHostError(err error) bool {
	return errors.Is(err, ErrNoHost) || errors.Is(err, ErrHostGone)
}
