package voice

import (
	"context"
	"errors"
	"sync"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/stt"
	"github.com/flixmarket/flixvoice/internal/tts"
)

type fakeRecognizer struct {
	mu     sync.Mutex
	starts int
	stops  int
	cb     stt.Callbacks
}

func (f *fakeRecognizer) Supported() bool { return true }

func (f *fakeRecognizer) Start(_ stt.Options, cb stt.Callbacks) error {
	f.mu.Lock()
	f.starts++
	f.cb = cb
	f.mu.Unlock()
	cb.OnStart()
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	f.stops++
	cb := f.cb
	f.mu.Unlock()
	if cb.OnEnd != nil {
		cb.OnEnd()
	}
	return nil
}

// say delivers a final result on the current session.
func (f *fakeRecognizer) say(text string, confidence float64) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	cb.OnResult([]stt.Result{{Transcript: text, Confidence: confidence, IsFinal: true}})
}

func (f *fakeRecognizer) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type fakeSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (f *fakeSynth) Supported() bool     { return true }
func (f *fakeSynth) Voices() []tts.Voice { return nil }
func (f *fakeSynth) Cancel()             {}
func (f *fakeSynth) Pause()              {}
func (f *fakeSynth) Resume()             {}

func (f *fakeSynth) Speak(u tts.Utterance, cb tts.Callbacks) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, u.Text)
	f.mu.Unlock()
	cb.OnStart()
	return nil
}

func (f *fakeSynth) said() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

type fakeOpener struct {
	mu         sync.Mutex
	newErr     error
	currentErr error
	opened     []string
	current    []string
}

func (f *fakeOpener) OpenNew(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newErr != nil {
		return f.newErr
	}
	f.opened = append(f.opened, url)
	return nil
}

func (f *fakeOpener) OpenCurrent(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return f.currentErr
	}
	f.current = append(f.current, url)
	return nil
}

func (f *fakeOpener) urls() (opened, current []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...), append([]string(nil), f.current...)
}

var errBlocked = errors.New("popup blocked")

// collect buffers every event of the given types.
func collect(events *bus.EventBus, types ...bus.EventType) <-chan bus.Event {
	ch := make(chan bus.Event, 32)
	events.SubscribeMultiple(types, func(e bus.Event) { ch <- e })
	return ch
}
