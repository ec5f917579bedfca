package console

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/flixmarket/flixvoice/internal/stt"
	"github.com/rs/zerolog"
)

// LineConfidence is the confidence reported for typed lines.
const LineConfidence = 0.95

// LineRecognizer turns input lines into final recognition results. Lines
// read while no session is active are dropped.
type LineRecognizer struct {
	in     io.Reader
	echo   func(string)
	logger zerolog.Logger

	rewrite func(string) string

	once sync.Once
	done chan struct{}

	mu     sync.Mutex
	active bool
	eof    bool
	cb     stt.Callbacks
}

// NewLineRecognizer reads lines from in. echo, when set, is called with every
// accepted line.
func NewLineRecognizer(in io.Reader, echo func(string), logger zerolog.Logger) *LineRecognizer {
	return &LineRecognizer{
		in:     in,
		echo:   echo,
		logger: logger.With().Str("component", "line_recognizer").Logger(),
		done:   make(chan struct{}),
	}
}

var _ stt.Recognizer = (*LineRecognizer)(nil)

// SetRewrite installs fn to transform every accepted line before delivery.
// It must be called before Start.
func (r *LineRecognizer) SetRewrite(fn func(string) string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rewrite = fn
}

// Done is closed when the input is exhausted.
func (r *LineRecognizer) Done() <-chan struct{} {
	return r.done
}

// Supported implements stt.Recognizer.
func (r *LineRecognizer) Supported() bool { return true }

// Start implements stt.Recognizer.
func (r *LineRecognizer) Start(_ stt.Options, cb stt.Callbacks) error {
	r.mu.Lock()
	if r.eof {
		r.mu.Unlock()
		return io.EOF
	}
	r.active = true
	r.cb = cb
	r.mu.Unlock()

	r.once.Do(func() { go r.read() })
	if cb.OnStart != nil {
		cb.OnStart()
	}
	return nil
}

// Stop implements stt.Recognizer.
func (r *LineRecognizer) Stop() error {
	r.mu.Lock()
	cb := r.cb
	wasActive := r.active
	r.active = false
	r.cb = stt.Callbacks{}
	r.mu.Unlock()

	if wasActive && cb.OnEnd != nil {
		cb.OnEnd()
	}
	return nil
}

func (r *LineRecognizer) read() {
	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		r.mu.Lock()
		cb, active, rewrite := r.cb, r.active, r.rewrite
		r.mu.Unlock()
		if !active || cb.OnResult == nil {
			r.logger.Debug().Str("line", line).Msg("not listening, line dropped")
			continue
		}
		if r.echo != nil {
			r.echo(line)
		}
		if rewrite != nil {
			line = rewrite(line)
		}
		cb.OnResult([]stt.Result{{Transcript: line, Confidence: LineConfidence, IsFinal: true}})
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn().Err(err).Msg("input read failed")
	}

	r.mu.Lock()
	r.eof = true
	cb, active := r.cb, r.active
	r.active = false
	r.cb = stt.Callbacks{}
	r.mu.Unlock()

	if active && cb.OnEnd != nil {
		cb.OnEnd()
	}
	close(r.done)
}
