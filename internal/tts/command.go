package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// CommandConfig holds command-line synthesizer configuration
type CommandConfig struct {
	Engine string // auto, espeak-ng, espeak, say
	Rate   int    // words per minute at rate 1.0
}

// DefaultCommandConfig returns sensible defaults
func DefaultCommandConfig() CommandConfig {
	return CommandConfig{
		Engine: "auto",
		Rate:   175,
	}
}

// CommandSynthesizer speaks through a local command-line engine: macOS 'say'
// or espeak-ng. Each utterance runs as its own process, which Cancel kills.
type CommandSynthesizer struct {
	logger zerolog.Logger
	config CommandConfig
	binary string
	kind   string

	voicesOnce sync.Once
	voices     []Voice

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommandSynthesizer resolves the engine binary. The result is unsupported
// when no engine is installed.
func NewCommandSynthesizer(logger zerolog.Logger, config CommandConfig) *CommandSynthesizer {
	if config.Rate <= 0 {
		config.Rate = DefaultCommandConfig().Rate
	}
	s := &CommandSynthesizer{
		logger: logger.With().Str("provider", "command-tts").Logger(),
		config: config,
	}
	s.kind, s.binary = resolveEngine(config.Engine)
	if s.binary != "" {
		s.logger.Debug().Str("engine", s.kind).Str("binary", s.binary).Msg("speech engine resolved")
	}
	return s
}

func resolveEngine(engine string) (kind, binary string) {
	var candidates []string
	switch engine {
	case "", "auto":
		if runtime.GOOS == "darwin" {
			candidates = append(candidates, "say")
		}
		candidates = append(candidates, "espeak-ng", "espeak")
	default:
		candidates = []string{engine}
	}

	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return c, path
		}
	}
	return "", ""
}

// Supported reports whether an engine binary was found
func (s *CommandSynthesizer) Supported() bool {
	return s.binary != ""
}

// Voices lists installed voices, queried once from the engine
func (s *CommandSynthesizer) Voices() []Voice {
	if !s.Supported() {
		return nil
	}
	s.voicesOnce.Do(func() {
		var out []byte
		var err error
		if s.kind == "say" {
			out, err = exec.Command(s.binary, "-v", "?").Output()
			if err == nil {
				s.voices = parseSayVoices(out)
			}
		} else {
			out, err = exec.Command(s.binary, "--voices").Output()
			if err == nil {
				s.voices = parseEspeakVoices(out)
			}
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to list voices")
		}
	})
	return s.voices
}

// Speak starts a process for the utterance and reports its outcome through cb
func (s *CommandSynthesizer) Speak(u Utterance, cb Callbacks) error {
	if !s.Supported() {
		return ErrUnsupported
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.binary, s.args(u)...)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrEngine, err)
	}
	if cb.OnStart != nil {
		cb.OnStart()
	}

	s.logger.Debug().Int("textLen", len(u.Text)).Float64("rate", u.Rate).Msg("speaking")

	go func() {
		err := cmd.Wait()
		defer cancel()
		switch {
		case ctx.Err() != nil:
			if cb.OnError != nil {
				cb.OnError(ErrCanceled)
			}
		case err != nil:
			if cb.OnError != nil {
				cb.OnError(fmt.Errorf("%w: %v", ErrEngine, err))
			}
		default:
			if cb.OnEnd != nil {
				cb.OnEnd()
			}
		}
	}()
	return nil
}

func (s *CommandSynthesizer) args(u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	wpm := strconv.Itoa(int(float64(s.config.Rate) * rate))

	if s.kind == "say" {
		args := []string{"-r", wpm}
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.Name)
		}
		// say has no volume flag; the embedded command sets it
		return append(args, fmt.Sprintf("[[volm %.2f]] %s", u.Volume, u.Text))
	}

	args := []string{"-s", wpm, "-a", strconv.Itoa(int(u.Volume * 200))}
	switch {
	case u.Voice != nil:
		args = append(args, "-v", u.Voice.ID)
	case u.Language != "":
		args = append(args, "-v", strings.ToLower(u.Language))
	}
	return append(args, "--", u.Text)
}

// Cancel kills the running utterance process
func (s *CommandSynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Pause is not supported by command-line engines
func (s *CommandSynthesizer) Pause() {
	s.logger.Debug().Msg("pause not supported by command engine")
}

// Resume is not supported by command-line engines
func (s *CommandSynthesizer) Resume() {
	s.logger.Debug().Msg("resume not supported by command engine")
}

// parseEspeakVoices parses `espeak-ng --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US     (en 10)
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		gender := ""
		if parts := strings.SplitN(fields[2], "/", 2); len(parts) == 2 {
			switch parts[1] {
			case "M":
				gender = "male"
			case "F":
				gender = "female"
			}
		}
		voices = append(voices, Voice{
			ID:       fields[1],
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Language: fields[1],
			Gender:   gender,
		})
	}
	return voices
}

// parseSayVoices parses `say -v ?` output:
//
//	Samantha            en_US    # Hello, my name is Samantha.
//	Eddy (English (UK)) en_GB    # Hello! My name is Eddy.
func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		sep := strings.LastIndexAny(line, " \t")
		if sep < 0 {
			continue
		}
		name := strings.TrimSpace(line[:sep])
		lang := strings.ReplaceAll(line[sep+1:], "_", "-")
		voices = append(voices, Voice{ID: name, Name: name, Language: lang})
	}
	return voices
}
