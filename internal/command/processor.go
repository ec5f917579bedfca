package command

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/flixmarket/flixvoice/internal/intent"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/flixmarket/flixvoice/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ApologyText is spoken when a command could not be handled.
const ApologyText = "Sorry, I had trouble processing that. Please try again."

// SideEffects carries out an action outside the response, such as opening
// the map right after a navigation command.
type SideEffects interface {
	Execute(ctx context.Context, action VoiceAction) error
}

// Config holds processor configuration
type Config struct {
	UserID          string
	UserName        string // how personalized responses address the user
	SearchRadius    float64
	NavigationDelay time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		UserID:          "user-1",
		SearchRadius:    location.DefaultSearchRadius,
		NavigationDelay: time.Second,
	}
}

// Deps are the collaborators a processor needs. UserLocation may return nil
// when the position is unknown. Personalized reports whether responses
// should address the user by name; nil means never.
type Deps struct {
	Places       location.PlaceFinder
	UserLocation func() *location.Coordinates
	SideEffects  SideEffects
	Personalized func() bool
}

// Processor turns transcripts into responses. Calls to Process are
// serialized so the last command and response always describe the same turn.
type Processor struct {
	config Config
	logger zerolog.Logger
	parser *intent.Parser

	places       location.PlaceFinder
	userLocation func() *location.Coordinates
	personalized func() bool

	turn sync.Mutex

	mu           sync.RWMutex
	sideEffects  SideEffects
	processing   bool
	lastCommand  *VoiceCommand
	lastResponse *VoiceResponse

	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

// New creates a processor.
func New(config Config, deps Deps, logger zerolog.Logger) *Processor {
	defaults := DefaultConfig()
	if config.SearchRadius <= 0 {
		config.SearchRadius = defaults.SearchRadius
	}
	if config.NavigationDelay < 0 {
		config.NavigationDelay = 0
	}
	if config.UserID == "" {
		config.UserID = defaults.UserID
	}
	if deps.UserLocation == nil {
		deps.UserLocation = func() *location.Coordinates { return nil }
	}
	if deps.Personalized == nil {
		deps.Personalized = func() bool { return false }
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		config:       config,
		logger:       logger.With().Str("component", "processor").Logger(),
		parser:       intent.NewParser(),
		places:       deps.Places,
		userLocation: deps.UserLocation,
		personalized: deps.Personalized,
		sideEffects:  deps.SideEffects,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetSideEffects replaces the side effect executor.
func (p *Processor) SetSideEffects(s SideEffects) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sideEffects = s
}

// Process parses transcript and runs the matching handler. It always returns
// a response: failures become an apology.
func (p *Processor) Process(ctx context.Context, transcript string, confidence float64) (resp VoiceResponse) {
	p.turn.Lock()
	defer p.turn.Unlock()

	p.setProcessing(true)
	defer p.setProcessing(false)

	start := time.Now()
	parsed := p.parser.Parse(transcript)
	cmd := VoiceCommand{
		ID:               uuid.NewString(),
		CommandText:      strings.TrimSpace(transcript),
		Intent:           parsed.Intent,
		Parameters:       parsed.Parameters,
		Confidence:       parsed.Confidence,
		SpeechConfidence: confidence,
		Timestamp:        start,
		UserID:           p.config.UserID,
	}

	outcome := metrics.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Str("command", cmd.CommandText).Msg("command handler panicked")
			resp = apology()
			outcome = metrics.OutcomeFailed
		}
		p.record(cmd, resp)
		metrics.CommandCount.WithLabelValues(cmd.Intent.String(), outcome).Inc()
		metrics.CommandDuration.WithLabelValues(cmd.Intent.String()).Observe(time.Since(start).Seconds())
	}()

	p.logger.Info().
		Str("id", cmd.ID).
		Str("intent", cmd.Intent.String()).
		Float64("speechConfidence", confidence).
		Str("command", cmd.CommandText).
		Msg("processing command")

	r, err := p.dispatch(ctx, cmd)
	if err != nil {
		p.logger.Warn().Err(err).Str("intent", cmd.Intent.String()).Msg("command failed")
		outcome = metrics.OutcomeFailed
		return apology()
	}
	if cmd.Intent == intent.Query {
		outcome = metrics.OutcomeFallback
	}
	if p.config.UserName != "" && p.personalized() {
		r.Text = addressUser(p.config.UserName, r.Text)
	}
	return r
}

// addressUser puts the user's name in front of text, lower-casing the first
// letter unless it starts with the pronoun I.
func addressUser(name, text string) string {
	first, size := utf8.DecodeRuneInString(text)
	if first == utf8.RuneError {
		return text
	}
	rest := text[size:]
	if first == 'I' && (rest == "" || rest[0] == ' ' || rest[0] == '\'') {
		return name + ", " + text
	}
	return name + ", " + string(unicode.ToLower(first)) + rest
}

func (p *Processor) dispatch(ctx context.Context, cmd VoiceCommand) (VoiceResponse, error) {
	if err := ctx.Err(); err != nil {
		return VoiceResponse{}, err
	}
	switch cmd.Intent {
	case intent.Search:
		return p.handleSearch(ctx, cmd)
	case intent.Navigation:
		return p.handleNavigation(cmd), nil
	case intent.Notification:
		return handleNotification(), nil
	case intent.Reminder:
		return handleReminder(cmd), nil
	case intent.Control:
		return handleControl(cmd), nil
	case intent.Query:
		return handleQuery(cmd), nil
	default:
		return handleQuery(cmd), nil
	}
}

// schedule runs the side effect for action after the navigation delay. It
// reports whether anything was scheduled.
func (p *Processor) schedule(action VoiceAction) bool {
	p.mu.RLock()
	effects := p.sideEffects
	p.mu.RUnlock()
	if effects == nil || p.ctx.Err() != nil {
		return false
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		timer := time.NewTimer(p.config.NavigationDelay)
		defer timer.Stop()
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
		}
		if err := effects.Execute(p.ctx, action); err != nil {
			p.logger.Warn().Err(err).Str("type", action.Type.String()).Msg("side effect failed")
		}
	}()
	return true
}

func (p *Processor) setProcessing(v bool) {
	p.mu.Lock()
	p.processing = v
	p.mu.Unlock()
}

func (p *Processor) record(cmd VoiceCommand, resp VoiceResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCommand = &cmd
	p.lastResponse = &resp
}

// IsProcessing reports whether a command is being handled.
func (p *Processor) IsProcessing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.processing
}

// LastCommand returns the most recent command, or nil.
func (p *Processor) LastCommand() *VoiceCommand {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastCommand == nil {
		return nil
	}
	c := *p.lastCommand
	return &c
}

// LastResponse returns the most recent response, or nil.
func (p *Processor) LastResponse() *VoiceResponse {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastResponse == nil {
		return nil
	}
	r := *p.lastResponse
	return &r
}

// Close cancels pending side effects and waits for running ones to return.
func (p *Processor) Close() {
	p.cancel()
	p.pending.Wait()
}

func newResponse(text string, actions ...VoiceAction) VoiceResponse {
	return VoiceResponse{
		ID:        uuid.NewString(),
		Text:      text,
		Actions:   actions,
		Timestamp: time.Now(),
	}
}

func apology() VoiceResponse {
	return newResponse(ApologyText)
}
