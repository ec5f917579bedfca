package voice

import (
	"sync"
	"time"

	"github.com/flixmarket/flixvoice/internal/command"
)

// Exchange is one command and the response it produced.
type Exchange struct {
	Command   string                `json:"command"`
	Response  command.VoiceResponse `json:"response"`
	Timestamp time.Time             `json:"timestamp"`
}

// HistoryConfig configures History.
type HistoryConfig struct {
	// MaxExchanges is the maximum number of exchanges to retain (default: 10)
	MaxExchanges int
	// InactivityTimeout is the duration after which history expires (default: 5 minutes)
	InactivityTimeout time.Duration
}

// DefaultHistoryConfig returns sensible defaults.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		MaxExchanges:      10,
		InactivityTimeout: 5 * time.Minute,
	}
}

// History keeps the recent exchanges of a session for display.
type History struct {
	mu           sync.RWMutex
	exchanges    []Exchange
	lastActivity time.Time
	config       HistoryConfig
}

// NewHistory creates an empty history.
func NewHistory(config HistoryConfig) *History {
	def := DefaultHistoryConfig()
	if config.MaxExchanges <= 0 {
		config.MaxExchanges = def.MaxExchanges
	}
	if config.InactivityTimeout <= 0 {
		config.InactivityTimeout = def.InactivityTimeout
	}
	return &History{
		exchanges:    make([]Exchange, 0, config.MaxExchanges),
		lastActivity: time.Now(),
		config:       config,
	}
}

// Add records an exchange, trimming the oldest beyond MaxExchanges.
func (h *History) Add(cmd string, resp command.VoiceResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.isExpiredLocked() {
		h.exchanges = h.exchanges[:0]
	}
	h.exchanges = append(h.exchanges, Exchange{Command: cmd, Response: resp, Timestamp: time.Now()})
	h.lastActivity = time.Now()

	if len(h.exchanges) > h.config.MaxExchanges {
		h.exchanges = append([]Exchange(nil), h.exchanges[len(h.exchanges)-h.config.MaxExchanges:]...)
	}
}

// Exchanges returns a copy of the retained exchanges, oldest first. Expired
// history is empty.
func (h *History) Exchanges() []Exchange {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.isExpiredLocked() {
		return nil
	}
	out := make([]Exchange, len(h.exchanges))
	copy(out, h.exchanges)
	return out
}

// Len returns the number of retained exchanges.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.exchanges)
}

// Clear removes all exchanges.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = h.exchanges[:0]
}

// caller must hold the lock
func (h *History) isExpiredLocked() bool {
	if len(h.exchanges) == 0 {
		return false
	}
	return time.Since(h.lastActivity) > h.config.InactivityTimeout
}
