// Package voice is the voice assistant session: it listens for the wake word
// or manual activation, turns transcripts into responses, speaks them and
// carries out their actions.
package voice

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flixmarket/flixvoice/internal/config"
)

// Wake phrases per wake word setting. Recognizers often mishear "flix", so
// the common variants are accepted as well.
var wakePhrases = map[config.WakeWord][]string{
	config.WakeWordHeyFlix:       {"hey flix", "hey flicks", "hey flex", "hey felix", "hay flix"},
	config.WakeWordFlixAssistant: {"flix assistant", "flicks assistant", "flex assistant"},
}

// WakePhrases returns the phrases that activate the assistant for settings,
// longest first.
func WakePhrases(settings config.VoiceSettings) []string {
	var phrases []string
	switch settings.WakeWord {
	case config.WakeWordCustom:
		if custom := strings.ToLower(strings.TrimSpace(settings.CustomWakeWord)); custom != "" {
			phrases = append(phrases, custom)
		}
	default:
		phrases = append(phrases, wakePhrases[settings.WakeWord]...)
	}
	if len(phrases) == 0 {
		phrases = append(phrases, wakePhrases[config.WakeWordHeyFlix]...)
	}
	sort.SliceStable(phrases, func(i, j int) bool { return len(phrases[i]) > len(phrases[j]) })
	return phrases
}

// WakeMatch describes a wake phrase found in a transcript.
type WakeMatch struct {
	Phrase  string
	Command string
}

// MatchWake scans text for the earliest wake phrase. The command is the text
// after the phrase with leading punctuation removed; it may be empty.
func MatchWake(text string, phrases []string) (WakeMatch, bool) {
	lower := strings.ToLower(text)
	best, bestAt := "", -1
	for _, p := range phrases {
		at := indexWord(lower, p)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt {
			best, bestAt = p, at
		}
	}
	if bestAt < 0 {
		return WakeMatch{}, false
	}

	rest := lower[bestAt+len(best):]
	if len(lower) == len(text) {
		rest = text[bestAt+len(best):]
	}
	return WakeMatch{
		Phrase:  best,
		Command: strings.TrimSpace(strings.TrimLeft(rest, " ,.!?;:-")),
	}, true
}

// indexWord finds phrase in s where it is not part of a longer word.
func indexWord(s, phrase string) int {
	from := 0
	for {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(phrase)
		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return i
		}
		from = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// WakeTracker remembers the last detected wake phrase.
type WakeTracker struct {
	mu           sync.RWMutex
	lastDetected string
	lastTime     time.Time
}

// Detected records a detection.
func (w *WakeTracker) Detected(phrase string) {
	w.mu.Lock()
	w.lastDetected = phrase
	w.lastTime = time.Now()
	w.mu.Unlock()
}

// LastDetected returns the last detected wake phrase and when it was detected.
func (w *WakeTracker) LastDetected() (string, time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastDetected, w.lastTime
}

// Clear forgets the last detection.
func (w *WakeTracker) Clear() {
	w.mu.Lock()
	w.lastDetected = ""
	w.lastTime = time.Time{}
	w.mu.Unlock()
}
