package stt

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// DefaultFillerWords contains hesitation words removed from voice commands.
// Words that can carry meaning in a command ("like", "right", "so") are left in.
var DefaultFillerWords = []string{
	"um", "uh", "uhh", "umm", "erm",
	"er", "ah", "hmm", "mm",
	"you know", "basically", "actually", "literally",
}

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	onlyPunct     = regexp.MustCompile(`^[.,!?;:\s]+$`)
	danglingComma = regexp.MustCompile(`\s+([,.!?;:])`)
)

// Filter removes filler words and noise from transcripts.
type Filter struct {
	mu          sync.RWMutex
	fillerWords map[string]struct{}
	pattern     *regexp.Regexp
}

// NewFilter creates a filter with the given filler words.
// If fillerWords is nil, DefaultFillerWords is used.
func NewFilter(fillerWords []string) *Filter {
	if fillerWords == nil {
		fillerWords = DefaultFillerWords
	}
	f := &Filter{}
	f.SetFillerWords(fillerWords)
	return f
}

// SetFillerWords replaces the filler word list.
func (f *Filter) SetFillerWords(words []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fillerWords = make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			f.fillerWords[w] = struct{}{}
		}
	}
	f.buildPattern()
}

// FillerWords returns the current filler words, sorted.
func (f *Filter) FillerWords() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	words := make([]string, 0, len(f.fillerWords))
	for w := range f.fillerWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

func (f *Filter) buildPattern() {
	if len(f.fillerWords) == 0 {
		f.pattern = nil
		return
	}

	// Longest first so "umm" wins over "um"
	words := make([]string, 0, len(f.fillerWords))
	for w := range f.fillerWords {
		words = append(words, regexp.QuoteMeta(w))
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	f.pattern = regexp.MustCompile(`(?i)\b(` + strings.Join(words, `|`) + `)\b`)
}

// Clean removes filler words and normalizes whitespace. The boolean reports
// whether anything meaningful is left.
func (f *Filter) Clean(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	f.mu.RLock()
	pattern := f.pattern
	f.mu.RUnlock()

	cleaned := text
	if pattern != nil {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	cleaned = spaceRun.ReplaceAllString(cleaned, " ")
	cleaned = danglingComma.ReplaceAllString(cleaned, "$1")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimLeft(cleaned, ",;: ")

	if onlyPunct.MatchString(cleaned) {
		cleaned = ""
	}
	return cleaned, cleaned != ""
}
