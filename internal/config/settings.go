package config

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

// ErrCustomWakeWordRequired is returned when the custom wake word is selected but empty.
var ErrCustomWakeWordRequired = errors.New("custom wake word selected but not set")

// WakeWord selects the phrase that activates the assistant.
type WakeWord string

const (
	WakeWordHeyFlix       WakeWord = "hey_flix"
	WakeWordFlixAssistant WakeWord = "flix_assistant"
	WakeWordCustom        WakeWord = "custom"
)

// Language is a supported interface language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// Tag returns the BCP 47 tag used by speech engines.
func (l Language) Tag() string {
	if l == LanguageArabic {
		return "ar-SA"
	}
	return "en-US"
}

// Gender is the preferred synthesized voice gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Speech rate and volume bounds.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// VoiceShortcut maps a spoken phrase to the command it stands for.
type VoiceShortcut struct {
	Phrase  string `mapstructure:"phrase" json:"phrase" yaml:"phrase"`
	Command string `mapstructure:"command" json:"command" yaml:"command"`
}

// VoiceSettings are the user-facing voice preferences.
type VoiceSettings struct {
	Enabled               bool            `mapstructure:"enabled" json:"enabled"`
	WakeWord              WakeWord        `mapstructure:"wake_word" json:"wakeWord"`
	CustomWakeWord        string          `mapstructure:"custom_wake_word" json:"customWakeWord,omitempty"`
	Language              Language        `mapstructure:"language" json:"language"`
	VoiceGender           Gender          `mapstructure:"voice_gender" json:"voiceGender"`
	Speed                 float64         `mapstructure:"speed" json:"speed"`
	Volume                float64         `mapstructure:"volume" json:"volume"`
	AutoResponse          bool            `mapstructure:"auto_response" json:"autoResponse"`
	LocationServices      bool            `mapstructure:"location_services" json:"locationServices"`
	ReadNotifications     bool            `mapstructure:"read_notifications" json:"readNotifications"`
	PersonalizedResponses bool            `mapstructure:"personalized_responses" json:"personalizedResponses"`
	Shortcuts             []VoiceShortcut `mapstructure:"voice_shortcuts" json:"voiceShortcuts"`
}

// DefaultVoiceSettings returns the settings a new user starts with.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Enabled:               true,
		WakeWord:              WakeWordHeyFlix,
		Language:              LanguageEnglish,
		VoiceGender:           GenderFemale,
		Speed:                 1.0,
		Volume:                0.8,
		AutoResponse:          true,
		LocationServices:      true,
		ReadNotifications:     true,
		PersonalizedResponses: true,
		Shortcuts:             []VoiceShortcut{},
	}
}

// Normalize resets unknown enum values to their defaults and clamps speed
// and volume into range. A zero speed is treated as unset.
func (s VoiceSettings) Normalize() VoiceSettings {
	switch s.WakeWord {
	case WakeWordHeyFlix, WakeWordFlixAssistant, WakeWordCustom:
	default:
		s.WakeWord = WakeWordHeyFlix
	}
	switch s.Language {
	case LanguageEnglish, LanguageArabic:
	default:
		s.Language = LanguageEnglish
	}
	switch s.VoiceGender {
	case GenderMale, GenderFemale:
	default:
		s.VoiceGender = GenderFemale
	}

	switch {
	case s.Speed == 0:
		s.Speed = 1.0
	case s.Speed < MinSpeed:
		s.Speed = MinSpeed
	case s.Speed > MaxSpeed:
		s.Speed = MaxSpeed
	}
	switch {
	case s.Volume < 0:
		s.Volume = 0
	case s.Volume > 1:
		s.Volume = 1
	}
	s.Shortcuts = normalizeShortcuts(s.Shortcuts)
	return s
}

// normalizeShortcuts lower-cases phrases, drops incomplete entries and keeps
// the first entry for a repeated phrase. The result never aliases in.
func normalizeShortcuts(in []VoiceShortcut) []VoiceShortcut {
	out := make([]VoiceShortcut, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, sc := range in {
		phrase := shortcutKey(sc.Phrase)
		cmd := strings.TrimSpace(sc.Command)
		if phrase == "" || cmd == "" || seen[phrase] {
			continue
		}
		seen[phrase] = true
		out = append(out, VoiceShortcut{Phrase: phrase, Command: cmd})
	}
	return out
}

func shortcutKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".!?,")
	return strings.Join(strings.Fields(s), " ")
}

// ExpandShortcut returns the command for text when text is exactly one of
// the configured shortcut phrases, ignoring case, spacing and trailing
// punctuation.
func (s VoiceSettings) ExpandShortcut(text string) (string, bool) {
	key := shortcutKey(text)
	if key == "" {
		return "", false
	}
	for _, sc := range s.Shortcuts {
		if shortcutKey(sc.Phrase) == key {
			return sc.Command, true
		}
	}
	return "", false
}

// Validate checks settings that cannot be repaired by Normalize.
func (s VoiceSettings) Validate() error {
	if s.WakeWord == WakeWordCustom && s.CustomWakeWord == "" {
		return ErrCustomWakeWordRequired
	}
	return nil
}

// SettingsStore holds the current VoiceSettings. Readers always get a copy;
// writers replace the whole value.
type SettingsStore struct {
	mu      sync.RWMutex
	current VoiceSettings
	subs    []func(VoiceSettings)
}

// NewSettingsStore creates a store holding the normalized initial settings.
func NewSettingsStore(initial VoiceSettings) *SettingsStore {
	return &SettingsStore{current: initial.Normalize()}
}

// Settings returns a copy of the current settings.
func (s *SettingsStore) Settings() VoiceSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	out.Shortcuts = slices.Clone(out.Shortcuts)
	return out
}

// Update applies fn to a copy of the settings and stores the normalized
// result. Invalid results are rejected and the previous value kept.
func (s *SettingsStore) Update(fn func(*VoiceSettings)) (VoiceSettings, error) {
	s.mu.Lock()
	next := s.current
	fn(&next)
	next = next.Normalize()
	if err := next.Validate(); err != nil {
		prev := s.current
		s.mu.Unlock()
		return prev, err
	}
	s.current = next
	subs := make([]func(VoiceSettings), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return next, nil
}

// Replace stores v wholesale, subject to the same checks as Update.
func (s *SettingsStore) Replace(v VoiceSettings) (VoiceSettings, error) {
	return s.Update(func(cur *VoiceSettings) { *cur = v })
}

// Subscribe registers fn to be called after every successful update.
func (s *SettingsStore) Subscribe(fn func(VoiceSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
