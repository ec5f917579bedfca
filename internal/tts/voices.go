package tts

import (
	"strings"

	"github.com/flixmarket/flixvoice/internal/config"
)

// minVoicesForStrictMatch is the voice count below which any installed voice
// is acceptable when no voice speaks the requested language.
const minVoicesForStrictMatch = 5

var (
	femaleVoiceNames = []string{
		"samantha", "victoria", "karen", "zira", "susan", "hazel", "moira", "tessa",
		"fiona", "veena", "allison", "ava", "serena", "kate", "laila", "mariam",
		"hoda", "salma", "zariyah", "nova", "shimmer",
	}
	maleVoiceNames = []string{
		"daniel", "alex", "fred", "david", "mark", "george", "tarik", "maged", "majed",
		"naayf", "hamed", "rishi", "thomas", "oliver", "aaron", "arthur", "onyx",
	}
)

// VoiceGender returns the gender of v, inferred from well-known names when
// the engine does not report it. It returns "" when unknown.
func VoiceGender(v Voice) config.Gender {
	switch strings.ToLower(v.Gender) {
	case "male", "m":
		return config.GenderMale
	case "female", "f":
		return config.GenderFemale
	}

	name := strings.ToLower(v.Name)
	// "female" contains "male", so it is checked first
	if strings.Contains(name, "female") {
		return config.GenderFemale
	}
	if strings.Contains(name, "male") {
		return config.GenderMale
	}
	for _, n := range femaleVoiceNames {
		if strings.Contains(name, n) {
			return config.GenderFemale
		}
	}
	for _, n := range maleVoiceNames {
		if strings.Contains(name, n) {
			return config.GenderMale
		}
	}
	return ""
}

// SpeaksLanguage reports whether v speaks lang.
func SpeaksLanguage(v Voice, lang config.Language) bool {
	return strings.HasPrefix(strings.ToLower(v.Language), string(lang))
}

// SelectVoice picks the voice for an utterance: a voice matching both gender
// and language, else any voice of the language, else any voice at all when
// fewer than five are installed. It returns nil to leave the choice to the engine.
func SelectVoice(voices []Voice, gender config.Gender, lang config.Language) *Voice {
	for i := range voices {
		if SpeaksLanguage(voices[i], lang) && VoiceGender(voices[i]) == gender {
			return &voices[i]
		}
	}
	for i := range voices {
		if SpeaksLanguage(voices[i], lang) {
			return &voices[i]
		}
	}
	if len(voices) > 0 && len(voices) < minVoicesForStrictMatch {
		return &voices[0]
	}
	return nil
}
