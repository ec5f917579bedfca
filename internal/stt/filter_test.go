package stt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Clean(t *testing.T) {
	f := NewFilter(nil)

	tests := []struct {
		name        string
		input       string
		wantCleaned string
		wantHas     bool
	}{
		{"leading filler", "um find restaurants nearby", "find restaurants nearby", true},
		{"filler with comma", "uh, take me to the mall", "take me to the mall", true},
		{"several fillers", "hmm open umm my wallet", "open my wallet", true},
		{"filler only", "um uh hmm", "", false},
		{"punctuation only after cleaning", "um... uh!", "", false},
		{"empty", "", "", false},
		{"meaningful words kept", "show me stores like this", "show me stores like this", true},
		{"case insensitive", "UM remind me", "remind me", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, has := f.Clean(tt.input)
			assert.Equal(t, tt.wantCleaned, cleaned)
			assert.Equal(t, tt.wantHas, has)
		})
	}
}

func TestFilter_CustomWords(t *testing.T) {
	f := NewFilter([]string{"please", " Kindly "})
	assert.Equal(t, []string{"kindly", "please"}, f.FillerWords())

	cleaned, ok := f.Clean("please open offers kindly")
	assert.True(t, ok)
	assert.Equal(t, "open offers", cleaned)

	f.SetFillerWords(nil)
	cleaned, _ = f.Clean("please open offers")
	assert.Equal(t, "please open offers", cleaned)
}
