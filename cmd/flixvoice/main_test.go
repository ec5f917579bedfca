package main

import (
	"testing"
	"time"

	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithWakePhrase(t *testing.T) {
	s := config.DefaultVoiceSettings()
	tests := []struct {
		line string
		want string
	}{
		{"open my wallet", "hey flix open my wallet"},
		{"Hey Flix, open my wallet", "Hey Flix, open my wallet"},
		{"hey flicks find stores", "hey flicks find stores"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, withWakePhrase(tt.line, s))
		})
	}

	s.WakeWord = config.WakeWordCustom
	s.CustomWakeWord = "Hello Market"
	assert.Equal(t, "hello market open wallet", withWakePhrase("open wallet", s))
}

func TestAssistantConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.User.ID = "user-42"
	c.User.Name = "Sam"
	c.Location.SearchRadius = 500
	c.Processor.NavigationDelay = 2 * time.Second
	c.Capture.FilterFillers = true

	vc := assistantConfig(c)
	assert.Equal(t, "user-42", vc.Processor.UserID)
	assert.Equal(t, "Sam", vc.Processor.UserName)
	assert.InDelta(t, 500, vc.Processor.SearchRadius, 1e-9)
	assert.Equal(t, 2*time.Second, vc.Processor.NavigationDelay)
	require.NotNil(t, vc.Capture.Filter)

	c.Capture.FilterFillers = false
	assert.Nil(t, assistantConfig(c).Capture.Filter)
}

func TestLoadPlaces(t *testing.T) {
	c := config.DefaultConfig()
	places, err := loadPlaces(c)
	require.NoError(t, err)
	assert.Positive(t, places.Len())

	c.Location.CatalogFile = t.TempDir() + "/missing.yaml"
	_, err = loadPlaces(c)
	assert.Error(t, err)
}
