package main

import (
	"testing"

	"github.com/flixmarket/flixvoice/internal/command"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacesTable(t *testing.T) {
	out := placesTable([]location.LocationResult{
		{
			Name:     "Flix Bistro",
			Type:     location.PlaceRestaurant,
			Address:  "12 Market St",
			Distance: 350,
			Offers:   []location.Offer{{Title: "20% off lunch"}, {Title: "Free dessert"}},
		},
		{Name: "Corner Mart", Type: location.PlaceStore, Address: "4 Side Rd", Distance: 1200},
	})

	for _, want := range []string{"PLACE", "Flix Bistro", "350 m", "20% off lunch, Free dessert", "Corner Mart", "1.2 km"} {
		assert.Contains(t, out, want)
	}
}

func TestResponseMarkdown(t *testing.T) {
	md := responseMarkdown(command.VoiceResponse{
		Text: "Opening your wallet.",
		Actions: []command.VoiceAction{
			{Type: command.ActionNavigate, Label: "Open wallet"},
			{Type: command.ActionShowOffers},
		},
		FollowUpQuestions: []string{"Show offers"},
	})

	assert.Contains(t, md, "Opening your wallet.")
	assert.Contains(t, md, "- Open wallet `navigate`")
	assert.Contains(t, md, "- show_offers `show_offers`")
	assert.Contains(t, md, "- \"Show offers\"")

	assert.Equal(t, "Done.\n", responseMarkdown(command.VoiceResponse{Text: "Done."}))
}

func TestRenderMarkdown(t *testing.T) {
	assert.Empty(t, renderMarkdown("  \n", markdownWidth))
	assert.Contains(t, renderMarkdown("Opening your wallet.\n", markdownWidth), "Opening your wallet.")
}

func TestApplyColor(t *testing.T) {
	for _, mode := range []string{"", "auto", "never"} {
		require.NoError(t, applyColor(mode), mode)
	}
	assert.Error(t, applyColor("sometimes"))
}
