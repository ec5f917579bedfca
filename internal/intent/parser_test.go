package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_Intents(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		intent Intent
	}{
		{"search restaurants", "find restaurants with offers nearby", Search},
		{"search show me", "show me coffee shops", Search},
		{"navigation take me", "Hey Flix, take me to the airport", Navigation},
		{"navigation directions", "directions to central station", Navigation},
		{"notification", "do I have any notifications", Notification},
		{"reminder", "remind me to buy milk at 6pm", Reminder},
		{"control open", "open my wallet", Control},
		{"query fallback", "how do I earn flixbits", Query},
		{"empty", "", Query},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.input)
			assert.Equal(t, tt.intent, res.Intent)
			assert.True(t, res.Intent.IsValid())
		})
	}
}

func TestParse_Confidence(t *testing.T) {
	for _, input := range []string{"find pharmacy", "go to the mall", "any alerts", "remind me", "close profile"} {
		assert.Equal(t, MatchedConfidence, Parse(input).Confidence, input)
	}
	assert.Equal(t, FallbackConfidence, Parse("what is this app").Confidence)
}

func TestParse_RuleOrder(t *testing.T) {
	// "show me" is a search cue and wins over the control cue "show".
	assert.Equal(t, Search, Parse("show me my wallet").Intent)
	// navigation is checked before reminder.
	assert.Equal(t, Navigation, Parse("remind me to go to the gym").Intent)
}

func TestParse_SearchParameters(t *testing.T) {
	res := Parse("find restaurants with offers nearby")
	assert.Equal(t, "restaurants", res.Parameters.Get(ParamCategory))
	assert.Equal(t, "nearby", res.Parameters.Get(ParamLocation))
	assert.True(t, res.Parameters.Flag(ParamHasOffers))

	res = Parse("search for a pharmacy")
	assert.Equal(t, "pharmacy", res.Parameters.Get(ParamCategory))
	assert.False(t, res.Parameters.Has(ParamLocation))
	assert.False(t, res.Parameters.Flag(ParamHasOffers))

	res = Parse("find theaters")
	assert.False(t, res.Parameters.Has(ParamCategory), "eat inside theaters must not match restaurants")
}

func TestParse_NavigationParameters(t *testing.T) {
	tests := []struct {
		input       string
		destination string
		mode        string
	}{
		{"Hey Flix, take me to the airport", "airport", ""},
		{"navigate to an old bookstore", "old bookstore", ""},
		{"directions to the mall by car.", "mall", "driving"},
		{"where is city museum?", "city museum", ""},
		{"go to the park walking", "park", "walking"},
		{"take me to downtown by bus", "downtown", "transit"},
		{"navigate", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := Parse(tt.input)
			assert.Equal(t, Navigation, res.Intent)
			assert.Equal(t, tt.destination, res.Parameters.Get(ParamDestination))
			assert.Equal(t, tt.mode, res.Parameters.Get(ParamMode))
		})
	}
}

func TestParse_ReminderParameters(t *testing.T) {
	tests := []struct {
		input string
		task  string
		time  string
		date  string
	}{
		{"remind me to buy milk at 6pm", "buy milk", "6pm", ""},
		{"remind me to call mom at 6:30 pm tomorrow", "call mom", "6:30pm", "tomorrow"},
		{"set a reminder to water the plants in 10 minutes", "water the plants", "in 10 minutes", ""},
		{"schedule dentist appointment on friday at 9 am", "dentist appointment", "9am", "friday"},
		{"remind me to stretch in 1 hour", "stretch", "in 1 hour", ""},
		{"remind me", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := Parse(tt.input)
			assert.Equal(t, Reminder, res.Intent)
			assert.Equal(t, tt.task, res.Parameters.Get(ParamTask))
			assert.Equal(t, tt.time, res.Parameters.Get(ParamTime))
			assert.Equal(t, tt.date, res.Parameters.Get(ParamDate))
		})
	}
}

func TestParse_ControlParameters(t *testing.T) {
	res := Parse("open my wallet")
	assert.Equal(t, "open", res.Parameters.Get(ParamAction))
	assert.Equal(t, "wallet", res.Parameters.Get(ParamTarget))

	res = Parse("close the tournaments page")
	assert.Equal(t, "close", res.Parameters.Get(ParamAction))
	assert.Equal(t, "tournaments", res.Parameters.Get(ParamTarget))

	res = Parse("open")
	assert.False(t, res.Parameters.Has(ParamTarget))
}

func TestParse_QueryKeepsOriginalText(t *testing.T) {
	res := Parse("  What are Flixbits?  ")
	assert.Equal(t, Query, res.Intent)
	assert.Equal(t, "What are Flixbits?", res.Parameters.Get(ParamQuestion))
}

func TestParse_Deterministic(t *testing.T) {
	inputs := []string{"find stores nearby", "take me home", "remind me to pay rent at 9am", "hello"}
	for _, in := range inputs {
		assert.Equal(t, Parse(in), Parse(in))
	}
}

func TestIntent_IsValid(t *testing.T) {
	for _, i := range AllIntents() {
		assert.True(t, i.IsValid())
	}
	assert.False(t, Intent("dance").IsValid())
}
