// Package intent turns a raw voice transcript into a structured intent with
// extracted parameters. Classification is keyword based and deterministic.
package intent

// Intent is the closed set of command families the assistant understands.
type Intent string

const (
	// Search looks for nearby places, optionally with offers.
	Search Intent = "search"
	// Navigation asks for directions to a destination.
	Navigation Intent = "navigation"
	// Notification asks about pending notifications.
	Notification Intent = "notification"
	// Reminder schedules a reminder.
	Reminder Intent = "reminder"
	// Query is the fallback for free-form questions.
	Query Intent = "query"
	// Control opens or closes sections of the app.
	Control Intent = "control"
)

// AllIntents returns every valid intent.
func AllIntents() []Intent {
	return []Intent{
		Search,
		Navigation,
		Notification,
		Reminder,
		Query,
		Control,
	}
}

// String returns the string representation of an Intent.
func (i Intent) String() string {
	return string(i)
}

// IsValid checks if an Intent is one of the known intents.
func (i Intent) IsValid() bool {
	for _, valid := range AllIntents() {
		if i == valid {
			return true
		}
	}
	return false
}

// Confidence values reported by the parser.
const (
	MatchedConfidence  = 0.8
	FallbackConfidence = 0.6
)

// Parameter keys.
const (
	ParamCategory    = "category"
	ParamLocation    = "location"
	ParamHasOffers   = "hasOffers"
	ParamDestination = "destination"
	ParamMode        = "mode"
	ParamTask        = "task"
	ParamTime        = "time"
	ParamDate        = "date"
	ParamAction      = "action"
	ParamTarget      = "target"
	ParamQuestion    = "question"
)

// Parameters holds the values extracted for an intent. Flags are stored as "true".
type Parameters map[string]string

// Get returns the value for key, or "" when absent.
func (p Parameters) Get(key string) string {
	if p == nil {
		return ""
	}
	return p[key]
}

// Has reports whether key is present with a non-empty value.
func (p Parameters) Has(key string) bool {
	return p.Get(key) != ""
}

// Flag reports whether key is set to "true".
func (p Parameters) Flag(key string) bool {
	return p.Get(key) == "true"
}

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Result is the outcome of parsing one transcript.
type Result struct {
	Intent     Intent     `json:"intent"`
	Parameters Parameters `json:"parameters"`
	Confidence float64    `json:"confidence"`
}
