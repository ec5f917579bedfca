// Package command turns transcripts into spoken responses and executable
// actions.
package command

import (
	"strconv"
	"time"

	"github.com/flixmarket/flixvoice/internal/intent"
	"github.com/flixmarket/flixvoice/internal/location"
)

// ActionType is the closed set of actions a response can carry.
type ActionType string

const (
	ActionOpenMap           ActionType = "open_map"
	ActionShowOffers        ActionType = "show_offers"
	ActionSetReminder       ActionType = "set_reminder"
	ActionReadNotifications ActionType = "read_notifications"
	ActionNavigate          ActionType = "navigate"
	ActionCall              ActionType = "call"
	ActionMessage           ActionType = "message"
)

// AllActionTypes returns every valid action type.
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionOpenMap,
		ActionShowOffers,
		ActionSetReminder,
		ActionReadNotifications,
		ActionNavigate,
		ActionCall,
		ActionMessage,
	}
}

// String returns the string representation of an ActionType.
func (t ActionType) String() string {
	return string(t)
}

// IsValid checks if an ActionType is a known type.
func (t ActionType) IsValid() bool {
	for _, valid := range AllActionTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// Action data keys.
const (
	DataDestination = "destination"
	DataName        = "name"
	DataLat         = "lat"
	DataLng         = "lng"
	DataMode        = "mode"
	DataPlaceID     = "placeId"
	DataTab         = "tab"
	DataTask        = "task"
	DataTime        = "time"
	DataDate        = "date"
	DataPhone       = "phone"
	DataRecipient   = "recipient"
	DataText        = "text"
)

// ActionData is the payload of an action; its shape depends on the type.
type ActionData map[string]any

// String returns the string value for key, or "".
func (d ActionData) String(key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return ""
	}
}

// Float returns the numeric value for key. Strings holding numbers are
// accepted since payloads may arrive as JSON from a host.
func (d ActionData) Float(key string) (float64, bool) {
	switch v := d[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// VoiceAction is something the assistant can do on the user's behalf.
// Scheduled actions are already being carried out by the processor and are
// listed for display only.
type VoiceAction struct {
	Type      ActionType `json:"type"`
	Data      ActionData `json:"data,omitempty"`
	Label     string     `json:"label"`
	Scheduled bool       `json:"scheduled,omitempty"`
}

// MapTarget converts an OpenMap payload into a map link target. Coordinates
// take precedence over destination text.
func (a VoiceAction) MapTarget() location.MapTarget {
	t := location.MapTarget{
		Destination: a.Data.String(DataDestination),
		Mode:        a.Data.String(DataMode),
	}
	lat, okLat := a.Data.Float(DataLat)
	lng, okLng := a.Data.Float(DataLng)
	if okLat && okLng {
		t.Coordinates = &location.Coordinates{Lat: lat, Lng: lng}
		t.Destination = ""
	}
	return t
}

// VoiceCommand is a parsed transcript.
type VoiceCommand struct {
	ID               string            `json:"id"`
	CommandText      string            `json:"command"`
	Intent           intent.Intent     `json:"intent"`
	Parameters       intent.Parameters `json:"parameters"`
	Confidence       float64           `json:"confidence"`
	SpeechConfidence float64           `json:"speechConfidence"`
	Timestamp        time.Time         `json:"timestamp"`
	UserID           string            `json:"userId"`
}

// VoiceResponse is what the assistant says and does in reply to a command.
type VoiceResponse struct {
	ID                string        `json:"id"`
	Text              string        `json:"text"`
	Actions           []VoiceAction `json:"actions,omitempty"`
	FollowUpQuestions []string      `json:"followUpQuestions,omitempty"`
	Timestamp         time.Time     `json:"timestamp"`
}
