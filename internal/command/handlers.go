package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flixmarket/flixvoice/internal/intent"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/flixmarket/flixvoice/internal/reminder"
)

const maxMapActions = 3

// Texts for responses that need no parameters.
const (
	LocationRequiredText = "Please enable location services so I can find places near you."
	DestinationQuestion  = "Where would you like to go?"
	ReminderQuestion     = "What would you like me to remind you about?"
	NotificationText     = "Let me check your notifications. You can find all new alerts in your notifications panel."
	ControlHintText      = "You can say things like \"open wallet\", \"open profile\", \"open offers\" or \"open tournaments\"."
	HelpText             = "I can help you find nearby places and offers, give directions, set reminders, check notifications, or open parts of the app. What would you like to do?"
	FlixbitsText         = "Flixbits are reward points you earn by visiting partner places, redeeming offers and joining tournaments. You can check your balance and spend them in your wallet."
	OffersText           = "Offers are discounts from places near you. Say \"find restaurants with offers\" and I will show you the closest deals."

	// Appended to reminder confirmations that will not raise an alert.
	ReminderNoTimeText      = " It's saved without an alert. Tell me a time if you want one."
	ReminderInvalidTimeText = " I couldn't work out when, so it's saved without an alert."
)

var (
	storeWords      = regexp.MustCompile(`\b(store|stores|shop|shops|shopping|market|mall)\b`)
	restaurantWords = regexp.MustCompile(`\b(restaurant|restaurants|food|eat|dinner|lunch|breakfast|cafe)\b`)
	serviceWords    = regexp.MustCompile(`\b(gas|fuel|petrol|pharmacy|pharmacies|hospital|clinic|doctor)\b`)
	flixbitWords    = regexp.MustCompile(`\bflix ?bits?\b|\bpoints\b|\brewards?\b`)
	offerWords      = regexp.MustCompile(`\b(offers?|deals?|discounts?)\b`)
)

// searchKind picks the place type to search for. The transcript is checked
// again here since it decides which places are queried at all.
func searchKind(cmd VoiceCommand) location.PlaceType {
	text := strings.ToLower(cmd.CommandText)
	switch {
	case storeWords.MatchString(text):
		return location.PlaceStore
	case restaurantWords.MatchString(text):
		return location.PlaceRestaurant
	case serviceWords.MatchString(text):
		return location.PlaceService
	}

	switch cmd.Parameters.Get(intent.ParamCategory) {
	case "restaurants":
		return location.PlaceRestaurant
	case "stores":
		return location.PlaceStore
	case "gas_stations", "healthcare", "pharmacy":
		return location.PlaceService
	}
	return location.PlaceAny
}

func kindLabel(kind location.PlaceType, n int) string {
	var one, many string
	switch kind {
	case location.PlaceRestaurant:
		one, many = "restaurant", "restaurants"
	case location.PlaceStore:
		one, many = "store", "stores"
	case location.PlaceService:
		one, many = "service", "services"
	default:
		one, many = "place", "places"
	}
	if n == 1 {
		return one
	}
	return many
}

func (p *Processor) handleSearch(ctx context.Context, cmd VoiceCommand) (VoiceResponse, error) {
	origin := p.userLocation()
	if origin == nil {
		r := newResponse(LocationRequiredText)
		r.FollowUpQuestions = []string{"How do I enable location services?"}
		return r, nil
	}
	if p.places == nil {
		return VoiceResponse{}, fmt.Errorf("search: no place finder configured")
	}

	kind := searchKind(cmd)
	results, err := p.places.FindNearby(ctx, *origin, kind, p.config.SearchRadius)
	if err != nil {
		return VoiceResponse{}, fmt.Errorf("search %s: %w", kind, err)
	}
	if len(results) == 0 {
		return newResponse(fmt.Sprintf("I couldn't find any %s within %s of you.",
			kindLabel(kind, 0), location.FormatDistance(p.config.SearchRadius))), nil
	}

	var withOffers []location.LocationResult
	for _, r := range results {
		if r.HasOffers() {
			withOffers = append(withOffers, r)
		}
	}

	var text string
	shown := results
	if len(withOffers) > 0 {
		shown = withOffers
		lead := withOffers[0]
		offer := lead.Offers[0]
		text = fmt.Sprintf("I found %d %s with offers nearby. %s is %s away and has %s off %s.",
			len(withOffers), kindLabel(kind, len(withOffers)), lead.Name,
			location.FormatDistance(lead.Distance), formatDiscount(offer.Discount), offer.Title)
	} else {
		lead := results[0]
		text = fmt.Sprintf("I found %d %s nearby. The closest is %s, %s away.",
			len(results), kindLabel(kind, len(results)), lead.Name, location.FormatDistance(lead.Distance))
		if cmd.Parameters.Flag(intent.ParamHasOffers) {
			text += " None of them have offers right now."
		}
	}

	if len(shown) > maxMapActions {
		shown = shown[:maxMapActions]
	}
	actions := make([]VoiceAction, 0, len(shown))
	for _, r := range shown {
		actions = append(actions, VoiceAction{
			Type:  ActionOpenMap,
			Label: "Open " + r.Name + " in Maps",
			Data: ActionData{
				DataDestination: r.Name,
				DataName:        r.Name,
				DataPlaceID:     r.ID,
				DataLat:         r.Coordinates.Lat,
				DataLng:         r.Coordinates.Lng,
			},
		})
	}

	resp := newResponse(text, actions...)
	resp.FollowUpQuestions = []string{"Take me to " + shown[0].Name, "Show me more offers"}
	return resp, nil
}

func formatDiscount(d float64) string {
	if d == float64(int(d)) {
		return fmt.Sprintf("%d%%", int(d))
	}
	return fmt.Sprintf("%.1f%%", d)
}

func (p *Processor) handleNavigation(cmd VoiceCommand) VoiceResponse {
	dest := cmd.Parameters.Get(intent.ParamDestination)
	if dest == "" {
		r := newResponse(DestinationQuestion)
		r.FollowUpQuestions = []string{"Take me to the nearest restaurant", "Navigate to the airport"}
		return r
	}

	data := ActionData{DataDestination: dest}
	if mode := cmd.Parameters.Get(intent.ParamMode); mode != "" {
		data[DataMode] = mode
	}
	action := VoiceAction{
		Type:  ActionOpenMap,
		Label: "Open directions to " + dest,
		Data:  data,
	}

	// the response renders first, then the map opens
	action.Scheduled = p.schedule(action)

	return newResponse(fmt.Sprintf("Opening directions to %s in Maps.", dest), action)
}

func handleNotification() VoiceResponse {
	return newResponse(NotificationText, VoiceAction{
		Type:  ActionReadNotifications,
		Label: "Read notifications",
	})
}

func handleReminder(cmd VoiceCommand) VoiceResponse {
	task := cmd.Parameters.Get(intent.ParamTask)
	if task == "" {
		return newResponse(ReminderQuestion)
	}
	when := cmd.Parameters.Get(intent.ParamTime)
	date := cmd.Parameters.Get(intent.ParamDate)

	var b strings.Builder
	b.WriteString("Okay, I'll remind you to ")
	b.WriteString(task)
	if when != "" {
		if strings.HasPrefix(when, "in ") {
			b.WriteString(" " + when)
		} else {
			b.WriteString(" at " + when)
		}
	}
	if date != "" {
		b.WriteString(" " + date)
	}
	b.WriteString(".")

	if _, err := reminder.ResolveDue(time.Now(), when, date); err != nil {
		if errors.Is(err, reminder.ErrNoSchedule) {
			b.WriteString(ReminderNoTimeText)
		} else {
			b.WriteString(ReminderInvalidTimeText)
		}
	}

	data := ActionData{DataTask: task}
	if when != "" {
		data[DataTime] = when
	}
	if date != "" {
		data[DataDate] = date
	}
	return newResponse(b.String(), VoiceAction{
		Type:  ActionSetReminder,
		Label: "Set reminder",
		Data:  data,
	})
}

func handleQuery(cmd VoiceCommand) VoiceResponse {
	text := strings.ToLower(cmd.CommandText)
	switch {
	case flixbitWords.MatchString(text):
		return newResponse(FlixbitsText, VoiceAction{
			Type:  ActionNavigate,
			Label: "Open wallet",
			Data:  ActionData{DataTab: "wallet"},
		})
	case offerWords.MatchString(text):
		return newResponse(OffersText, VoiceAction{
			Type:  ActionShowOffers,
			Label: "Show offers",
		})
	}
	r := newResponse(HelpText)
	r.FollowUpQuestions = []string{
		"Find restaurants with offers near me",
		"Take me to the mall",
		"Remind me to call mom at 6pm",
	}
	return r
}

func handleControl(cmd VoiceCommand) VoiceResponse {
	action := cmd.Parameters.Get(intent.ParamAction)
	target := cmd.Parameters.Get(intent.ParamTarget)
	if target == "" || action != "open" {
		return newResponse(ControlHintText)
	}
	return newResponse(fmt.Sprintf("Opening your %s.", target), VoiceAction{
		Type:  ActionNavigate,
		Label: "Open " + target,
		Data:  ActionData{DataTab: target},
	})
}
