package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// rule maps a family of keyword cues to an intent and its extractor.
type rule struct {
	intent  Intent
	cues    []string
	extract func(lower, original string) Parameters
}

// Parser classifies transcripts with an ordered list of keyword rules.
// The first rule whose cues appear in the text wins; overlapping cues are
// resolved by rule order alone.
type Parser struct {
	rules []rule
}

// NewParser creates a parser with the standard rule order:
// search, navigation, notification, reminder, control, then query.
func NewParser() *Parser {
	return &Parser{
		rules: []rule{
			{intent: Search, cues: searchCues, extract: extractSearch},
			{intent: Navigation, cues: navigationCues, extract: extractNavigation},
			{intent: Notification, cues: notificationCues, extract: func(string, string) Parameters { return Parameters{} }},
			{intent: Reminder, cues: reminderCues, extract: extractReminder},
			{intent: Control, cues: controlCues, extract: extractControl},
		},
	}
}

var defaultParser = NewParser()

// Parse classifies text with the default parser.
func Parse(text string) Result {
	return defaultParser.Parse(text)
}

// Parse classifies text. It never fails: unmatched text becomes a Query.
func (p *Parser) Parse(text string) Result {
	original := strings.TrimSpace(text)
	lower := strings.ToLower(original)

	for _, r := range p.rules {
		if containsAny(lower, r.cues) {
			return Result{
				Intent:     r.intent,
				Parameters: r.extract(lower, original),
				Confidence: MatchedConfidence,
			}
		}
	}

	return Result{
		Intent:     Query,
		Parameters: Parameters{ParamQuestion: original},
		Confidence: FallbackConfidence,
	}
}

var (
	searchCues       = []string{"find", "search", "show me", "nearby", "near me", "nearest", "looking for"}
	navigationCues   = []string{"take me to", "go to", "navigate", "directions", "where is", "how do i get to"}
	notificationCues = []string{"notification", "alert", "any messages", "what's new"}
	reminderCues     = []string{"remind", "reminder", "schedule"}
	controlCues      = []string{"open", "close", "show"}
)

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

// Search categories in priority order.
var searchCategories = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"restaurants", regexp.MustCompile(`\b(restaurant|food|eat|dining|cafe|coffee)`)},
	{"stores", regexp.MustCompile(`\b(store|shop|mall|market)`)},
	{"gas_stations", regexp.MustCompile(`\b(gas|fuel|petrol)`)},
	{"healthcare", regexp.MustCompile(`\b(hospital|clinic|doctor)`)},
	{"pharmacy", regexp.MustCompile(`\b(pharmac|drugstore|medicine)`)},
}

var (
	proximityCues = []string{"nearby", "near me", "nearest", "around me", "close to me"}
	offerCues     = []string{"offer", "deal", "discount", "promo"}
)

func extractSearch(lower, _ string) Parameters {
	params := Parameters{}
	for _, c := range searchCategories {
		if c.pattern.MatchString(lower) {
			params[ParamCategory] = c.name
			break
		}
	}
	if containsAny(lower, proximityCues) {
		params[ParamLocation] = "nearby"
	}
	if containsAny(lower, offerCues) {
		params[ParamHasOffers] = "true"
	}
	return params
}

var destinationMarkers = []string{"take me to ", "go to ", "navigate to ", "directions to ", "where is "}

var (
	leadingArticle   = regexp.MustCompile(`^(the|a|an)\s+`)
	trailingModeText = regexp.MustCompile(`\s+(by car|by bus|by train|by subway|by metro|by transit|on foot|walking|driving)$`)

	modeWalking = regexp.MustCompile(`\b(walk|walking|on foot)\b`)
	modeTransit = regexp.MustCompile(`\b(transit|bus|train|subway|metro)\b`)
	modeDriving = regexp.MustCompile(`\b(drive|driving|car)\b`)
)

func extractNavigation(lower, _ string) Parameters {
	params := Parameters{}
	for _, marker := range destinationMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		dest := strings.TrimSpace(lower[idx+len(marker):])
		dest = trimPunctuation(dest)
		dest = trailingModeText.ReplaceAllString(dest, "")
		dest = leadingArticle.ReplaceAllString(dest, "")
		if dest = strings.TrimSpace(dest); dest != "" {
			params[ParamDestination] = dest
		}
		break
	}

	switch {
	case modeWalking.MatchString(lower):
		params[ParamMode] = "walking"
	case modeTransit.MatchString(lower):
		params[ParamMode] = "transit"
	case modeDriving.MatchString(lower):
		params[ParamMode] = "driving"
	}
	return params
}

var (
	reminderVerb = regexp.MustCompile(`\b(remind\w*|schedule\w*)\b`)
	reminderLead = regexp.MustCompile(`^(me\b\s*)?((to|about)\s+)?`)

	timeAtClock  = regexp.MustCompile(`\bat\s+(\d{1,2}:\d{2})\s*(am|pm)?\b`)
	timeAtHour   = regexp.MustCompile(`\bat\s+(\d{1,2})\s*(am|pm)\b`)
	timeRelative = regexp.MustCompile(`\bin\s+(\d+)\s*(minute|hour|day)s?\b`)

	dateWord = regexp.MustCompile(`\b(?:on\s+)?(today|tonight|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	whitespace = regexp.MustCompile(`\s+`)
)

func extractReminder(lower, _ string) Parameters {
	params := Parameters{}

	timeText, timeValue := matchTime(lower)
	if timeValue != "" {
		params[ParamTime] = timeValue
	}

	var dateText string
	if m := dateWord.FindStringSubmatch(lower); m != nil {
		dateText = m[0]
		params[ParamDate] = m[1]
	}

	loc := reminderVerb.FindStringIndex(lower)
	if loc == nil {
		return params
	}
	task := strings.TrimSpace(lower[loc[1]:])
	task = reminderLead.ReplaceAllString(task, "")
	if timeText != "" {
		task = strings.Replace(task, timeText, " ", 1)
	}
	if dateText != "" {
		task = strings.Replace(task, dateText, " ", 1)
	}
	task = trimPunctuation(whitespace.ReplaceAllString(task, " "))
	if task != "" {
		params[ParamTask] = task
	}
	return params
}

// matchTime returns the matched phrase and its normalised value, trying the
// clock, hour and relative forms in that order.
func matchTime(lower string) (phrase, value string) {
	if m := timeAtClock.FindStringSubmatch(lower); m != nil {
		return m[0], m[1] + m[2]
	}
	if m := timeAtHour.FindStringSubmatch(lower); m != nil {
		return m[0], m[1] + m[2]
	}
	if m := timeRelative.FindStringSubmatch(lower); m != nil {
		unit := m[2]
		if m[1] != "1" {
			unit += "s"
		}
		return m[0], fmt.Sprintf("in %s %s", m[1], unit)
	}
	return "", ""
}

var (
	controlActions = []string{"open", "close", "show"}
	controlTargets = []struct {
		name     string
		keywords []string
	}{
		{"wallet", []string{"wallet", "balance"}},
		{"profile", []string{"profile", "account"}},
		{"offers", []string{"offer"}},
		{"tournaments", []string{"tournament", "contest"}},
	}
)

func extractControl(lower, _ string) Parameters {
	params := Parameters{}
	for _, a := range controlActions {
		if strings.Contains(lower, a) {
			params[ParamAction] = a
			break
		}
	}
	for _, t := range controlTargets {
		if containsAny(lower, t.keywords) {
			params[ParamTarget] = t.name
			break
		}
	}
	return params
}

func trimPunctuation(s string) string {
	return strings.Trim(strings.TrimSpace(s), ".,!?;: ")
}
