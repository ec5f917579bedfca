package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/flixmarket/flixvoice/internal/command"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/muesli/termenv"
)

const markdownWidth = 80

// applyColor sets the terminal color profile: auto keeps what the terminal
// reports, always forces true color, never strips all styling.
func applyColor(mode string) error {
	switch mode {
	case "", "auto":
	case "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		return fmt.Errorf("invalid --color %q (auto, always, never)", mode)
	}
	return nil
}

// placesTable renders search results, closest first as given.
func placesTable(results []location.LocationResult) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("PLACE", "TYPE", "DISTANCE", "ADDRESS", "OFFERS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}
			if col == 4 {
				return successStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, r := range results {
		offers := make([]string, 0, len(r.Offers))
		for _, o := range r.Offers {
			offers = append(offers, o.Title)
		}
		t.Row(r.Name, string(r.Type), location.FormatDistance(r.Distance), r.Address, strings.Join(offers, ", "))
	}
	return t.Render()
}

// responseMarkdown lays a response out as a short markdown document.
func responseMarkdown(resp command.VoiceResponse) string {
	var b strings.Builder
	b.WriteString(resp.Text)
	b.WriteString("\n")

	if len(resp.Actions) > 0 {
		b.WriteString("\n**Actions**\n\n")
		for _, a := range resp.Actions {
			label := a.Label
			if label == "" {
				label = a.Type.String()
			}
			fmt.Fprintf(&b, "- %s `%s`\n", label, a.Type)
		}
	}
	if len(resp.FollowUpQuestions) > 0 {
		b.WriteString("\n**Try saying**\n\n")
		for _, q := range resp.FollowUpQuestions {
			fmt.Fprintf(&b, "- %q\n", q)
		}
	}
	return b.String()
}

// renderMarkdown renders content for the terminal, falling back to the raw
// markdown when glamour cannot.
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
