package location

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MapTarget describes what a map link should show. Either Destination text
// or Coordinates must be set; Origin is optional.
type MapTarget struct {
	Destination string
	Coordinates *Coordinates
	Origin      *Coordinates
	Mode        string
}

// MapLinkBuilder builds URLs for an external maps application.
type MapLinkBuilder interface {
	BuildURL(t MapTarget) (string, error)
}

// GoogleMaps builds Google Maps universal URLs.
type GoogleMaps struct {
	BaseURL string
}

// NewGoogleMaps returns a builder for https://www.google.com/maps.
func NewGoogleMaps() *GoogleMaps {
	return &GoogleMaps{BaseURL: "https://www.google.com/maps"}
}

// BuildURL returns a directions URL when destination text and an origin are
// known, a text search URL for destination text alone, and a coordinate
// search URL for coordinates. It fails with ErrMissingDestination otherwise.
func (g *GoogleMaps) BuildURL(t MapTarget) (string, error) {
	dest := strings.TrimSpace(t.Destination)

	switch {
	case dest != "" && t.Origin != nil:
		q := url.Values{}
		q.Set("api", "1")
		q.Set("origin", formatCoordinates(*t.Origin))
		q.Set("destination", dest)
		if t.Mode != "" {
			q.Set("travelmode", t.Mode)
		}
		return g.BaseURL + "/dir/?" + q.Encode(), nil

	case dest != "":
		q := url.Values{}
		q.Set("api", "1")
		q.Set("query", dest)
		return g.BaseURL + "/search/?" + q.Encode(), nil

	case t.Coordinates != nil:
		q := url.Values{}
		q.Set("api", "1")
		q.Set("query", formatCoordinates(*t.Coordinates))
		return g.BaseURL + "/search/?" + q.Encode(), nil
	}

	return "", ErrMissingDestination
}

// ParseCoordinates extracts the coordinates from a coordinate search URL built
// by BuildURL.
func ParseCoordinates(raw string) (Coordinates, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse map url: %w", err)
	}
	parts := strings.Split(u.Query().Get("query"), ",")
	if len(parts) != 2 {
		return Coordinates{}, fmt.Errorf("map url %q has no coordinate query", raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse longitude: %w", err)
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}

func formatCoordinates(c Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
