// Package location provides geographic helpers for the voice assistant:
// great-circle distance, nearby place search, map link construction and
// access to the device position.
package location

import (
	"errors"
	"time"
)

var (
	// ErrLocationUnavailable is returned when the current position cannot be obtained.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrPermissionDenied is returned by geolocators when the user refused access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrMissingDestination is returned when a map link has neither text nor coordinates.
	ErrMissingDestination = errors.New("no destination or coordinates provided")
)

// Coordinates is a WGS84 position in degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// PlaceType classifies a place.
type PlaceType string

const (
	PlaceRestaurant    PlaceType = "restaurant"
	PlaceStore         PlaceType = "store"
	PlaceService       PlaceType = "service"
	PlaceEntertainment PlaceType = "entertainment"
	PlaceOther         PlaceType = "other"

	// PlaceAny is a query-only type matching every place.
	PlaceAny PlaceType = "any"
)

// Offer is a discount attached to a place.
type Offer struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Discount   float64   `json:"discount" yaml:"discount"`
	ValidUntil time.Time `json:"validUntil" yaml:"valid_until"`
}

// LocationResult is a place returned by a search, with its distance from the
// search origin in meters.
type LocationResult struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Type         PlaceType   `json:"type"`
	Address      string      `json:"address"`
	Coordinates  Coordinates `json:"coordinates"`
	Distance     float64     `json:"distance"`
	Rating       float64     `json:"rating,omitempty"`
	PriceRange   string      `json:"priceRange,omitempty"`
	Offers       []Offer     `json:"offers,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Website      string      `json:"website,omitempty"`
	OpeningHours string      `json:"openingHours,omitempty"`
}

// HasOffers reports whether the place carries at least one offer.
func (r LocationResult) HasOffers() bool {
	return len(r.Offers) > 0
}
