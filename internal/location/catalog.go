package location

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchRadius is the search radius in meters used when none is given.
const DefaultSearchRadius = 2000.0

// PlaceFinder searches for places around an origin.
type PlaceFinder interface {
	FindNearby(ctx context.Context, origin Coordinates, kind PlaceType, radiusMeters float64) ([]LocationResult, error)
}

// CatalogPlace is a catalog entry. Exactly one of Coordinates or Offset is
// expected: Offset positions the place relative to the search origin.
type CatalogPlace struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	Type         PlaceType    `yaml:"type"`
	Address      string       `yaml:"address"`
	Coordinates  *Coordinates `yaml:"coordinates,omitempty"`
	Offset       *Coordinates `yaml:"offset,omitempty"`
	Rating       float64      `yaml:"rating"`
	PriceRange   string       `yaml:"price_range"`
	Offers       []Offer      `yaml:"offers"`
	Phone        string       `yaml:"phone"`
	Website      string       `yaml:"website"`
	OpeningHours string       `yaml:"opening_hours"`
}

// position resolves the entry's coordinates for a search from origin.
func (p CatalogPlace) position(origin Coordinates) Coordinates {
	switch {
	case p.Coordinates != nil:
		return *p.Coordinates
	case p.Offset != nil:
		return Coordinates{Lat: origin.Lat + p.Offset.Lat, Lng: origin.Lng + p.Offset.Lng}
	default:
		return origin
	}
}

// Catalog is an in-memory PlaceFinder.
type Catalog struct {
	places []CatalogPlace
	now    func() time.Time
}

// NewCatalog creates a catalog over the given entries.
func NewCatalog(places []CatalogPlace) *Catalog {
	return &Catalog{places: places, now: time.Now}
}

// DefaultCatalog returns the built-in demo catalog, laid out around whatever
// origin is searched from.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultPlaces())
}

type catalogFile struct {
	Places []CatalogPlace `yaml:"places"`
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, p := range f.Places {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: id and name are required", i)
		}
		if p.Coordinates == nil && p.Offset == nil {
			return nil, fmt.Errorf("catalog entry %q: coordinates or offset required", p.ID)
		}
	}
	return NewCatalog(f.Places), nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.places)
}

// FindNearby returns the places of the given kind within radiusMeters of
// origin, closest first. PlaceAny and PlaceStore both match every type.
// A non-positive radius falls back to DefaultSearchRadius.
func (c *Catalog) FindNearby(ctx context.Context, origin Coordinates, kind PlaceType, radiusMeters float64) ([]LocationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultSearchRadius
	}

	now := c.now()
	results := make([]LocationResult, 0, len(c.places))
	for _, p := range c.places {
		if !matchesKind(p.Type, kind) {
			continue
		}
		pos := p.position(origin)
		dist := Distance(origin, pos)
		if dist > radiusMeters {
			continue
		}
		results = append(results, LocationResult{
			ID:           p.ID,
			Name:         p.Name,
			Type:         p.Type,
			Address:      p.Address,
			Coordinates:  pos,
			Distance:     dist,
			Rating:       p.Rating,
			PriceRange:   p.PriceRange,
			Offers:       activeOffers(p.Offers, now),
			Phone:        p.Phone,
			Website:      p.Website,
			OpeningHours: p.OpeningHours,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results, nil
}

func matchesKind(t, kind PlaceType) bool {
	switch kind {
	case "", PlaceAny, PlaceStore:
		return true
	default:
		return t == kind
	}
}

func activeOffers(offers []Offer, now time.Time) []Offer {
	if len(offers) == 0 {
		return nil
	}
	out := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if !o.ValidUntil.IsZero() && o.ValidUntil.Before(now) {
			continue
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func defaultPlaces() []CatalogPlace {
	return []CatalogPlace{
		{
			ID: "rest-001", Name: "Flix Bistro", Type: PlaceRestaurant,
			Address: "12 Market Street", Offset: &Coordinates{Lat: 0.0027, Lng: 0.0018},
			Rating: 4.5, PriceRange: "$$", Phone: "+1-555-0101", OpeningHours: "09:00-23:00",
			Offers: []Offer{{ID: "off-101", Title: "lunch combos", Discount: 20}},
		},
		{
			ID: "rest-002", Name: "Spice Garden", Type: PlaceRestaurant,
			Address: "48 Cedar Avenue", Offset: &Coordinates{Lat: 0.0063, Lng: -0.0041},
			Rating: 4.2, PriceRange: "$$", Phone: "+1-555-0102", OpeningHours: "11:00-22:00",
		},
		{
			ID: "store-001", Name: "Corner Market", Type: PlaceStore,
			Address: "3 Elm Road", Offset: &Coordinates{Lat: -0.0035, Lng: 0.0022},
			Rating: 4.0, PriceRange: "$", Phone: "+1-555-0201", OpeningHours: "07:00-22:00",
			Offers: []Offer{{ID: "off-201", Title: "weekly groceries", Discount: 15}},
		},
		{
			ID: "store-002", Name: "Tech Hub Electronics", Type: PlaceStore,
			Address: "210 Harbor Boulevard", Offset: &Coordinates{Lat: 0.0110, Lng: 0.0090},
			Rating: 4.3, PriceRange: "$$$", Website: "https://techhub.example.com", OpeningHours: "10:00-21:00",
			Offers: []Offer{{ID: "off-202", Title: "headphones", Discount: 10}},
		},
		{
			ID: "svc-001", Name: "QuickFuel Station", Type: PlaceService,
			Address: "77 Ring Road", Offset: &Coordinates{Lat: -0.0081, Lng: -0.0060},
			Rating: 3.9, OpeningHours: "24h",
		},
		{
			ID: "svc-002", Name: "City Care Pharmacy", Type: PlaceService,
			Address: "5 Station Square", Offset: &Coordinates{Lat: 0.0015, Lng: -0.0012},
			Rating: 4.6, Phone: "+1-555-0302", OpeningHours: "08:00-24:00",
		},
		{
			ID: "ent-001", Name: "Starlight Cinema", Type: PlaceEntertainment,
			Address: "90 Riverside Drive", Offset: &Coordinates{Lat: 0.0170, Lng: -0.0130},
			Rating: 4.4, PriceRange: "$$",
			Offers: []Offer{{ID: "off-401", Title: "weekday tickets", Discount: 25}},
		},
		{
			ID: "rest-003", Name: "Harbor Grill", Type: PlaceRestaurant,
			Address: "1 Pier Walk", Offset: &Coordinates{Lat: 0.0250, Lng: 0.0200},
			Rating: 4.7, PriceRange: "$$$",
			Offers: []Offer{{ID: "off-103", Title: "seafood platters", Discount: 30}},
		},
	}
}
