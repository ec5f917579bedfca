package location

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newYork = Coordinates{Lat: 40.7128, Lng: -74.0060}

func TestDistanceMeters(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceMeters(51.5, -0.12, 51.5, -0.12))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := DistanceMeters(40.7128, -74.0060, 34.0522, -118.2437)
		b := DistanceMeters(34.0522, -118.2437, 40.7128, -74.0060)
		assert.InDelta(t, a, b, 1e-6)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		assert.InDelta(t, 111195, DistanceMeters(0, 0, 1, 0), 1)
	})

	t.Run("new york to los angeles", func(t *testing.T) {
		assert.InDelta(t, 3935746, DistanceMeters(40.7128, -74.0060, 34.0522, -118.2437), 2000)
	})
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "350 m", FormatDistance(349.6))
	assert.Equal(t, "1.2 km", FormatDistance(1234))
	assert.Equal(t, "0 m", FormatDistance(0))
}

func TestCatalog_FindNearby(t *testing.T) {
	c := DefaultCatalog()
	ctx := context.Background()

	t.Run("sorted and within radius", func(t *testing.T) {
		results, err := c.FindNearby(ctx, newYork, PlaceAny, 0)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for i, r := range results {
			assert.LessOrEqual(t, r.Distance, DefaultSearchRadius)
			if i > 0 {
				assert.LessOrEqual(t, results[i-1].Distance, r.Distance)
			}
		}
		assert.Equal(t, "City Care Pharmacy", results[0].Name)
	})

	t.Run("store matches every type", func(t *testing.T) {
		all, err := c.FindNearby(ctx, newYork, PlaceAny, 2000)
		require.NoError(t, err)
		stores, err := c.FindNearby(ctx, newYork, PlaceStore, 2000)
		require.NoError(t, err)
		assert.Equal(t, all, stores)
	})

	t.Run("filters by type", func(t *testing.T) {
		results, err := c.FindNearby(ctx, newYork, PlaceRestaurant, 2000)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Flix Bistro", results[0].Name)
		assert.Equal(t, "Spice Garden", results[1].Name)
	})

	t.Run("larger radius includes far places", func(t *testing.T) {
		results, err := c.FindNearby(ctx, newYork, PlaceRestaurant, 10000)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.FindNearby(cctx, newYork, PlaceAny, 2000)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCatalog_ExpiredOffersDropped(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewCatalog([]CatalogPlace{{
		ID: "p1", Name: "Old Deals", Type: PlaceStore, Offset: &Coordinates{Lat: 0.001},
		Offers: []Offer{
			{ID: "o1", Title: "expired", Discount: 50, ValidUntil: now.Add(-time.Hour)},
			{ID: "o2", Title: "current", Discount: 10, ValidUntil: now.Add(time.Hour)},
		},
	}})
	c.now = func() time.Time { return now }

	results, err := c.FindNearby(context.Background(), newYork, PlaceAny, 2000)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Offers, 1)
	assert.Equal(t, "o2", results[0].Offers[0].ID)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "places.yaml")
	content := `places:
  - id: cafe-1
    name: Morning Cup
    type: restaurant
    address: 1 Main St
    coordinates: {lat: 40.7130, lng: -74.0050}
    offers:
      - id: o-1
        title: espresso
        discount: 10
  - id: shop-1
    name: Gift Corner
    type: store
    offset: {lat: 0.002, lng: 0}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	results, err := c.FindNearby(context.Background(), newYork, PlaceRestaurant, 2000)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Morning Cup", results[0].Name)
	assert.True(t, results[0].HasOffers())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("places:\n  - id: x\n    name: y\n"), 0o644))
	_, err = LoadCatalog(bad)
	assert.Error(t, err)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestGoogleMaps_BuildURL(t *testing.T) {
	g := NewGoogleMaps()

	t.Run("directions with origin", func(t *testing.T) {
		u, err := g.BuildURL(MapTarget{Destination: "airport", Origin: &newYork, Mode: "driving"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "https://www.google.com/maps/dir/?"))
		assert.Contains(t, u, "destination=airport")
		assert.Contains(t, u, "travelmode=driving")
	})

	t.Run("text search", func(t *testing.T) {
		u, err := g.BuildURL(MapTarget{Destination: "city museum"})
		require.NoError(t, err)
		assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=city+museum", u)
	})

	t.Run("coordinates", func(t *testing.T) {
		u, err := g.BuildURL(MapTarget{Coordinates: &Coordinates{Lat: 40.7128, Lng: -74.006}})
		require.NoError(t, err)
		assert.Contains(t, u, "/search/")
	})

	t.Run("missing destination", func(t *testing.T) {
		_, err := g.BuildURL(MapTarget{Destination: "   "})
		assert.ErrorIs(t, err, ErrMissingDestination)
	})
}

func TestParseCoordinates_RoundTrip(t *testing.T) {
	g := NewGoogleMaps()
	for _, c := range []Coordinates{{0, 0}, {40.7128, -74.006}, {-33.8688, 151.2093}, {25.2048, 55.2708}} {
		u, err := g.BuildURL(MapTarget{Coordinates: &c})
		require.NoError(t, err)
		got, err := ParseCoordinates(u)
		require.NoError(t, err)
		assert.True(t, math.Abs(got.Lat-c.Lat) < 1e-9 && math.Abs(got.Lng-c.Lng) < 1e-9, "round trip %v -> %v", c, got)
	}

	_, err := ParseCoordinates("https://www.google.com/maps/search/?api=1&query=airport")
	assert.Error(t, err)
}

func TestCurrentPosition(t *testing.T) {
	ctx := context.Background()

	t.Run("fixed", func(t *testing.T) {
		pos, err := CurrentPosition(ctx, FixedGeolocator{Position: newYork})
		require.NoError(t, err)
		assert.Equal(t, newYork, pos)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := CurrentPosition(ctx, nil)
		assert.ErrorIs(t, err, ErrLocationUnavailable)
	})

	t.Run("denied", func(t *testing.T) {
		g := GeolocatorFunc(func(context.Context) (Coordinates, error) {
			return Coordinates{}, ErrPermissionDenied
		})
		_, err := CurrentPosition(ctx, g)
		assert.ErrorIs(t, err, ErrLocationUnavailable)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("deadline", func(t *testing.T) {
		block := GeolocatorFunc(func(ctx context.Context) (Coordinates, error) {
			<-ctx.Done()
			return Coordinates{}, ctx.Err()
		})
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := CurrentPosition(cctx, block)
		assert.True(t, errors.Is(err, ErrLocationUnavailable))
	})
}
