package location

import (
	"context"
	"fmt"
	"time"
)

// PositionTimeout bounds a single position request.
const PositionTimeout = 10 * time.Second

// Geolocator reports the device position.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

// CurrentPosition asks g for the position with PositionTimeout applied.
// Every failure, including a nil geolocator, is wrapped in ErrLocationUnavailable.
func CurrentPosition(ctx context.Context, g Geolocator) (Coordinates, error) {
	if g == nil {
		return Coordinates{}, fmt.Errorf("%w: geolocation not supported", ErrLocationUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, PositionTimeout)
	defer cancel()

	type result struct {
		pos Coordinates
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := g.CurrentPosition(ctx)
		done <- result{pos, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Coordinates{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, r.err)
		}
		return r.pos, nil
	case <-ctx.Done():
		return Coordinates{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, ctx.Err())
	}
}

// FixedGeolocator always reports the same position, typically the configured home.
type FixedGeolocator struct {
	Position Coordinates
}

// CurrentPosition implements Geolocator.
func (f FixedGeolocator) CurrentPosition(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	return f.Position, nil
}

// GeolocatorFunc adapts a function to Geolocator.
type GeolocatorFunc func(ctx context.Context) (Coordinates, error)

// CurrentPosition implements Geolocator.
func (f GeolocatorFunc) CurrentPosition(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}
