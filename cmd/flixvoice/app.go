package main

import (
	"context"
	"os"

	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/flixmarket/flixvoice/internal/hostbridge"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/flixmarket/flixvoice/internal/stt"
	"github.com/flixmarket/flixvoice/internal/voice"
)

// loadPlaces returns the configured catalog, or the built-in one.
func loadPlaces(c *config.Config) (*location.Catalog, error) {
	if c.Location.CatalogFile == "" {
		return location.DefaultCatalog(), nil
	}
	return location.LoadCatalog(c.Location.CatalogFile)
}

func homePosition(c *config.Config) location.Coordinates {
	return location.Coordinates{Lat: c.Location.HomeLat, Lng: c.Location.HomeLng}
}

// assistantConfig maps the file configuration onto the assistant.
func assistantConfig(c *config.Config) voice.Config {
	vc := voice.DefaultConfig()
	vc.Capture.RestartDelay = c.Capture.RestartDelay
	vc.Capture.InterimResults = c.Capture.InterimResults
	if c.Capture.FilterFillers {
		vc.Capture.Filter = stt.NewFilter(nil)
	}
	vc.Processor.UserID = c.User.ID
	vc.Processor.UserName = c.User.Name
	vc.Processor.SearchRadius = c.Location.SearchRadius
	vc.Processor.NavigationDelay = c.Processor.NavigationDelay
	return vc
}

// hostGeolocator asks the host for the position and uses the configured home
// when no host can answer.
func hostGeolocator(bridge *hostbridge.Server, home location.Coordinates) location.Geolocator {
	return location.GeolocatorFunc(func(ctx context.Context) (location.Coordinates, error) {
		pos, err := bridge.CurrentPosition(ctx)
		if hostbridge.IsHostError(err) {
			return home, nil
		}
		return pos, err
	})
}

// watchPath is the config file to watch, or "" when there is none on disk.
func watchPath() string {
	path := cfgPath
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
