package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/flixmarket/flixvoice/internal/command"
	"github.com/flixmarket/flixvoice/internal/intent"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse [text]",
		Short: "Show the intent and parameters parsed from a transcript",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := intent.Parse(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}

			fmt.Fprintf(out, "%s %s\n", titleStyle.Render("intent:"), result.Intent)
			fmt.Fprintf(out, "%s %.2f\n", dimStyle.Render("confidence:"), result.Confidence)
			keys := make([]string, 0, len(result.Parameters))
			for k := range result.Parameters {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s = %s\n", k, result.Parameters[k])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func askCmd() *cobra.Command {
	var (
		asYAML bool
		noLoc  bool
	)

	cmd := &cobra.Command{
		Use:   "ask [text]",
		Short: "Process one command and print the response without side effects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			places, err := loadPlaces(cfg)
			if err != nil {
				return err
			}
			home := homePosition(cfg)

			pcfg := assistantConfig(cfg).Processor
			p := command.New(pcfg, command.Deps{
				Places:       places,
				Personalized: func() bool { return cfg.Voice.PersonalizedResponses },
				UserLocation: func() *location.Coordinates {
					if noLoc {
						return nil
					}
					return &home
				},
			}, logs.Zerolog())
			defer p.Close()

			resp := p.Process(cmd.Context(), strings.Join(args, " "), 1)
			out := cmd.OutOrStdout()
			if asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(resp)
			}

			fmt.Fprintln(out, renderMarkdown(responseMarkdown(resp), markdownWidth))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the full response as YAML")
	cmd.Flags().BoolVar(&noLoc, "no-location", false, "process as if location were unavailable")
	return cmd
}

func placesCmd() *cobra.Command {
	var (
		radius float64
		lat    float64
		lng    float64
	)

	cmd := &cobra.Command{
		Use:   "places [restaurant|store|service|any]",
		Short: "List catalog places near the home position",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			places, err := loadPlaces(cfg)
			if err != nil {
				return err
			}
			kind := location.PlaceAny
			if len(args) == 1 {
				kind = location.PlaceType(args[0])
			}
			origin := homePosition(cfg)
			if cmd.Flags().Changed("lat") {
				origin.Lat = lat
			}
			if cmd.Flags().Changed("lng") {
				origin.Lng = lng
			}
			if radius <= 0 {
				radius = cfg.Location.SearchRadius
			}

			results, err := places.FindNearby(cmd.Context(), origin, kind, radius)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No places found within "+location.FormatDistance(radius)))
				return nil
			}
			fmt.Fprintln(out, placesTable(results))
			return nil
		},
	}
	cmd.Flags().Float64Var(&radius, "radius", 0, "search radius in meters (default from config)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "search origin latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "search origin longitude")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
