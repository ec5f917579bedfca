package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/command"
	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/flixmarket/flixvoice/internal/console"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/flixmarket/flixvoice/internal/reminder"
	"github.com/flixmarket/flixvoice/internal/tts"
	"github.com/flixmarket/flixvoice/internal/voice"
	"github.com/spf13/cobra"
)

// drainDelay lets the last command finish after the input ends.
const drainDelay = 500 * time.Millisecond

func runCmd() *cobra.Command {
	var (
		speak    bool
		wakeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Talk to the assistant from the terminal",
		Long: `Each input line is treated as a recognized utterance.

By default every line is a command. With --wake-only a line must start with
the wake phrase ("hey flix, find nearby restaurants"), or be the bare wake
phrase followed by the command on the next line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := logs.Zerolog()
			places, err := loadPlaces(cfg)
			if err != nil {
				return err
			}

			events := bus.NewEventBus()
			reminders := reminder.NewInbox(events, logger)
			defer reminders.Close()

			printer := console.NewPrinter(cmd.OutOrStdout())
			printer.Watch(events)
			rec := console.NewLineRecognizer(cmd.InOrStdin(), nil, logger)

			var synth tts.Synthesizer = printer
			if speak {
				engine := tts.NewCommandSynthesizer(logger, tts.CommandConfig{Engine: cfg.Speech.Engine, Rate: cfg.Speech.Rate})
				if engine.Supported() {
					synth = engine
					events.Subscribe(bus.EventTypeResponse, func(e bus.Event) {
						if text := responseText(e); text != "" {
							printer.Notice(text)
						}
					})
				} else {
					printer.Notice("no speech engine installed, printing responses")
				}
			}

			settings := config.NewSettingsStore(cfg.Voice)
			a := voice.NewAssistant(settings, voice.Deps{
				Recognizer:  rec,
				Synthesizer: synth,
				Geolocator:  location.FixedGeolocator{Position: homePosition(cfg)},
				Places:      places,
				Opener:      voice.NewBrowserOpener(printer.Open),
				Events:      events,
				Reminders:   reminders,
			}, assistantConfig(cfg), logger)
			defer a.Stop()

			if !wakeOnly {
				rec.SetRewrite(func(line string) string {
					if a.State().IsManualListening {
						return line
					}
					return withWakePhrase(line, settings.Settings())
				})
			}

			go func() {
				if err := a.Run(ctx); err != nil {
					logger.Error().Err(err).Msg("assistant stopped")
				}
			}()

			if err := a.Start(ctx); err != nil {
				return fmt.Errorf("start listening: %w", err)
			}

			if wakeOnly {
				printer.Notice(fmt.Sprintf("listening for %q (Ctrl-D to quit)", wakeWordLabel(settings.Settings())))
			} else {
				printer.Notice("listening, type a command (Ctrl-D to quit)")
			}

			select {
			case <-ctx.Done():
			case <-rec.Done():
				time.Sleep(drainDelay + cfg.Processor.NavigationDelay)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&speak, "speak", false, "speak responses through espeak-ng or say")
	cmd.Flags().BoolVar(&wakeOnly, "wake-only", false, "only react to lines that carry the wake phrase")
	return cmd
}

func responseText(e bus.Event) string {
	if resp, ok := e.Data["response"].(command.VoiceResponse); ok {
		return resp.Text
	}
	return ""
}

// withWakePhrase prefixes line with the wake phrase unless it carries one.
func withWakePhrase(line string, s config.VoiceSettings) string {
	phrases := voice.WakePhrases(s)
	if _, ok := voice.MatchWake(line, phrases); ok || len(phrases) == 0 {
		return line
	}
	return strings.ToLower(wakeWordLabel(s)) + " " + line
}

func wakeWordLabel(s config.VoiceSettings) string {
	switch s.WakeWord {
	case config.WakeWordFlixAssistant:
		return "Flix Assistant"
	case config.WakeWordCustom:
		return s.CustomWakeWord
	}
	return "Hey Flix"
}
