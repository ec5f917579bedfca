package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/flixmarket/flixvoice/internal/hostbridge"
	"github.com/flixmarket/flixvoice/internal/reminder"
	"github.com/flixmarket/flixvoice/internal/voice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the voice pipeline to a host UI over WebSocket",
		Long: `Starts the host bridge. A host UI connects to /ws and provides speech
recognition, speech synthesis, geolocation and link opening; the assistant
drives them and forwards navigation, reminder and response events back.

Prometheus metrics are served on the configured metrics path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			logger := logs.Zerolog()
			places, err := loadPlaces(cfg)
			if err != nil {
				return err
			}

			events := bus.NewEventBus()
			reminders := reminder.NewInbox(events, logger)
			defer reminders.Close()

			bridgeCfg := hostbridge.DefaultConfig()
			bridgeCfg.AllowedOrigins = cfg.Server.AllowedOrigins
			bridge := hostbridge.NewServer(bridgeCfg, logger)
			bridge.Forward(events)

			settings := config.NewSettingsStore(cfg.Voice)
			a := voice.NewAssistant(settings, voice.Deps{
				Recognizer:  bridge.Recognizer(),
				Synthesizer: bridge.Synthesizer(),
				Geolocator:  hostGeolocator(bridge, homePosition(cfg)),
				Places:      places,
				Opener:      bridge,
				Events:      events,
				Reminders:   reminders,
			}, assistantConfig(cfg), logger)
			bridge.SetController(ctx, a)

			if path := watchPath(); path != "" {
				err := config.Watch(path, func(c *config.Config, err error) {
					if err != nil {
						logger.Warn().Err(err).Msg("config reload failed")
						return
					}
					if _, err := settings.Replace(c.Voice); err != nil {
						logger.Warn().Err(err).Msg("voice settings rejected")
						return
					}
					logger.Info().Str("path", path).Msg("voice settings reloaded")
				})
				if err != nil {
					logger.Warn().Err(err).Msg("config watch unavailable")
				}
			}

			mux := http.NewServeMux()
			bridge.RegisterRoutes(mux)
			mux.Handle(cfg.Server.MetricsPath, promhttp.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(w, "ok host=%t\n", bridge.Connected())
			})

			srv := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return a.Run(gctx)
			})
			g.Go(func() error {
				logger.Info().Str("addr", addr).Msg("host bridge listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("FlixVoice serving on "+addr))
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("host endpoint ws://"+addr+"/ws, metrics "+cfg.Server.MetricsPath))

			err = g.Wait()
			a.Stop()
			logger.Info().Msg("host bridge stopped")
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
