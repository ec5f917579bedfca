package voice

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/command"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/flixmarket/flixvoice/internal/metrics"
	"github.com/flixmarket/flixvoice/internal/reminder"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"
)

var (
	// ErrMissingData is returned for actions whose payload lacks a required field.
	ErrMissingData = errors.New("action data incomplete")
	// ErrOpenFailed is returned when a URL could not be opened in any context.
	ErrOpenFailed = errors.New("could not open link")
	// ErrNoCurrentContext is returned by openers that cannot replace the current view.
	ErrNoCurrentContext = errors.New("no current browsing context")
	// ErrNoListener is returned for host actions nobody is subscribed to carry out.
	ErrNoListener = errors.New("no host listening")
)

// MapOpener opens URLs for the user.
type MapOpener interface {
	// OpenNew opens url in a new browsing context (tab, window, app)
	OpenNew(ctx context.Context, url string) error
	// OpenCurrent navigates the current browsing context to url
	OpenCurrent(ctx context.Context, url string) error
}

// BrowserOpener opens URLs in the system browser. OpenCurrent is delegated to
// Current, usually something that shows the link to the user.
type BrowserOpener struct {
	Current func(ctx context.Context, url string) error
}

// NewBrowserOpener creates an opener that keeps the browser launcher quiet.
func NewBrowserOpener(current func(ctx context.Context, url string) error) *BrowserOpener {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &BrowserOpener{Current: current}
}

// OpenNew launches the system browser.
func (b *BrowserOpener) OpenNew(_ context.Context, url string) error {
	return browser.OpenURL(url)
}

// OpenCurrent hands url to Current.
func (b *BrowserOpener) OpenCurrent(ctx context.Context, url string) error {
	if b.Current == nil {
		return ErrNoCurrentContext
	}
	return b.Current(ctx, url)
}

// ExecutorDeps are the collaborators actions are carried out with. Any of
// them may be nil; actions needing a missing one fail without panicking.
type ExecutorDeps struct {
	Maps      location.MapLinkBuilder
	Opener    MapOpener
	Events    *bus.EventBus
	Reminders *reminder.Inbox
	// Origin returns the user's position for directions, or nil
	Origin func() *location.Coordinates
	// ReadAloud reports whether notifications should be spoken; nil means yes
	ReadAloud func() bool
}

// Executor carries out voice actions. Every action type has a branch;
// unknown types are logged and ignored.
type Executor struct {
	maps      location.MapLinkBuilder
	opener    MapOpener
	events    *bus.EventBus
	reminders *reminder.Inbox
	origin    func() *location.Coordinates
	readAloud func() bool
	logger    zerolog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(deps ExecutorDeps, logger zerolog.Logger) *Executor {
	if deps.Maps == nil {
		deps.Maps = location.NewGoogleMaps()
	}
	if deps.Origin == nil {
		deps.Origin = func() *location.Coordinates { return nil }
	}
	if deps.ReadAloud == nil {
		deps.ReadAloud = func() bool { return true }
	}
	return &Executor{
		maps:      deps.Maps,
		opener:    deps.Opener,
		events:    deps.Events,
		reminders: deps.Reminders,
		origin:    deps.Origin,
		readAloud: deps.ReadAloud,
		logger:    logger.With().Str("component", "executor").Logger(),
	}
}

// Execute carries out action. Failures are logged, published as
// action.failed and returned; they never panic.
func (e *Executor) Execute(ctx context.Context, action command.VoiceAction) error {
	err := e.dispatch(ctx, action)

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, errSkipped):
		outcome = metrics.OutcomeSkipped
		err = nil
	case err != nil:
		outcome = metrics.OutcomeFailed
		e.logger.Warn().Err(err).Str("type", action.Type.String()).Msg("action failed")
		e.publish(bus.EventTypeActionFailed, map[string]any{
			"type":  action.Type.String(),
			"label": action.Label,
			"error": err.Error(),
		})
	}
	metrics.ActionCount.WithLabelValues(action.Type.String(), outcome).Inc()
	return err
}

var errSkipped = errors.New("action skipped")

func (e *Executor) dispatch(ctx context.Context, action command.VoiceAction) error {
	data := action.Data
	switch action.Type {
	case command.ActionOpenMap:
		return e.openMap(ctx, action)

	case command.ActionNavigate:
		tab := data.String(command.DataTab)
		if tab == "" {
			return fmt.Errorf("navigate: %w: tab", ErrMissingData)
		}
		return e.deliver(bus.EventTypeSwitchTab, map[string]any{"tab": tab})

	case command.ActionShowOffers:
		return e.deliver(bus.EventTypeSwitchTab, map[string]any{"tab": "offers"})

	case command.ActionSetReminder:
		task := data.String(command.DataTask)
		if task == "" {
			return fmt.Errorf("set reminder: %w: task", ErrMissingData)
		}
		if e.reminders == nil {
			e.publish(bus.EventTypeReminderCreated, map[string]any{
				"task": task,
				"time": data.String(command.DataTime),
				"date": data.String(command.DataDate),
			})
			return nil
		}
		_, err := e.reminders.Add(task, data.String(command.DataTime), data.String(command.DataDate))
		return err

	case command.ActionReadNotifications:
		return e.deliver(bus.EventTypeReadNotifications, map[string]any{"aloud": e.readAloud()})

	case command.ActionCall:
		phone := data.String(command.DataPhone)
		if phone == "" {
			return fmt.Errorf("call: %w: phone", ErrMissingData)
		}
		return e.open(ctx, "tel:"+phone)

	case command.ActionMessage:
		recipient := data.String(command.DataRecipient)
		if recipient == "" {
			return fmt.Errorf("message: %w: recipient", ErrMissingData)
		}
		return e.deliver(bus.EventTypeSendMessage, map[string]any{
			"recipient": recipient,
			"text":      data.String(command.DataText),
		})

	default:
		e.logger.Warn().Str("type", action.Type.String()).Msg("ignoring unknown action type")
		return errSkipped
	}
}

func (e *Executor) openMap(ctx context.Context, action command.VoiceAction) error {
	target := action.MapTarget()
	if target.Destination != "" {
		target.Origin = e.origin()
	}
	url, err := e.maps.BuildURL(target)
	if err != nil {
		return fmt.Errorf("open map: %w", err)
	}
	return e.open(ctx, url)
}

// open tries a new browsing context first and falls back to the current one.
func (e *Executor) open(ctx context.Context, url string) error {
	if e.opener == nil {
		return fmt.Errorf("%w: %s: no opener", ErrOpenFailed, url)
	}
	newErr := e.opener.OpenNew(ctx, url)
	if newErr == nil {
		e.logger.Info().Str("url", url).Msg("opened link")
		return nil
	}
	e.logger.Debug().Err(newErr).Str("url", url).Msg("new context blocked, using current")

	if err := e.opener.OpenCurrent(ctx, url); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpenFailed, url, errors.Join(newErr, err))
	}
	return nil
}

// deliver hands a host action to its subscribers.
func (e *Executor) deliver(t bus.EventType, data map[string]any) error {
	if e.events == nil || !e.events.HasSubscribers(t) {
		return fmt.Errorf("%s: %w", t, ErrNoListener)
	}
	e.events.Publish(bus.Event{Type: t, Data: data})
	return nil
}

func (e *Executor) publish(t bus.EventType, data map[string]any) {
	if e.events == nil {
		return
	}
	e.events.Publish(bus.Event{Type: t, Data: data})
}
