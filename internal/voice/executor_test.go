package voice

import (
	"context"
	"testing"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/command"
	"github.com/flixmarket/flixvoice/internal/location"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(opener MapOpener, events *bus.EventBus, origin *location.Coordinates) *Executor {
	return NewExecutor(ExecutorDeps{
		Opener: opener,
		Events: events,
		Origin: func() *location.Coordinates { return origin },
	}, zerolog.Nop())
}

func TestExecutor_OpenMap(t *testing.T) {
	home := &location.Coordinates{Lat: 25.2048, Lng: 55.2708}

	t.Run("coordinates", func(t *testing.T) {
		opener := &fakeOpener{}
		e := newTestExecutor(opener, nil, home)
		err := e.Execute(context.Background(), command.VoiceAction{
			Type: command.ActionOpenMap,
			Data: command.ActionData{command.DataName: "Flix Bistro", command.DataLat: 25.21, command.DataLng: 55.28},
		})
		require.NoError(t, err)

		opened, _ := opener.urls()
		require.Len(t, opened, 1)
		pos, err := location.ParseCoordinates(opened[0])
		require.NoError(t, err)
		assert.InDelta(t, 25.21, pos.Lat, 1e-9)
		assert.InDelta(t, 55.28, pos.Lng, 1e-9)
	})

	t.Run("directions from the user position", func(t *testing.T) {
		opener := &fakeOpener{}
		e := newTestExecutor(opener, nil, home)
		err := e.Execute(context.Background(), command.VoiceAction{
			Type: command.ActionOpenMap,
			Data: command.ActionData{command.DataDestination: "airport", command.DataMode: "driving"},
		})
		require.NoError(t, err)

		opened, _ := opener.urls()
		require.Len(t, opened, 1)
		assert.Contains(t, opened[0], "/dir/")
		assert.Contains(t, opened[0], "destination=airport")
		assert.Contains(t, opened[0], "travelmode=driving")
	})

	t.Run("falls back to the current context", func(t *testing.T) {
		opener := &fakeOpener{newErr: errBlocked}
		e := newTestExecutor(opener, nil, nil)
		err := e.Execute(context.Background(), command.VoiceAction{
			Type: command.ActionOpenMap,
			Data: command.ActionData{command.DataDestination: "airport"},
		})
		require.NoError(t, err)

		opened, current := opener.urls()
		assert.Empty(t, opened)
		require.Len(t, current, 1)
		assert.Contains(t, current[0], "/search/")
	})

	t.Run("reports when nothing can open it", func(t *testing.T) {
		events := bus.NewEventBus()
		failed := collect(events, bus.EventTypeActionFailed)
		opener := &fakeOpener{newErr: errBlocked, currentErr: errBlocked}
		e := newTestExecutor(opener, events, nil)

		err := e.Execute(context.Background(), command.VoiceAction{
			Type:  command.ActionOpenMap,
			Label: "Open directions to airport",
			Data:  command.ActionData{command.DataDestination: "airport"},
		})
		require.ErrorIs(t, err, ErrOpenFailed)
		assert.ErrorIs(t, err, errBlocked)

		ev := receiveEvent(t, failed)
		assert.Equal(t, "open_map", ev.Data["type"])
		assert.Equal(t, "Open directions to airport", ev.Data["label"])
	})

	t.Run("missing destination", func(t *testing.T) {
		e := newTestExecutor(&fakeOpener{}, nil, nil)
		err := e.Execute(context.Background(), command.VoiceAction{Type: command.ActionOpenMap})
		assert.ErrorIs(t, err, location.ErrMissingDestination)
	})

	t.Run("no opener", func(t *testing.T) {
		e := newTestExecutor(nil, nil, nil)
		err := e.Execute(context.Background(), command.VoiceAction{
			Type: command.ActionOpenMap,
			Data: command.ActionData{command.DataDestination: "airport"},
		})
		assert.ErrorIs(t, err, ErrOpenFailed)
	})
}

func TestExecutor_HostEvents(t *testing.T) {
	tests := []struct {
		name   string
		action command.VoiceAction
		event  bus.EventType
		check  func(t *testing.T, data map[string]any)
	}{
		{
			name:   "navigate",
			action: command.VoiceAction{Type: command.ActionNavigate, Data: command.ActionData{command.DataTab: "profile"}},
			event:  bus.EventTypeSwitchTab,
			check:  func(t *testing.T, d map[string]any) { assert.Equal(t, "profile", d["tab"]) },
		},
		{
			name:   "show offers",
			action: command.VoiceAction{Type: command.ActionShowOffers},
			event:  bus.EventTypeSwitchTab,
			check:  func(t *testing.T, d map[string]any) { assert.Equal(t, "offers", d["tab"]) },
		},
		{
			name:   "read notifications",
			action: command.VoiceAction{Type: command.ActionReadNotifications},
			event:  bus.EventTypeReadNotifications,
			check:  func(t *testing.T, d map[string]any) { assert.Equal(t, true, d["aloud"]) },
		},
		{
			name: "message",
			action: command.VoiceAction{Type: command.ActionMessage, Data: command.ActionData{
				command.DataRecipient: "Sam", command.DataText: "running late",
			}},
			event: bus.EventTypeSendMessage,
			check: func(t *testing.T, d map[string]any) {
				assert.Equal(t, "Sam", d["recipient"])
				assert.Equal(t, "running late", d["text"])
			},
		},
		{
			name: "reminder without inbox",
			action: command.VoiceAction{Type: command.ActionSetReminder, Data: command.ActionData{
				command.DataTask: "buy milk", command.DataTime: "6pm",
			}},
			event: bus.EventTypeReminderCreated,
			check: func(t *testing.T, d map[string]any) {
				assert.Equal(t, "buy milk", d["task"])
				assert.Equal(t, "6pm", d["time"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := bus.NewEventBus()
			ch := collect(events, tt.event)
			e := newTestExecutor(&fakeOpener{}, events, nil)

			require.NoError(t, e.Execute(context.Background(), tt.action))
			tt.check(t, receiveEvent(t, ch).Data)
		})
	}
}

func TestExecutor_Call(t *testing.T) {
	opener := &fakeOpener{}
	e := newTestExecutor(opener, nil, nil)

	require.NoError(t, e.Execute(context.Background(), command.VoiceAction{
		Type: command.ActionCall,
		Data: command.ActionData{command.DataPhone: "+1-555-0101"},
	}))
	opened, _ := opener.urls()
	assert.Equal(t, []string{"tel:+1-555-0101"}, opened)
}

func TestExecutor_MissingData(t *testing.T) {
	e := newTestExecutor(&fakeOpener{}, nil, nil)
	for _, typ := range []command.ActionType{
		command.ActionNavigate,
		command.ActionSetReminder,
		command.ActionCall,
		command.ActionMessage,
	} {
		err := e.Execute(context.Background(), command.VoiceAction{Type: typ})
		assert.ErrorIs(t, err, ErrMissingData, typ.String())
	}
}

func TestExecutor_NoListener(t *testing.T) {
	events := bus.NewEventBus()
	failed := collect(events, bus.EventTypeActionFailed)
	e := newTestExecutor(&fakeOpener{}, events, nil)

	err := e.Execute(context.Background(), command.VoiceAction{
		Type:  command.ActionNavigate,
		Label: "Open wallet",
		Data:  command.ActionData{command.DataTab: "wallet"},
	})
	require.ErrorIs(t, err, ErrNoListener)
	assert.Equal(t, "Open wallet", receiveEvent(t, failed).Data["label"])

	err = newTestExecutor(&fakeOpener{}, nil, nil).Execute(context.Background(), command.VoiceAction{Type: command.ActionShowOffers})
	assert.ErrorIs(t, err, ErrNoListener)
}

func TestExecutor_ReadNotificationsAloud(t *testing.T) {
	events := bus.NewEventBus()
	ch := collect(events, bus.EventTypeReadNotifications)
	aloud := false
	e := NewExecutor(ExecutorDeps{
		Events:    events,
		ReadAloud: func() bool { return aloud },
	}, zerolog.Nop())

	action := command.VoiceAction{Type: command.ActionReadNotifications}
	require.NoError(t, e.Execute(context.Background(), action))
	assert.Equal(t, false, receiveEvent(t, ch).Data["aloud"])

	aloud = true
	require.NoError(t, e.Execute(context.Background(), action))
	assert.Equal(t, true, receiveEvent(t, ch).Data["aloud"])
}

func TestExecutor_IsTotal(t *testing.T) {
	events := bus.NewEventBus()
	collect(events, bus.EventTypeSwitchTab, bus.EventTypeReadNotifications, bus.EventTypeSendMessage)
	e := newTestExecutor(&fakeOpener{}, events, nil)
	data := command.ActionData{
		command.DataDestination: "mall",
		command.DataTab:         "wallet",
		command.DataTask:        "call mom",
		command.DataPhone:       "123",
		command.DataRecipient:   "mom",
	}
	for _, typ := range command.AllActionTypes() {
		assert.NoError(t, e.Execute(context.Background(), command.VoiceAction{Type: typ, Data: data}), typ.String())
	}

	assert.NoError(t, e.Execute(context.Background(), command.VoiceAction{Type: "teleport"}))
}

func TestBrowserOpener_OpenCurrent(t *testing.T) {
	var got string
	b := NewBrowserOpener(func(_ context.Context, url string) error {
		got = url
		return nil
	})
	require.NoError(t, b.OpenCurrent(context.Background(), "https://example.com"))
	assert.Equal(t, "https://example.com", got)

	assert.ErrorIs(t, (&BrowserOpener{}).OpenCurrent(context.Background(), "x"), ErrNoCurrentContext)
}
