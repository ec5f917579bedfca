package reminder

import (
	"testing"
	"time"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday afternoon.
var base = time.Date(2025, time.March, 12, 14, 0, 0, 0, time.UTC)

func TestResolveDue(t *testing.T) {
	tests := []struct {
		name string
		when string
		date string
		want time.Time
	}{
		{"relative minutes", "in 10 minutes", "", base.Add(10 * time.Minute)},
		{"relative hour", "in 1 hour", "", base.Add(time.Hour)},
		{"relative days", "in 2 days", "", base.AddDate(0, 0, 2)},
		{"later today", "6pm", "", time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)},
		{"minutes and suffix", "6:30pm", "", time.Date(2025, 3, 12, 18, 30, 0, 0, time.UTC)},
		{"24 hour clock", "18:45", "", time.Date(2025, 3, 12, 18, 45, 0, 0, time.UTC)},
		{"passed today rolls over", "9am", "", time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)},
		{"noon", "12pm", "tomorrow", time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC)},
		{"midnight", "12am", "tomorrow", time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)},
		{"date only", "", "tomorrow", time.Date(2025, 3, 13, DefaultHour, 0, 0, 0, time.UTC)},
		{"tonight", "", "tonight", time.Date(2025, 3, 12, TonightHour, 0, 0, 0, time.UTC)},
		{"tonight without suffix", "8:30", "tonight", time.Date(2025, 3, 12, 20, 30, 0, 0, time.UTC)},
		{"weekday ahead", "10am", "friday", time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)},
		{"same weekday later", "5pm", "wednesday", time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC)},
		{"same weekday passed", "9am", "wednesday", time.Date(2025, 3, 19, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDue(base, tt.when, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDue_Errors(t *testing.T) {
	_, err := ResolveDue(base, "", "")
	assert.ErrorIs(t, err, ErrNoSchedule)

	for _, when := range []string{"soon", "13pm", "0am", "25:00", "6:75pm"} {
		_, err := ResolveDue(base, when, "")
		assert.ErrorIs(t, err, ErrInvalidTime, when)
	}

	_, err = ResolveDue(base, "6pm", "someday")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestInbox_AddAndFire(t *testing.T) {
	events := bus.NewEventBus()
	created := make(chan bus.Event, 1)
	due := make(chan bus.Event, 1)
	events.Subscribe(bus.EventTypeReminderCreated, func(e bus.Event) { created <- e })
	events.Subscribe(bus.EventTypeReminderDue, func(e bus.Event) { due <- e })

	inbox := NewInbox(events, zerolog.Nop())
	defer inbox.Close()

	r, err := inbox.Add("  buy milk ", "in 0 minutes", "")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", r.Task)
	assert.True(t, r.Scheduled())
	assert.NotEmpty(t, r.ID)

	select {
	case e := <-created:
		assert.Equal(t, r.ID, e.Data["id"])
	case <-time.After(time.Second):
		t.Fatal("reminder.created not published")
	}

	select {
	case e := <-due:
		assert.Equal(t, "buy milk", e.Data["task"])
		assert.Equal(t, "Reminder: buy milk", e.Data["text"])
	case <-time.After(2 * time.Second):
		t.Fatal("reminder.due not published")
	}

	list := inbox.List()
	require.Len(t, list, 1)
	assert.True(t, list[0].Fired)
}

func TestInbox_Unscheduled(t *testing.T) {
	inbox := NewInbox(nil, zerolog.Nop())
	defer inbox.Close()

	r, err := inbox.Add("call the bank", "", "")
	require.NoError(t, err)
	assert.False(t, r.Scheduled())

	r, err = inbox.Add("water plants", "whenever", "")
	require.NoError(t, err)
	assert.False(t, r.Scheduled())

	_, err = inbox.Add("   ", "6pm", "")
	assert.ErrorIs(t, err, ErrEmptyTask)
}

func TestInbox_ListOrderAndCancel(t *testing.T) {
	inbox := NewInbox(nil, zerolog.Nop())
	defer inbox.Close()
	inbox.now = func() time.Time { return base }

	later, err := inbox.Add("later", "in 2 hours", "")
	require.NoError(t, err)
	none, err := inbox.Add("whenever", "", "")
	require.NoError(t, err)
	sooner, err := inbox.Add("sooner", "in 1 hour", "")
	require.NoError(t, err)

	list := inbox.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{sooner.ID, later.ID, none.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	assert.True(t, inbox.Cancel(sooner.ID))
	assert.False(t, inbox.Cancel(sooner.ID))
	assert.Len(t, inbox.List(), 2)
}

func TestInbox_Close(t *testing.T) {
	events := bus.NewEventBus()
	due := make(chan bus.Event, 1)
	events.Subscribe(bus.EventTypeReminderDue, func(e bus.Event) { due <- e })

	inbox := NewInbox(events, zerolog.Nop())
	inbox.now = func() time.Time { return base }
	_, err := inbox.Add("stretch", "in 1 minute", "")
	require.NoError(t, err)

	inbox.Close()

	select {
	case <-due:
		t.Fatal("closed inbox announced a reminder")
	case <-time.After(200 * time.Millisecond):
	}

	_, err = inbox.Add("another", "in 1 minute", "")
	assert.ErrorIs(t, err, ErrClosed)
}
