package reminder

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flixmarket/flixvoice/internal/bus"
	"github.com/flixmarket/flixvoice/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrEmptyTask is returned when a reminder has nothing to remind about.
	ErrEmptyTask = errors.New("reminder task is empty")
	// ErrClosed is returned by Add after Close.
	ErrClosed = errors.New("reminder inbox closed")
)

// Reminder is a stored reminder. Due is zero for reminders without a
// schedule; they are listed but never announced.
type Reminder struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	Time      string    `json:"time,omitempty"`
	Date      string    `json:"date,omitempty"`
	Due       time.Time `json:"due,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Fired     bool      `json:"fired"`
}

// Scheduled reports whether the reminder has a due time.
func (r Reminder) Scheduled() bool {
	return !r.Due.IsZero()
}

// Announcement is the text spoken when the reminder falls due.
func (r Reminder) Announcement() string {
	return "Reminder: " + r.Task
}

func (r Reminder) eventData() map[string]any {
	data := map[string]any{
		"id":   r.ID,
		"task": r.Task,
		"text": r.Announcement(),
	}
	if r.Scheduled() {
		data["due"] = r.Due.Format(time.RFC3339)
	}
	return data
}

// Inbox stores reminders and publishes reminder.due on the bus when each
// one falls due.
type Inbox struct {
	events *bus.EventBus
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	reminders map[string]*Reminder
	timers    map[string]*time.Timer
	closed    bool
}

// NewInbox creates an empty inbox publishing to events.
func NewInbox(events *bus.EventBus, logger zerolog.Logger) *Inbox {
	return &Inbox{
		events:    events,
		logger:    logger.With().Str("component", "reminders").Logger(),
		now:       time.Now,
		reminders: make(map[string]*Reminder),
		timers:    make(map[string]*time.Timer),
	}
}

// Add stores a reminder for task. Phrases that cannot be scheduled still
// produce a stored reminder without a due time.
func (i *Inbox) Add(task, when, date string) (Reminder, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Reminder{}, ErrEmptyTask
	}

	now := i.now()
	r := &Reminder{
		ID:        uuid.NewString(),
		Task:      task,
		Time:      when,
		Date:      date,
		CreatedAt: now,
	}
	due, err := ResolveDue(now, when, date)
	switch {
	case err == nil:
		r.Due = due
	case errors.Is(err, ErrNoSchedule):
	default:
		i.logger.Warn().Err(err).Str("task", task).Msg("reminder stored without schedule")
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return Reminder{}, ErrClosed
	}
	i.reminders[r.ID] = r
	if r.Scheduled() {
		id := r.ID
		i.timers[id] = time.AfterFunc(due.Sub(now), func() { i.fire(id) })
	}
	pending := len(i.timers)
	out := *r
	i.mu.Unlock()

	metrics.PendingReminders.Set(float64(pending))
	i.logger.Info().Str("id", out.ID).Str("task", task).Time("due", out.Due).Msg("reminder created")
	if i.events != nil {
		i.events.Publish(bus.Event{Type: bus.EventTypeReminderCreated, Data: out.eventData()})
	}
	return out, nil
}

func (i *Inbox) fire(id string) {
	i.mu.Lock()
	r, ok := i.reminders[id]
	if !ok || i.closed {
		i.mu.Unlock()
		return
	}
	delete(i.timers, id)
	r.Fired = true
	out := *r
	pending := len(i.timers)
	i.mu.Unlock()

	metrics.PendingReminders.Set(float64(pending))
	i.logger.Info().Str("id", id).Str("task", out.Task).Msg("reminder due")
	if i.events != nil {
		i.events.Publish(bus.Event{Type: bus.EventTypeReminderDue, Data: out.eventData()})
	}
}

// List returns all reminders ordered by due time, unscheduled ones last.
func (i *Inbox) List() []Reminder {
	i.mu.Lock()
	out := make([]Reminder, 0, len(i.reminders))
	for _, r := range i.reminders {
		out = append(out, *r)
	}
	i.mu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		ra, rb := out[a], out[b]
		if ra.Scheduled() != rb.Scheduled() {
			return ra.Scheduled()
		}
		if !ra.Due.Equal(rb.Due) {
			return ra.Due.Before(rb.Due)
		}
		return ra.CreatedAt.Before(rb.CreatedAt)
	})
	return out
}

// Cancel removes a reminder. It reports whether the reminder existed.
func (i *Inbox) Cancel(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.reminders[id]; !ok {
		return false
	}
	if t, ok := i.timers[id]; ok {
		t.Stop()
		delete(i.timers, id)
	}
	delete(i.reminders, id)
	metrics.PendingReminders.Set(float64(len(i.timers)))
	return true
}

// Close stops all pending timers. Reminders added afterwards are rejected.
func (i *Inbox) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	for id, t := range i.timers {
		t.Stop()
		delete(i.timers, id)
	}
	metrics.PendingReminders.Set(0)
}
