package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/feature"
	"github.com/jwulff/chime/internal/trigger"
)

// Book is the reminder feature: a store of reminders plus one armed
// controller per pending reminder.
type Book struct {
	store   *Store
	player  feature.Player
	logger  *slog.Logger
	pending []*feature.Controller
	byID    map[string]*feature.Controller
	feeds   []feed
}

// feed is one reminder controller's event subscription.
type feed struct {
	c      *feature.Controller
	events <-chan feature.Event
}

// NewBook returns a Book backed by store.
func NewBook(store *Store, player feature.Player, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		store:  store,
		player: player,
		logger: logger,
		byID:   make(map[string]*feature.Controller),
	}
}

// Store returns the backing store.
func (b *Book) Store() *Store { return b.store }

// Add validates and stores a reminder, then arms it for date at hhmm.
// A missing date, time or recording fails with
// feature.ErrInvalidConfiguration and stores nothing.
func (b *Book) Add(ctx context.Context, now time.Time, date clock.Date, hhmm, note string, asset *audio.Asset) (Reminder, error) {
	if date.IsZero() {
		return Reminder{}, fmt.Errorf("%w: no date selected", feature.ErrInvalidConfiguration)
	}
	if strings.TrimSpace(hhmm) == "" {
		return Reminder{}, fmt.Errorf("%w: no time selected", feature.ErrInvalidConfiguration)
	}
	hour, minute, err := trigger.ParseClock(hhmm)
	if err != nil {
		return Reminder{}, err
	}
	if !asset.Valid() {
		return Reminder{}, fmt.Errorf("%w: no recording", feature.ErrInvalidConfiguration)
	}
	if date.At(hour, minute, now.Location()).Before(now.Truncate(time.Minute)) {
		return Reminder{}, fmt.Errorf("%w: %s %s has already passed", feature.ErrInvalidConfiguration, date, trigger.FormatClock(hour, minute))
	}

	r := Reminder{
		ID:        ulid.Make().String(),
		Date:      date,
		Time:      trigger.FormatClock(hour, minute),
		Note:      strings.TrimSpace(note),
		Asset:     asset,
		CreatedAt: now,
	}

	c := feature.New(feature.KindReminder, b.player, feature.Options{Name: r.ID, Logger: b.logger})
	events := c.Subscribe(8)
	if err := c.Arm(now, trigger.NewDated(date, hour, minute), asset); err != nil {
		c.Close()
		return Reminder{}, err
	}
	if err := b.store.Add(ctx, r); err != nil {
		c.Close()
		return Reminder{}, err
	}

	b.pending = append(b.pending, c)
	b.byID[r.ID] = c
	b.feeds = append(b.feeds, feed{c: c, events: events})
	b.logger.Info("reminder added", "id", r.ID, "date", r.Date.String(), "time", r.Time)
	return r, nil
}

// Tick evaluates every pending reminder in insertion order and returns the
// ones that fired.
func (b *Book) Tick(ctx context.Context, now time.Time) []feature.Event {
	var fired []feature.Event
	kept := b.pending[:0]
	for _, c := range b.pending {
		if ev, ok := c.Tick(ctx, now); ok {
			fired = append(fired, ev)
		}
		if c.Armed() {
			kept = append(kept, c)
		}
	}
	clear(b.pending[len(kept):])
	b.pending = kept
	return fired
}

// Drain returns the lifecycle events reminder controllers emitted since the
// last call, grouped per reminder in insertion order. Feeds of reminders
// that are no longer armed are closed once drained.
func (b *Book) Drain() []feature.Event {
	var out []feature.Event
	kept := b.feeds[:0]
	for _, f := range b.feeds {
	drain:
		for {
			select {
			case ev := <-f.events:
				out = append(out, ev)
			default:
				break drain
			}
		}
		if f.c.Armed() {
			kept = append(kept, f)
		} else {
			f.c.Close()
		}
	}
	clear(b.feeds[len(kept):])
	b.feeds = kept
	return out
}

// Pending returns the number of reminders still waiting to fire.
func (b *Book) Pending() int {
	return len(b.pending)
}

// IsPending reports whether reminder id has not fired yet.
func (b *Book) IsPending(id string) bool {
	c, ok := b.byID[id]
	return ok && c.Armed()
}

// ForDate returns the reminders whose date equals date, in insertion order.
func (b *Book) ForDate(ctx context.Context, date clock.Date) ([]Reminder, error) {
	return b.store.ForDate(ctx, date)
}

// Play replays a reminder's recording on demand.
func (b *Book) Play(ctx context.Context, id string) error {
	r, err := b.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("reminder %s not found", id)
	}
	if b.player == nil {
		return fmt.Errorf("%w: no player", audio.ErrPlaybackFailed)
	}
	return b.player.Play(ctx, r.Asset)
}

// Cancel disarms every pending reminder.
func (b *Book) Cancel(now time.Time) {
	for _, c := range b.pending {
		c.Disarm(now)
	}
	b.pending = nil
}
