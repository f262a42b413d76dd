// Package reminders schedules one-shot reminders and delivers them when
// due. Pending reminders live in the kv store so they survive restarts
// when Redis backs it.
package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/martinhq/martin/pkg/martin/kv"
)

const pendingKey = "reminders:pending"

// Reminder is one scheduled notification.
type Reminder struct {
	ID     string    `json:"id"`
	UserID string    `json:"userId"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// Notifier delivers a due reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, userID, text string) error
}

// LogNotifier writes due reminders to the log. Stands in until a real
// push channel (Telegram bot message) is wired.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, userID, text string) error {
	n.Logger.Info("reminder due", "user_id", userID, "text", text)
	return nil
}

// Store keeps pending reminders in a kv backend.
type Store struct {
	kv     kv.Store
	clock  func() time.Time
	logger *slog.Logger
}

// New creates a reminder store on backend.
func New(backend kv.Store, logger *slog.Logger) *Store {
	return &Store{kv: backend, clock: time.Now, logger: logger}
}

// SetClock overrides the time source. Test hook.
func (s *Store) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *Store) load(ctx context.Context) ([]Reminder, error) {
	raw, err := s.kv.Get(ctx, pendingKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading reminders: %w", err)
	}
	var list []Reminder
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decoding reminders: %w", err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []Reminder) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding reminders: %w", err)
	}
	if err := s.kv.Set(ctx, pendingKey, string(raw), 0); err != nil {
		return fmt.Errorf("saving reminders: %w", err)
	}
	return nil
}

// Schedule registers a reminder for the user at the given time.
func (s *Store) Schedule(ctx context.Context, userID, text string, at time.Time) (*Reminder, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	r := Reminder{
		ID:     uuid.NewString(),
		UserID: userID,
		Text:   text,
		At:     at,
	}
	list = append(list, r)
	if err := s.save(ctx, list); err != nil {
		return nil, err
	}
	s.logger.Info("reminder scheduled", "user_id", userID, "at", at)
	return &r, nil
}

// ListPending returns the user's reminders that have not fired yet.
func (s *Store) ListPending(ctx context.Context, userID string) ([]Reminder, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Reminder
	for _, r := range list {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// FireDue delivers every reminder whose time has passed and removes it
// from the pending set. Delivery failures keep the reminder pending for
// the next sweep.
func (s *Store) FireDue(ctx context.Context, notifier Notifier) error {
	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	now := s.clock()

	var remaining []Reminder
	for _, r := range list {
		if r.At.After(now) {
			remaining = append(remaining, r)
			continue
		}
		if err := notifier.Notify(ctx, r.UserID, r.Text); err != nil {
			s.logger.Warn("reminder delivery failed, will retry",
				"user_id", r.UserID, "error", err)
			remaining = append(remaining, r)
		}
	}
	if len(remaining) == len(list) {
		return nil
	}
	return s.save(ctx, remaining)
}
