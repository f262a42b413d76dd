package reminders

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/martinhq/martin/pkg/martin/kv"
)

type recordingNotifier struct {
	delivered []string
	fail      bool
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, text string) error {
	if n.fail {
		return errors.New("channel down")
	}
	n.delivered = append(n.delivered, userID+": "+text)
	return nil
}

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(kv.NewMemory(), slog.New(slog.DiscardHandler))
}

func TestFireDueDeliversAndRemoves(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	if _, err := s.Schedule(ctx, "u1", "позвонить врачу", now.Add(-time.Minute)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if _, err := s.Schedule(ctx, "u1", "встреча", now.Add(time.Hour)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	n := &recordingNotifier{}
	if err := s.FireDue(ctx, n); err != nil {
		t.Fatalf("FireDue: %v", err)
	}
	if len(n.delivered) != 1 || n.delivered[0] != "u1: позвонить врачу" {
		t.Errorf("delivered = %v", n.delivered)
	}

	pending, err := s.ListPending(ctx, "u1")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].Text != "встреча" {
		t.Errorf("pending = %+v", pending)
	}
}

func TestFireDueKeepsReminderOnDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	if _, err := s.Schedule(ctx, "u1", "важное", now.Add(-time.Minute)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if err := s.FireDue(ctx, &recordingNotifier{fail: true}); err != nil {
		t.Fatalf("FireDue: %v", err)
	}
	pending, _ := s.ListPending(ctx, "u1")
	if len(pending) != 1 {
		t.Errorf("reminder dropped despite failed delivery: %+v", pending)
	}
}

func TestListPendingIsPerUser(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	at := time.Now().Add(time.Hour)

	s.Schedule(ctx, "u1", "a", at)
	s.Schedule(ctx, "u2", "b", at)

	pending, _ := s.ListPending(ctx, "u1")
	if len(pending) != 1 || pending[0].Text != "a" {
		t.Errorf("pending = %+v", pending)
	}
}
