// Package tasks persists per-user to-do lists on the shared kv capability.
// Lists live under todos:<userId> as a JSON array. There is no locking across
// concurrent writers for the same user; last write wins, same as the token
// store.
package tasks

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

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("tasks: storage unavailable")

// ErrNotFound is returned when a task id does not exist in a user's list.
var ErrNotFound = errors.New("tasks: task not found")

// Task is one to-do item.
type Task struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"createdAt"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
}

// Store persists Tasks on a kv.Store.
type Store struct {
	kv     kv.Store
	clock  func() time.Time
	logger *slog.Logger
}

// New creates a task store on top of the given kv backend.
func New(backend kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     backend,
		clock:  time.Now,
		logger: logger.With("component", "task-store"),
	}
}

// SetClock overrides the time source. Test hook.
func (s *Store) SetClock(clock func() time.Time) {
	s.clock = clock
}

func key(userID string) string {
	return "todos:" + userID
}

func (s *Store) load(ctx context.Context, userID string) ([]Task, error) {
	data, err := s.kv.Get(ctx, key(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var list []Task
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("parsing stored tasks: %w", err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, userID string, list []Task) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshaling tasks: %w", err)
	}
	if err := s.kv.Set(ctx, key(userID), string(data), 0); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// List returns the user's tasks, oldest first. Empty list when none exist.
func (s *Store) List(ctx context.Context, userID string) ([]Task, error) {
	return s.load(ctx, userID)
}

// Add appends a new uncompleted task and returns it.
func (s *Store) Add(ctx context.Context, userID, text string, due *time.Time) (*Task, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	task := Task{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: s.clock(),
		DueDate:   due,
	}
	list = append(list, task)

	if err := s.save(ctx, userID, list); err != nil {
		return nil, err
	}
	s.logger.Info("task added", "user_id", userID, "task_id", task.ID)
	return &task, nil
}

// Update patches a task's completed flag and/or text.
func (s *Store) Update(ctx context.Context, userID, taskID string, completed *bool, text *string) (*Task, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range list {
		if list[i].ID != taskID {
			continue
		}
		if completed != nil {
			list[i].Completed = *completed
		}
		if text != nil {
			list[i].Text = *text
		}
		if err := s.save(ctx, userID, list); err != nil {
			return nil, err
		}
		return &list[i], nil
	}
	return nil, ErrNotFound
}

// Delete removes a task from the user's list.
func (s *Store) Delete(ctx context.Context, userID, taskID string) error {
	list, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	for i := range list {
		if list[i].ID == taskID {
			list = append(list[:i], list[i+1:]...)
			return s.save(ctx, userID, list)
		}
	}
	return ErrNotFound
}

// DemoList is the fixed list shown when a user has no stored tasks yet.
// The mini-app expects a non-empty list for the "show my tasks" flow even
// before any real task exists.
func DemoList() []Task {
	return []Task{
		{ID: "1", Text: "Проверить квартальные отчеты", Completed: true},
		{ID: "2", Text: "Подготовить презентацию", Completed: false},
		{ID: "3", Text: "Позвонить в страховую", Completed: false},
		{ID: "4", Text: "Купить продукты", Completed: false},
	}
}
