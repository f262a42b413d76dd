package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/martinhq/martin/pkg/martin/kv"
)

func TestAddListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), nil)

	list, err := store.List(ctx, "u")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d items", len(list))
	}

	task, err := store.Add(ctx, "u", "купить молоко", nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if task.ID == "" {
		t.Error("task should get an id")
	}
	if task.Completed {
		t.Error("new task must not be completed")
	}

	list, err = store.List(ctx, "u")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Text != "купить молоко" {
		t.Fatalf("unexpected list: %+v", list)
	}

	done := true
	updated, err := store.Update(ctx, "u", task.ID, &done, nil)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.Completed {
		t.Error("task should be completed after update")
	}

	if _, err := store.Update(ctx, "u", "nope", &done, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Delete(ctx, "u", task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "u", task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListsAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), nil)

	if _, err := store.Add(ctx, "alice", "a", nil); err != nil {
		t.Fatal(err)
	}

	list, err := store.List(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("bob should have no tasks, got %d", len(list))
	}
}

func TestDemoList(t *testing.T) {
	demo := DemoList()
	if len(demo) == 0 {
		t.Fatal("demo list must not be empty")
	}
	if !demo[0].Completed {
		t.Error("first demo task is completed in the fixture")
	}
}
