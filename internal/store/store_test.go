package store

import (
	"context"
	"errors"
	"kidcode/internal/engine"
	"kidcode/internal/event"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "sqlite3:" + filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(context.Background(), dsn, nil)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", dsn, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		input      string
		wantDriver string
		wantSource string
		wantErr    bool
	}{
		{"sqlite3:runs.db", "sqlite3", "runs.db", false},
		{"sqlite3::memory:", "sqlite3", ":memory:", false},
		{"mysql:user:pw@tcp(localhost:3306)/kidcode", "mysql", "user:pw@tcp(localhost:3306)/kidcode", false},
		{"postgres:whatever", "", "", true},
		{"runs.db", "", "", true},
		{"sqlite3:", "", "", true},
	}

	for _, tt := range tests {
		driver, source, err := ParseDSN(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDSN(%q) expected an error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDSN(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if driver != tt.wantDriver || source != tt.wantSource {
			t.Errorf("ParseDSN(%q) = (%q, %q), want (%q, %q)", tt.input, driver, source, tt.wantDriver, tt.wantSource)
		}
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	result := engine.New(engine.DefaultOptions()).Run(ctx, "move forward 10\nsay \"hi\"\nsay 1 / 0")
	if err := s.SaveRun(ctx, result); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	run, err := s.LoadRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if run.ID != result.RunID || run.Source != result.Source || run.Status != result.Status {
		t.Errorf("run header mismatch: got %+v", run)
	}
	if !run.StartedAt.Equal(result.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, result.StartedAt)
	}
	if len(run.Events) != len(result.Events) {
		t.Fatalf("got %d events, want %d", len(run.Events), len(result.Events))
	}
	for i := range run.Events {
		if run.Events[i] != result.Events[i] {
			t.Errorf("event %d = %v, want %v", i, run.Events[i], result.Events[i])
		}
	}
	if _, ok := run.Events[len(run.Events)-1].(event.ErrorEvent); !ok {
		t.Errorf("last event should be an error, got %T", run.Events[len(run.Events)-1])
	}
}

func TestLoadMissingRun(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadRun(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRunTwiceFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	result := engine.New(engine.DefaultOptions()).Run(ctx, "say 1")
	if err := s.SaveRun(ctx, result); err != nil {
		t.Fatalf("first SaveRun failed: %v", err)
	}
	if err := s.SaveRun(ctx, result); err == nil {
		t.Fatal("expected duplicate run id to be rejected")
	}

	run, err := s.LoadRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if len(run.Events) != len(result.Events) {
		t.Errorf("rolled back insert left %d events, want %d", len(run.Events), len(result.Events))
	}
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		result := &engine.Result{
			RunID:      id,
			Source:     "say 1",
			Status:     engine.StatusCompleted,
			Events:     make([]event.Event, i+1),
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}
		for j := range result.Events {
			result.Events[j] = event.SayEvent{Message: "x"}
		}
		if err := s.SaveRun(ctx, result); err != nil {
			t.Fatalf("SaveRun(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "third" || runs[0].EventCount != 3 {
		t.Errorf("runs[0] = %+v, want third with 3 events", runs[0])
	}
	if runs[1].ID != "second" || runs[1].EventCount != 2 {
		t.Errorf("runs[1] = %+v, want second with 2 events", runs[1])
	}
}
