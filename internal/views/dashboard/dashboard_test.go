package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/como-monitor/como/internal/client"
	"github.com/como-monitor/como/internal/source"
)

func states() []*client.SourceState {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	return []*client.SourceState{
		{Snapshot: source.Snapshot{Name: "alpha", TypeName: "counter", Value: source.IntValue(42), Timestamp: ts}},
		{Snapshot: source.Snapshot{Name: "beta", TypeName: "gauge", Value: source.DoubleValue(1.5), Timestamp: ts}, Updates: 3},
		{Snapshot: source.Snapshot{Name: "gamma", TypeName: "counter", Value: source.IntValue(7)}},
	}
}

func TestViewEmpty(t *testing.T) {
	m := New()
	v := m.View()
	if !strings.Contains(v, "No sources") {
		t.Errorf("expected empty message, got:\n%s", v)
	}
	if m.Selected() != nil {
		t.Error("expected no selection on empty table")
	}
}

func TestViewRows(t *testing.T) {
	m := New()
	m.SetSize(140, 20)
	m.SetSources(states())

	v := m.View()
	for _, want := range []string{"alpha", "beta", "gauge", "42", "1.5", "2024-05-01T12:00:00.000000", "Sources: 3", "int: 2", "double: 1"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}

func TestSelection(t *testing.T) {
	m := New()
	m.SetSize(140, 20)
	m.SetSources(states())

	if got := m.Selected().Snapshot.Name; got != "alpha" {
		t.Fatalf("expected alpha selected, got %q", got)
	}
	m.MoveDown(1)
	if got := m.Selected().Snapshot.Name; got != "beta" {
		t.Fatalf("expected beta selected, got %q", got)
	}
	m.MoveDown(5)
	if got := m.Selected().Snapshot.Name; got != "gamma" {
		t.Fatalf("expected cursor clamped to gamma, got %q", got)
	}

	m.SetSources(states()[:1])
	if got := m.Selected().Snapshot.Name; got != "alpha" {
		t.Fatalf("expected cursor clamped after shrink, got %q", got)
	}
}
