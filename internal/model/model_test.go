package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDeriveBindings(t *testing.T) {
	overview := AgentsOverview{
		Agents: []Agent{
			{ID: "a1", Bindings: []Binding{{Channel: "stale", Agent: "a1"}}},
			{ID: "a2"},
			{ID: "a3"},
		},
		Bindings: []Binding{
			{Channel: "c1", Agent: "a1"},
			{Channel: "c2", Agent: "a2"},
			{Pattern: "^ops", Agent: "ghost"},
			{Pattern: "^help", Agent: "a1"},
		},
	}

	overview.DeriveBindings()

	want := map[string][]Binding{
		"a1": {{Channel: "c1", Agent: "a1"}, {Pattern: "^help", Agent: "a1"}},
		"a2": {{Channel: "c2", Agent: "a2"}},
		"a3": {},
	}

	for _, agent := range overview.Agents {
		if diff := cmp.Diff(want[agent.ID], agent.Bindings); diff != "" {
			t.Errorf("agent %s bindings mismatch (-want +got):\n%s", agent.ID, diff)
		}

		if agent.AllowAgents == nil {
			t.Errorf("agent %s AllowAgents is nil", agent.ID)
		}
	}
}

func TestDeriveBindings_TwoAgents(t *testing.T) {
	overview := AgentsOverview{
		Agents:   []Agent{{ID: "a1"}, {ID: "a2"}},
		Bindings: []Binding{{Channel: "c1", Agent: "a1"}, {Channel: "c2", Agent: "a2"}},
	}

	overview.DeriveBindings()

	want := []Binding{{Channel: "c1", Agent: "a1"}}
	if diff := cmp.Diff(want, overview.Agents[0].Bindings); diff != "" {
		t.Errorf("a1 bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveBindings_Empty(t *testing.T) {
	var overview AgentsOverview

	overview.DeriveBindings()

	if overview.Agents == nil || overview.Bindings == nil {
		t.Fatalf("DeriveBindings left nil slices: %+v", overview)
	}
}

func TestReconcileTokens(t *testing.T) {
	in, out, wrong := int64(120), int64(80), int64(999)

	tests := []struct {
		name    string
		session Session
		want    *int64
	}{
		{
			name:    "recomputes total",
			session: Session{InputTokens: &in, OutputTokens: &out, TotalTokens: &wrong},
			want:    ptr(int64(200)),
		},
		{
			name:    "fills missing total",
			session: Session{InputTokens: &in, OutputTokens: &out},
			want:    ptr(int64(200)),
		},
		{
			name:    "keeps total when parts unknown",
			session: Session{InputTokens: &in, TotalTokens: &wrong},
			want:    ptr(int64(999)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.session
			s.ReconcileTokens()

			if diff := cmp.Diff(tt.want, s.TotalTokens); diff != "" {
				t.Errorf("TotalTokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseJobStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   JobStatus
		wantOK bool
	}{
		{"success", JobStatusSuccess, true},
		{"ok", JobStatusSuccess, true},
		{"error", JobStatusError, true},
		{"failed", JobStatusError, true},
		{"skipped", JobStatusSkipped, true},
		{"running", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseJobStatus(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseJobStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBindingValid(t *testing.T) {
	tests := []struct {
		b    Binding
		want bool
	}{
		{Binding{Channel: "slack", Agent: "a"}, true},
		{Binding{Pattern: "x", Agent: "a"}, true},
		{Binding{Agent: "a"}, false},
		{Binding{Channel: "slack"}, false},
	}

	for _, tt := range tests {
		if got := tt.b.Valid(); got != tt.want {
			t.Errorf("%+v.Valid() = %v, want %v", tt.b, got, tt.want)
		}
	}
}

func ptr[T any](v T) *T { return &v }

func TestSession_UpdatedTime(t *testing.T) {
	if got := (Session{}).UpdatedTime(); !got.IsZero() {
		t.Errorf("unset UpdatedTime() = %v, want zero", got)
	}

	want := time.UnixMilli(1_700_000_000_000)
	if got := (Session{UpdatedAt: 1_700_000_000_000}).UpdatedTime(); !got.Equal(want) {
		t.Errorf("UpdatedTime() = %v, want %v", got, want)
	}
}
