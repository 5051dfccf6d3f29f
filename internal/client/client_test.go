package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/musher-dev/clawdash/internal/gateway"
	"github.com/musher-dev/clawdash/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(server.URL + "/")
}

func TestNew(t *testing.T) {
	if got := New("").BaseURL(); got != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", got, DefaultBaseURL)
	}

	if got := New("http://example.test:3001/").BaseURL(); got != "http://example.test:3001" {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", got)
	}
}

func TestClient_ListSessions(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		want     []model.Session
		wantKind gateway.ErrorKind
	}{
		{
			name: "ok",
			body: `{"sessions":[{"key":"agent:main:main","updatedAt":10}]}`,
			want: []model.Session{{Key: "agent:main:main", UpdatedAt: 10}},
		},
		{
			name:     "degraded",
			body:     `{"sessions":[],"degraded":"invocation"}`,
			want:     []model.Session{},
			wantKind: gateway.KindInvocation,
		},
		{
			name: "null collection",
			body: `{"sessions":null}`,
			want: []model.Session{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/api/sessions/list" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}

				_, _ = io.WriteString(w, tt.body)
			})

			got, err := c.ListSessions(t.Context())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("sessions mismatch (-want +got):\n%s", diff)
			}

			if kind := gateway.KindOf(err); kind != tt.wantKind {
				t.Errorf("KindOf(err) = %q, want %q (err %v)", kind, tt.wantKind, err)
			}

			if tt.wantKind == "" && err != nil {
				t.Errorf("ListSessions() error = %v", err)
			}
		})
	}
}

func TestClient_ListJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"jobs":[{"id":"j1","name":"nightly","enabled":false,"schedule":{"kind":"every","everyMs":60000}}]}`)
	})

	got, err := c.ListJobs(t.Context())
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}

	want := []model.ScheduledJob{{ID: "j1", Name: "nightly", Schedule: model.Schedule{Kind: "every", EveryMs: 60000}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_AgentsOverview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"agents":null,"bindings":null,"degraded":"config-read"}`)
	})

	got, err := c.AgentsOverview(t.Context())
	if gateway.KindOf(err) != gateway.KindConfigRead {
		t.Fatalf("AgentsOverview() error = %v, want config-read", err)
	}

	if diff := cmp.Diff(model.EmptyOverview(), got); diff != "" {
		t.Errorf("overview mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Status(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"gateway":{"running":true,"pid":4242},"memory":{"rss":1,"heapUsed":2,"heapTotal":3}}`)
	})

	got, err := c.Status(t.Context())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	want := &model.SystemStatus{
		Gateway: model.GatewayStatus{Running: true, PID: 4242},
		Memory:  &model.MemoryStats{RSS: 1, HeapUsed: 2, HeapTotal: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_UpdateJob(t *testing.T) {
	var gotPatch map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/cron/update/nightly" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}

		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotPatch); err != nil {
			t.Errorf("decode patch: %v", err)
		}

		_, _ = io.WriteString(w, `{"success":true}`)
	})

	ok, err := c.UpdateJob(t.Context(), "nightly", model.EnablePatch(false))
	if err != nil || !ok {
		t.Fatalf("UpdateJob() = %v, %v; want true, nil", ok, err)
	}

	if diff := cmp.Diff(map[string]any{"enabled": false}, gotPatch); diff != "" {
		t.Errorf("patch mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_RunJob(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cron/run/nightly" {
			t.Errorf("path = %q", r.URL.Path)
		}

		_, _ = io.WriteString(w, `{"success":false}`)
	})

	ok, err := c.RunJob(t.Context(), "nightly")
	if err != nil {
		t.Fatalf("RunJob() error = %v", err)
	}

	if ok {
		t.Error("RunJob() = true, want false")
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "json error", status: http.StatusBadRequest, body: `{"error":"invalid job id"}`, wantMessage: "invalid job id"},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down\n", wantMessage: "upstream down"},
		{name: "empty body", status: http.StatusNotFound, wantMessage: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.RunJob(t.Context(), "nightly")

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("RunJob() error = %v, want *StatusError", err)
			}

			if statusErr.StatusCode != tt.status || statusErr.Message != tt.wantMessage {
				t.Errorf("StatusError = %+v, want status %d message %q", statusErr, tt.status, tt.wantMessage)
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := New(url)

	sessions, err := c.ListSessions(t.Context())
	if err == nil {
		t.Fatal("ListSessions() error = nil, want transport error")
	}

	if sessions == nil || len(sessions) != 0 {
		t.Errorf("sessions = %v, want empty non-nil", sessions)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("transport failure reported as StatusError: %v", err)
	}
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}

		_, _ = io.WriteString(w, `{"status":"ok","timestamp":"2026-03-01T12:00:00Z"}`)
	})

	got, err := c.Health(t.Context())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	if got.Status != "ok" {
		t.Errorf("Status = %q, want ok", got.Status)
	}
}
