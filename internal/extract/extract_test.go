package extract

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "clean object",
			input: `{"sessions":[]}`,
			want:  `{"sessions":[]}`,
		},
		{
			name:  "leading banner",
			input: "clawdbot v2.1.0\nWarning: config deprecated\n{\"count\":2}",
			want:  `{"count":2}`,
		},
		{
			name:  "trailing text",
			input: "{\"ok\":true}\nDone in 0.3s",
			want:  `{"ok":true}`,
		},
		{
			name:  "nested braces",
			input: `noise {"a":{"b":"}"}}`,
			want:  `{"a":{"b":"}"}}`,
		},
		{
			name:    "no brace",
			input:   "nothing to see here",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "brace in noise then invalid",
			input:   "progress {50%} {\"jobs\":[]}",
			wantErr: true,
		},
		{
			name:    "truncated",
			input:   `{"jobs":[`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Object([]byte(tt.input))

			if tt.wantErr {
				if !errors.Is(err, ErrNoData) {
					t.Fatalf("error = %v, want ErrNoData", err)
				}

				if got != nil {
					t.Errorf("got = %s, want nil", got)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if string(got) != tt.want {
				t.Errorf("Object() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInto(t *testing.T) {
	type payload struct {
		Count int      `json:"count"`
		Names []string `json:"names"`
	}

	var got payload
	if err := Into([]byte("[info] loading\n{\"count\":2,\"names\":[\"a\",\"b\"]}"), &got); err != nil {
		t.Fatalf("Into() error = %v", err)
	}

	want := payload{Count: 2, Names: []string{"a", "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Into() mismatch (-want +got):\n%s", diff)
	}
}

func TestInto_TypeMismatch(t *testing.T) {
	var got struct {
		Count int `json:"count"`
	}

	err := Into([]byte(`{"count":"two"}`), &got)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("error = %v, want ErrNoData", err)
	}
}
