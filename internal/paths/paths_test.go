package paths

import (
	"path/filepath"
	"testing"
)

func TestConfigRoot_UsesXDGConfigHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	got, err := ConfigRoot()
	if err != nil {
		t.Fatalf("ConfigRoot() error = %v", err)
	}

	want := filepath.Join(tmp, "clawdash")
	if got != want {
		t.Fatalf("ConfigRoot() = %q, want %q", got, want)
	}
}

func TestConfigRoot_IgnoresRelativeXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "relative/dir")

	got, err := ConfigRoot()
	if err != nil {
		t.Fatalf("ConfigRoot() error = %v", err)
	}

	if filepath.Base(got) != "clawdash" || !filepath.IsAbs(got) {
		t.Fatalf("ConfigRoot() = %q, want absolute clawdash dir", got)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := t.TempDir()
	state := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfg)
	t.Setenv("XDG_STATE_HOME", state)

	logFile, err := DefaultLogFile()
	if err != nil {
		t.Fatalf("DefaultLogFile() error = %v", err)
	}

	wantLog := filepath.Join(state, "clawdash", "logs", "clawdash.log")
	if logFile != wantLog {
		t.Fatalf("DefaultLogFile() = %q, want %q", logFile, wantLog)
	}

	configFile, err := ConfigFile()
	if err != nil {
		t.Fatalf("ConfigFile() error = %v", err)
	}

	wantConfig := filepath.Join(cfg, "clawdash", "config.yaml")
	if configFile != wantConfig {
		t.Fatalf("ConfigFile() = %q, want %q", configFile, wantConfig)
	}
}

func TestGatewayPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := DefaultGatewayConfigDir()
	if err != nil {
		t.Fatalf("DefaultGatewayConfigDir() error = %v", err)
	}

	if want := filepath.Join(home, ".clawdbot"); dir != want {
		t.Fatalf("DefaultGatewayConfigDir() = %q, want %q", dir, want)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/.clawdbot", filepath.Join(home, ".clawdbot")},
		{"/etc/clawdbot", "/etc/clawdbot"},
		{"~other/x", "~other/x"},
	}

	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
