package terminal

import "testing"

func TestInfo_Capabilities(t *testing.T) {
	tests := []struct {
		name      string
		info      Info
		color     bool
		spinners  bool
		dashboard bool
	}{
		{"tty", Info{IsTTY: true, StdinTTY: true}, true, true, true},
		{"no color", Info{IsTTY: true, StdinTTY: true, NoColor: true}, false, false, true},
		{"forced off", Info{IsTTY: true, StdinTTY: true, ForceFlag: true}, false, true, true},
		{"piped stdout", Info{StdinTTY: true}, false, false, false},
		{"piped stdin", Info{IsTTY: true}, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TERM", "xterm-256color")

			if got := tt.info.ColorEnabled(); got != tt.color {
				t.Errorf("ColorEnabled() = %v, want %v", got, tt.color)
			}

			if got := tt.info.SpinnersEnabled(); got != tt.spinners {
				t.Errorf("SpinnersEnabled() = %v, want %v", got, tt.spinners)
			}

			if got := tt.info.DashboardEnabled(); got != tt.dashboard {
				t.Errorf("DashboardEnabled() = %v, want %v", got, tt.dashboard)
			}
		})
	}
}

func TestDetect_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if info := Detect(); !info.NoColor {
		t.Error("Detect() ignored NO_COLOR")
	}
}

func TestDetect_DumbTerminal(t *testing.T) {
	t.Setenv("TERM", "dumb")

	info := Detect()
	if !info.NoColor {
		t.Error("Detect() with TERM=dumb should disable color")
	}

	info.IsTTY, info.StdinTTY = true, true
	if info.DashboardEnabled() {
		t.Error("DashboardEnabled() with TERM=dumb = true")
	}
}
