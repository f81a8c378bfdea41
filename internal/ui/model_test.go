// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling, and render helpers
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // Control is optional for testing

	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.muted {
		t.Error("expected muted to be false initially")
	}
	if model.state != "starting" {
		t.Errorf("expected state 'starting', got %q", model.state)
	}
}

func TestStatusMsgStreamInfo(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		State:    "playing",
		Title:    "test.flac",
		Backend:  "oto",
		Format:   "float32",
		Rate:     48000,
		Surround: true,
		Speed:    1.0,
	})

	if model.state != "playing" {
		t.Errorf("expected state 'playing', got %q", model.state)
	}
	if model.title != "test.flac" {
		t.Errorf("expected title 'test.flac', got %q", model.title)
	}
	if model.backend != "oto" || model.format != "float32" || model.rate != 48000 {
		t.Errorf("stream info not applied: %q %q %d", model.backend, model.format, model.rate)
	}
	if !model.surround {
		t.Error("surround flag not applied")
	}
}

func TestStatusMsgStats(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		HasStats:   true,
		Submitted:  1000,
		Underruns:  3,
		ShortReads: 7,
		Downgraded: true,
	})

	if model.submitted != 1000 || model.underruns != 3 || model.shortReads != 7 {
		t.Errorf("stats not applied: %d %d %d", model.submitted, model.underruns, model.shortReads)
	}
	if !model.downgraded {
		t.Error("downgrade flag not applied")
	}
}

func TestPartialStatusRetainsPreviousValues(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{State: "playing", Title: "Song"})
	model.applyStatus(StatusMsg{HasStats: true, Submitted: 10})

	if model.title != "Song" {
		t.Error("previous title was lost")
	}
	if model.state != "playing" {
		t.Error("previous state was lost")
	}
	if model.submitted != 10 {
		t.Error("new stats not applied")
	}
}

func TestVolumeKeysSendControl(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	next, _ := model.handleKey(tea.KeyMsg{Type: tea.KeyUp})
	m := next.(Model)
	if m.volume != 100 {
		t.Errorf("volume up at max: got %d, want clamp at 100", m.volume)
	}
	<-ctrl.Volume // drain the clamped update

	next, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.volume != 95 {
		t.Errorf("volume = %d after down, want 95", m.volume)
	}
	select {
	case v := <-ctrl.Volume:
		if v != 95 {
			t.Errorf("control received volume %d, want 95", v)
		}
	default:
		t.Error("volume change not sent to control channel")
	}
}

func TestMuteKeyToggles(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	next, _ := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	m := next.(Model)
	if !m.muted {
		t.Error("mute key did not mute")
	}
	select {
	case muted := <-ctrl.Mute:
		if !muted {
			t.Error("control received unmute, want mute")
		}
	default:
		t.Error("mute not sent to control channel")
	}
}

func TestQuitKeySignalsAndQuits(t *testing.T) {
	ctrl := NewControl()
	model := NewModel(ctrl)

	_, cmd := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	select {
	case <-ctrl.Quit:
	default:
		t.Error("quit not signaled on control channel")
	}
}

func TestViewShowsStreamState(t *testing.T) {
	model := NewModel(nil)
	model.width = 80
	model.height = 24
	model.applyStatus(StatusMsg{
		State: "playing", Title: "song.wav", Backend: "oto",
		Format: "float32", Rate: 48000, Surround: true,
	})

	view := model.View()
	for _, want := range []string{"playing", "song.wav", "5.1", "48000"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(50, 100, 10); strings.Count(got, "█") != 5 {
		t.Errorf("renderBar(50) = %q, want half filled", got)
	}
	if got := renderBar(0, 100, 10); strings.Count(got, "█") != 0 {
		t.Errorf("renderBar(0) = %q, want empty", got)
	}
	if got := renderBar(100, 100, 10); strings.Count(got, "█") != 10 {
		t.Errorf("renderBar(100) = %q, want full", got)
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}
