package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"    _         _              _ _       _   ", "#818cf8"},
		{"   / \\  _   _| |_ ___  _ __ (_) | ___ | |_ ", "#a78bfa"},
		{"  / _ \\| | | | __/ _ \\| '_ \\| | |/ _ \\| __|", "#c084fc"},
		{" / ___ \\ |_| | || (_) | |_) | | | (_) | |_ ", "#e879f9"},
		{"/_/   \\_\\__,_|\\__\\___/| .__/|_|_|\\___/ \\__|", "#f472b6"},
		{"                     |_|                   ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// StatusLine formats a scheduler status with the state colored.
func StatusLine(s domain.Status) string {
	p := termenv.ColorProfile()
	state := termenv.String(string(s.State))
	if s.State == domain.StateRunning {
		state = state.Foreground(p.Color("#22c55e")).Bold()
	} else {
		state = state.Foreground(p.Color("#94a3b8"))
	}
	line := fmt.Sprintf("%s: %s (pending %d)", s.Task, state, s.Pending)
	if s.Current != "" {
		line += " at " + s.Current
	}
	if s.RunID != "" {
		line += " run " + s.RunID
	}
	return line
}
