package ui

import (
	"fmt"

	"github.com/trellis-pm/trellis/internal/model"
)

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue
	colorMuted   = 245 // medium gray
	colorUrgent  = 196 // red
	colorHigh    = 208 // orange
	colorMedium  = 178 // yellow
	colorDone    = 71  // green
	colorBlocked = 167 // soft red
)

var noColor bool

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderPriority colors a priority by urgency.
func RenderPriority(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return render(colorUrgent, string(p))
	case model.PriorityHigh:
		return render(colorHigh, string(p))
	case model.PriorityMedium:
		return render(colorMedium, string(p))
	default:
		return render(colorMuted, string(p))
	}
}

// RenderState colors a workflow state.
func RenderState(s model.IssueState) string {
	switch s {
	case model.StateCompleted:
		return render(colorDone, string(s))
	case model.StateCancelled:
		return render(colorMuted, string(s))
	case model.StateStarted:
		return render(colorAccent, string(s))
	default:
		return string(s)
	}
}

// RenderRelation colors a relation type; blocking edges stand out.
func RenderRelation(r model.RelationType) string {
	switch r {
	case model.RelBlocking, model.RelBlockedBy:
		return render(colorBlocked, string(r))
	default:
		return render(colorMuted, string(r))
	}
}
