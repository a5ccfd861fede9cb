package boot

import (
	"fmt"

	"github.com/desertthunder/secondbrain/internal/auth"
)

// ProgressUpdate represents a progress event while the session is resolved.
type ProgressUpdate struct {
	Phase    Phase   // Loading phase
	Progress float64 // Percentage shown on the bar
	Message  string  // Human-readable message for display
	Data     any     // TimeoutOptions when timed out, auth.State when done
}

// Loading phase enumeration
type Phase int

const (
	Checking Phase = iota
	SlowConnection
	TimedOut
	Authenticated
	Anonymous
)

func (p Phase) String() string {
	switch p {
	case Checking:
		return "checking"
	case SlowConnection:
		return "slow_connection"
	case TimedOut:
		return "timed_out"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return ""
	}
}

// Action is a choice offered when loading times out.
type Action string

const (
	ActionRetry Action = "retry"
	ActionLogin Action = "login"
	ActionGuest Action = "guest"
)

// Path is where the action navigates. Retry stays on the current page.
func (a Action) Path() string {
	switch a {
	case ActionLogin:
		return "/login"
	case ActionGuest:
		return "/home"
	default:
		return ""
	}
}

// TimeoutOptions accompanies a [TimedOut] update.
type TimeoutOptions struct {
	Title   string
	Message string
	Actions []Action
}

func checkingUpdate(pct float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Checking,
		Progress: pct,
		Message:  fmt.Sprintf("Checking session... %.0f%%", pct),
	}
}

func slowUpdate(pct float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:    SlowConnection,
		Progress: pct,
		Message:  "This is taking longer than usual. Still connecting...",
	}
}

// TimedOutUpdate is the update sent when loading times out, carrying [TimeoutOptions].
func TimedOutUpdate(pct float64, env auth.Environment) ProgressUpdate {
	msg := "The connection is taking longer than usual. Please try one of the options below."
	if env.Sandboxed {
		msg = "Sandboxed environments can be slower to initialize. You can retry or continue browsing."
	}
	return ProgressUpdate{
		Phase:    TimedOut,
		Progress: pct,
		Message:  "Connection Taking Longer Than Expected",
		Data: TimeoutOptions{
			Title:   "Connection Taking Longer Than Expected",
			Message: msg,
			Actions: []Action{ActionRetry, ActionLogin, ActionGuest},
		},
	}
}

// CompleteUpdate is the final update for a resolved state.
func CompleteUpdate(state auth.State) ProgressUpdate {
	if state.Authenticated {
		name := ""
		if state.User != nil {
			name = state.User.Email
		}
		return ProgressUpdate{Phase: Authenticated, Progress: 100, Message: fmt.Sprintf("Signed in as %s", name), Data: state}
	}
	return ProgressUpdate{Phase: Anonymous, Progress: 100, Message: "Not signed in", Data: state}
}
