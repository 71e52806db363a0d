package engine

import "github.com/justyntemme/cityaudio/pkg/settings"

// UIKind is a discrete interface action that makes a sound.
type UIKind int

const (
	ToolUsed UIKind = iota
	Notification
	MenuNavigate
	Achievement

	// UIKindCount is the number of UI kinds.
	UIKindCount
)

var uiBanks = [UIKindCount]string{"ui/tool", "ui/notification", "ui/menu", "ui/achievement"}

// String returns the kind's bank name.
func (k UIKind) String() string {
	if k < 0 || k >= UIKindCount {
		return "ui/unknown"
	}
	return uiBanks[k]
}

// Importance grades a notification.
type Importance int

const (
	Minor Importance = iota
	Important
	Critical
)

// UIEvent is one trigger from the interface.
type UIEvent struct {
	Kind       UIKind
	Importance Importance
}

// Audible reports whether the event passes the user's notification
// verbosity. Tool and menu sounds are never filtered.
func (ev UIEvent) Audible(v settings.Verbosity) bool {
	switch ev.Kind {
	case Notification, Achievement:
	default:
		return true
	}
	switch v {
	case settings.Important:
		return ev.Importance >= Important
	case settings.CriticalOnly:
		return ev.Importance >= Critical
	}
	return true
}
