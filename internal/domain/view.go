package domain

// View identifies which screen of the session front end is active.
type View int

const (
	ViewHome View = iota
	ViewPlayer
	ViewTimer
)

// String returns the view identifier used in logs and JSON.
func (v View) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewPlayer:
		return "player"
	case ViewTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// Label returns a human-readable label.
func (v View) Label() string {
	switch v {
	case ViewHome:
		return "Home"
	case ViewPlayer:
		return "Player"
	case ViewTimer:
		return "Timer"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
