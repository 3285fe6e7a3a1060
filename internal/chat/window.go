package chat

type WindowState int

const (
	WindowClosed WindowState = iota
	WindowCompact
	WindowExpanded
)

func (s WindowState) String() string {
	switch s {
	case WindowClosed:
		return "closed"
	case WindowCompact:
		return "open-compact"
	case WindowExpanded:
		return "open-expanded"
	default:
		return "unknown"
	}
}

func (s WindowState) IsOpen() bool {
	return s == WindowCompact || s == WindowExpanded
}

// Window transitions are pure: each returns the next state.
type Window struct {
	state WindowState
}

func (w Window) State() WindowState { return w.state }

func (w Window) Open() Window {
	if w.state == WindowClosed {
		w.state = WindowCompact
	}
	return w
}

// Close always resets expansion so the next Open starts compact.
func (w Window) Close() Window {
	w.state = WindowClosed
	return w
}

func (w Window) ToggleExpand() Window {
	switch w.state {
	case WindowCompact:
		w.state = WindowExpanded
	case WindowExpanded:
		w.state = WindowCompact
	}
	return w
}
