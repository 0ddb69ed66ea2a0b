package playback

// DefaultWindow is the number of samples drawn per frame.
const DefaultWindow = 200

// DefaultStep is how many samples the window scrolls per tick.
const DefaultStep = 2

// Geometry fixes the relation between a signal and its visible window.
type Geometry struct {
	SignalLen int `json:"signal_len"`
	WindowLen int `json:"window_len"`
}

// NewGeometry clamps the window to the signal length.
func NewGeometry(signalLen, window int) Geometry {
	if signalLen < 0 {
		signalLen = 0
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if window > signalLen {
		window = signalLen
	}
	return Geometry{SignalLen: signalLen, WindowLen: window}
}

// Span is the number of distinct window start positions the scroll cycles through.
func (g Geometry) Span() int {
	if g.SignalLen <= g.WindowLen {
		return 0
	}
	return g.SignalLen - g.WindowLen
}

// State is the transport state of one renderer: Paused or Playing plus the
// scroll offset. The zero value is Paused at offset 0.
type State struct {
	Playing bool `json:"playing"`
	Offset  int  `json:"offset"`
}

// Mode names the current state for display and logs.
func (s State) Mode() string {
	if s.Playing {
		return "playing"
	}
	return "paused"
}

// Toggle flips Paused and Playing; the offset is kept.
func (s State) Toggle() State {
	s.Playing = !s.Playing
	return s
}

// Play enters Playing.
func (s State) Play() State {
	s.Playing = true
	return s
}

// Pause enters Paused.
func (s State) Pause() State {
	s.Playing = false
	return s
}

// Reset rewinds to offset 0 without changing Playing.
func (s State) Reset() State {
	s.Offset = 0
	return s
}

// Advance scrolls by step while Playing. Paused states are returned unchanged.
func (s State) Advance(g Geometry, step int) State {
	if !s.Playing {
		return s
	}
	span := g.Span()
	if span == 0 {
		s.Offset = 0
		return s
	}
	s.Offset = mod(s.Offset+step, span)
	return s
}

// Clamp brings an offset restored from elsewhere back into [0, Span).
func (s State) Clamp(g Geometry) State {
	span := g.Span()
	if span == 0 {
		s.Offset = 0
		return s
	}
	s.Offset = mod(s.Offset, span)
	return s
}

// WindowStart is the first sample drawn: the offset while Playing, 0 while Paused.
func (s State) WindowStart(g Geometry) int {
	if !s.Playing {
		return 0
	}
	span := g.Span()
	if span == 0 {
		return 0
	}
	return mod(s.Offset, span)
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
