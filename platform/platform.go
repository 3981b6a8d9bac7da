package platform

import (
	"context"
	"errors"
	"time"

	"lautenbacher.net/jigleds/animation"
)

var (
	// ErrHardwareFault marks a failure of the strip or display hardware. It
	// is fatal for whoever drives the strip.
	ErrHardwareFault = errors.New("hardware fault")
	// ErrFrameSize is returned when a frame does not match the strip length.
	ErrFrameSize = errors.New("frame size does not match strip length")
)

// FrameSink transfers a full frame to the strip. Gamma correction and the
// global brightness are applied by the sink. The caller must not touch the
// frame until WriteFrame returns. Any error is a hardware fault.
type FrameSink interface {
	WriteFrame(ctx context.Context, frame animation.Frame, brightness uint8) error
}

// Display shows status text on the monochrome display.
type Display interface {
	ShowText(text string) error
}

// EdgeSource delivers level changes of the button input.
type EdgeSource interface {
	Edges() <-chan Edge
}

// Indicator is the small LED next to the button.
type Indicator interface {
	SetIndicator(on bool)
}

// Platform abstracts away the real hardware from the TUI simulation.
type Platform interface {
	FrameSink
	Display
	EdgeSource
	Indicator

	// Start initializes the platform (e.g., opens GPIO/SPI, or starts the TUI).
	Start() error
	// Stop cleans up all platform resources.
	Stop()
	// Ready is closed once the platform can be used.
	Ready() <-chan bool
	// GetLedsTotal is the strip length.
	GetLedsTotal() int
}

// Level of the button input. The button pulls the line low when pressed.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Edge is a level change of an input at a point in time.
type Edge struct {
	ID        string
	Level     Level
	Timestamp time.Time
}

// NewEdge creates a new Edge instance.
func NewEdge(id string, level Level, ts time.Time) Edge {
	return Edge{ID: id, Level: level, Timestamp: ts}
}
