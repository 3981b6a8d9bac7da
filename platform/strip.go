package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"lautenbacher.net/jigleds/animation"
)

// ErrNotOwner is returned when a task writes to the strip while another
// task owns it. The frame is skipped; this is not a hardware fault.
var ErrNotOwner = errors.New("strip is owned by another task")

// Owner identifies the task allowed to drive the strip.
type Owner string

const (
	OwnerAnimation Owner = "animation"
	OwnerMode      Owner = "mode"
)

// Strip is the single handle to the LED hardware. Exactly one Owner may
// write at a time. HandOff and WriteFrame share one lock, so a handoff waits
// for the transfer in flight and frames of two owners never interleave.
type Strip struct {
	mu    sync.Mutex
	sink  FrameSink
	size  int
	owner Owner
}

func NewStrip(sink FrameSink, size int, owner Owner) *Strip {
	return &Strip{sink: sink, size: size, owner: owner}
}

// Size is the number of pixels on the strip.
func (s *Strip) Size() int {
	return s.size
}

// Owner returns the current owner.
func (s *Strip) Owner() Owner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// HandOff transfers ownership. It returns the previous owner.
func (s *Strip) HandOff(to Owner) Owner {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.owner
	s.owner = to
	if prev != to {
		slog.Debug("Strip ownership handed off", "from", prev, "to", to)
	}
	return prev
}

// WriteFrame sends frame on behalf of from. Sink errors come back wrapped in
// ErrHardwareFault.
func (s *Strip) WriteFrame(ctx context.Context, from Owner, frame animation.Frame, brightness uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from != s.owner {
		return fmt.Errorf("%s: %w (owner is %s)", from, ErrNotOwner, s.owner)
	}
	if len(frame) != s.size {
		return fmt.Errorf("%w: got %d, want %d", ErrFrameSize, len(frame), s.size)
	}
	if err := s.sink.WriteFrame(ctx, frame, brightness); err != nil {
		if errors.Is(err, ErrHardwareFault) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrHardwareFault, err)
	}
	return nil
}

// Off drives the strip dark.
func (s *Strip) Off(ctx context.Context, from Owner) error {
	return s.WriteFrame(ctx, from, animation.NewFrame(s.size), 0)
}

// White drives every pixel full white at brightness.
func (s *Strip) White(ctx context.Context, from Owner, brightness uint8) error {
	return s.WriteFrame(ctx, from, animation.SolidFrame(s.size, animation.White), brightness)
}
