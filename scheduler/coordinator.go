// Package scheduler decides, on every animation tick, what the strip shows
// while the fixture is in animation mode.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lautenbacher.net/jigleds/animation"
	c "lautenbacher.net/jigleds/config"
	"lautenbacher.net/jigleds/platform"
)

// ErrHalted is returned to senders once the coordinator stopped after a
// hardware fault.
var ErrHalted = errors.New("animation coordinator halted after hardware fault")

// Status is a snapshot of the coordinator state.
type Status struct {
	Running    bool
	Torch      bool
	Brightness uint8
	Current    string
	Pending    int
}

// Coordinator owns the current animation, the pending queue and the
// running and torch flags. All of it is touched only by the Run goroutine;
// everybody else talks to it through commands.
type Coordinator struct {
	strip    *platform.Strip
	display  platform.Display
	interval time.Duration
	ticks    <-chan time.Time
	commands chan Command

	current    animation.Animation
	queue      *Queue
	running    bool
	torch      bool
	brightness uint8
	cleared    bool

	faultMu sync.Mutex
	fault   error
	halted  chan struct{}
}

type Option func(*Coordinator)

// WithTicks replaces the internal ticker, e.g. to step the coordinator
// from a test.
func WithTicks(ticks <-chan time.Time) Option {
	return func(co *Coordinator) { co.ticks = ticks }
}

// WithDefault replaces the animation the coordinator starts with.
func WithDefault(a animation.Animation) Option {
	return func(co *Coordinator) { co.current = a }
}

func NewCoordinator(conf c.AnimationConfig, strip *platform.Strip, display platform.Display, opts ...Option) *Coordinator {
	co := &Coordinator{
		strip:      strip,
		display:    display,
		interval:   conf.UpdateInterval,
		commands:   make(chan Command, conf.CommandQueueSize),
		queue:      NewQueue(conf.QueueSize),
		running:    true,
		brightness: uint8(conf.Brightness),
		halted:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(co)
	}
	if co.current == nil {
		co.current = animation.NewSparkle(animation.LedFromRGB(conf.DefaultRGB), strip.Size(), animation.WithTTL(conf.DefaultTTL))
	}
	return co
}

// Send validates cmd and queues it. It blocks while the command channel is
// full.
func (co *Coordinator) Send(ctx context.Context, cmd Command) error {
	if err := Validate(cmd); err != nil {
		slog.Warn("Rejecting command", "command", fmt.Sprintf("%T", cmd), "error", err)
		return err
	}
	select {
	case <-co.halted:
		return ErrHalted
	default:
	}
	select {
	case co.commands <- cmd:
		return nil
	case <-co.halted:
		return ErrHalted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue queues an animation and waits until the coordinator accepted or
// rejected it. A full queue yields ErrQueueFull.
func (co *Coordinator) Enqueue(ctx context.Context, a animation.Animation) error {
	result := make(chan error, 1)
	if err := co.Send(ctx, Play{Animation: a, result: result}); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-co.halted:
		return ErrHalted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query returns a snapshot taken between two events.
func (co *Coordinator) Query(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if err := co.Send(ctx, query{reply: reply}); err != nil {
		return Status{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-co.halted:
		return Status{}, ErrHalted
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Fault is the hardware fault that halted the coordinator, if any.
func (co *Coordinator) Fault() error {
	co.faultMu.Lock()
	defer co.faultMu.Unlock()
	return co.fault
}

// Halted is closed once the coordinator stopped after a fault.
func (co *Coordinator) Halted() <-chan struct{} {
	return co.halted
}

// Run services ticks and commands until ctx is done. After a hardware fault
// it stops servicing anything and idles until ctx is done; the fault is
// kept in Fault, not returned.
func (co *Coordinator) Run(ctx context.Context) error {
	ticks := co.ticks
	if ticks == nil {
		ticker := time.NewTicker(co.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	co.showText(InitText)
	slog.Info("Animation coordinator started", "animation", co.current, "interval", co.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Animation coordinator stopped")
			return nil
		case <-ticks:
			co.tick(ctx)
		case cmd := <-co.commands:
			co.apply(ctx, cmd)
		}
		if err := co.Fault(); err != nil {
			slog.Error("Animation coordinator halted", "error", err)
			<-ctx.Done()
			return nil
		}
	}
}

// tick picks the frame for this interval. A queued animation replaces the
// current one only if the current one is interruptable or finished. The
// queue is peeked first so a head that has to wait stays queued.
func (co *Coordinator) tick(ctx context.Context) {
	if !co.running {
		return
	}
	frame, ok := co.current.NextFrame()
	if next, queued := co.queue.Peek(); queued && (!ok || co.current.Interruptable()) {
		co.queue.Pop()
		slog.Debug("Animation replaced", "old", co.current, "new", next, "pending", co.queue.Len())
		co.current = next
		frame, ok = co.current.NextFrame()
	}
	if !ok {
		// Finished and nothing queued: dark once, then keep asking
		if !co.cleared && co.off(ctx) {
			co.cleared = true
		}
		return
	}
	if co.write(ctx, frame, co.brightness) {
		co.cleared = false
	}
}

func (co *Coordinator) apply(ctx context.Context, cmd Command) {
	if err := Validate(cmd); err != nil {
		slog.Warn("Dropping command", "error", err)
		return
	}
	switch cmd := cmd.(type) {
	case Stop:
		co.running = false
	case Start, On:
		co.running = true
	case Off:
		co.running = false
		if co.off(ctx) {
			co.cleared = true
		}
	case Init:
		co.showText(InitText)
	case SetAddress:
		co.showText(AddressText(cmd.Position))
	case Brightness:
		co.brightness = cmd.Level
		if co.torch {
			co.white(ctx)
		}
	case Torch:
		co.torch = cmd.On
		co.running = !cmd.On
		if cmd.On {
			co.white(ctx)
		} else if co.off(ctx) {
			co.cleared = true
		}
	case Play:
		err := co.queue.Push(cmd.Animation)
		if err != nil {
			slog.Warn("Animation not queued", "animation", cmd.Animation, "error", err)
		} else {
			slog.Debug("Animation queued", "animation", cmd.Animation, "pending", co.queue.Len())
		}
		if cmd.result != nil {
			cmd.result <- err
		}
		return
	case query:
		cmd.reply <- Status{
			Running:    co.running,
			Torch:      co.torch,
			Brightness: co.brightness,
			Current:    co.current.String(),
			Pending:    co.queue.Len(),
		}
		return
	}
	slog.Debug("Command applied", "command", fmt.Sprintf("%T", cmd), "running", co.running, "torch", co.torch)
}

// write sends a frame and sorts the outcome. It returns true if the frame
// reached the strip.
func (co *Coordinator) write(ctx context.Context, frame animation.Frame, brightness uint8) bool {
	return co.delivered(co.strip.WriteFrame(ctx, platform.OwnerAnimation, frame, brightness))
}

func (co *Coordinator) off(ctx context.Context) bool {
	return co.delivered(co.strip.Off(ctx, platform.OwnerAnimation))
}

func (co *Coordinator) white(ctx context.Context) bool {
	return co.delivered(co.strip.White(ctx, platform.OwnerAnimation, co.brightness))
}

func (co *Coordinator) delivered(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, platform.ErrNotOwner):
		slog.Debug("Skipping frame, strip handed to another task", "error", err)
	case errors.Is(err, platform.ErrHardwareFault):
		co.halt(err)
	default:
		slog.Warn("Frame dropped", "error", err)
	}
	return false
}

func (co *Coordinator) halt(err error) {
	co.faultMu.Lock()
	defer co.faultMu.Unlock()
	if co.fault != nil {
		return
	}
	co.fault = err
	close(co.halted)
}

func (co *Coordinator) showText(text string) {
	if co.display == nil {
		return
	}
	if err := co.display.ShowText(text); err != nil {
		slog.Warn("Display update failed", "text", text, "error", err)
	}
}
