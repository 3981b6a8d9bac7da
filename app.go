package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lautenbacher.net/jigleds/animation"
	"lautenbacher.net/jigleds/button"
	c "lautenbacher.net/jigleds/config"
	"lautenbacher.net/jigleds/mode"
	"lautenbacher.net/jigleds/platform"
	"lautenbacher.net/jigleds/scheduler"
	"lautenbacher.net/jigleds/util"
)

// OperatingMode tells which task drives the strip.
type OperatingMode int

const (
	AnimationMode OperatingMode = iota
	ProceduralMode
)

func (m OperatingMode) String() string {
	if m == ProceduralMode {
		return "procedural"
	}
	return "animation"
}

// animationControl is the part of the coordinator the state manager uses.
type animationControl interface {
	Send(ctx context.Context, cmd scheduler.Command) error
	Enqueue(ctx context.Context, a animation.Animation) error
}

// producerControl starts and stops the procedural mode task. Stop must not
// return before the last write of the task is done.
type producerControl interface {
	Start()
	Stop()
}

// App turns button events into fixture actions and switches the strip
// between the animation coordinator and the procedural mode producer.
type App struct {
	conf     *c.Config
	events   *util.AtomicEvent[button.Event]
	anim     animationControl
	producer producerControl
	strip    *platform.Strip
	shared   *mode.Shared

	// only touched by the stateManager goroutine
	opMode OperatingMode
	torch  bool
}

func NewApp(conf *c.Config, events *util.AtomicEvent[button.Event], anim animationControl, producer producerControl, strip *platform.Strip, shared *mode.Shared) *App {
	return &App{
		conf:     conf,
		events:   events,
		anim:     anim,
		producer: producer,
		strip:    strip,
		shared:   shared,
		opMode:   AnimationMode,
	}
}

// stateManager handles one button event at a time until ctx is done. Events
// arriving while an action runs collapse into the newest one.
func (s *App) stateManager(ctx context.Context) error {
	s.send(ctx, scheduler.Init{})
	for {
		event, err := s.events.Wait(ctx)
		if err != nil {
			slog.Info("Ending state manager go-routine")
			if s.opMode == ProceduralMode {
				s.producer.Stop()
			}
			return nil
		}
		slog.Debug("Handling button event", "event", event, "mode", s.opMode)
		switch s.opMode {
		case AnimationMode:
			s.onAnimationEvent(ctx, event)
		case ProceduralMode:
			s.onProceduralEvent(ctx, event)
		}
	}
}

func (s *App) onAnimationEvent(ctx context.Context, event button.Event) {
	switch event {
	case button.Tap:
		s.programJig(ctx)
	case button.HoldHalf:
		s.torch = !s.torch
		s.send(ctx, scheduler.Torch{On: s.torch})
	case button.HoldFull:
		s.enterProcedural(ctx)
	}
}

func (s *App) onProceduralEvent(ctx context.Context, event button.Event) {
	switch event {
	case button.Tap:
		var next mode.Mode
		s.shared.Update(func(cfg *mode.Config) {
			cfg.Mode = nextMode(cfg.Mode)
			next = cfg.Mode
		})
		slog.Info("Procedural mode changed", "mode", next)
	case button.HoldHalf:
		slog.Debug("Ignoring half hold in procedural mode")
	case button.HoldFull:
		s.enterAnimation(ctx)
	}
}

// nextMode cycles the kind and keeps the rate. A static mode keeps its
// colour for when the cycle comes round again.
func nextMode(m mode.Mode) mode.Mode {
	m.Kind = m.Kind.Next()
	if m.Rate == 0 {
		m.Rate = 1
	}
	if m.Kind == mode.Static && m.Colour.IsEmpty() {
		m.Colour = animation.White
	}
	return m
}

func (s *App) enterProcedural(ctx context.Context) {
	if s.torch {
		s.torch = false
		s.send(ctx, scheduler.Torch{On: false})
	}
	s.send(ctx, scheduler.Stop{})
	s.strip.HandOff(platform.OwnerMode)
	s.producer.Start()
	s.opMode = ProceduralMode
	slog.Info("Switched operating mode", "mode", s.opMode, "procedural", s.shared.Read().Mode)
}

func (s *App) enterAnimation(ctx context.Context) {
	s.producer.Stop()
	s.strip.HandOff(platform.OwnerAnimation)
	// The strip still shows the last mode colour
	s.send(ctx, scheduler.Off{})
	s.send(ctx, scheduler.Start{})
	s.send(ctx, scheduler.Init{})
	s.opMode = AnimationMode
	slog.Info("Switched operating mode", "mode", s.opMode)
}

const idleBreatheStep = 8

// programJig walks through all jig positions: a busy sparkle while the
// addresses are shown one after another, a short done sparkle at the end,
// then back to the idle prompt.
func (s *App) programJig(ctx context.Context) {
	prog := s.conf.Programming
	size := s.strip.Size()
	slog.Info("Programming jig", "positions", prog.Positions)

	s.enqueue(ctx, animation.NewSparkle(animation.LedFromRGB(prog.BusyRGB), size))
	for pos := 0; pos < prog.Positions; pos++ {
		if !s.send(ctx, scheduler.SetAddress{Position: uint8(pos)}) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(prog.StepDelay):
		}
	}
	done := animation.LedFromRGB(prog.DoneRGB)
	s.enqueue(ctx, animation.NewSparkle(done, size, animation.WithTTL(s.conf.Animation.DefaultTTL)))
	if prog.IdleBreathe {
		s.enqueue(ctx, animation.NewBreathe(done, size, idleBreatheStep, 0))
	}
	s.send(ctx, scheduler.Init{})
	slog.Info("Programming done")
}

func (s *App) send(ctx context.Context, cmd scheduler.Command) bool {
	if err := s.anim.Send(ctx, cmd); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("Command not delivered", "error", err)
		}
		return false
	}
	return true
}

func (s *App) enqueue(ctx context.Context, a animation.Animation) {
	if err := s.anim.Enqueue(ctx, a); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("Animation not queued", "animation", a, "error", err)
	}
}
