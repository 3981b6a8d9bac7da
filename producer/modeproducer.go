// Package producer runs the procedural colour modes on the strip.
package producer

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"lautenbacher.net/jigleds/animation"
	"lautenbacher.net/jigleds/mode"
	"lautenbacher.net/jigleds/platform"
)

// ModeProducer polls the shared mode configuration and drives the whole
// strip with the resulting colour while it owns the strip. Identical
// consecutive results are written only once.
type ModeProducer struct {
	*AbstractProducer
	strip  *platform.Strip
	shared *mode.Shared
	poll   time.Duration
	now    func() time.Time
	rng    *rand.Rand

	faultMu sync.Mutex
	fault   error
}

type ModeOption func(*ModeProducer)

// WithClock replaces the time source the waveforms are computed from.
func WithClock(now func() time.Time) ModeOption {
	return func(p *ModeProducer) { p.now = now }
}

// WithRand fixes the random source of the random hue mode.
func WithRand(rng *rand.Rand) ModeOption {
	return func(p *ModeProducer) { p.rng = rng }
}

func NewModeProducer(uid string, strip *platform.Strip, shared *mode.Shared, poll time.Duration, opts ...ModeOption) *ModeProducer {
	inst := &ModeProducer{
		strip:  strip,
		shared: shared,
		poll:   poll,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(inst)
	}
	inst.AbstractProducer = NewAbstractProducer(uid, inst.runner)
	return inst
}

// Fault is the hardware fault that stopped the producer, if any.
func (s *ModeProducer) Fault() error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.fault
}

func (s *ModeProducer) setFault(err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if s.fault == nil {
		s.fault = err
	}
}

func (s *ModeProducer) runner(ctx context.Context) {
	if err := s.Fault(); err != nil {
		slog.Warn("Mode producer not started, strip is faulty", "uid", s.uid, "error", err)
		<-ctx.Done()
		return
	}

	gen := mode.NewGenerator(s.now(), s.rng)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var (
		prev           animation.Led
		prevBrightness mode.Brightness
		written        bool
	)
	slog.Info("Mode producer started", "uid", s.uid, "mode", s.shared.Read().Mode)

	for {
		cfg := s.shared.Read()
		colour, ok := gen.Colour(cfg, s.now())
		if ok && !(written && colour == prev && cfg.Brightness == prevBrightness) {
			err := s.strip.WriteFrame(ctx, platform.OwnerMode, animation.SolidFrame(s.strip.Size(), colour), uint8(cfg.Brightness))
			switch {
			case err == nil:
				prev, prevBrightness, written = colour, cfg.Brightness, true
			case errors.Is(err, platform.ErrNotOwner):
				slog.Debug("Skipping colour, strip handed to another task", "uid", s.uid)
			case errors.Is(err, platform.ErrHardwareFault):
				s.setFault(err)
				slog.Error("Mode producer halted", "uid", s.uid, "error", err)
				<-ctx.Done()
				return
			default:
				slog.Warn("Colour dropped", "uid", s.uid, "error", err)
			}
		}

		select {
		case <-ctx.Done():
			slog.Info("Mode producer stopped", "uid", s.uid, "started", s.getLastStart())
			return
		case <-ticker.C:
		}
	}
}
