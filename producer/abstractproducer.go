package producer

import (
	"context"
	"sync"
	"time"
)

// AbstractProducer holds the start/stop lifecycle shared by the concrete
// producers. The worker runs in its own goroutine until Stop cancels its
// context.
type AbstractProducer struct {
	uid       string
	isRunning bool
	lastStart time.Time
	// Guards isRunning, lastStart, cancel and done
	updateMutex sync.Mutex
	// the worker Start launches. It MUST return once ctx is done
	runfunc func(ctx context.Context)
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewAbstractProducer creates the lifecycle for runfunc. The uid is only
// used for logging.
func NewAbstractProducer(uid string, runfunc func(ctx context.Context)) *AbstractProducer {
	return &AbstractProducer{
		uid:     uid,
		runfunc: runfunc,
	}
}

func (s *AbstractProducer) GetUID() string {
	return s.uid
}

// Start launches the worker unless it is already running. It never blocks.
func (s *AbstractProducer) Start() {
	s.updateMutex.Lock()
	defer s.updateMutex.Unlock()

	s.lastStart = time.Now()
	if s.isRunning {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.isRunning = true
	go func() {
		defer close(done)
		s.runfunc(ctx)
	}()
}

// Stop cancels the worker and waits until it has returned, so no write of
// the worker is still in flight afterwards.
func (s *AbstractProducer) Stop() {
	s.updateMutex.Lock()
	if !s.isRunning {
		s.updateMutex.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.isRunning = false
	s.updateMutex.Unlock()

	cancel()
	<-done
}

func (s *AbstractProducer) GetIsRunning() bool {
	s.updateMutex.Lock()
	defer s.updateMutex.Unlock()
	return s.isRunning
}

func (s *AbstractProducer) getLastStart() time.Time {
	s.updateMutex.Lock()
	defer s.updateMutex.Unlock()
	return s.lastStart
}
