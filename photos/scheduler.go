package photos

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shtamir/family-tv-dashboard/internal/metrics"
)

const DefaultInterval = 10 * time.Second

// RenderFunc displays the photo at index
type RenderFunc func(url string, index int)

// Scheduler rotates through a PhotoSet on a repeating timer. It owns the current index and
// the only rotation timer of the process.
type Scheduler struct {
	clock  clockwork.Clock
	render RenderFunc

	mu       sync.Mutex
	set      PhotoSet
	interval time.Duration
	running  bool
	ticker   clockwork.Ticker
	done     chan struct{}
	epoch    uint64
}

type SchedulerOption func(*Scheduler)

func WithClock(clock clockwork.Clock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func NewScheduler(render RenderFunc, options ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:  clockwork.NewRealClock(),
		render: render,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.render == nil {
		s.render = func(string, int) {}
	}
	return s
}

// Start replaces the photo set, renders its current photo and arms the rotation timer.
// Sets with fewer than two photos get no timer. A non-positive interval means DefaultInterval.
func (s *Scheduler) Start(set PhotoSet, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.mu.Lock()
	s.disarm()
	s.set = NewPhotoSet(set.URLs)
	s.set.Index = set.Index
	s.set = s.set.normalized()
	s.interval = interval
	s.running = true
	if s.set.Len() > 1 {
		s.arm()
	}
	url, ok := s.set.Current()
	index := s.set.Index
	s.mu.Unlock()

	log.Debug().Int("photos", set.Len()).Dur("interval", interval).Msg("photo rotation started")
	if ok {
		s.render(url, index)
	}
}

// Stop cancels the rotation timer. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarm()
	s.running = false
}

// Advance moves one photo forward (+1) or back (-1), renders it and restarts the timer from
// zero elapsed. It is a no-op on an empty set.
func (s *Scheduler) Advance(direction int) {
	if direction >= 0 {
		direction = 1
	} else {
		direction = -1
	}

	s.mu.Lock()
	if s.set.Len() == 0 {
		s.mu.Unlock()
		return
	}
	s.set = s.set.Step(direction)
	if s.running && s.set.Len() > 1 {
		s.disarm()
		s.arm()
	}
	url, _ := s.set.Current()
	index := s.set.Index
	s.mu.Unlock()

	metrics.ObservePhotoRotation()
	s.render(url, index)
}

// Current returns the photo on screen, or false when there is none
func (s *Scheduler) Current() (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url, ok := s.set.Current()
	return url, s.set.Index, ok
}

// Set returns a copy of the photo set being rotated
func (s *Scheduler) Set() PhotoSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := NewPhotoSet(s.set.URLs)
	out.Index = s.set.Index
	return out
}

// arm starts a new timer generation; mu must be held
func (s *Scheduler) arm() {
	s.epoch++
	s.ticker = s.clock.NewTicker(s.interval)
	s.done = make(chan struct{})
	go s.run(s.epoch, s.ticker, s.done)
}

// disarm stops the active timer if any; mu must be held
func (s *Scheduler) disarm() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.ticker = nil
	s.done = nil
}

func (s *Scheduler) run(epoch uint64, ticker clockwork.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			s.tick(epoch)
		}
	}
}

func (s *Scheduler) tick(epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || s.ticker == nil || s.set.Len() == 0 {
		s.mu.Unlock()
		return
	}
	s.set = s.set.Step(1)
	url, _ := s.set.Current()
	index := s.set.Index
	s.mu.Unlock()

	metrics.ObservePhotoRotation()
	s.render(url, index)
}
