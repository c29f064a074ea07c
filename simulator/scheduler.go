package simulator

import (
	"errors"
	simerrors "github.com/tfischer/tfitpican/simulator/errors"
)

type SessionState int

const (
	StateIdle SessionState = iota
	StateRunning
	StatePaused
	StateStopped
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	}
	return "UNKOWN"
}

var ERR_SESSION_PAUSED = errors.New("session is paused; resume before running")

// FaultHook is invoked at the top of every tick, before transmissions are
// collected. It applies any faults due this tick and returns the
// per-slot drop and corruption effects for the collection phase.
type FaultHook func(tick uint64) (drop map[int]bool, corrupt map[int]uint8)

// Scheduler drives simulated time. Each tick runs, strictly in order:
// fault injection, transmission collection, arbitration, counter advance.
// There are no goroutines or timers here; a caller wanting wall-clock
// pacing layers it on top by calling Run(1) at its own interval.
type Scheduler struct {
	bus    *ArbitrationBus
	faults FaultHook

	state SessionState
	tick  uint64
}

func NewScheduler(bus *ArbitrationBus, faults FaultHook) (s *Scheduler) {
	s = new(Scheduler)
	s.bus = bus
	s.faults = faults
	return
}

// Run advances exactly n ticks. The session moves Idle -> Running on the
// first call; a stopped session refuses with SessionStoppedError and a
// paused one must be resumed first. Ticks are atomic: Run returns only at
// tick boundaries, never mid-tick.
func (s *Scheduler) Run(n uint64) error {
	switch s.state {
	case StateStopped:
		return simerrors.SessionStoppedError{Op: "run"}
	case StatePaused:
		return ERR_SESSION_PAUSED
	}
	s.state = StateRunning

	for i := uint64(0); i < n; i++ {
		s.step()
	}
	return nil
}

func (s *Scheduler) step() {
	var drop map[int]bool
	var corrupt map[int]uint8
	if s.faults != nil {
		drop, corrupt = s.faults(s.tick)
	}

	s.bus.Collect(s.tick, drop, corrupt)
	s.bus.Resolve(s.tick)
	s.tick++
}

// Pause suspends the session at the current tick boundary. Pending
// arbitration losers and schedules are kept as-is.
func (s *Scheduler) Pause() error {
	if s.state == StateStopped {
		return simerrors.SessionStoppedError{Op: "pause"}
	}
	s.state = StatePaused
	return nil
}

// Resume returns a paused session to Running.
func (s *Scheduler) Resume() error {
	if s.state == StateStopped {
		return simerrors.SessionStoppedError{Op: "resume"}
	}
	s.state = StateRunning
	return nil
}

// Stop terminates the session. Terminal: every later Run fails and the
// tick counter never moves again.
func (s *Scheduler) Stop() {
	s.state = StateStopped
}

func (s *Scheduler) State() SessionState {
	return s.state
}

// Tick returns the number of fully completed ticks.
func (s *Scheduler) Tick() uint64 {
	return s.tick
}
