package simulator

import (
	"github.com/tfischer/tfitpican/simulator/canbus"
	simerrors "github.com/tfischer/tfitpican/simulator/errors"
	"math/rand"
)

const DEFAULT_RX_QUEUE = 16

type txSchedule struct {
	frame  canbus.Frame
	period uint64
	jitter uint64
	due    uint64
}

// Node is a single virtual ECU attached to the bus. It owns its transmit
// schedules and receive queue; only the Scheduler (tx collection) and the
// ArbitrationBus (rx delivery) mutate it, always from the tick loop.
type Node struct {
	name   string
	filter canbus.Filter

	schedules []txSchedule
	events    []canbus.Frame

	rx    []canbus.Frame
	rxCap int

	errCount int
	busOff   bool

	// shared, seeded source owned by the engine; nil disables jitter
	rng *rand.Rand
}

func NewNode(name string, filter canbus.Filter, rxCap int) (n *Node) {
	if rxCap <= 0 {
		rxCap = DEFAULT_RX_QUEUE
	}

	n = new(Node)
	n.name = name
	n.filter = filter
	n.rxCap = rxCap
	return
}

func (n *Node) Name() string {
	return n.name
}

// SchedulePeriodic registers a recurring transmission starting at tick 0.
func (n *Node) SchedulePeriodic(frame canbus.Frame, period int) error {
	return n.SchedulePeriodicJitter(frame, period, 0)
}

// SchedulePeriodicJitter registers a recurring transmission whose period is
// stretched by a random 0..jitter ticks drawn from the session's seeded
// source, so jittered runs stay reproducible.
func (n *Node) SchedulePeriodicJitter(frame canbus.Frame, period, jitter int) error {
	if period <= 0 {
		return simerrors.InvalidScheduleError{Node: n.name, Period: period}
	}
	if err := frame.Validate(); err != nil {
		return err
	}
	if jitter < 0 {
		jitter = 0
	}

	n.schedules = append(n.schedules, txSchedule{
		frame:  frame,
		period: uint64(period),
		jitter: uint64(jitter),
	})
	return nil
}

// QueueEvent enqueues a one-shot transmission for the next tick.
func (n *Node) QueueEvent(frame canbus.Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	n.events = append(n.events, frame)
	return nil
}

// OnTick returns the frames due for transmission this tick: periodic frames
// whose deadline has arrived, then any queued one-shot frames. Schedules
// advance even while the node is bus-off, so a reset does not release a
// backlog burst.
func (n *Node) OnTick(tick uint64) (due []canbus.Frame) {
	for i := range n.schedules {
		s := &n.schedules[i]
		for s.due <= tick {
			if !n.busOff {
				due = append(due, s.frame)
			}
			s.due = tick + s.period + n.drawJitter(s.jitter)
		}
	}

	if n.busOff {
		n.events = nil
		return
	}

	due = append(due, n.events...)
	n.events = nil
	return
}

// Receive delivers a frame to the node, reporting whether it was accepted.
// Error flag frames bypass the acceptance filter and bump the error counter.
// A full rx queue drops its oldest entry to make room.
func (n *Node) Receive(frame canbus.Frame) bool {
	if n.busOff {
		return false
	}

	if frame.Error {
		n.errCount++
	} else if n.filter != nil && !n.filter(frame) {
		return false
	}

	if len(n.rx) >= n.rxCap {
		n.rx = n.rx[1:]
	}
	n.rx = append(n.rx, frame)
	return true
}

// RxQueue returns a copy of the received frames, oldest first.
func (n *Node) RxQueue() []canbus.Frame {
	out := make([]canbus.Frame, len(n.rx))
	copy(out, n.rx)
	return out
}

func (n *Node) ErrorCount() int {
	return n.errCount
}

func (n *Node) BusOff() bool {
	return n.busOff
}

// Reset brings a bus-off node back onto the bus.
func (n *Node) Reset() {
	n.busOff = false
}

func (n *Node) setBusOff() {
	n.busOff = true
}

func (n *Node) drawJitter(jitter uint64) uint64 {
	if jitter == 0 || n.rng == nil {
		return 0
	}
	return uint64(n.rng.Int63n(int64(jitter) + 1))
}
