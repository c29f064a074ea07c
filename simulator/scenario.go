package simulator

import (
	"github.com/tfischer/tfitpican/simulator/canbus"
	simerrors "github.com/tfischer/tfitpican/simulator/errors"
	"math/rand"
	"sort"
)

// ScenarioEngine composes a bus, its nodes and a timed fault script into
// one replayable session. Sessions are fully isolated from each other:
// everything, including the jitter source, lives on the engine, so two
// engines built from the same descriptor replay identically.
type ScenarioEngine struct {
	name  string
	bus   *ArbitrationBus
	sched *Scheduler

	faults []Fault
	next   int // cursor into faults, which are sorted by tick

	rng *rand.Rand
}

// Fault is one scheduled fault application.
type Fault struct {
	Tick     uint64
	Kind     string
	Node     string
	ByteMask uint8
}

// NewScenarioEngine validates the descriptor and builds the session.
// Validation runs up front, so a bad descriptor fails here and leaves
// nothing half-built; a successfully constructed engine cannot fail while
// ticking.
func NewScenarioEngine(cfg *ScenarioConfig) (e *ScenarioEngine, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	e = new(ScenarioEngine)
	e.name = cfg.Name
	e.bus = NewArbitrationBus(cfg.Echo)
	e.rng = rand.New(rand.NewSource(cfg.Seed))

	for _, nc := range cfg.Nodes {
		n := NewNode(nc.Name, nc.rxFilter(), cfg.RxQueueSize)
		n.rng = e.rng

		for _, sc := range nc.Schedules {
			frame, _ := sc.frame() // already validated
			if err = n.SchedulePeriodicJitter(frame, sc.Period, sc.Jitter); err != nil {
				return nil, err
			}
		}

		if _, err = e.bus.Attach(n); err != nil {
			return nil, err
		}
	}

	e.faults = make([]Fault, len(cfg.Faults))
	for i, fc := range cfg.Faults {
		e.faults[i] = Fault{Tick: fc.Tick, Kind: fc.Kind, Node: fc.Node, ByteMask: fc.ByteMask}
	}
	sort.SliceStable(e.faults, func(i, j int) bool {
		return e.faults[i].Tick < e.faults[j].Tick
	})

	e.sched = NewScheduler(e.bus, e.applyFaults)
	return
}

// applyFaults is the scheduler's per-tick fault hook. It runs strictly
// before collection and arbitration, so a fault scheduled for tick T is
// visible in tick T's bus traffic.
func (e *ScenarioEngine) applyFaults(tick uint64) (drop map[int]bool, corrupt map[int]uint8) {
	for e.next < len(e.faults) && e.faults[e.next].Tick <= tick {
		f := e.faults[e.next]
		e.next++

		slot, _ := e.bus.Slot(f.Node)
		switch f.Kind {
		case FAULT_DROP:
			if drop == nil {
				drop = make(map[int]bool)
			}
			drop[slot] = true

		case FAULT_CORRUPT:
			if corrupt == nil {
				corrupt = make(map[int]uint8)
			}
			corrupt[slot] = f.ByteMask

		case FAULT_ERROR_FRAME:
			e.bus.SubmitError()

		case FAULT_BUS_OFF:
			e.bus.nodes[slot].setBusOff()
		}

		e.bus.emit(Event{Tick: tick, Kind: EVENT_FAULT, Node: f.Node, Fault: f.Kind})
	}
	return
}

// Subscribe registers a listener for every bus event of the run.
func (e *ScenarioEngine) Subscribe(l Listener) {
	e.bus.Subscribe(l)
}

// Run advances the session by n ticks.
func (e *ScenarioEngine) Run(n uint64) error {
	return e.sched.Run(n)
}

func (e *ScenarioEngine) Pause() error {
	return e.sched.Pause()
}

func (e *ScenarioEngine) Resume() error {
	return e.sched.Resume()
}

func (e *ScenarioEngine) Stop() {
	e.sched.Stop()
}

func (e *ScenarioEngine) State() SessionState {
	return e.sched.State()
}

func (e *ScenarioEngine) Tick() uint64 {
	return e.sched.Tick()
}

func (e *ScenarioEngine) Name() string {
	return e.name
}

// Nodes returns the session's nodes in arena order.
func (e *ScenarioEngine) Nodes() []*Node {
	return e.bus.Nodes()
}

// Node looks a node up by name.
func (e *ScenarioEngine) Node(name string) (*Node, error) {
	n, ok := e.bus.Node(name)
	if !ok {
		return nil, simerrors.UnknownNodeError{Name: name}
	}
	return n, nil
}

// QueueEvent hands a one-shot frame to the named node for the next tick,
// the hook an outer layer uses to trigger things like a collision burst.
func (e *ScenarioEngine) QueueEvent(name string, frame canbus.Frame) error {
	n, err := e.Node(name)
	if err != nil {
		return err
	}
	return n.QueueEvent(frame)
}

// ResetNode clears a node's bus-off state.
func (e *ScenarioEngine) ResetNode(name string) error {
	n, err := e.Node(name)
	if err != nil {
		return err
	}
	n.Reset()
	return nil
}
