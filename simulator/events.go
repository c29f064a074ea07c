package simulator

import (
	"github.com/tfischer/tfitpican/simulator/canbus"
)

// event kinds
const (
	EVENT_TRANSMIT = "transmit" // frame won arbitration and went on the wire
	EVENT_DELIVER  = "deliver"  // frame accepted by a node's rx filter
	EVENT_ARB_LOSS = "arb_loss" // frame lost arbitration, carried to next tick
	EVENT_FAULT    = "fault"    // fault injected
)

// Event is one observable bus occurrence. The core never logs or prints;
// everything an outer layer may want to report flows through these.
type Event struct {
	Tick  uint64
	Kind  string
	Node  string // subject node, empty for bus-wide events
	Fault string // fault kind, set on EVENT_FAULT only
	Frame canbus.Frame
}

// Listener receives events synchronously from the tick loop. Listeners are
// invoked in registration order and must not call back into the session.
type Listener func(Event)
