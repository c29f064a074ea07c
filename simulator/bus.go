package simulator

import (
	"fmt"
	"github.com/tfischer/tfitpican/simulator/canbus"
)

// injected error frames carry no owning node slot
const noSlot = -1

// pendingTx is one contender for the wire: a slot into the bus's node
// arena, the frame itself and a submission sequence number used both for
// tie-breaks and to keep carried-over losers ahead of fresh traffic.
type pendingTx struct {
	slot  int
	frame canbus.Frame
	seq   uint64
}

// ArbitrationBus owns every node on the simulated wire and resolves
// per-tick contention the way CAN does: the numerically lowest identifier
// is dominant and wins; losers are requeued for the next tick. Error flag
// frames beat everything and reach every node on the tick they appear.
type ArbitrationBus struct {
	nodes []*Node
	slots map[string]int

	pending []pendingTx
	seq     uint64

	// deliver winners back to their sender, modeling bus echo
	echo bool

	listeners []Listener
}

func NewArbitrationBus(echo bool) (b *ArbitrationBus) {
	b = new(ArbitrationBus)
	b.slots = make(map[string]int)
	b.echo = echo
	return
}

// Attach adds a node to the bus arena and returns its slot.
func (b *ArbitrationBus) Attach(n *Node) (slot int, err error) {
	if _, taken := b.slots[n.name]; taken {
		err = fmt.Errorf("node name %s already attached", n.name)
		return
	}

	slot = len(b.nodes)
	b.nodes = append(b.nodes, n)
	b.slots[n.name] = slot
	return
}

// Node looks a node up by name.
func (b *ArbitrationBus) Node(name string) (*Node, bool) {
	slot, ok := b.slots[name]
	if !ok {
		return nil, false
	}
	return b.nodes[slot], true
}

// Slot returns the arena index for a node name.
func (b *ArbitrationBus) Slot(name string) (int, bool) {
	slot, ok := b.slots[name]
	return slot, ok
}

// Nodes returns the attached nodes in arena order.
func (b *ArbitrationBus) Nodes() []*Node {
	out := make([]*Node, len(b.nodes))
	copy(out, b.nodes)
	return out
}

// Subscribe registers an event listener. Listeners run synchronously in
// registration order, which keeps the event sequence deterministic.
func (b *ArbitrationBus) Subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

func (b *ArbitrationBus) emit(e Event) {
	for _, l := range b.listeners {
		l(e)
	}
}

// SubmitError queues an injected error flag frame for this tick's
// arbitration, ahead of anything the nodes produce.
func (b *ArbitrationBus) SubmitError() {
	b.pending = append(b.pending, pendingTx{slot: noSlot, frame: canbus.ErrorFrame(), seq: b.seq})
	b.seq++
}

// Collect gathers every node's due transmissions behind the carried-over
// losers from earlier ticks. Fault effects computed for this tick apply
// here: dropped slots transmit nothing, corrupted slots get the selected
// payload bytes inverted.
func (b *ArbitrationBus) Collect(tick uint64, drop map[int]bool, corrupt map[int]uint8) {
	// a node sent bus-off abandons anything it had waiting to retry
	if len(b.pending) > 0 {
		kept := b.pending[:0]
		for _, p := range b.pending {
			if p.slot != noSlot && b.nodes[p.slot].busOff {
				continue
			}
			kept = append(kept, p)
		}
		b.pending = kept
	}

	for slot, n := range b.nodes {
		frames := n.OnTick(tick)
		if drop[slot] {
			continue
		}
		for _, f := range frames {
			if mask, ok := corrupt[slot]; ok {
				f = corruptFrame(f, mask)
			}
			b.pending = append(b.pending, pendingTx{slot: slot, frame: f, seq: b.seq})
			b.seq++
		}
	}
}

// Resolve runs one arbitration round. At most one data frame wins per tick;
// every injected error frame is broadcast immediately and forces all data
// contenders to retry next tick.
func (b *ArbitrationBus) Resolve(tick uint64) {
	if len(b.pending) == 0 {
		return
	}

	var errFrames, data []pendingTx
	for _, p := range b.pending {
		if p.frame.Error {
			errFrames = append(errFrames, p)
		} else {
			data = append(data, p)
		}
	}

	if len(errFrames) > 0 {
		for _, p := range errFrames {
			b.broadcast(tick, p)
		}
		for _, p := range data {
			b.emit(Event{Tick: tick, Kind: EVENT_ARB_LOSS, Node: b.nodeName(p.slot), Frame: p.frame})
		}
		b.pending = data
		return
	}

	win := 0
	for i := 1; i < len(data); i++ {
		if dominates(data[i], data[win]) {
			win = i
		}
	}

	b.broadcast(tick, data[win])

	losers := append(data[:win], data[win+1:]...)
	for _, p := range losers {
		b.emit(Event{Tick: tick, Kind: EVENT_ARB_LOSS, Node: b.nodeName(p.slot), Frame: p.frame})
	}
	b.pending = losers
}

// PendingCount reports how many frames are waiting to retry arbitration.
func (b *ArbitrationBus) PendingCount() int {
	return len(b.pending)
}

// dominates reports whether a beats b on the wire: lower identifier first,
// submission order breaking ties. Real arbitration has no true ties; the
// seq rule is a documented simplification that also guarantees requeued
// losers outrank fresh frames with the same identifier.
func dominates(a, b pendingTx) bool {
	if a.frame.ID != b.frame.ID {
		return a.frame.ID < b.frame.ID
	}
	return a.seq < b.seq
}

func (b *ArbitrationBus) broadcast(tick uint64, p pendingTx) {
	b.emit(Event{Tick: tick, Kind: EVENT_TRANSMIT, Node: b.nodeName(p.slot), Frame: p.frame})

	for slot, n := range b.nodes {
		if slot == p.slot && !b.echo {
			continue
		}
		if n.Receive(p.frame) {
			b.emit(Event{Tick: tick, Kind: EVENT_DELIVER, Node: n.name, Frame: p.frame})
		}
	}
}

func (b *ArbitrationBus) nodeName(slot int) string {
	if slot == noSlot {
		return ""
	}
	return b.nodes[slot].name
}

func corruptFrame(f canbus.Frame, mask uint8) canbus.Frame {
	for i := uint8(0); i < f.DLC; i++ {
		if mask&(1<<i) != 0 {
			f.Data[i] ^= 0xFF
		}
	}
	return f
}
