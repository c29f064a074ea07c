package comms

import (
	"fmt"
	"github.com/tfischer/tfitpican/simulator"
)

// FramePayload is the JSON shape of a frame on the event stream.
type FramePayload struct {
	ID       string `json:"id"`
	Extended bool   `json:"extended,omitempty"`
	RTR      bool   `json:"rtr,omitempty"`
	Error    bool   `json:"error,omitempty"`
	DLC      uint8  `json:"dlc"`
	Data     string `json:"data"` // hex encoded payload bytes
}

// EventPayload is one bus event as sent to stream clients.
type EventPayload struct {
	Tick  uint64        `json:"tick"`
	Kind  string        `json:"kind"`
	Node  string        `json:"node,omitempty"`
	Fault string        `json:"fault,omitempty"`
	Frame *FramePayload `json:"frame,omitempty"`
}

func NewEventPayload(e simulator.Event) (p EventPayload) {
	p = EventPayload{
		Tick:  e.Tick,
		Kind:  e.Kind,
		Node:  e.Node,
		Fault: e.Fault,
	}

	if e.Kind == simulator.EVENT_FAULT {
		// fault events describe the spec, not a frame on the wire
		return
	}

	f := e.Frame
	p.Frame = &FramePayload{
		ID:       fmt.Sprintf("%03X", f.ID),
		Extended: f.Extended,
		RTR:      f.RTR,
		Error:    f.Error,
		DLC:      f.DLC,
		Data:     fmt.Sprintf("%X", f.Data[:f.DLC]),
	}
	return
}
