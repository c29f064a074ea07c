package canbus

import (
	"errors"
	"fmt"
)

const (
	MaxDataLen = 8
	MaxStdID   = 0x7FF
	MaxExtID   = 0x1FFFFFFF
)

// errors
var (
	ERR_DATA_TOO_LONG   = errors.New("data length exceeds 8 bytes")
	ERR_ID_OUT_OF_RANGE = errors.New("identifier does not fit its declared width")
	ERR_DLC_MISMATCH    = errors.New("dlc does not match data length")
)

// Frame is a single classical CAN frame. Frames are plain values; once
// constructed nothing mutates them and copies are fully independent.
type Frame struct {
	ID       uint32 // 11 bit standard or 29 bit extended identifier
	Extended bool
	RTR      bool // remote transmission request, carries no data
	Error    bool // error flag frame, dominates arbitration
	DLC      uint8
	Data     [MaxDataLen]byte
}

// NewFrame builds a standard (11 bit) data frame. The dlc is derived from
// the data length.
func NewFrame(id uint32, data []byte) (f Frame, err error) {
	return newDataFrame(id, false, data)
}

// NewExtFrame builds an extended (29 bit) data frame.
func NewExtFrame(id uint32, data []byte) (f Frame, err error) {
	return newDataFrame(id, true, data)
}

// NewFrameDLC builds a data frame with an explicitly declared dlc,
// rejecting any disagreement with the actual payload length.
func NewFrameDLC(id uint32, extended bool, dlc uint8, data []byte) (f Frame, err error) {
	if int(dlc) != len(data) {
		err = ERR_DLC_MISMATCH
		return
	}
	return newDataFrame(id, extended, data)
}

// NewRemoteFrame builds an RTR frame requesting dlc bytes from the
// responder. RTR frames carry no payload of their own.
func NewRemoteFrame(id uint32, extended bool, dlc uint8) (f Frame, err error) {
	if dlc > MaxDataLen {
		err = ERR_DATA_TOO_LONG
		return
	}
	f = Frame{ID: id, Extended: extended, RTR: true, DLC: dlc}
	err = f.Validate()
	return
}

// ErrorFrame builds the error flag frame broadcast on fault injection.
// It has no identifier and no payload; the Error flag alone is meaningful.
func ErrorFrame() Frame {
	return Frame{Error: true}
}

func newDataFrame(id uint32, extended bool, data []byte) (f Frame, err error) {
	if len(data) > MaxDataLen {
		err = ERR_DATA_TOO_LONG
		return
	}
	f = Frame{ID: id, Extended: extended, DLC: uint8(len(data))}
	copy(f.Data[:], data)
	err = f.Validate()
	return
}

// Validate checks the construction invariants: dlc within 0..8 and the
// identifier inside its declared bit width.
func (f Frame) Validate() error {
	if f.DLC > MaxDataLen {
		return ERR_DATA_TOO_LONG
	}
	if f.Error {
		return nil
	}
	max := uint32(MaxStdID)
	if f.Extended {
		max = MaxExtID
	}
	if f.ID > max {
		return ERR_ID_OUT_OF_RANGE
	}
	return nil
}

// Bytes returns an independent copy of the active payload.
func (f Frame) Bytes() []byte {
	out := make([]byte, f.DLC)
	copy(out, f.Data[:f.DLC])
	return out
}

func (f Frame) String() string {
	if f.Error {
		return "ERR"
	}
	if f.RTR {
		return fmt.Sprintf("%03X#R%d", f.ID, f.DLC)
	}
	return fmt.Sprintf("%03X#%X", f.ID, f.Data[:f.DLC])
}
