package canbus

// Filter decides whether a received frame is of interest to a node.
// A nil Filter matches everything.
type Filter func(Frame) bool

// Any matches every frame.
func Any() Filter {
	return func(Frame) bool { return true }
}

// ByIDs matches frames carrying one of the given identifiers exactly.
func ByIDs(ids ...uint32) Filter {
	set := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(f Frame) bool {
		_, ok := set[f.ID]
		return ok
	}
}

// ByMask matches frames where (frame.ID & mask) == (id & mask), the
// acceptance-filter scheme CAN controllers implement in hardware.
func ByMask(id, mask uint32) Filter {
	want := id & mask
	return func(f Frame) bool {
		return f.ID&mask == want
	}
}

// Or combines two filters, accepting frames that either one accepts.
func Or(a, b Filter) Filter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(f Frame) bool {
		return a(f) || b(f)
	}
}
