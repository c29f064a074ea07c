package simulator

import (
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tfischer/tfitpican/simulator/canbus"
	simerrors "github.com/tfischer/tfitpican/simulator/errors"
	"testing"
)

func mustFrame(id uint32, data ...byte) canbus.Frame {
	f, err := canbus.NewFrame(id, data)
	if err != nil {
		panic(err)
	}
	return f
}

func TestNodeScheduling(t *testing.T) {
	Convey("periodic schedules fire when due and advance by their period", t, func() {
		n := NewNode("engine", nil, 0)
		So(n.SchedulePeriodic(mustFrame(0x100, 0x01), 10), ShouldBeNil)

		So(n.OnTick(0), ShouldHaveLength, 1)
		So(n.OnTick(1), ShouldBeEmpty)
		So(n.OnTick(9), ShouldBeEmpty)
		So(n.OnTick(10), ShouldHaveLength, 1)
	})

	Convey("a non-positive period is rejected", t, func() {
		n := NewNode("engine", nil, 0)

		err := n.SchedulePeriodic(mustFrame(0x100), 0)
		So(err, ShouldResemble, simerrors.InvalidScheduleError{Node: "engine", Period: 0})

		err = n.SchedulePeriodic(mustFrame(0x100), -5)
		So(err, ShouldResemble, simerrors.InvalidScheduleError{Node: "engine", Period: -5})

		Convey("and leaves no schedule behind", func() {
			So(n.OnTick(0), ShouldBeEmpty)
		})
	})

	Convey("queued event frames go out on the next tick, then clear", t, func() {
		n := NewNode("airbag", nil, 0)
		So(n.QueueEvent(mustFrame(0x050, 0xFF)), ShouldBeNil)

		So(n.OnTick(3), ShouldHaveLength, 1)
		So(n.OnTick(4), ShouldBeEmpty)
	})

	Convey("event frames follow periodic frames within a tick", t, func() {
		n := NewNode("ecu", nil, 0)
		n.SchedulePeriodic(mustFrame(0x300), 1)
		n.QueueEvent(mustFrame(0x010))

		due := n.OnTick(0)
		So(due, ShouldHaveLength, 2)
		So(due[0].ID, ShouldEqual, 0x300)
		So(due[1].ID, ShouldEqual, 0x010)
	})
}

func TestNodeReceive(t *testing.T) {
	Convey("the rx filter gates delivery", t, func() {
		n := NewNode("dash", canbus.ByIDs(0x100), 0)

		So(n.Receive(mustFrame(0x100)), ShouldBeTrue)
		So(n.Receive(mustFrame(0x200)), ShouldBeFalse)
		So(n.RxQueue(), ShouldHaveLength, 1)
	})

	Convey("error frames bypass the filter and bump the counter", t, func() {
		n := NewNode("dash", canbus.ByIDs(0x100), 0)

		So(n.Receive(canbus.ErrorFrame()), ShouldBeTrue)
		So(n.ErrorCount(), ShouldEqual, 1)
		So(n.RxQueue(), ShouldHaveLength, 1)
	})

	Convey("a full rx queue drops the oldest entry", t, func() {
		n := NewNode("dash", nil, 3)
		for id := uint32(1); id <= 4; id++ {
			n.Receive(mustFrame(id))
		}

		q := n.RxQueue()
		So(q, ShouldHaveLength, 3)
		So(q[0].ID, ShouldEqual, 2)
		So(q[2].ID, ShouldEqual, 4)
	})
}

func TestNodeBusOff(t *testing.T) {
	n := NewNode("wheel", nil, 0)
	n.SchedulePeriodic(mustFrame(0x2A5, 0x00), 5)
	n.setBusOff()

	Convey("a bus-off node neither transmits nor receives", t, func() {
		So(n.OnTick(0), ShouldBeEmpty)
		So(n.Receive(mustFrame(0x100)), ShouldBeFalse)
		So(n.BusOff(), ShouldBeTrue)
	})

	Convey("schedules keep advancing while off, so reset brings no backlog", t, func() {
		n.OnTick(5)
		n.Reset()

		So(n.OnTick(6), ShouldBeEmpty)
		So(n.OnTick(10), ShouldHaveLength, 1)
	})
}
