package simulator

import (
	. "github.com/smartystreets/goconvey/convey"
	simerrors "github.com/tfischer/tfitpican/simulator/errors"
	"testing"
)

func TestSchedulerStates(t *testing.T) {
	Convey("a fresh session is idle and starts running on the first Run", t, func() {
		s := NewScheduler(NewArbitrationBus(false), nil)
		So(s.State(), ShouldEqual, StateIdle)

		So(s.Run(3), ShouldBeNil)
		So(s.State(), ShouldEqual, StateRunning)
		So(s.Tick(), ShouldEqual, 3)
	})

	Convey("pause holds the session and resume releases it", t, func() {
		s := NewScheduler(NewArbitrationBus(false), nil)
		s.Run(2)

		So(s.Pause(), ShouldBeNil)
		So(s.State(), ShouldEqual, StatePaused)
		So(s.Run(1), ShouldEqual, ERR_SESSION_PAUSED)
		So(s.Tick(), ShouldEqual, 2)

		So(s.Resume(), ShouldBeNil)
		So(s.Run(1), ShouldBeNil)
		So(s.Tick(), ShouldEqual, 3)
	})

	Convey("stop is terminal", t, func() {
		s := NewScheduler(NewArbitrationBus(false), nil)
		s.Run(4)
		s.Stop()

		err := s.Run(5)
		So(err, ShouldResemble, simerrors.SessionStoppedError{Op: "run"})
		So(s.Tick(), ShouldEqual, 4)

		So(s.Pause(), ShouldResemble, simerrors.SessionStoppedError{Op: "pause"})
		So(s.Resume(), ShouldResemble, simerrors.SessionStoppedError{Op: "resume"})
	})
}

func TestSchedulerTickOrder(t *testing.T) {
	Convey("faults apply before collection within the same tick", t, func() {
		bus := NewArbitrationBus(false)
		log := new(eventLog)
		bus.Subscribe(log.listen)

		n := NewNode("engine", nil, 0)
		bus.Attach(n)
		n.SchedulePeriodic(mustFrame(0x100, 0x01), 1)

		// drop everything the node offers on tick 1
		hook := func(tick uint64) (map[int]bool, map[int]uint8) {
			if tick == 1 {
				return map[int]bool{0: true}, nil
			}
			return nil, nil
		}

		s := NewScheduler(bus, hook)
		s.Run(3)

		tx := log.kinds(EVENT_TRANSMIT)
		So(tx, ShouldHaveLength, 2)
		So(tx[0].Tick, ShouldEqual, 0)
		So(tx[1].Tick, ShouldEqual, 2)
	})
}
