package recorder

import (
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tfischer/tfitpican/simulator"
	"path/filepath"
	"testing"
)

func demoConfig() *simulator.ScenarioConfig {
	return &simulator.ScenarioConfig{
		Version: "0.1.0",
		Name:    "demo",
		Nodes: []simulator.NodeConfig{
			{
				Name:      "radar",
				Schedules: []simulator.ScheduleConfig{{ID: 0x100, Data: []int{0x01}, Period: 5}},
			},
			{Name: "dash"},
		},
	}
}

func TestRecorder(t *testing.T) {
	dir := t.TempDir()

	Convey("a run records its full event sequence", t, func() {
		r, err := Open(filepath.Join(dir, "runs.db"))
		So(err, ShouldBeNil)
		defer r.Close()

		engine, err := simulator.NewScenarioEngine(demoConfig())
		So(err, ShouldBeNil)

		So(r.Begin("demo"), ShouldBeNil)
		engine.Subscribe(r.Listener())
		So(engine.Run(11), ShouldBeNil)
		So(r.Finish(engine.Tick()), ShouldBeNil)
		So(r.Err(), ShouldBeNil)

		runs, err := r.Runs()
		So(err, ShouldBeNil)
		So(runs, ShouldHaveLength, 1)
		So(runs[0].Scenario, ShouldEqual, "demo")
		So(runs[0].Ticks, ShouldEqual, 11)

		// radar fires at ticks 0, 5 and 10; each transmit is followed by
		// a delivery to dash
		events, err := r.Events(runs[0].ID)
		So(err, ShouldBeNil)
		So(events, ShouldHaveLength, 6)
		So(events[0].Kind, ShouldEqual, simulator.EVENT_TRANSMIT)
		So(events[0].FrameID, ShouldEqual, 0x100)
		So(events[1].Kind, ShouldEqual, simulator.EVENT_DELIVER)
		So(events[1].Node, ShouldEqual, "dash")
		So(events[5].Tick, ShouldEqual, 10)
	})

	Convey("two recorded runs of one scenario match event for event", t, func() {
		r, err := Open(filepath.Join(dir, "replay.db"))
		So(err, ShouldBeNil)
		defer r.Close()

		record := func() int {
			engine, _ := simulator.NewScenarioEngine(demoConfig())
			So(r.Begin("demo"), ShouldBeNil)
			engine.Subscribe(r.Listener())
			So(engine.Run(30), ShouldBeNil)
			So(r.Finish(engine.Tick()), ShouldBeNil)

			runs, _ := r.Runs()
			return runs[len(runs)-1].ID
		}

		first, _ := r.Events(record())
		second, _ := r.Events(record())

		So(len(first), ShouldBeGreaterThan, 0)
		So(len(first), ShouldEqual, len(second))
		for i := range first {
			So(second[i].Tick, ShouldEqual, first[i].Tick)
			So(second[i].Kind, ShouldEqual, first[i].Kind)
			So(second[i].Node, ShouldEqual, first[i].Node)
			So(second[i].FrameID, ShouldEqual, first[i].FrameID)
			So(second[i].Data, ShouldResemble, first[i].Data)
		}
	})

	Convey("events without an open run are refused", t, func() {
		r, err := Open(filepath.Join(dir, "norun.db"))
		So(err, ShouldBeNil)
		defer r.Close()

		r.Listener()(simulator.Event{Tick: 0, Kind: simulator.EVENT_TRANSMIT})
		So(r.Err(), ShouldEqual, ERR_NO_RUN)
		So(r.Finish(0), ShouldEqual, ERR_NO_RUN)
	})
}
