package main

import (
	. "github.com/smartystreets/goconvey/convey"
	simerrors "github.com/tfischer/tfitpican/simulator/errors"
	"os"
	"path/filepath"
	"testing"
)

const sessionScenario = `
version: 0.1.0
name: smoke
nodes:
  - name: radar
    schedules:
      - id: 0x100
        dlc: 1
        data: [0x2A]
        period: 5
  - name: dash
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSessionLifecycle(t *testing.T) {
	Convey("a session loads, runs and stops a scenario", t, func() {
		session := NewSession(nil)
		So(session.Load(writeScenario(t, sessionScenario)), ShouldBeNil)

		So(session.Run(10), ShouldBeNil)
		state := session.Snapshot()
		So(state.Scenario, ShouldEqual, "smoke")
		So(state.Tick, ShouldEqual, 10)
		So(state.Nodes, ShouldHaveLength, 2)

		So(session.Stop(), ShouldBeNil)
		err := session.Run(1)
		So(err, ShouldResemble, simerrors.SessionStoppedError{Op: "run"})
		So(exitCode(err), ShouldEqual, EXIT_SESSION_ERR)
	})

	Convey("running without a scenario is a session-state error", t, func() {
		session := NewSession(nil)

		err := session.Run(1)
		So(err, ShouldEqual, ERR_NO_SCENARIO)
		So(exitCode(err), ShouldEqual, EXIT_SESSION_ERR)
	})

	Convey("a bad descriptor leaves the previous session in place", t, func() {
		session := NewSession(nil)
		So(session.Load(writeScenario(t, sessionScenario)), ShouldBeNil)
		session.Run(3)

		broken := `{version: 9.9.9, name: broken, nodes: [{name: x}]}`
		So(session.Load(writeScenario(t, broken)), ShouldNotBeNil)

		state := session.Snapshot()
		So(state.Scenario, ShouldEqual, "smoke")
		So(state.Tick, ShouldEqual, 3)
	})

	Convey("unreadable and malformed files fail load", t, func() {
		session := NewSession(nil)
		So(session.Load("/nonexistent/scenario.yaml"), ShouldNotBeNil)
		So(session.Load(writeScenario(t, ":::not yaml")), ShouldNotBeNil)
	})
}

func TestShippedScenarios(t *testing.T) {
	Convey("the bundled scenario descriptors load and run", t, func() {
		for _, name := range []string{"front_collision", "frozen_wheel"} {
			session := NewSession(nil)
			So(session.Load(filepath.Join("scenarios", name+".yaml")), ShouldBeNil)
			So(session.Run(100), ShouldBeNil)
		}
	})
}
