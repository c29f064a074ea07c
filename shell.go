package main

import (
	"github.com/abiosoft/ishell"
	"strconv"
)

// buildShell wires the interactive commands onto the session. Every
// command maps directly onto one Session call; the shell owns no state.
func buildShell(session *Session) (shell *ishell.Shell) {
	shell = ishell.New()
	shell.Println("TFitPiCAN scenario shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "load",
		Help: "load <scenario>",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Println("usage: load <scenario>")
				return
			}
			if err := session.Load(scenarioPath(c.Args[0])); err != nil {
				c.Err(err)
				return
			}
			c.Printf("Scenario '%s' loaded\n", session.Snapshot().Scenario)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "run",
		Help: "run [ticks] - advance the scenario (default 1 tick)",
		Func: func(c *ishell.Context) {
			ticks := uint64(1)
			if len(c.Args) >= 1 {
				n, err := strconv.ParseUint(c.Args[0], 10, 64)
				if err != nil {
					c.Err(err)
					return
				}
				ticks = n
			}

			if err := session.Run(ticks); err != nil {
				c.Err(err)
				return
			}
			c.Printf("Advanced to tick %d\n", session.Snapshot().Tick)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "pause",
		Help: "pause the running scenario",
		Func: func(c *ishell.Context) {
			if err := session.Pause(); err != nil {
				c.Err(err)
				return
			}
			c.Println("Scenario paused")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "resume",
		Help: "resume a paused scenario",
		Func: func(c *ishell.Context) {
			if err := session.Resume(); err != nil {
				c.Err(err)
				return
			}
			c.Println("Scenario running...")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "stop the scenario (terminal)",
		Func: func(c *ishell.Context) {
			if err := session.Stop(); err != nil {
				c.Err(err)
				return
			}
			c.Println("Scenario stopped")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "reset <node> - bring a bus-off node back",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Println("usage: reset <node>")
				return
			}
			if err := session.Reset(c.Args[0]); err != nil {
				c.Err(err)
				return
			}
			c.Printf("Node %s reset\n", c.Args[0])
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "print session state",
		Func: func(c *ishell.Context) {
			state := session.Snapshot()
			c.Printf("%s @ tick %d (%s)\n", state.State, state.Tick, state.Scenario)
			for _, n := range state.Nodes {
				c.Printf("  %-12s rx=%d err=%d busoff=%v\n", n.Name, n.RxQueued, n.ErrorCount, n.BusOff)
			}
		},
	})

	return
}
