package main

import (
	"errors"
	"fmt"
	"github.com/tfischer/tfitpican/comms"
	"github.com/tfischer/tfitpican/recorder"
	"github.com/tfischer/tfitpican/simulator"
	"gopkg.in/yaml.v2"
	"os"
	"sync"
)

var ERR_NO_SCENARIO = errors.New("no scenario loaded")

// Session is the shell/API-facing wrapper around one scenario engine. The
// core is single threaded; this lock serializes the shell, the HTTP
// handlers and headless mode on top of it.
type Session struct {
	lock sync.Mutex

	engine    *simulator.ScenarioEngine
	conductor *comms.Conductor
	rec       *recorder.Recorder

	scenario string
}

func NewSession(conductor *comms.Conductor) (s *Session) {
	s = new(Session)
	s.conductor = conductor
	return
}

func (s *Session) SetRecorder(rec *recorder.Recorder) {
	s.rec = rec
}

// Load reads a YAML scenario descriptor and swaps in a freshly built
// engine. A descriptor that fails validation leaves the previous session
// untouched.
func (s *Session) Load(filename string) (err error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("unable to read scenario file: %w", err)
	}

	var cfg simulator.ScenarioConfig
	if err = yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("unable to unmarshal scenario yaml: %w", err)
	}

	engine, err := simulator.NewScenarioEngine(&cfg)
	if err != nil {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.conductor != nil {
		engine.Subscribe(s.conductor.Listener())
	}
	if s.rec != nil {
		if err = s.rec.Begin(cfg.Name); err != nil {
			return
		}
		engine.Subscribe(s.rec.Listener())
	}

	s.engine = engine
	s.scenario = cfg.Name
	return nil
}

// Run advances the loaded scenario by n ticks.
func (s *Session) Run(n uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.engine == nil {
		return ERR_NO_SCENARIO
	}
	return s.engine.Run(n)
}

func (s *Session) Pause() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.engine == nil {
		return ERR_NO_SCENARIO
	}
	return s.engine.Pause()
}

func (s *Session) Resume() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.engine == nil {
		return ERR_NO_SCENARIO
	}
	return s.engine.Resume()
}

// Stop terminates the session and closes out the recording, if any.
func (s *Session) Stop() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.engine == nil {
		return ERR_NO_SCENARIO
	}

	s.engine.Stop()
	if s.rec != nil {
		return s.rec.Finish(s.engine.Tick())
	}
	return nil
}

// Reset clears a node's bus-off state.
func (s *Session) Reset(node string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.engine == nil {
		return ERR_NO_SCENARIO
	}
	return s.engine.ResetNode(node)
}

// Snapshot reports the session for the shell and the state API.
func (s *Session) Snapshot() (state StateResponse) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.engine == nil {
		state.State = "NoScenario"
		return
	}

	state.Scenario = s.scenario
	state.State = s.engine.State().String()
	state.Tick = s.engine.Tick()
	for _, n := range s.engine.Nodes() {
		state.Nodes = append(state.Nodes, NodeState{
			Name:       n.Name(),
			ErrorCount: n.ErrorCount(),
			BusOff:     n.BusOff(),
			RxQueued:   len(n.RxQueue()),
		})
	}
	return
}
