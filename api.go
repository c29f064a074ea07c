package main

import (
	"errors"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/tfischer/tfitpican/simulator"
	simerrors "github.com/tfischer/tfitpican/simulator/errors"
	"net/http"
	"path/filepath"
)

//---
// Payloads
//---

type StateResponse struct {
	Scenario string      `json:"scenario,omitempty"`
	State    string      `json:"state"`
	Tick     uint64      `json:"tick"`
	Nodes    []NodeState `json:"nodes,omitempty"`
}

type NodeState struct {
	Name       string `json:"name"`
	ErrorCount int    `json:"error_count"`
	BusOff     bool   `json:"bus_off"`
	RxQueued   int    `json:"rx_queued"`
}

func (sr StateResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type LoadPayload struct {
	Scenario string `json:"scenario"`
}

func (p *LoadPayload) Bind(r *http.Request) error {
	if p.Scenario == "" {
		return errors.New("scenario name required")
	}
	return nil
}

type RunPayload struct {
	Ticks uint64 `json:"ticks"`
}

func (p *RunPayload) Bind(r *http.Request) error {
	if p.Ticks == 0 {
		return errors.New("ticks must be positive")
	}
	return nil
}

type ResetPayload struct {
	Node string `json:"node"`
}

func (p *ResetPayload) Bind(r *http.Request) error {
	if p.Node == "" {
		return errors.New("node name required")
	}
	return nil
}

//---
// Error responses
//---

type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

// ErrSessionState maps core errors onto responses: session lifecycle
// violations become 409s, everything else is a bad request.
func ErrSessionState(err error) render.Renderer {
	status := http.StatusBadRequest
	if isSessionStateErr(err) {
		status = http.StatusConflict
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     "Session error.",
		ErrorText:      err.Error(),
	}
}

func isSessionStateErr(err error) bool {
	var stopped simerrors.SessionStoppedError
	if errors.As(err, &stopped) {
		return true
	}
	return errors.Is(err, simulator.ERR_SESSION_PAUSED) || errors.Is(err, ERR_NO_SCENARIO)
}

//---
// Routes
//---

// apiRoutes mounts the control surface: every endpoint is a thin wrapper
// over the same Session calls the shell uses.
func apiRoutes(s *Session) chi.Router {
	r := chi.NewRouter()

	r.Get("/state", func(w http.ResponseWriter, req *http.Request) {
		render.Render(w, req, s.Snapshot())
	})

	r.Post("/load", func(w http.ResponseWriter, req *http.Request) {
		data := &LoadPayload{}
		if err := render.Bind(req, data); err != nil {
			render.Render(w, req, ErrInvalidRequest(err))
			return
		}
		if err := s.Load(scenarioPath(data.Scenario)); err != nil {
			render.Render(w, req, ErrInvalidRequest(err))
			return
		}
		render.Render(w, req, s.Snapshot())
	})

	r.Post("/run", func(w http.ResponseWriter, req *http.Request) {
		data := &RunPayload{}
		if err := render.Bind(req, data); err != nil {
			render.Render(w, req, ErrInvalidRequest(err))
			return
		}
		if err := s.Run(data.Ticks); err != nil {
			render.Render(w, req, ErrSessionState(err))
			return
		}
		render.Render(w, req, s.Snapshot())
	})

	r.Post("/pause", func(w http.ResponseWriter, req *http.Request) {
		if err := s.Pause(); err != nil {
			render.Render(w, req, ErrSessionState(err))
			return
		}
		render.Render(w, req, s.Snapshot())
	})

	r.Post("/resume", func(w http.ResponseWriter, req *http.Request) {
		if err := s.Resume(); err != nil {
			render.Render(w, req, ErrSessionState(err))
			return
		}
		render.Render(w, req, s.Snapshot())
	})

	r.Post("/stop", func(w http.ResponseWriter, req *http.Request) {
		if err := s.Stop(); err != nil {
			render.Render(w, req, ErrSessionState(err))
			return
		}
		render.Render(w, req, s.Snapshot())
	})

	r.Post("/reset", func(w http.ResponseWriter, req *http.Request) {
		data := &ResetPayload{}
		if err := render.Bind(req, data); err != nil {
			render.Render(w, req, ErrInvalidRequest(err))
			return
		}
		if err := s.Reset(data.Node); err != nil {
			render.Render(w, req, ErrInvalidRequest(err))
			return
		}
		render.Render(w, req, s.Snapshot())
	})

	return r
}

// scenarioPath resolves a bare scenario name against SCENARIODIR; explicit
// paths pass through untouched.
func scenarioPath(name string) string {
	if filepath.Ext(name) == "" {
		name += ".yaml"
	}
	if filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	return filepath.Join(ENV.SCENARIODIR, name)
}
