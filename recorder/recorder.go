package recorder

import (
	"errors"
	"fmt"
	"github.com/asdine/storm/v3"
	"github.com/tfischer/tfitpican/simulator"
	"sort"
	"time"
)

var ERR_NO_RUN = errors.New("no run in progress; call Begin first")

// Run is one recorded scenario session.
type Run struct {
	ID       int `storm:"increment"`
	Scenario string
	Started  time.Time
	Ticks    uint64
}

// BusEvent is one persisted bus event. Frames are flattened so runs can be
// inspected with plain storm queries.
type BusEvent struct {
	ID    int `storm:"increment"`
	RunID int `storm:"index"`
	Seq   int

	Tick  uint64
	Kind  string
	Node  string
	Fault string

	FrameID  uint32
	Extended bool
	Error    bool
	DLC      uint8
	Data     []byte
}

// Recorder persists scenario runs and their full event sequences to a
// storm-managed bolt database, giving scenario replays something to diff
// against.
type Recorder struct {
	db  *storm.DB
	run *Run
	seq int
	err error
}

// Open creates or reopens the run database at path.
func Open(path string) (r *Recorder, err error) {
	db, err := storm.Open(path)
	if err != nil {
		return
	}

	// make sure the buckets exist before first use
	if err = db.Init(&Run{}); err != nil {
		db.Close()
		return
	}
	if err = db.Init(&BusEvent{}); err != nil {
		db.Close()
		return
	}

	r = new(Recorder)
	r.db = db
	return
}

// Begin opens a new run; subsequent listener events attach to it.
func (r *Recorder) Begin(scenario string) error {
	run := &Run{Scenario: scenario, Started: time.Now()}
	if err := r.db.Save(run); err != nil {
		return err
	}

	r.run = run
	r.seq = 0
	r.err = nil
	return nil
}

// Listener returns the callback to subscribe on a scenario engine. Save
// failures are sticky and surface via Err, since the core's event dispatch
// has no error path.
func (r *Recorder) Listener() simulator.Listener {
	return func(e simulator.Event) {
		if r.run == nil {
			r.err = ERR_NO_RUN
			return
		}

		rec := &BusEvent{
			RunID:    r.run.ID,
			Seq:      r.seq,
			Tick:     e.Tick,
			Kind:     e.Kind,
			Node:     e.Node,
			Fault:    e.Fault,
			FrameID:  e.Frame.ID,
			Extended: e.Frame.Extended,
			Error:    e.Frame.Error,
			DLC:      e.Frame.DLC,
			Data:     e.Frame.Bytes(),
		}
		r.seq++

		if err := r.db.Save(rec); err != nil && r.err == nil {
			r.err = err
		}
	}
}

// Finish stamps the completed tick count onto the current run.
func (r *Recorder) Finish(ticks uint64) error {
	if r.run == nil {
		return ERR_NO_RUN
	}

	r.run.Ticks = ticks
	if err := r.db.Update(r.run); err != nil {
		return err
	}
	r.run = nil
	return nil
}

// Err reports the first listener failure of the current run, if any.
func (r *Recorder) Err() error {
	return r.err
}

// Runs lists all recorded runs.
func (r *Recorder) Runs() (runs []Run, err error) {
	err = r.db.All(&runs)
	if err == storm.ErrNotFound {
		err = nil
	}
	return
}

// Events returns a run's event sequence in emission order.
func (r *Recorder) Events(runID int) (events []BusEvent, err error) {
	err = r.db.Find("RunID", runID, &events)
	if err == storm.ErrNotFound {
		return nil, fmt.Errorf("run %d has no events", runID)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })
	return
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
