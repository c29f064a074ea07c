package simulator

import (
	"fmt"
	"github.com/Masterminds/semver"
	"github.com/tfischer/tfitpican/simulator/canbus"
	simerrors "github.com/tfischer/tfitpican/simulator/errors"
)

// Descriptor versions this engine can replay.
const SCENARIO_VERSION = "~0.1.0"

// fault kinds
const (
	FAULT_DROP        = "drop"
	FAULT_CORRUPT     = "corrupt"
	FAULT_ERROR_FRAME = "error_frame"
	FAULT_BUS_OFF     = "bus_off"
)

// ScenarioConfig is the in-memory scenario descriptor. The core never
// touches files itself; the outer layer unmarshals YAML (or anything else)
// into this struct and hands it over.
type ScenarioConfig struct {
	Version string `yaml:"version"`
	Name    string `yaml:"name"`

	// seed for any schedule jitter; recorded here so replays reproduce
	Seed int64 `yaml:"seed"`

	Echo        bool `yaml:"echo"`
	RxQueueSize int  `yaml:"rx_queue_size"`

	Nodes  []NodeConfig  `yaml:"nodes"`
	Faults []FaultConfig `yaml:"faults"`
}

type NodeConfig struct {
	Name string `yaml:"name"`

	// rx acceptance: exact identifiers and/or an id+mask pair; neither
	// configured means the node hears everything
	IDs        []uint32 `yaml:"ids,flow"`
	FilterID   uint32   `yaml:"filter_id"`
	FilterMask uint32   `yaml:"filter_mask"`

	Schedules []ScheduleConfig `yaml:"schedules"`
}

type ScheduleConfig struct {
	ID       uint32 `yaml:"id"`
	Extended bool   `yaml:"extended"`
	DLC      int    `yaml:"dlc"`
	Data     []int  `yaml:"data,flow"`
	Period   int    `yaml:"period"`
	Jitter   int    `yaml:"jitter"`
}

type FaultConfig struct {
	Tick     uint64 `yaml:"tick"`
	Kind     string `yaml:"kind"`
	Node     string `yaml:"node"`
	ByteMask uint8  `yaml:"byte_mask"`
}

// Validate front-loads every error the descriptor can produce, so that
// engine construction and the tick loop itself cannot fail afterwards.
func (cfg *ScenarioConfig) Validate() (err error) {
	if err = cfg.checkVersion(); err != nil {
		return
	}

	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("scenario %s defines no nodes", cfg.Name)
	}

	names := make(map[string]bool, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		if len(nc.Name) == 0 {
			return fmt.Errorf("scenario %s contains an unnamed node", cfg.Name)
		}
		if names[nc.Name] {
			return fmt.Errorf("duplicate node name %s", nc.Name)
		}
		names[nc.Name] = true

		for i, sc := range nc.Schedules {
			if sc.Period <= 0 {
				return simerrors.InvalidScheduleError{Node: nc.Name, Period: sc.Period}
			}
			if _, err = sc.frame(); err != nil {
				return fmt.Errorf("node %s schedule %d: %w", nc.Name, i, err)
			}
		}
	}

	for i, fc := range cfg.Faults {
		switch fc.Kind {
		case FAULT_ERROR_FRAME:
			// bus-wide, no node reference
		case FAULT_DROP, FAULT_CORRUPT, FAULT_BUS_OFF:
			if !names[fc.Node] {
				return simerrors.UnknownNodeError{Name: fc.Node}
			}
		default:
			return fmt.Errorf("fault %d: unknown kind %q", i, fc.Kind)
		}
	}

	return nil
}

func (cfg *ScenarioConfig) checkVersion() (err error) {
	if cfg.Version == "DEV" {
		// working descriptor from a dev checkout, accept as-is
		return nil
	}

	ver, err := semver.NewVersion(cfg.Version)
	if err != nil {
		return fmt.Errorf("scenario version %q: %w", cfg.Version, err)
	}

	constraint, err := semver.NewConstraint(SCENARIO_VERSION)
	if err != nil {
		return
	}

	if !constraint.Check(ver) {
		err = fmt.Errorf("unable to load scenario %s: version %s - require %s", cfg.Name, cfg.Version, SCENARIO_VERSION)
	}
	return
}

// frame builds the canbus frame for one schedule entry. A zero dlc with a
// non-empty payload derives the dlc from the data; an explicit dlc must
// match it.
func (sc ScheduleConfig) frame() (canbus.Frame, error) {
	data := make([]byte, len(sc.Data))
	for i, v := range sc.Data {
		if v < 0 || v > 0xFF {
			return canbus.Frame{}, fmt.Errorf("data byte %d out of range: %d", i, v)
		}
		data[i] = byte(v)
	}

	if sc.DLC == 0 && len(data) > 0 {
		if sc.Extended {
			return canbus.NewExtFrame(sc.ID, data)
		}
		return canbus.NewFrame(sc.ID, data)
	}
	if sc.DLC < 0 || sc.DLC > canbus.MaxDataLen {
		return canbus.Frame{}, canbus.ERR_DATA_TOO_LONG
	}
	return canbus.NewFrameDLC(sc.ID, sc.Extended, uint8(sc.DLC), data)
}

// rxFilter builds the rx acceptance filter for one node entry.
func (nc NodeConfig) rxFilter() canbus.Filter {
	var f canbus.Filter
	if len(nc.IDs) > 0 {
		f = canbus.ByIDs(nc.IDs...)
	}
	if nc.FilterMask != 0 {
		f = canbus.Or(f, canbus.ByMask(nc.FilterID, nc.FilterMask))
	}
	if f == nil {
		f = canbus.Any()
	}
	return f
}
