package launch

import "fmt"

type Stage int

const (
	Inert Stage = iota
	Igniting
	Ascending
	Vibrating
	Frozen
)

var stageNames = [...]string{"inert", "igniting", "ascending", "vibrating", "frozen"}

func (s Stage) String() string {
	if s < Inert || s > Frozen {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	for i, name := range stageNames {
		if name == string(b) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", b)
}

// Latch is a one-shot transition. Once fired it stays fired for the run.
type Latch struct {
	Fired bool    `json:"fired"`
	At    float64 `json:"at,omitempty"`
}

// Trip fires the latch when cond holds and it has not fired yet. It reports
// whether this call fired it.
func (l *Latch) Trip(cond bool, at float64) bool {
	if l.Fired || !cond {
		return false
	}
	l.Fired = true
	l.At = at
	return true
}

// State is the serializable timeline state threaded through every tick.
type State struct {
	Stage      Stage `json:"stage"`
	Activation Latch `json:"activation"`
	Ignition   Latch `json:"ignition"`
	Sustain    Latch `json:"sustain"`
	Freeze     Latch `json:"freeze"`
}

func (s State) Frozen() bool    { return s.Freeze.Fired }
func (s State) Activated() bool { return s.Activation.Fired }
