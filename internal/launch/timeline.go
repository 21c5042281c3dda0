package launch

import (
	"fmt"
	"math"
	"sort"
)

const (
	EffectIgnition = "ignition"
	EffectSustain  = "sustain"
)

// Row is one velocity stage: from At seconds on, the target is Velocity.
type Row struct {
	At       float64 `yaml:"at" json:"at" mapstructure:"at"`
	Velocity float64 `yaml:"velocity" json:"velocity" mapstructure:"velocity"`
}

// Profile is the scripted ascent.
type Profile struct {
	Rows       []Row
	IgnitionAt float64
	SustainAt  float64
	VibrateAt  float64
	FreezeAt   float64
}

func DefaultRows() []Row {
	return []Row{
		{At: 3, Velocity: 1},
		{At: 5, Velocity: 2},
		{At: 6, Velocity: 6},
		{At: 8, Velocity: 20},
		{At: 10, Velocity: 40},
		{At: 12, Velocity: 100},
		{At: 14, Velocity: 150},
		{At: 16, Velocity: 220},
	}
}

func DefaultProfile() Profile {
	return Profile{
		Rows:       DefaultRows(),
		IgnitionAt: 3,
		SustainAt:  12,
		VibrateAt:  16,
		FreezeAt:   30,
	}
}

func (p Profile) Validate() error {
	if len(p.Rows) == 0 {
		return fmt.Errorf("stage table is empty")
	}
	for i, r := range p.Rows {
		if r.At < 0 || math.IsNaN(r.At) || math.IsInf(r.At, 0) {
			return fmt.Errorf("stage %d: threshold must be a finite non-negative time, got %v", i, r.At)
		}
		if math.IsNaN(r.Velocity) || math.IsInf(r.Velocity, 0) {
			return fmt.Errorf("stage %d: velocity must be finite", i)
		}
		if i > 0 && r.At <= p.Rows[i-1].At {
			return fmt.Errorf("stage %d: thresholds must be strictly increasing (%v after %v)", i, r.At, p.Rows[i-1].At)
		}
	}
	if p.IgnitionAt < 0 {
		return fmt.Errorf("ignition time must not be negative, got %v", p.IgnitionAt)
	}
	if p.SustainAt < p.IgnitionAt {
		return fmt.Errorf("sustain time %v precedes ignition %v", p.SustainAt, p.IgnitionAt)
	}
	if p.FreezeAt <= p.IgnitionAt {
		return fmt.Errorf("freeze time %v must follow ignition %v", p.FreezeAt, p.IgnitionAt)
	}
	if p.VibrateAt > p.FreezeAt {
		return fmt.Errorf("vibration time %v is after freeze %v", p.VibrateAt, p.FreezeAt)
	}
	return nil
}

// VisibilityChange shows or hides a named effect element.
type VisibilityChange struct {
	Effect  string `json:"effect"`
	Visible bool   `json:"visible"`
}

// Setpoint is the timeline output for one tick. Activate and Freeze are
// edges: they are set only on the tick the transition fires.
type Setpoint struct {
	Elapsed         float64            `json:"elapsed"`
	Stage           Stage              `json:"stage"`
	TargetVelocityY float64            `json:"target_velocity_y"`
	Vibrating       bool               `json:"vibrating"`
	Activate        bool               `json:"activate,omitempty"`
	Freeze          bool               `json:"freeze,omitempty"`
	StageChanged    bool               `json:"stage_changed,omitempty"`
	Visibility      []VisibilityChange `json:"visibility,omitempty"`
}

type Timeline struct {
	profile Profile
	desc    []Row
}

func NewTimeline(p Profile) (*Timeline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	desc := make([]Row, len(p.Rows))
	copy(desc, p.Rows)
	sort.Slice(desc, func(i, j int) bool { return desc[i].At > desc[j].At })
	return &Timeline{profile: p, desc: desc}, nil
}

func (tl *Timeline) Profile() Profile { return tl.profile }

// row returns the highest stage row whose threshold is at or below elapsed.
func (tl *Timeline) row(elapsed float64) (Row, bool) {
	for _, r := range tl.desc {
		if r.At <= elapsed {
			return r, true
		}
	}
	return Row{}, false
}

// TargetVelocity is the table lookup alone, without the freeze override.
func (tl *Timeline) TargetVelocity(elapsed float64) float64 {
	if elapsed < tl.profile.IgnitionAt {
		return 0
	}
	r, ok := tl.row(elapsed)
	if !ok {
		return 0
	}
	return r.Velocity
}

func (tl *Timeline) StageAt(elapsed float64) Stage {
	p := tl.profile
	switch {
	case elapsed < p.IgnitionAt:
		return Inert
	case elapsed >= p.FreezeAt:
		return Frozen
	case elapsed >= p.VibrateAt:
		return Vibrating
	}
	if r, ok := tl.row(elapsed); !ok || r.At <= p.IgnitionAt {
		return Igniting
	}
	return Ascending
}

// Evaluate is the stateless view of the timeline at elapsed: visibility is
// reported as the level each effect should have, not as transitions.
func (tl *Timeline) Evaluate(elapsed float64) Setpoint {
	p := tl.profile
	sp := Setpoint{
		Elapsed:         elapsed,
		Stage:           tl.StageAt(elapsed),
		TargetVelocityY: tl.TargetVelocity(elapsed),
		Vibrating:       elapsed >= p.VibrateAt && elapsed < p.FreezeAt,
		Activate:        elapsed >= p.IgnitionAt,
		Freeze:          elapsed >= p.FreezeAt,
	}
	if sp.Freeze {
		sp.TargetVelocityY = 0
	}
	sp.Visibility = []VisibilityChange{
		{Effect: EffectIgnition, Visible: elapsed >= p.IgnitionAt && elapsed < p.SustainAt},
		{Effect: EffectSustain, Visible: elapsed >= p.SustainAt},
	}
	return sp
}

// Advance applies the latched transitions due at elapsed to st. Once frozen,
// the same frozen state and setpoint are returned for any later time.
func (tl *Timeline) Advance(st State, elapsed float64) (State, Setpoint) {
	if st.Frozen() {
		return st, Setpoint{Elapsed: st.Freeze.At, Stage: Frozen}
	}

	p := tl.profile
	prev := st.Stage
	sp := Setpoint{
		Elapsed:         elapsed,
		Stage:           tl.StageAt(elapsed),
		TargetVelocityY: tl.TargetVelocity(elapsed),
		Vibrating:       elapsed >= p.VibrateAt && elapsed < p.FreezeAt,
	}

	sp.Activate = st.Activation.Trip(elapsed >= p.IgnitionAt, elapsed)
	if st.Ignition.Trip(elapsed >= p.IgnitionAt, elapsed) {
		sp.Visibility = append(sp.Visibility, VisibilityChange{Effect: EffectIgnition, Visible: true})
	}
	if st.Sustain.Trip(elapsed >= p.SustainAt, elapsed) {
		sp.Visibility = append(sp.Visibility,
			VisibilityChange{Effect: EffectIgnition, Visible: false},
			VisibilityChange{Effect: EffectSustain, Visible: true},
		)
	}
	if st.Freeze.Trip(elapsed >= p.FreezeAt, elapsed) {
		sp.Freeze = true
		sp.Stage = Frozen
		sp.TargetVelocityY = 0
		sp.Vibrating = false
	}

	st.Stage = sp.Stage
	sp.StageChanged = st.Stage != prev
	return st, sp
}
