package metrics

import (
	"math"

	"github.com/san-kum/launchsim/internal/sequence"
)

type MaxAltitude struct {
	name string
	max  float64
	seen bool
}

func NewMaxAltitude() *MaxAltitude {
	return &MaxAltitude{name: "max_altitude"}
}

func (m *MaxAltitude) Name() string { return m.name }

func (m *MaxAltitude) Observe(f sequence.Frame) {
	if !f.HasBody {
		return
	}
	if !m.seen || f.Altitude() > m.max {
		m.max = f.Altitude()
		m.seen = true
	}
}

func (m *MaxAltitude) Value() float64 { return m.max }

func (m *MaxAltitude) Reset() {
	m.max = 0
	m.seen = false
}

type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(f sequence.Frame) {
	if f.HasBody {
		p.peak = math.Max(p.peak, f.Speed())
	}
}

func (p *PeakSpeed) Value() float64 { return p.peak }
func (p *PeakSpeed) Reset()         { p.peak = 0 }

// TicksToFreeze counts ticks up to and including the freeze; it reports
// zero while the launch is still running.
type TicksToFreeze struct {
	name   string
	ticks  int
	frozen bool
}

func NewTicksToFreeze() *TicksToFreeze {
	return &TicksToFreeze{name: "ticks_to_freeze"}
}

func (t *TicksToFreeze) Name() string { return t.name }

func (t *TicksToFreeze) Observe(f sequence.Frame) {
	if t.frozen {
		return
	}
	t.ticks++
	t.frozen = f.Frozen
}

func (t *TicksToFreeze) Value() float64 {
	if !t.frozen {
		return 0
	}
	return float64(t.ticks)
}

func (t *TicksToFreeze) Reset() {
	t.ticks = 0
	t.frozen = false
}

// Standard is the metric set every run records.
func Standard() []sequence.Metric {
	return []sequence.Metric{
		NewMaxAltitude(),
		NewPeakSpeed(),
		NewTrackingError(),
		NewStability(DefaultTrackingTolerance),
		NewTicksToFreeze(),
	}
}
