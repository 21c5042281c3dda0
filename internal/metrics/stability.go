package metrics

import (
	"math"

	"github.com/san-kum/launchsim/internal/sequence"
)

// DefaultTrackingTolerance allows for one step of gravity at 60 Hz.
const DefaultTrackingTolerance = 0.5

// powered reports whether f is a frame in which the body is being driven.
func powered(f sequence.Frame) bool {
	return f.HasBody && !f.Frozen && f.TargetVelocityY != 0
}

// TrackingError is the mean absolute gap between the body's vertical
// velocity and the target over powered frames.
type TrackingError struct {
	name    string
	sum     float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{name: "tracking_error"}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(f sequence.Frame) {
	if !powered(f) {
		return
	}
	e.sum += math.Abs(f.Velocity.Y - f.TargetVelocityY)
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *TrackingError) Reset() {
	e.sum = 0
	e.samples = 0
}

// Stability is the fraction of powered frames whose vertical velocity is
// within threshold of the target.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f sequence.Frame) {
	if !powered(f) {
		return
	}
	s.samples++
	if math.Abs(f.Velocity.Y-f.TargetVelocityY) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
