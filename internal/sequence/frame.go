package sequence

import (
	"github.com/san-kum/launchsim/internal/camera"
	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/launch"
)

// Frame is the telemetry produced by one tick.
type Frame struct {
	Tick            int          `json:"tick"`
	Elapsed         float64      `json:"elapsed"`
	Stage           launch.Stage `json:"stage"`
	TargetVelocityY float64      `json:"target_velocity_y"`
	Vibrating       bool         `json:"vibrating"`
	Frozen          bool         `json:"frozen"`
	Rig             camera.Rig   `json:"rig"`
	HasBody         bool         `json:"has_body"`
	Position        dynamo.Vec3  `json:"position"`
	Velocity        dynamo.Vec3  `json:"velocity"`
}

// Altitude is the body height, zero without a body.
func (f Frame) Altitude() float64 { return f.Position.Y }

// Speed is the body's linear speed.
func (f Frame) Speed() float64 { return f.Velocity.Length() }

// Metric summarizes a run one frame at a time.
type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

// Recorder keeps every frame it sees.
type Recorder struct {
	Frames []Frame
}

func (r *Recorder) OnFrame(f Frame) { r.Frames = append(r.Frames, f) }

// Result is a finished run.
type Result struct {
	Frames  []Frame
	Metrics map[string]float64
	Ticks   int
	Frozen  bool
}
