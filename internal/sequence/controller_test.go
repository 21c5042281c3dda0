package sequence_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/san-kum/launchsim/internal/camera"
	"github.com/san-kum/launchsim/internal/config"
	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/launch"
	"github.com/san-kum/launchsim/internal/physics"
	"github.com/san-kum/launchsim/internal/scene"
	"github.com/san-kum/launchsim/internal/sequence"
	"github.com/san-kum/launchsim/internal/sim"
)

var expectedTargets = []float64{
	0, 0, 0, 1, 1, 2, 6, 6, 20, 20, 40, 40, 100, 100, 150, 150,
	220, 220, 220, 220, 220, 220, 220, 220, 220, 220, 220, 220, 220, 220,
	0,
}

func build(cfg *config.Config, loader scene.ModelLoader) *sequence.Launch {
	l, err := sequence.Build(cfg, loader, zerolog.Nop())
	Expect(err).NotTo(HaveOccurred())
	return l
}

// tickSeconds ticks the controller at whole seconds from 0 through last.
func tickSeconds(c *sequence.Controller, last int) []sequence.Frame {
	frames := make([]sequence.Frame, 0, last+1)
	for s := 0; s <= last; s++ {
		f, err := c.Tick(float64(s))
		Expect(err).NotTo(HaveOccurred())
		frames = append(frames, f)
	}
	return frames
}

func withinJitter(a, b dynamo.Vec3) bool {
	return math.Abs(a.X-b.X) <= 0.25 && math.Abs(a.Y-b.Y) <= 0.25 && math.Abs(a.Z-b.Z) <= 0.25
}

// flakyWorld fails a single step and otherwise steps the real world.
type flakyWorld struct {
	world  *physics.World
	steps  int
	failAt int
}

func (w *flakyWorld) Step(dt float64) error {
	w.steps++
	if w.steps == w.failAt {
		return errors.New("transient step failure")
	}
	return w.world.Step(dt)
}

type countingMetric struct {
	observed, resets int
}

func (m *countingMetric) Name() string             { return "count" }
func (m *countingMetric) Observe(f sequence.Frame) { m.observed++ }
func (m *countingMetric) Value() float64           { return float64(m.observed) }
func (m *countingMetric) Reset()                   { m.observed = 0; m.resets++ }

var _ = Describe("Controller", func() {
	var l *sequence.Launch

	BeforeEach(func() {
		l = build(config.DefaultConfig(), nil)
	})

	It("follows the staged profile from 0 to 30 seconds", func() {
		frames := tickSeconds(l.Controller, 30)

		targets := make([]float64, len(frames))
		for i, f := range frames {
			targets[i] = f.TargetVelocityY
		}
		Expect(targets).To(Equal(expectedTargets))

		Expect(frames[30].Frozen).To(BeTrue())
		Expect(frames[30].Stage).To(Equal(launch.Frozen))
		Expect(frames[30].Velocity).To(Equal(dynamo.Vec3{}))
	})

	It("cuts to the chase rig exactly once, at 17 seconds", func() {
		frames := tickSeconds(l.Controller, 30)

		for i, f := range frames {
			if i < 17 {
				Expect(f.Rig).To(Equal(camera.RigWorld), "t=%d", i)
			} else {
				Expect(f.Rig).To(Equal(camera.RigChase), "t=%d", i)
			}
		}
		Expect(l.Switcher.Switches()).To(Equal(1))
		Expect(l.Orbit.Camera).To(BeIdenticalTo(l.Rigs.Chase))
	})

	It("activates the rocket once at ignition", func() {
		tickSeconds(l.Controller, 2)
		Expect(l.Body.IsDynamic()).To(BeFalse())
		Expect(l.Body.Position).To(Equal(dynamo.Vec3{}))

		f, err := l.Controller.Tick(3)
		Expect(err).NotTo(HaveOccurred())
		Expect(l.Body.IsDynamic()).To(BeTrue())
		Expect(l.Body.Mass).To(Equal(config.DefaultMass))
		Expect(l.Controller.State().Launch.Activation.At).To(Equal(3.0))
		Expect(f.Stage).To(Equal(launch.Igniting))
	})

	It("drives the body at the target velocity while ascending", func() {
		tickSeconds(l.Controller, 10)

		Expect(l.Body.Velocity.Y).To(BeNumerically("~", 40, 0.5))
		Expect(l.Body.Position.Y).To(BeNumerically(">", 0))
		Expect(l.Body.SleepState()).To(Equal(physics.Awake))
	})

	It("swaps the exhaust cones at the sustain threshold", func() {
		ign, sus := l.Scene.Ignition, l.Scene.Sustain

		tickSeconds(l.Controller, 2)
		Expect(ign.Visible).To(BeFalse())
		Expect(sus.Visible).To(BeFalse())

		_, _ = l.Controller.Tick(3)
		Expect(ign.Visible).To(BeTrue())
		Expect(sus.Visible).To(BeFalse())

		_, _ = l.Controller.Tick(12)
		Expect(ign.Visible).To(BeFalse())
		Expect(sus.Visible).To(BeTrue())
	})

	It("copies the pose exactly until vibration, then jitters the rocket", func() {
		jittered := false
		for s := 0; s < 30; s++ {
			f, err := l.Controller.Tick(float64(s))
			Expect(err).NotTo(HaveOccurred())

			rocket := l.Scene.Rocket.Position
			if !f.Vibrating {
				Expect(rocket).To(Equal(l.Body.Position), "t=%d", s)
				continue
			}
			Expect(withinJitter(rocket, l.Body.Position)).To(BeTrue(), "t=%d", s)
			if rocket != l.Body.Position {
				jittered = true
			}
		}
		Expect(jittered).To(BeTrue())
	})

	It("stays frozen after the terminal time", func() {
		tickSeconds(l.Controller, 30)
		pos := l.Body.Position
		steps := l.Driver.Steps()

		f, err := l.Controller.Tick(35)
		Expect(errors.Is(err, dynamo.ErrFrozen)).To(BeTrue())
		Expect(f.Frozen).To(BeTrue())
		Expect(f.Elapsed).To(Equal(30.0))
		Expect(l.Body.Position).To(Equal(pos))
		Expect(l.Driver.Steps()).To(Equal(steps))
		Expect(l.Driver.Halted()).To(BeTrue())
	})

	It("feeds metrics and observers every tick", func() {
		m := &countingMetric{}
		var seen []float64
		l.Controller.AddMetric(m)
		l.Controller.AddObserver(sequence.ObserverFunc(func(f sequence.Frame) {
			seen = append(seen, f.Elapsed)
		}))

		tickSeconds(l.Controller, 5)
		Expect(m.observed).To(Equal(6))
		Expect(seen).To(Equal([]float64{0, 1, 2, 3, 4, 5}))
		Expect(l.Controller.Metrics()).To(HaveKeyWithValue("count", 6.0))
	})

	Context("without a rocket model", func() {
		BeforeEach(func() {
			l = build(config.DefaultConfig(), func() (*scene.Node, error) {
				return nil, errors.New("rocket.glb: no such file")
			})
		})

		It("keeps the timeline and physics running", func() {
			Expect(l.Scene.HasRocket()).To(BeFalse())
			Expect(l.Scene.LoadErr).To(HaveOccurred())

			frames := tickSeconds(l.Controller, 30)
			for i, f := range frames {
				Expect(f.TargetVelocityY).To(Equal(expectedTargets[i]))
				Expect(f.Rig).To(Equal(camera.RigWorld))
			}
			Expect(l.Switcher.Switches()).To(BeZero())
			Expect(l.Body.Position.Y).To(BeNumerically(">", 0))
			Expect(l.Controller.Frozen()).To(BeTrue())
			Expect(l.Controller.Recovered()).To(BeZero())
		})
	})

	Context("when an optional effect panics", func() {
		It("contains the failure and keeps ticking to the freeze", func() {
			tl, err := launch.NewTimeline(launch.DefaultProfile())
			Expect(err).NotTo(HaveOccurred())
			d, err := sim.NewDriver(l.World, sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			// A switcher without an orbit controller panics once tracking starts.
			broken := camera.NewSwitcher(nil, l.Rigs, zerolog.Nop())
			c, err := sequence.New(sequence.Options{
				Timeline: tl,
				Driver:   d,
				Body:     l.Body,
				Switcher: broken,
			})
			Expect(err).NotTo(HaveOccurred())

			frames := tickSeconds(c, 30)
			Expect(c.Recovered()).To(BeNumerically(">", 0))
			Expect(frames[30].Frozen).To(BeTrue())
			Expect(frames[20].TargetVelocityY).To(Equal(220.0))
		})
	})

	Describe("Restore", func() {
		It("resumes a saved launch with its effects reapplied", func() {
			tickSeconds(l.Controller, 20)
			data, err := json.Marshal(l.Controller.State())
			Expect(err).NotTo(HaveOccurred())

			var st sequence.State
			Expect(json.Unmarshal(data, &st)).To(Succeed())
			Expect(st.Rig).To(Equal(camera.RigChase))

			fresh := build(config.DefaultConfig(), nil)
			fresh.Controller.Restore(st)

			Expect(fresh.Controller.Rig()).To(Equal(camera.RigChase))
			Expect(fresh.Orbit.Camera).To(BeIdenticalTo(fresh.Rigs.Chase))
			Expect(fresh.Body.IsDynamic()).To(BeTrue())
			Expect(fresh.Scene.Ignition.Visible).To(BeFalse())
			Expect(fresh.Scene.Sustain.Visible).To(BeTrue())

			f, err := fresh.Controller.Tick(21)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.TargetVelocityY).To(Equal(220.0))
			Expect(f.Stage).To(Equal(launch.Vibrating))
		})
	})

	Describe("Restore then Run", func() {
		It("continues from the saved time and pose to the freeze", func() {
			l = build(config.GetPreset("quick"), nil)
			for l.Clock.Elapsed() < 20 {
				_, err := l.Controller.Tick(l.Clock.Elapsed())
				Expect(err).NotTo(HaveOccurred())
			}
			data, err := json.Marshal(l.Controller.State())
			Expect(err).NotTo(HaveOccurred())

			var st sequence.State
			Expect(json.Unmarshal(data, &st)).To(Succeed())
			Expect(st.Launch.Stage).To(Equal(launch.Vibrating))
			Expect(st.Body).NotTo(BeNil())
			Expect(st.Body.Position.Y).To(BeNumerically(">", 100))

			fresh := build(config.GetPreset("quick"), nil)
			fresh.Restore(st)
			Expect(fresh.Body.Position).To(Equal(st.Body.Position))
			Expect(fresh.Clock.Elapsed()).To(BeNumerically("~", l.Clock.Elapsed(), 1e-9))

			res, err := fresh.Controller.RunRecorded(context.Background(), fresh.Loop, fresh.Clock)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Frozen).To(BeTrue())

			first := res.Frames[0]
			Expect(first.Elapsed).To(BeNumerically(">=", 20))
			Expect(first.Stage).To(Equal(launch.Vibrating))
			Expect(first.Rig).To(Equal(camera.RigChase))
			Expect(first.Tick).To(Equal(st.Ticks + 1))
			Expect(first.Position.Y).To(BeNumerically(">", st.Body.Position.Y))

			// Ten seconds at 30 Hz, not a restart from zero.
			Expect(len(res.Frames)).To(BeNumerically("<=", 302))
			for i := 1; i < len(res.Frames); i++ {
				Expect(res.Frames[i].Stage).To(BeNumerically(">=", res.Frames[i-1].Stage))
			}
		})
	})

	Describe("Run", func() {
		It("keeps ticking to the freeze past a failed physics step", func() {
			tl, err := launch.NewTimeline(launch.DefaultProfile())
			Expect(err).NotTo(HaveOccurred())
			cfg := sim.Config{Dt: 1.0 / 60}
			d, err := sim.NewDriver(&flakyWorld{world: l.World, failAt: 100}, cfg)
			Expect(err).NotTo(HaveOccurred())
			c, err := sequence.New(sequence.Options{Timeline: tl, Driver: d, Body: l.Body})
			Expect(err).NotTo(HaveOccurred())

			err = c.Run(context.Background(), sim.NewLoop(cfg), d)
			var te *dynamo.TickError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Tick).To(Equal(100))
			Expect(c.Frozen()).To(BeTrue())
			Expect(c.Ticks()).To(BeNumerically(">=", 1800))
			Expect(c.Last().Stage).To(Equal(launch.Frozen))
		})

		It("runs unpaced on the virtual clock until the freeze", func() {
			l = build(config.GetPreset("quick"), nil)
			m := &countingMetric{}
			l.Controller.AddMetric(m)

			res, err := l.Controller.RunRecorded(context.Background(), l.Loop, l.Clock)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Frozen).To(BeTrue())
			Expect(res.Ticks).To(BeNumerically(">=", 900))
			Expect(res.Ticks).To(BeNumerically("<=", 903))
			Expect(res.Frames).To(HaveLen(res.Ticks))
			Expect(res.Frames[len(res.Frames)-1].Elapsed).To(BeNumerically(">=", 30-1e-9))
			Expect(res.Metrics).To(HaveKeyWithValue("count", float64(res.Ticks)))
			Expect(m.resets).To(Equal(1))
		})

		It("stops when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := l.Controller.Run(ctx, &sim.Loop{}, l.Clock)
			Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
			Expect(l.Controller.Ticks()).To(BeZero())
		})
	})

	Describe("New", func() {
		It("requires a timeline and a driver", func() {
			_, err := sequence.New(sequence.Options{})
			Expect(err).To(HaveOccurred())

			tl, _ := launch.NewTimeline(launch.DefaultProfile())
			_, err = sequence.New(sequence.Options{Timeline: tl})
			Expect(err).To(HaveOccurred())
		})
	})
})
