package launch_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/launchsim/internal/launch"
)

var _ = Describe("Timeline", func() {
	var tl *launch.Timeline

	BeforeEach(func() {
		var err error
		tl, err = launch.NewTimeline(launch.DefaultProfile())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("TargetVelocity", func() {
		DescribeTable("descending-threshold lookup",
			func(elapsed, want float64) {
				Expect(tl.TargetVelocity(elapsed)).To(Equal(want))
			},
			Entry("pad", 0.0, 0.0),
			Entry("just before ignition", 2.999, 0.0),
			Entry("ignition", 3.0, 1.0),
			Entry("between 3 and 5", 4.5, 1.0),
			Entry("5s", 5.0, 2.0),
			Entry("6s", 6.0, 6.0),
			Entry("8s", 8.0, 20.0),
			Entry("10s", 10.0, 40.0),
			Entry("12s", 12.0, 100.0),
			Entry("14s", 14.0, 150.0),
			Entry("16s", 16.0, 220.0),
			Entry("well past the table", 29.9, 220.0),
		)
	})

	Describe("StageAt", func() {
		DescribeTable("stage boundaries",
			func(elapsed float64, want launch.Stage) {
				Expect(tl.StageAt(elapsed)).To(Equal(want))
			},
			Entry("inert", 1.0, launch.Inert),
			Entry("igniting", 3.0, launch.Igniting),
			Entry("still igniting", 4.9, launch.Igniting),
			Entry("ascending", 5.0, launch.Ascending),
			Entry("vibrating", 16.0, launch.Vibrating),
			Entry("frozen", 30.0, launch.Frozen),
		)
	})

	Describe("Evaluate", func() {
		It("keeps the pad inert before ignition", func() {
			for e := 0.0; e < 3; e += 0.25 {
				sp := tl.Evaluate(e)
				Expect(sp.TargetVelocityY).To(BeZero())
				Expect(sp.Activate).To(BeFalse())
				Expect(sp.Vibrating).To(BeFalse())
			}
		})

		It("vibrates at full speed between 16 and 30 seconds", func() {
			for e := 16.0; e < 30; e += 0.5 {
				sp := tl.Evaluate(e)
				Expect(sp.TargetVelocityY).To(Equal(220.0))
				Expect(sp.Vibrating).To(BeTrue())
			}
		})

		It("forces zero velocity once frozen", func() {
			sp := tl.Evaluate(31)
			Expect(sp.TargetVelocityY).To(BeZero())
			Expect(sp.Vibrating).To(BeFalse())
			Expect(sp.Stage).To(Equal(launch.Frozen))
		})

		It("reports effect visibility levels", func() {
			Expect(tl.Evaluate(4).Visibility).To(ConsistOf(
				launch.VisibilityChange{Effect: launch.EffectIgnition, Visible: true},
				launch.VisibilityChange{Effect: launch.EffectSustain, Visible: false},
			))
			Expect(tl.Evaluate(13).Visibility).To(ConsistOf(
				launch.VisibilityChange{Effect: launch.EffectIgnition, Visible: false},
				launch.VisibilityChange{Effect: launch.EffectSustain, Visible: true},
			))
		})
	})

	Describe("Advance", func() {
		It("fires the activation latch exactly once", func() {
			var st launch.State
			fired := 0
			for tick := 0; tick <= 60*30; tick++ {
				var sp launch.Setpoint
				st, sp = tl.Advance(st, float64(tick)/60)
				if sp.Activate {
					fired++
				}
			}
			Expect(fired).To(Equal(1))
			Expect(st.Activation.At).To(Equal(3.0))
		})

		It("emits effect transitions once each, in order", func() {
			var st launch.State
			var changes []launch.VisibilityChange
			for e := 0.0; e <= 20; e += 0.5 {
				var sp launch.Setpoint
				st, sp = tl.Advance(st, e)
				changes = append(changes, sp.Visibility...)
			}
			Expect(changes).To(Equal([]launch.VisibilityChange{
				{Effect: launch.EffectIgnition, Visible: true},
				{Effect: launch.EffectIgnition, Visible: false},
				{Effect: launch.EffectSustain, Visible: true},
			}))
		})

		It("applies both effect transitions when the first tick lands late", func() {
			var st launch.State
			_, sp := tl.Advance(st, 13)
			Expect(sp.Activate).To(BeTrue())
			Expect(sp.Visibility).To(HaveLen(3))
			Expect(sp.Visibility[2]).To(Equal(launch.VisibilityChange{Effect: launch.EffectSustain, Visible: true}))
		})

		It("freezes idempotently", func() {
			var st launch.State
			for e := 0.0; e < 30; e++ {
				st, _ = tl.Advance(st, e)
			}

			st30, sp30 := tl.Advance(st, 30)
			Expect(sp30.Freeze).To(BeTrue())
			Expect(sp30.TargetVelocityY).To(BeZero())
			Expect(st30.Frozen()).To(BeTrue())

			st35, sp35 := tl.Advance(st30, 35)
			Expect(st35).To(Equal(st30))
			Expect(sp35.Stage).To(Equal(launch.Frozen))
			Expect(sp35.TargetVelocityY).To(BeZero())
			Expect(sp35.Elapsed).To(Equal(30.0))
			Expect(sp35.Freeze).To(BeFalse())
		})

		It("walks the stage machine monotonically", func() {
			var st launch.State
			var seen []launch.Stage
			for e := 0.0; e <= 32; e += 0.25 {
				var sp launch.Setpoint
				st, sp = tl.Advance(st, e)
				if sp.StageChanged {
					seen = append(seen, sp.Stage)
				}
			}
			Expect(seen).To(Equal([]launch.Stage{
				launch.Igniting, launch.Ascending, launch.Vibrating, launch.Frozen,
			}))
		})

		It("produces the scripted velocity sequence at one second steps", func() {
			var st launch.State
			var got []float64
			for e := 0; e <= 30; e++ {
				var sp launch.Setpoint
				st, sp = tl.Advance(st, float64(e))
				got = append(got, sp.TargetVelocityY)
			}
			want := []float64{0, 0, 0, 1, 1, 2, 6, 6, 20, 20, 40, 40, 100, 100, 150, 150}
			for i := 16; i < 30; i++ {
				want = append(want, 220)
			}
			want = append(want, 0)
			Expect(got).To(Equal(want))
		})
	})

	Describe("State", func() {
		It("round-trips through JSON with readable stage names", func() {
			st := launch.State{Stage: launch.Vibrating}
			st.Activation.Trip(true, 3)

			data, err := json.Marshal(st)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"stage":"vibrating"`))

			var back launch.State
			Expect(json.Unmarshal(data, &back)).To(Succeed())
			Expect(back).To(Equal(st))
		})
	})
})

var _ = Describe("Profile", func() {
	DescribeTable("Validate rejects malformed profiles",
		func(mutate func(*launch.Profile)) {
			p := launch.DefaultProfile()
			mutate(&p)
			_, err := launch.NewTimeline(p)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty table", func(p *launch.Profile) { p.Rows = nil }),
		Entry("unsorted table", func(p *launch.Profile) {
			p.Rows = []launch.Row{{At: 5, Velocity: 2}, {At: 3, Velocity: 1}}
		}),
		Entry("negative threshold", func(p *launch.Profile) { p.Rows[0].At = -1 }),
		Entry("freeze before ignition", func(p *launch.Profile) { p.FreezeAt = 2 }),
		Entry("sustain before ignition", func(p *launch.Profile) { p.SustainAt = 1 }),
		Entry("vibration after freeze", func(p *launch.Profile) { p.VibrateAt = 40 }),
	)
})

var _ = Describe("Latch", func() {
	It("trips once and remembers when", func() {
		var l launch.Latch
		Expect(l.Trip(false, 1)).To(BeFalse())
		Expect(l.Trip(true, 2)).To(BeTrue())
		Expect(l.Trip(true, 3)).To(BeFalse())
		Expect(l.At).To(Equal(2.0))
	})
})
