// Package launch implements the staged launch timeline.
//
// A [Timeline] maps elapsed seconds to a [Setpoint]: the target vertical
// velocity for the rocket body, whether the vibration stage is active, and
// the effect visibility transitions due on that tick. Thresholds are scanned
// from highest to lowest and the first one at or below the elapsed time
// wins, so later stages override earlier ones once reached.
//
// One-shot transitions (dynamics activation, effect swaps, freeze) are kept
// in an explicit [State] of [Latch] values. [Timeline.Advance] takes the
// state and returns it updated, which makes every transition testable by
// injecting a state instead of mocking a clock:
//
//	tl, _ := launch.NewTimeline(launch.DefaultProfile())
//	var st launch.State
//	st, sp := tl.Advance(st, 3.0) // sp.Activate == true
//	st, sp = tl.Advance(st, 3.5)  // sp.Activate == false
//
// Stages progress monotonically:
//
//	INERT -> IGNITING -> ASCENDING -> VIBRATING -> FROZEN
package launch
