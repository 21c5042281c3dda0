// Package viz renders a launch in the terminal.
//
// Scene nodes are drawn as wireframes onto a braille [Canvas] through the
// active camera rig. [Model] is the Bubble Tea live view: it ticks the launch
// controller at the configured frame rate and shows telemetry next to the
// scene. [Menu] picks a preset before starting the live view.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	h j k l - Orbit the camera
//	+ -     - Zoom toward the view center
//	Wheel   - Zoom toward the cursor
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
