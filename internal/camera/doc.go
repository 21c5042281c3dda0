// Package camera holds the viewpoints of the launch scene and the controls
// that move them.
//
//   - [Camera]: perspective camera with projection and ray unprojection
//   - [Orbit]: orbit controller keeping a camera pointed at a target
//   - [Switcher]: one-way cut from the world rig to the chase rig
//   - [Zoom]: wheel zoom anchored on the point under the cursor
//
// The chase camera lives in the rocket's local frame; [Rigs.View] composes
// it with the mount node to get the world-space camera a renderer draws from.
package camera
