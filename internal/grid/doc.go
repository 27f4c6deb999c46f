// Package grid maps worker ordinals onto an approximately square grid.
//
// The grid side is floor(sqrt(total)). Worker i lands at
// (i mod side, i / side), so the first side*side workers fill a full square
// and any remaining workers spill into extra rows below it.
//
//	c := grid.Map(3, 4) // side 2 -> {X: 1, Y: 1}
//
// When total is not a perfect square the trailing rows are wider than the
// remaining worker count, and with very uneven totals several rows may be
// added. This is an accepted property of the layout and is not corrected.
package grid
