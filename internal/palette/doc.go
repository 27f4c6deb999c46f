// Package palette computes the colour a worker paints on a given cycle.
//
// Two palettes alternate by cycle parity, evaluated on the cycle count
// before it is incremented:
//
//   - even cycles (including the first) use palette B, a red-to-blue
//     gradient: red = 255*(total-index)/total, blue = 255*index/total
//   - odd cycles use palette A, a yellow-to-green ramp with red fixed at
//     255 and green = 255*index/total
//
// All divisions floor. Colorize is pure and deterministic.
//
//	c := palette.Colorize(0, 0, 100) // 0xFF0000
//	c.Hex()                         // "#ff0000"
package palette
