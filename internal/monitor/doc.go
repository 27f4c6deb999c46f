// Package monitor renders the pixel mosaic in a terminal.
//
// RenderMosaic draws what every worker paints on a given cycle, which is
// useful to preview a grid size without a canvas service. Model is a
// bubbletea program that follows a running swarm through its event bus and
// repaints each cell as pixel_sent events arrive.
package monitor
