// Package canvas provides a local stand-in for the pixel-drawing service.
//
// A Store keeps the last colour written to each cell together with a write
// sequence number. The Server accepts set_pixel frames over a WebSocket at
// /ws, applies them to the store and forwards each accepted frame to the
// other connected clients. It also serves:
//
//   - GET /canvas      all pixels as JSON, ordered by row then column
//   - GET /canvas.svg  an SVG rendering (?cell=N sets the cell size)
//   - GET /api/status  counters and canvas bounds
//
// Malformed frames are counted and dropped; the connection stays open.
//
// Forwarding never blocks the receive path. Each connection has a bounded
// queue drained by its own writer goroutine; frames for a full queue are
// dropped and counted, and a peer whose write misses the deadline is closed.
// Start may be called once per Server.
//
//	srv := canvas.NewServer(":3001")
//	go srv.Start(ctx)
//	<-srv.Ready()
package canvas
