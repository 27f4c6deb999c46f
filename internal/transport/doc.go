// Package transport provides the connect and send capability workers use to
// reach the canvas service.
//
// A Dialer opens a Channel to an address; a Channel sends text frames until
// it is closed. Two WebSocket drivers are available:
//
//   - "xnet" (default): golang.org/x/net/websocket
//   - "gorilla": github.com/gorilla/websocket
//
// # Basic Usage
//
//	d, err := transport.NewDialer(transport.DriverXNet, "")
//	ch, err := d.Dial(ctx, "ws://localhost:3001/ws")
//	defer ch.Close()
//	err = ch.Send(ctx, frame)
//
// # Errors
//
// Dial failures wrap ErrConnect and send failures wrap ErrSend. Sending on a
// channel that has been closed returns ErrClosed. There is no reconnect.
//
// Each Channel is meant to be owned by one worker, but Send is safe for
// concurrent use.
package transport
