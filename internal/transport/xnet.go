package transport

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/websocket"
)

type xnetDialer struct {
	origin string
}

func (d *xnetDialer) Dial(ctx context.Context, address string) (Channel, error) {
	origin, err := resolveOrigin(d.origin, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	config, err := websocket.NewConfig(address, origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	ws, err := config.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, address, err)
	}
	return &xnetChannel{ws: ws}, nil
}

type xnetChannel struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	closed atomic.Bool
}

func (c *xnetChannel) Send(ctx context.Context, message string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, _ := ctx.Deadline()
	_ = c.ws.SetWriteDeadline(deadline)
	if err := websocket.Message.Send(c.ws, message); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	_ = c.ws.SetWriteDeadline(time.Time{})
	return nil
}

func (c *xnetChannel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.ws.Close()
}
