package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Driver names a WebSocket implementation.
type Driver string

const (
	DriverXNet    Driver = "xnet"
	DriverGorilla Driver = "gorilla"
)

var (
	// ErrConnect wraps failures to establish a channel.
	ErrConnect = errors.New("connect failed")
	// ErrSend wraps failures to deliver a message.
	ErrSend = errors.New("send failed")
	// ErrClosed is returned when sending on a closed channel.
	ErrClosed = errors.New("channel closed")
)

// Channel is an established logical connection to the canvas service.
type Channel interface {
	Send(ctx context.Context, message string) error
	Close() error
}

// Dialer establishes channels.
type Dialer interface {
	Dial(ctx context.Context, address string) (Channel, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, address string) (Channel, error)

// Dial calls f(ctx, address).
func (f DialerFunc) Dial(ctx context.Context, address string) (Channel, error) {
	return f(ctx, address)
}

// ParseDriver validates a driver name. An empty name selects DriverXNet.
func ParseDriver(name string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(name))) {
	case "", DriverXNet:
		return DriverXNet, nil
	case DriverGorilla:
		return DriverGorilla, nil
	default:
		return "", fmt.Errorf("unknown transport driver: %s", name)
	}
}

// Drivers lists the supported driver names.
func Drivers() []Driver {
	return []Driver{DriverXNet, DriverGorilla}
}

// NewDialer returns a Dialer for the named driver. origin is sent as the
// Origin header; when empty it is derived from the dialed address.
func NewDialer(driver Driver, origin string) (Dialer, error) {
	d, err := ParseDriver(string(driver))
	if err != nil {
		return nil, err
	}
	switch d {
	case DriverGorilla:
		return &gorillaDialer{origin: origin}, nil
	default:
		return &xnetDialer{origin: origin}, nil
	}
}

// OriginFor derives an http(s) origin from a ws(s) address.
func OriginFor(address string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", address, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("invalid address %q: unsupported scheme %q", address, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid address %q: missing host", address)
	}
	return u.Scheme + "://" + u.Host + "/", nil
}

func resolveOrigin(origin, address string) (string, error) {
	if origin != "" {
		return origin, nil
	}
	return OriginFor(address)
}
