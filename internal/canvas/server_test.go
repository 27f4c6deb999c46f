package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"pixel-swarm/internal/command"
	"pixel-swarm/internal/grid"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(":0")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, err := websocket.Dial(url, "", ts.URL+"/")
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for condition")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestServerAppliesFrames(t *testing.T) {
	s, ts := newTestServer(t)
	ws := dial(t, ts)

	frame, _ := command.NewSetPixel(grid.Coordinate{X: 2, Y: 3}, 0x00FF00).Encode()
	if err := websocket.Message.Send(ws, frame); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	waitFor(t, func() bool { return s.Store().Updates() == 1 })

	px, ok := s.Store().Get(grid.Coordinate{X: 2, Y: 3})
	if !ok || px.Colour != 0x00FF00 {
		t.Errorf("unexpected pixel: %+v", px)
	}
}

func TestServerRejectsInvalidFrames(t *testing.T) {
	s, ts := newTestServer(t)
	ws := dial(t, ts)

	_ = websocket.Message.Send(ws, `{"command":"nope"}`)
	frame, _ := command.NewSetPixel(grid.Coordinate{}, 1).Encode()
	_ = websocket.Message.Send(ws, frame)

	// 不正なフレームの後も接続は維持される
	waitFor(t, func() bool { return s.Store().Updates() == 1 })

	status := s.Status()
	if status.Received != 2 || status.Rejected != 1 {
		t.Errorf("unexpected counters: %+v", status)
	}
}

func TestServerBroadcastsToOtherClients(t *testing.T) {
	_, ts := newTestServer(t)
	sender := dial(t, ts)
	watcher := dial(t, ts)

	frame, _ := command.NewSetPixel(grid.Coordinate{X: 1}, 0xABCDEF).Encode()

	// watcher が登録されるまで少し待つ
	time.Sleep(20 * time.Millisecond)
	if err := websocket.Message.Send(sender, frame); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	_ = watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got string
	if err := websocket.Message.Receive(watcher, &got); err != nil {
		t.Fatalf("failed to receive broadcast: %v", err)
	}
	if got != frame {
		t.Errorf("expected %s, got %s", frame, got)
	}
}

func TestServerCanvasEndpoint(t *testing.T) {
	s, ts := newTestServer(t)
	s.Store().Apply(command.Pixel{X: 0, Y: 0, Colour: 0xFF0000})
	s.Store().Apply(command.Pixel{X: 1, Y: 0, Colour: 0x0000FF})

	resp, err := http.Get(ts.URL + "/canvas")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var pixels []Pixel
	if err := json.NewDecoder(resp.Body).Decode(&pixels); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(pixels) != 2 {
		t.Fatalf("expected 2 pixels, got %d", len(pixels))
	}
	if pixels[1].Colour != 0x0000FF {
		t.Errorf("unexpected second pixel %+v", pixels[1])
	}
}

func TestServerSVGEndpoint(t *testing.T) {
	s, ts := newTestServer(t)
	s.Store().Apply(command.Pixel{X: 0, Y: 0, Colour: 0xFF0000})

	resp, err := http.Get(ts.URL + "/canvas.svg?cell=5")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("unexpected content type %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "fill:#ff0000") {
		t.Errorf("expected red cell in svg, got %s", body)
	}

	bad, err := http.Get(ts.URL + "/canvas.svg?cell=zero")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid cell, got %d", bad.StatusCode)
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/canvas", "/canvas.svg", "/api/status"} {
		resp, err := http.Post(ts.URL+path, "application/json", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", path, resp.StatusCode)
		}
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + s.Addr() + "/api/status")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var status StatusResponse
	_ = json.NewDecoder(resp.Body).Decode(&status)
	_ = resp.Body.Close()
	if status.Pixels != 0 {
		t.Errorf("expected empty canvas, got %d pixels", status.Pixels)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error on shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerBroadcastDropsWhenQueueFull(t *testing.T) {
	s := NewServer(":0")

	from := &client{send: make(chan string, 1)}
	slow := &client{send: make(chan string, 1)}
	s.register(from)
	s.register(slow)

	s.broadcast(from, "first")
	s.broadcast(from, "second")

	if len(from.send) != 0 {
		t.Error("sender should not receive its own frame")
	}
	if got := <-slow.send; got != "first" {
		t.Errorf("expected first frame to be queued, got %q", got)
	}
	if dropped := s.Status().Dropped; dropped != 1 {
		t.Errorf("expected 1 dropped frame, got %d", dropped)
	}
}

func TestServerIdlePeerDoesNotStallOthers(t *testing.T) {
	s, ts := newTestServer(t)
	s.queueSize = 4

	// 一切読まない接続
	_ = dial(t, ts)
	sender := dial(t, ts)
	other := dial(t, ts)

	time.Sleep(20 * time.Millisecond)

	const frames = 100000
	frame, _ := command.NewSetPixel(grid.Coordinate{X: 1, Y: 1}, 0x123456).Encode()

	sent := make(chan error, 1)
	go func() {
		for range frames {
			if err := websocket.Message.Send(sender, frame); err != nil {
				sent <- err
				return
			}
		}
		sent <- nil
	}()

	select {
	case err := <-sent:
		if err != nil {
			t.Fatalf("failed to send: %v", err)
		}
	case <-time.After(20 * time.Second):
		t.Fatal("sender blocked: server stopped reading")
	}

	last, _ := command.NewSetPixel(grid.Coordinate{X: 50, Y: 50}, 0xFF00FF).Encode()
	if err := websocket.Message.Send(other, last); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		px, ok := s.Store().Get(grid.Coordinate{X: 50, Y: 50})
		if ok && px.Colour == 0xFF00FF && s.Store().Updates() == frames+1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("frame from another client was not stored (updates: %d)", s.Store().Updates())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

}

func TestServerStartTwice(t *testing.T) {
	s := NewServer("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
