package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"

	"pixel-swarm/internal/command"
	"pixel-swarm/internal/logger"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// ErrAlreadyStarted は Start を二重に呼んだ場合のエラー
var ErrAlreadyStarted = errors.New("canvas server already started")

// client は1接続分の送信キュー
// 送信は専用のゴルーチンが行い、受信ループはブロックしない
type client struct {
	ws   *websocket.Conn
	send chan string
}

// Server はローカル検証用のキャンバスサーバー
type Server struct {
	addr  string
	store *Store

	mu        sync.RWMutex
	wsClients map[*client]struct{}
	queueSize int

	received atomic.Uint64
	rejected atomic.Uint64
	dropped  atomic.Uint64
	started  time.Time

	running atomic.Bool
	server  *http.Server
	ready   chan struct{}
	bound   atomic.Value // string
}

// NewServer は新しいキャンバスサーバーを作成する
func NewServer(addr string) *Server {
	return &Server{
		addr:      addr,
		store:     NewStore(),
		wsClients: make(map[*client]struct{}),
		queueSize: defaultQueueSize,
		started:   time.Now(),
		ready:     make(chan struct{}),
	}
}

// Store はキャンバスを返す
func (s *Server) Store() *Store {
	return s.store
}

// Handler はルーティング済みの http.Handler を返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/canvas", s.handleCanvas)
	mux.HandleFunc("/canvas.svg", s.handleCanvasSVG)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start はサーバーを開始し、ctx がキャンセルされるまでブロックする
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.bound.Store(listener.Addr().String())

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("", "Canvas server listening on %s", listener.Addr())
	close(s.ready)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeClients()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Ready はリッスン開始後にクローズされるチャネルを返す
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr は実際にリッスンしているアドレスを返す（Start 前は設定値）
func (s *Server) Addr() string {
	if v, ok := s.bound.Load().(string); ok {
		return v
	}
	return s.addr
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Pixels    int     `json:"pixels"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Updates   uint64  `json:"updates"`
	Received  uint64  `json:"received"`
	Rejected  uint64  `json:"rejected"`
	Dropped   uint64  `json:"dropped"`
	Clients   int     `json:"clients"`
	UptimeSec float64 `json:"uptime_sec"`
}

// Status は現在の状態を返す
func (s *Server) Status() StatusResponse {
	width, height := s.store.Bounds()

	s.mu.RLock()
	clients := len(s.wsClients)
	s.mu.RUnlock()

	return StatusResponse{
		Pixels:    s.store.Size(),
		Width:     width,
		Height:    height,
		Updates:   s.store.Updates(),
		Received:  s.received.Load(),
		Rejected:  s.rejected.Load(),
		Dropped:   s.dropped.Load(),
		Clients:   clients,
		UptimeSec: time.Since(s.started).Seconds(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.Status())
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.store.All())
}

func (s *Server) handleCanvasSVG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cell := 10
	if v := r.URL.Query().Get("cell"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			http.Error(w, "Invalid cell size", http.StatusBadRequest)
			return
		}
		cell = n
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	RenderSVG(w, s.store, cell)
}

// handleWebSocket は set_pixel フレームを受信してキャンバスに反映する
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	c := &client{ws: ws, send: make(chan string, s.queueSize)}
	s.register(c)
	defer s.unregister(c)

	logger.Debug("", "WS connected (%s)", ws.Request().RemoteAddr)

	go s.writeLoop(c)

	for {
		var frame string
		if err := websocket.Message.Receive(ws, &frame); err != nil {
			return
		}
		s.received.Add(1)

		cmd, err := command.Decode(frame)
		if err != nil {
			s.rejected.Add(1)
			logger.Warn("", "Rejected frame: %v", err)
			continue
		}

		px := s.store.Apply(cmd.Payload)
		logger.Debug("", "Pixel {%d, %d} = %s (#%d)", px.X, px.Y, px.Colour, px.Updated)

		s.broadcast(c, frame)
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.wsClients[c] = struct{}{}
	s.mu.Unlock()
}

// unregister は接続を外して送信キューを閉じる
func (s *Server) unregister(c *client) {
	s.mu.Lock()
	if _, ok := s.wsClients[c]; ok {
		delete(s.wsClients, c)
		close(c.send)
	}
	s.mu.Unlock()
	_ = c.ws.Close()
}

// writeLoop はキューのフレームを順に送信する
// 書き込みが期限内に終わらない接続は切断する
func (s *Server) writeLoop(c *client) {
	for frame := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := websocket.Message.Send(c.ws, frame); err != nil {
			logger.Warn("", "Dropping slow WS client: %v", err)
			_ = c.ws.Close()
			for range c.send {
				s.dropped.Add(1)
			}
			return
		}
	}
}

// broadcast は送信元以外の接続のキューにフレームを積む
// キューが満杯の接続にはそのフレームを届けない
func (s *Server) broadcast(from *client, frame string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for c := range s.wsClients {
		if c == from {
			continue
		}
		select {
		case c.send <- frame:
		default:
			s.dropped.Add(1)
		}
	}
}

func (s *Server) closeClients() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.wsClients {
		_ = c.ws.Close()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("", "Failed to encode JSON: %v", err)
	}
}
