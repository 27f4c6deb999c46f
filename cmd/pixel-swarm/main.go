// Package main is the entry point for pixel-swarm.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pixel-swarm/internal/canvas"
	"pixel-swarm/internal/config"
	"pixel-swarm/internal/events"
	"pixel-swarm/internal/logger"
	"pixel-swarm/internal/monitor"
	"pixel-swarm/internal/swarm"
	"pixel-swarm/internal/transport"
)

var (
	version = "dev"
)

// overrides はコマンドラインで明示的に指定された値
type overrides struct {
	address  string
	driver   string
	workers  int
	window   time.Duration
	interval time.Duration
	cycles   uint64
	duration time.Duration
	set      map[string]bool
}

func main() {
	// フラグ定義
	var (
		configFile  = flag.String("config", "", "設定ファイルパス (YAML/JSON)")
		presetName  = flag.String("preset", "", "プリセット名 (reference, quick, dense, sparse)")
		address     = flag.String("addr", "", "接続先 WebSocket アドレス (デフォルト: "+swarm.DefaultAddress+")")
		driver      = flag.String("driver", "", "WebSocket 実装 (xnet, gorilla)")
		workers     = flag.Int("workers", 0, "ワーカー数")
		window      = flag.Duration("window", 0, "初回送信を分散させる時間幅 (例: 9s)")
		interval    = flag.Duration("interval", 0, "サイクル間隔 (例: 9s)")
		cycles      = flag.Uint64("cycles", 0, "ワーカーごとの最大サイクル数 (0で無制限)")
		duration    = flag.Duration("duration", 0, "実行時間 (例: 30s, 5m。0で無制限)")
		listPresets = flag.Bool("list-presets", false, "利用可能なプリセットを表示")
		showVersion = flag.Bool("version", false, "バージョンを表示")
		serveMode   = flag.Bool("serve", false, "ローカルのキャンバスサーバーを起動")
		listenAddr  = flag.String("listen", ":3001", "キャンバスサーバーの待ち受けアドレス")
		preview     = flag.Bool("preview", false, "モザイクを端末にプレビューして終了")
		tuiMode     = flag.Bool("tui", false, "ライブモニタ付きで実行")
		logLevel    = flag.String("log-level", "info", "ログレベル (debug, info, warn, error)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `pixel-swarm - WebSocket pixel load generator

Usage:
  pixel-swarm [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # デフォルト設定で実行 (100 workers, 9s)
  pixel-swarm

  # ローカルのキャンバスサーバーを起動
  pixel-swarm --serve --listen :3001

  # プリセットを短時間実行
  pixel-swarm --preset quick

  # 設定ファイルから実行し、フラグで上書き
  pixel-swarm --config swarm.yaml --workers 256 --driver gorilla

  # ライブモニタ付きで実行
  pixel-swarm --preset dense --tui

  # 400ワーカーのモザイクをプレビュー
  pixel-swarm --preview --workers 400
`)
	}

	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}
	logger.Default.SetLevel(level)

	// バージョン表示
	if *showVersion {
		fmt.Printf("pixel-swarm version %s\n", version)
		return
	}

	// プリセット一覧表示
	if *listPresets {
		printPresets()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// キャンバスサーバーモード
	if *serveMode {
		if err := runServer(ctx, *listenAddr); err != nil {
			logger.Error("", "サーバーエラー: %v", err)
			os.Exit(1)
		}
		return
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := buildSwarmConfig(*configFile, *presetName, overrides{
		address:  *address,
		driver:   *driver,
		workers:  *workers,
		window:   *window,
		interval: *interval,
		cycles:   *cycles,
		duration: *duration,
		set:      set,
	})
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	if *preview {
		printPreview(cfg)
		return
	}

	if *tuiMode {
		err = runMonitored(ctx, cfg)
	} else {
		err = runSwarm(ctx, cfg)
	}
	if err != nil {
		logger.Error("", "スウォーム実行エラー: %v", err)
		os.Exit(1)
	}
}

// buildSwarmConfig はスウォーム設定を構築する
func buildSwarmConfig(configFile, presetName string, o overrides) (swarm.Config, error) {
	var cfg swarm.Config

	// 1. 設定ファイルから読み込み
	if configFile != "" {
		fileConfig, err := config.LoadFile(configFile)
		if err != nil {
			return cfg, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		if err := fileConfig.Validate(); err != nil {
			return cfg, fmt.Errorf("設定検証エラー: %w", err)
		}
		cfg, err = fileConfig.ToSwarmConfig()
		if err != nil {
			return cfg, fmt.Errorf("設定変換エラー: %w", err)
		}
	} else if presetName != "" {
		// 2. プリセットから読み込み
		preset, ok := swarm.GetPreset(presetName)
		if !ok {
			return cfg, fmt.Errorf("不明なプリセット: %s (利用可能: %v)", presetName, swarm.ListPresets())
		}
		cfg = preset
	} else {
		// 3. デフォルト（reference プリセット）
		cfg = swarm.DefaultConfig()
	}

	// フラグでオーバーライド
	if o.address != "" {
		cfg.Address = o.address
	}
	if o.driver != "" {
		d, err := transport.ParseDriver(o.driver)
		if err != nil {
			return cfg, err
		}
		cfg.Driver = d
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	// 0 も有効な値なので、明示的に指定された場合のみ上書きする
	if o.set["window"] {
		cfg.StartWindow = o.window
	}
	if o.interval > 0 {
		cfg.CycleInterval = o.interval
	}
	if o.set["cycles"] {
		cfg.MaxCycles = o.cycles
	}
	if o.set["duration"] {
		cfg.Duration = o.duration
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func printBanner(cfg swarm.Config) {
	fmt.Println("pixel-swarm - WebSocket pixel load generator")
	fmt.Println("============================================")
	fmt.Printf("Scenario: %s\n", cfg.Name)
	fmt.Printf("Target: %s (%s)\n", cfg.Address, cfg.Driver)
	fmt.Printf("Workers: %d, Start window: %v, Interval: %v\n", cfg.Workers, cfg.StartWindow, cfg.CycleInterval)
	if cfg.Duration > 0 {
		fmt.Printf("Duration: %v\n", cfg.Duration)
	} else {
		fmt.Println("Duration: until interrupted")
	}
	fmt.Println("============================================")
	fmt.Println()
}

// runSwarm はスウォームを実行してレポートを表示する
func runSwarm(ctx context.Context, cfg swarm.Config) error {
	printBanner(cfg)

	engine := swarm.New(cfg)
	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(result.Report())
	return nil
}

// runMonitored はライブモニタとスウォームを並行して実行する
func runMonitored(ctx context.Context, cfg swarm.Config) error {
	// 画面を汚さないようログは捨てる
	logger.Default.SetOutput(io.Discard)
	defer logger.Default.SetOutput(os.Stdout)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := events.NewBus()
	ch := bus.Subscribe(
		events.EventPixelSent,
		events.EventSendFailed,
		events.EventWorkerConnectFailed,
		events.EventWorkerStopped,
	)

	engine := swarm.New(cfg)
	engine.SetEventBus(bus)

	var result *swarm.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// スウォーム終了時にバスを閉じてモニタも終わらせる
		defer bus.Close()
		r, err := engine.Run(gctx)
		result = r
		return err
	})
	g.Go(func() error {
		return monitor.Run(gctx, monitor.NewModel(cfg.Name, cfg.Workers, ch, engine.Metrics, cancel))
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if result != nil {
		fmt.Println(result.Report())
	}
	return nil
}

// runServer はキャンバスサーバーを起動する
func runServer(ctx context.Context, addr string) error {
	fmt.Println("pixel-swarm - Canvas Server")
	fmt.Println("===========================")
	fmt.Printf("WebSocket:  ws://%s/ws\n", displayAddr(addr))
	fmt.Printf("Canvas:     http://%s/canvas.svg\n", displayAddr(addr))
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	server := canvas.NewServer(addr)
	return server.Start(ctx)
}

// displayAddr は ":3001" のようなアドレスを表示用に補完する
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// printPreview は偶数サイクル（パレットB）と奇数サイクル（パレットA）のモザイクを表示する
func printPreview(cfg swarm.Config) {
	fmt.Printf("Scenario: %s, %d workers\n\n", cfg.Name, cfg.Workers)
	fmt.Println("cycle 0 (even):")
	fmt.Println(monitor.RenderMosaic(cfg.Workers, 0))
	fmt.Println()
	fmt.Println("cycle 1 (odd):")
	fmt.Println(monitor.RenderMosaic(cfg.Workers, 1))
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセット:")
	fmt.Println()

	for _, name := range swarm.ListPresets() {
		p, _ := swarm.GetPreset(name)
		fmt.Printf("  %-12s %s\n", name, p.Description)
	}

	fmt.Println()
	fmt.Println("使用例: pixel-swarm --preset quick")
}
