// Command minae runs the board display: it reads JSON command lines from
// stdin, keeps the board model current, serves the board page to browsers
// and reports committed moves back to the configured engine.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/minaechess/minae/internal/config"
	"github.com/minaechess/minae/internal/msgcat"
	"github.com/minaechess/minae/internal/notify"
	"github.com/minaechess/minae/internal/obslog"
	"github.com/minaechess/minae/internal/protocol"
	"github.com/minaechess/minae/internal/view"
	"github.com/minaechess/minae/internal/view/web"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	messages, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		logger.Fatal("message catalog init failed", zap.Error(err))
	}

	var sinks []notify.Sink
	if cfg.EngineWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.EngineWebhookURL))
		logger.Info("engine webhook enabled", zap.String("url", cfg.EngineWebhookURL))
	}
	var redisPub *notify.Publisher
	if cfg.RedisURL != "" {
		redisPub, err = notify.NewPublisher(cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			logger.Fatal("redis init failed", zap.Error(err))
		}
		sinks = append(sinks, redisPub)
		logger.Info("redis event mirror enabled", zap.String("channel", cfg.RedisChannel))
	}

	board := view.NewBoard(logger, view.NewRenderer(cfg.SquareSize), messages, notify.Fanout(logger, sinks...))

	server, err := web.New(logger, board, messages)
	if err != nil {
		logger.Fatal("web server init failed", zap.Error(err))
	}
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := protocol.NewDispatcher(os.Stdin, logger)
	go dispatcher.Run()
	go board.Run(rootCtx, dispatcher.Notifications())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("signal received", zap.String("signal", sig.String()))
	case <-board.Done():
		logger.Info("controller finished")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Close()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
	if redisPub != nil {
		_ = redisPub.Close()
	}
}
