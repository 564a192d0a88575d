package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"spikewatch/config"
	"spikewatch/internal/alert"
	"spikewatch/internal/feed"
	"spikewatch/internal/market"
	"spikewatch/internal/server"
	"spikewatch/internal/supervisor"
	"spikewatch/logger"
	"spikewatch/pkg/storage/postgres"
	"spikewatch/pkg/telegram"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := market.NewStore(lo.Keys(cfg.Symbols), cfg.Alert.HistoryWindow)

	// Optional alert audit trail
	var recorder alert.Recorder
	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrateAlertRecord(cfg.Postgres, true, cfg.Log.Environment)
		if err != nil {
			log.Fatal("failed to connect to DB", zap.Error(err))
		}
		defer pg.Close()
		recorder = alert.NewPostgresRecorder(pg)
	}

	notifier := telegram.NewClient(telegram.DefaultBaseURL, cfg.Telegram, 5*time.Second)
	dispatcher := alert.NewDispatcher(notifier, recorder, log, cfg.Alert.QueueSize)
	go dispatcher.Run(ctx)

	engine := alert.NewEngine(cfg.Alert, alert.NewLedger(), dispatcher, log)
	feeds := feed.New(cfg, store, engine, log)

	sup := supervisor.New(store, log,
		[]supervisor.TaskFunc{feeds.RunBinanceKline, feeds.RunBinanceTrades},
		[]supervisor.TaskFunc{feeds.RunBybitKline, feeds.RunBybitTrades, feeds.RunGateTrades, feeds.RunOKXTrades},
	)
	sup.Run(ctx)

	// Periodically log liveness for visibility
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Info("monitor status",
					zap.Strings("active_symbols", sup.Active()),
					zap.Int("alerts_fired", engine.FiredCount()))
			}
		}
	}()

	srv := server.New(store, sup, log)
	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv}
	go func() {
		log.Info("control server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("control server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	log.Info("shutting down")
}
