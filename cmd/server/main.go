package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	cacheadapter "github.com/coreexchange/matching-engine/internal/adapter/cache"
	"github.com/coreexchange/matching-engine/internal/adapter/pg"
	apihttp "github.com/coreexchange/matching-engine/internal/api/http"
	"github.com/coreexchange/matching-engine/internal/api/ws"
	"github.com/coreexchange/matching-engine/internal/config"
	"github.com/coreexchange/matching-engine/internal/engine"
	"github.com/coreexchange/matching-engine/internal/logging"
)

func main() {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "configs/matcher.toml", "path to config file")
	flag.BoolVar(&dev, "dev", false, "use a development logger")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(dev)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	eng := engine.New(engine.Config{
		Scale:                cfg.DecimalScale,
		DefaultDepth:         cfg.DefaultDepth,
		MaxRestingOrders:     cfg.MaxRestingOrders,
		SubscriberBufferSize: cfg.SubscriberBufferSize,
	})

	ctx := context.Background()

	if tradeSink, err := pg.NewTradeSink(ctx, cfg.PostgresDSN); err != nil {
		logger.Warn("trade audit sink disabled: could not connect to postgres", zap.Error(err))
	} else {
		defer tradeSink.Close()
		go tradeSink.Run(ctx, eng.SubscribeTrades(), func(err error) {
			logger.Error("trade sink write failed", zap.Error(err))
		})
	}

	snapshotCache := cacheadapter.NewSnapshotCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SnapshotTTL)
	go snapshotCache.Run(ctx, eng.SubscribeMarketData(), func(err error) {
		logger.Error("snapshot cache write failed", zap.Error(err))
	})

	httpServer := apihttp.NewServer(eng, logger, snapshotCache)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.Run(cfg.HTTPAddr); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	hub := ws.NewHub(eng, logger)
	logger.Info("starting WebSocket server", zap.String("addr", cfg.WSAddr))
	if err := hub.Run(cfg.WSAddr); err != nil {
		logger.Fatal("websocket server failed", zap.Error(err))
	}
}
