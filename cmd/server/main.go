package main

import (
	"context"
	"flag"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bigtwo/internal/app"
	"bigtwo/internal/config"
	"bigtwo/internal/ports"
	"bigtwo/internal/ports/memstore"
	"bigtwo/internal/ports/redisstore"
	"bigtwo/internal/ws"
	"bigtwo/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	config.LoadConfig(*configPath)
	cfg := config.GlobalConfig

	logger.InitLogger(cfg.Server.Mode)
	defer logger.Log.Sync()

	var store ports.PartyStore
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rs, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Game.PartyTTLHours)*time.Hour)
		cancel()
		if err != nil {
			logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rs.Close()
		store = rs
		logger.Log.Info("Parties stored in Redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		store = memstore.New()
		logger.Log.Info("Parties stored in process memory")
	}

	svc := app.NewService(nil)
	handler := ws.NewHandler(svc, store, logger.Log, ws.HubOptions{
		PollInterval:  time.Duration(cfg.Game.PollIntervalMs) * time.Millisecond,
		BotMinDelay:   time.Duration(cfg.Game.BotMinDelayMs) * time.Millisecond,
		BotMaxDelay:   time.Duration(cfg.Game.BotMaxDelayMs) * time.Millisecond,
		BotPassChance: cfg.Game.BotPassChance,
	})

	gin.SetMode(ginMode(cfg.Server.Mode))
	r := gin.New()
	r.Use(gin.Recovery())
	handler.Register(r)

	logger.Log.Info("Big Two server listening", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Log.Fatal("Server stopped", zap.Error(err))
	}
}

func ginMode(mode string) string {
	if mode == "release" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
