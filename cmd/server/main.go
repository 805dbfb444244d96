// cmd/server/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"unoroom/internal/config"
	"unoroom/internal/journal"
	"unoroom/internal/room"
	"unoroom/internal/service"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatalf("could not load config: %v", err)
	}
	logger.SetLevel(cfg.Level())

	nc, err := nats.Connect(cfg.NATSURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		logger.Fatalf("could not connect to NATS at %s: %v", cfg.NATSURL, err)
	}
	defer nc.Close()

	jr, err := journal.Connect(cfg.RedisAddr, cfg.JournalQueue, logger)
	if err != nil {
		logger.Warnf("journal disabled: %v", err)
	}
	defer jr.Close()

	rooms := room.NewLifecycle(logger, room.Bounds{
		MinPlayers: cfg.RoomMinPlayers,
		MaxPlayers: cfg.RoomMaxPlayers,
	})

	svc := service.New(nc, rooms, jr, logger)
	if err := svc.Start(); err != nil {
		logger.Fatalf("could not start room service: %v", err)
	}
	defer svc.Stop()

	logger.Infof("room service up on %s", cfg.NATSURL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
}
