// cmd/client/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"unoroom/internal/client"
	"unoroom/internal/config"
	"unoroom/internal/connectivity"
	"unoroom/internal/state"
	"unoroom/internal/transport"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatalf("could not load config: %v", err)
	}
	logger.SetLevel(cfg.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tr transport.Transport
	switch cfg.TransportKind {
	case "ws":
		tr, err = transport.DialWS(ctx, cfg.WSURL, logger)
	default:
		tr, err = transport.DialNATS(cfg.NATSURL, logger)
	}
	if err != nil {
		logger.Fatalf("could not connect transport: %v", err)
	}

	st := state.New()
	c := client.New(tr, st, logger, cfg.RequestTimeout())
	if err := c.Connect(); err != nil {
		logger.Fatalf("could not attach global stream: %v", err)
	}
	defer c.Close()

	monitor := connectivity.New(tr, st, logger, cfg.LivenessInterval(), cfg.DirectoryInterval())
	monitor.Start(ctx)
	defer monitor.Stop()

	logger.Infof("client up over %s transport", cfg.TransportKind)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
}
