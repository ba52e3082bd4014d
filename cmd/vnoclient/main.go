// Package main provides the terminal VNO client.
// It connects to the master server, lists game servers, and plays on one of them.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/config"
	"github.com/cory-johannsen/vno/internal/frontend/console"
	"github.com/cory-johannsen/vno/internal/lifecycle"
	"github.com/cory-johannsen/vno/internal/observability"
	"github.com/cory-johannsen/vno/internal/vno/connection"
	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/session"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (defaults and VNO_ environment only when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	transport, err := connection.NewTransport(cfg.Transport)
	if err != nil {
		logger.Fatal("building transport", zap.Error(err))
	}

	presenter := console.NewPresenter(os.Stdout, cfg.Console.TextSpeed, cfg.Console.Color)

	var con *console.Console
	sess := session.New(session.Config{
		MasterAddr:    cfg.Master.Addr(),
		Transport:     transport,
		HashAlgorithm: cfg.Client.HashAlgorithm,
		Version:       cfg.Client.Version,
		Presenter:     presenter,
		OnStateChange: func(from, to model.SessionState) {
			con.StateChanged(from, to)
		},
		Logger: logger,
	})
	con = console.New(console.Options{
		Client:        sess,
		In:            os.Stdin,
		Out:           presenter,
		FavoritesPath: cfg.Client.FavoritesPath,
		Logger:        logger,
	})

	lc := lifecycle.New(logger)
	lc.Add("session", &lifecycle.FuncService{
		StartFn: sess.Run,
		StopFn: func() {
			if err := sess.Close(); err != nil {
				logger.Warn("closing session", zap.Error(err))
			}
		},
	})
	lc.Add("presenter", presenter)
	lc.Add("console", con)

	logger.Info("client initialized",
		zap.String("session", sess.ID()),
		zap.String("master_addr", cfg.Master.Addr()),
		zap.String("transport", cfg.Transport.Kind),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("client error", zap.Error(err))
	}
}
