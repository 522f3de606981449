package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qnkhuat/ecb/pkg"
)

func main() {
	cfg := pkg.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	log, err := pkg.InitLog(cfg.LogPath, "SERVER", cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Wait for terminate signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Server started")
	s := pkg.NewServer(cfg, log)
	if err := s.Run(ctx); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("Server stopped")
}
