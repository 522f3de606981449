package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qnkhuat/ecb/pkg"
	"github.com/qnkhuat/ecb/pkg/gui"
)

func main() {
	cfg := pkg.DefaultConfig()
	cfg.LogPath = "./log"
	cfg.RegisterFlags(flag.CommandLine)
	themeName := flag.String("theme", gui.ThemeBasic.Name, "simulator theme (basic, contrast)")
	flag.Parse()

	// the terminal belongs to the simulator, never log to it
	if cfg.LogPath == "" {
		fmt.Fprintln(os.Stderr, "ecbterm needs a log file")
		os.Exit(2)
	}
	log, err := pkg.InitLog(cfg.LogPath, "CLIENT", cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	theme, err := gui.ImportThemes(*themeName, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := pkg.NewServer(cfg, log)
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	sim := gui.NewSimulator(s.Driver, s.Controller, theme)
	if err := sim.Run(ctx); err != nil {
		log.WithError(err).Error("simulator failed")
	}

	// Down when self-killed
	cancel()
	if err := <-done; err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
