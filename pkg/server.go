package pkg

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/console"
	"github.com/qnkhuat/ecb/pkg/controller"
	"github.com/qnkhuat/ecb/pkg/driver/sim"
	"github.com/qnkhuat/ecb/pkg/engine"
	"github.com/qnkhuat/ecb/pkg/event"
	"github.com/qnkhuat/ecb/pkg/webui"
)

// Server runs a simulated board: the controller, the remote UI hub and the
// SSH console around one driver.
type Server struct {
	Driver     *sim.Driver
	Controller *controller.Controller
	Hub        *webui.Hub
	Console    *console.Server

	cfg *Config
	log logrus.FieldLogger
}

func NewServer(cfg *Config, log logrus.FieldLogger) *Server {
	s := &Server{
		Driver: sim.New(cfg.BlinkInterval),
		cfg:    cfg,
		log:    log,
	}

	s.Hub = webui.NewHub(func(e event.Event) { s.Controller.Enqueue(e) }, log.WithField("component", "webui"))
	s.Controller = controller.New(s.Driver, controller.DefaultGameConfig(), cfg.Timing,
		s.newEngine, s.Hub, log.WithField("component", "controller"))

	con := console.New(s.Controller, s.Driver)
	s.Console = console.NewServer(console.Options{
		Addr:        cfg.SshAddr,
		HostKeyPath: cfg.HostKeyPath,
		Password:    cfg.SshPassword,
		EnginePath:  cfg.EnginePath,
	}, con, log.WithField("component", "console"))

	return s
}

func (s *Server) newEngine(level engine.Level, onResult func(engine.Result)) (controller.Engine, error) {
	p, err := engine.Launch(context.Background(), s.cfg.EnginePath, s.cfg.BookPath, level, onResult, s.log.WithField("component", "engine"))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Run serves until ctx is done or a component fails. The first failure
// cancels the others.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	run := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fn(ctx)
			if err != nil && ctx.Err() == nil {
				s.log.WithError(err).WithField("service", name).Error("service failed")
				once.Do(func() { first = err })
			}
			cancel()
		}()
	}

	run("controller", s.Controller.Run)
	if s.cfg.WebAddr != "" {
		run("webui", func(ctx context.Context) error { return s.Hub.ListenAndServe(ctx, s.cfg.WebAddr) })
	}
	if s.cfg.SshAddr != "" {
		run("console", s.Console.ListenAndServe)
	}

	wg.Wait()
	return first
}
