package pkg

import (
	"context"
	"flag"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/controller"
	"github.com/qnkhuat/ecb/pkg/driver"
)

func TestRegisterFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("ecbd", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	err := fs.Parse([]string{"-engine", "/opt/sf", "-web", "", "-settle", "250ms", "-book", "book.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EnginePath != "/opt/sf" || cfg.WebAddr != "" || cfg.BookPath != "book.txt" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Timing.Settle != 250*time.Millisecond {
		t.Errorf("settle = %s", cfg.Timing.Settle)
	}
	if cfg.Timing.Debounce != controller.DefaultOptions().Debounce || cfg.SshAddr != SshPort {
		t.Errorf("defaults overwritten %+v", cfg)
	}
}

func TestInitLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecb.log")
	log, err := InitLog(path, "SERVER", "debug")
	if err != nil {
		t.Fatal(err)
	}
	log.WithField("game", "brave-otter").Debug("hello")

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(raw)
	for _, want := range []string{"component=SERVER", "game=brave-otter", "hello"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q does not contain %q", line, want)
		}
	}

	if _, err := InitLog("", "SERVER", "loud"); err == nil {
		t.Errorf("expected an error for a bad level")
	}
}

func TestServerRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnginePath = filepath.Join(t.TempDir(), "no-engine")
	cfg.WebAddr = ""
	cfg.SshAddr = ""
	cfg.Timing.Settle = 10 * time.Millisecond
	cfg.Timing.PollWait = 5 * time.Millisecond

	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	s := NewServer(cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Driver.SetPosition(board.StartMap)
	s.Driver.Press(driver.BtnStart)

	deadline := time.Now().Add(2 * time.Second)
	for s.Controller.Status().State != controller.Game {
		if time.Now().After(deadline) {
			t.Fatalf("game did not start, state %s", s.Controller.Status().State)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if st := s.Controller.Status(); st.Engine || st.GameID == "" {
		t.Errorf("unexpected status %+v", st)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
