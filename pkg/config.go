package pkg

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/qnkhuat/ecb/pkg/controller"
	"github.com/qnkhuat/ecb/pkg/driver/sim"
)

const (
	WebPort = ":1998"
	SshPort = ":2222"
)

// Config holds everything the daemon needs to run a board.
type Config struct {
	LogPath  string
	LogLevel string

	EnginePath string
	// BookPath empty means the built-in ECO book.
	BookPath string

	WebAddr     string
	SshAddr     string
	HostKeyPath string
	SshPassword string

	Timing        controller.Options
	BlinkInterval time.Duration
}

// DefaultConfig returns the default daemon configuration
func DefaultConfig() *Config {
	hostKey := "ecb_host_key"
	if home, err := os.UserHomeDir(); err == nil {
		hostKey = filepath.Join(home, ".ecb", "host_key")
	}
	return &Config{
		LogLevel:      "info",
		EnginePath:    "stockfish",
		WebAddr:       WebPort,
		SshAddr:       SshPort,
		HostKeyPath:   hostKey,
		Timing:        controller.DefaultOptions(),
		BlinkInterval: sim.DefaultBlinkInterval,
	}
}

// RegisterFlags binds the config fields to command line flags.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.LogPath, "log", c.LogPath, "path to log file, stderr when empty")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")

	fs.StringVar(&c.EnginePath, "engine", c.EnginePath, "UCI engine binary")
	fs.StringVar(&c.BookPath, "book", c.BookPath, "opening book file, built-in ECO book when empty")

	fs.StringVar(&c.WebAddr, "web", c.WebAddr, "remote UI websocket address, disabled when empty")
	fs.StringVar(&c.SshAddr, "ssh", c.SshAddr, "console SSH address, disabled when empty")
	fs.StringVar(&c.HostKeyPath, "host-key", c.HostKeyPath, "console SSH host key, generated when missing")
	fs.StringVar(&c.SshPassword, "ssh-password", c.SshPassword, "console SSH password, no authentication when empty")

	fs.DurationVar(&c.Timing.Settle, "settle", c.Timing.Settle, "sensor settle time before position detection")
	fs.DurationVar(&c.Timing.Debounce, "debounce", c.Timing.Debounce, "time a destination must stay occupied")
	fs.DurationVar(&c.Timing.PauseGuard, "pause-guard", c.Timing.PauseGuard, "second start press within this stops a paused game")
	fs.DurationVar(&c.BlinkInterval, "blink", c.BlinkInterval, "LED blink interval")
}
