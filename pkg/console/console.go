// Package console is the maintenance console of the board. It is served
// over SSH and drives the simulated board the way a player would.
package console

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/notnil/chess"

	"github.com/qnkhuat/ecb/pkg/board"
	"github.com/qnkhuat/ecb/pkg/controller"
	"github.com/qnkhuat/ecb/pkg/driver"
)

const Prompt = "ecb> "

// StatusSource reports what the controller is doing.
type StatusSource interface {
	Status() controller.Status
}

// Board is the part of the simulated driver the console acts on.
type Board interface {
	Lift(sq chess.Square)
	Place(sq chess.Square)
	Press(mask uint8)
	SetPosition(m board.Map)
	SensorsGet() board.Map
}

type command struct {
	args  string
	usage string
	run   func(c *Console, args []string) (string, error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":    {"", "list commands", (*Console).help},
		"status":  {"", "controller state, game and clocks", (*Console).status},
		"fen":     {"", "position of the game in progress", (*Console).fen},
		"sensors": {"", "occupancy seen by the board", (*Console).sensors},
		"press":   {"<mode|level|color|time|start>", "press panel buttons", (*Console).press},
		"lift":    {"<square>", "lift the piece on a square", (*Console).lift},
		"place":   {"<square>", "put a piece on a square", (*Console).place},
		"setup":   {"", "set up the standard start position", (*Console).setup},
		"clear":   {"", "take every piece off the board", (*Console).clear},
		"quit":    {"", "close the session", nil},
	}
}

type Console struct {
	src   StatusSource
	board Board

	label func(a ...interface{}) string
	value func(a ...interface{}) string
	fail  func(a ...interface{}) string
}

func New(status StatusSource, b Board) *Console {
	return &Console{
		src:   status,
		board: b,
		label: color.New(color.FgCyan).SprintFunc(),
		value: color.New(color.FgGreen, color.Bold).SprintFunc(),
		fail:  color.New(color.FgRed).SprintFunc(),
	}
}

// Exec runs one command line. quit reports whether the session should end.
func (c *Console) Exec(line string) (out string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}

	name := strings.ToLower(fields[0])
	cmd, ok := commands[name]
	if !ok {
		return c.fail(fmt.Sprintf("unknown command %q, try help", name)) + "\n", false
	}
	if cmd.run == nil {
		return "bye\n", true
	}

	out, err := cmd.run(c, fields[1:])
	if err != nil {
		return c.fail(err.Error()) + "\n", false
	}
	return out, false
}

func (c *Console) help(args []string) (string, error) {
	var sb strings.Builder
	for _, name := range []string{"help", "status", "fen", "sensors", "press", "lift", "place", "setup", "clear", "quit"} {
		cmd := commands[name]
		fmt.Fprintf(&sb, "  %-8s %-30s %s\n", name, cmd.args, cmd.usage)
	}
	return sb.String(), nil
}

func (c *Console) status(args []string) (string, error) {
	st := c.src.Status()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", c.label("state:"), c.value(st.State))
	fmt.Fprintf(&sb, "%s %s\n", c.label("config:"), st.Config)
	if st.GameID != "" {
		engine := "off"
		if st.Engine {
			engine = "on"
		}
		fmt.Fprintf(&sb, "%s %s (engine %s)\n", c.label("game:"), c.value(st.GameID), engine)
		fmt.Fprintf(&sb, "%s white %s black %s\n", c.label("clocks:"), st.WhiteTime, st.BlackTime)
	}
	return sb.String(), nil
}

func (c *Console) fen(args []string) (string, error) {
	st := c.src.Status()
	if st.FEN == "" {
		return "no game in progress\n", nil
	}
	return st.FEN + "\n", nil
}

func (c *Console) sensors(args []string) (string, error) {
	return c.board.SensorsGet().String(), nil
}

func (c *Console) press(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("press: which button?")
	}
	var mask uint8
	for _, name := range args {
		m, ok := driver.ButtonMask(name)
		if !ok {
			return "", fmt.Errorf("press: unknown button %q", name)
		}
		mask |= m
	}
	c.board.Press(mask)
	return fmt.Sprintf("pressed %s\n", strings.Join(driver.ButtonNames(mask), "+")), nil
}

func (c *Console) squares(verb string, args []string) ([]chess.Square, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: which square?", verb)
	}
	squares := make([]chess.Square, 0, len(args))
	for _, name := range args {
		sq, err := board.ParseSquare(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", verb, err)
		}
		squares = append(squares, sq)
	}
	return squares, nil
}

func (c *Console) lift(args []string) (string, error) {
	squares, err := c.squares("lift", args)
	if err != nil {
		return "", err
	}
	for _, sq := range squares {
		c.board.Lift(sq)
	}
	return "", nil
}

func (c *Console) place(args []string) (string, error) {
	squares, err := c.squares("place", args)
	if err != nil {
		return "", err
	}
	for _, sq := range squares {
		c.board.Place(sq)
	}
	return "", nil
}

func (c *Console) setup(args []string) (string, error) {
	c.board.SetPosition(board.StartMap)
	return "start position set up\n", nil
}

func (c *Console) clear(args []string) (string, error) {
	c.board.SetPosition(board.Map{})
	return "board cleared\n", nil
}
