package engine

import (
	"context"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/sirupsen/logrus"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)
	return l
}

type fakeSearcher struct {
	reply    string
	block    chan struct{}
	searches chan uci.CmdGo
	stopped  chan struct{}
	once     sync.Once
}

func newFakeSearcher(reply string) *fakeSearcher {
	return &fakeSearcher{
		reply:    reply,
		searches: make(chan uci.CmdGo, 8),
		stopped:  make(chan struct{}, 8),
	}
}

func (f *fakeSearcher) Search(ctx context.Context, pos *chess.Position, cmd uci.CmdGo) (*chess.Move, *chess.Move, error) {
	block := f.block
	f.searches <- cmd
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	return ParseBestMove(pos, f.reply)
}

func (f *fakeSearcher) Stop() error {
	f.stopped <- struct{}{}
	if f.block != nil {
		f.once.Do(func() { close(f.block) })
	}
	return nil
}

func (f *fakeSearcher) Quit() error { return nil }

type emptyBook struct{}

func (emptyBook) Entries(*chess.Position, []*chess.Move) []Entry { return nil }
func (emptyBook) Close() error                                  { return nil }

func TestParseBestMove(t *testing.T) {
	pos := chess.NewGame().Position()

	best, ponder, err := ParseBestMove(pos, "bestmove e2e4 ponder e7e5")
	if err != nil {
		t.Fatal(err)
	}
	if best.String() != "e2e4" || ponder == nil || ponder.String() != "e7e5" {
		t.Errorf("unexpected moves %v %v", best, ponder)
	}

	best, ponder, err = ParseBestMove(pos, "bestmove g1f3")
	if err != nil || best.String() != "g1f3" || ponder != nil {
		t.Errorf("unexpected result %v %v %v", best, ponder, err)
	}

	if _, _, err := ParseBestMove(pos, "bestmove (none)"); err != ErrNoMove {
		t.Errorf("expected ErrNoMove, got %v", err)
	}
	if _, _, err := ParseBestMove(pos, "bestmove e2e5"); err == nil {
		t.Error("expected an error for an illegal move")
	}
	if _, _, err := ParseBestMove(pos, "readyok"); err == nil {
		t.Error("expected an error for an unrelated line")
	}
}

func TestInBand(t *testing.T) {
	pos := chess.NewGame().Position()
	e4, _ := LegalMove(pos, "e2e4")
	d4, _ := LegalMove(pos, "d2d4")
	c4, _ := LegalMove(pos, "c2c4")
	entries := []Entry{{Move: c4, Weight: 10}, {Move: e4, Weight: 60}, {Move: d4, Weight: 30}}

	top := InBand(entries, 0, 50)
	if len(top) != 1 || top[0].Move != e4 {
		t.Errorf("expected only e4 in the top band, got %v", top)
	}

	low := InBand(entries, 40, 100)
	if len(low) != 2 || low[0].Move != d4 || low[1].Move != c4 {
		t.Errorf("expected d4 and c4 in the low band, got %v", low)
	}

	if all := InBand(entries, 0, 100); len(all) != 3 {
		t.Errorf("expected all entries, got %v", all)
	}
}

func TestWeightedChoice(t *testing.T) {
	pos := chess.NewGame().Position()
	e4, _ := LegalMove(pos, "e2e4")
	d4, _ := LegalMove(pos, "d2d4")
	entries := []Entry{{Move: e4, Weight: 3}, {Move: d4, Weight: 1}}

	rnd := rand.New(rand.NewSource(7))
	counts := map[string]int{}
	for i := 0; i < 4000; i++ {
		m, ok := WeightedChoice(entries, nil, rnd)
		if !ok {
			t.Fatal("no move chosen")
		}
		counts[m.String()]++
	}
	if counts["e2e4"] < 2700 || counts["e2e4"] > 3300 {
		t.Errorf("weights not respected: %v", counts)
	}

	for i := 0; i < 100; i++ {
		m, ok := WeightedChoice(entries, []*chess.Move{e4}, rnd)
		if !ok || m.String() != "d2d4" {
			t.Fatalf("excluded move chosen: %v", m)
		}
	}

	if _, ok := WeightedChoice(entries, []*chess.Move{e4, d4}, rnd); ok {
		t.Error("expected no choice when every move is excluded")
	}
}

func TestECOBook(t *testing.T) {
	book := NewECOBook()
	game := chess.NewGame()

	entries := book.Entries(game.Position(), game.Moves())
	if len(entries) == 0 {
		t.Fatal("no book moves from the start position")
	}
	found := false
	for _, e := range entries {
		if e.Weight <= 0 {
			t.Errorf("entry %s has weight %d", e.Move, e.Weight)
		}
		if e.Move.String() == "e2e4" {
			found = true
		}
	}
	if !found {
		t.Error("e2e4 missing from the book")
	}

	fen, err := chess.FEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	custom := chess.NewGame(fen)
	if entries := book.Entries(custom.Position(), nil); len(entries) != 0 {
		t.Errorf("book moves for a custom position: %v", entries)
	}
}

func TestFileBook(t *testing.T) {
	dir, err := ioutil.TempDir("", "ecb-book")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "book.txt")
	data := "# test book\n" +
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -;e2e4;10\n" +
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1;d2d4;5\n" +
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -;e2e5;5\n"
	if err := ioutil.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	book, err := OpenFileBook(path)
	if err != nil {
		t.Fatal(err)
	}
	entries := book.Entries(chess.NewGame().Position(), nil)
	if len(entries) != 2 {
		t.Fatalf("expected 2 legal entries, got %v", entries)
	}
	if entries[0].Move.String() != "e2e4" || entries[0].Weight != 10 {
		t.Errorf("unexpected first entry %v", entries[0])
	}

	if err := ioutil.WriteFile(path, []byte("bad line\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFileBook(path); err == nil {
		t.Error("expected an error for a malformed book")
	}
}

func TestGoCommand(t *testing.T) {
	cmd := ProfileFor(LevelEasy).GoCommand(time.Minute, time.Minute)
	if cmd.MoveTime == 0 || cmd.WhiteTime != 0 {
		t.Errorf("easy level must use a fixed search time: %+v", cmd)
	}

	cmd = ProfileFor(LevelHard).GoCommand(time.Minute, 2*time.Minute)
	if cmd.WhiteTime != time.Minute || cmd.BlackTime != 2*time.Minute || cmd.MoveTime != 0 {
		t.Errorf("hard level must use the clocks: %+v", cmd)
	}

	cmd = ProfileFor(LevelHard).GoCommand(0, 0)
	if cmd.MoveTime != DefaultHardMoveTime {
		t.Errorf("hard level without clocks: %+v", cmd)
	}

	if !ProfileFor(LevelHard).Ponder || ProfileFor(LevelEasy).Ponder {
		t.Error("only the hard level ponders")
	}
	if LevelHard.Next() != LevelDisabled {
		t.Error("levels must wrap")
	}
}

func TestPlayerTokens(t *testing.T) {
	results := make(chan Result, 4)
	proc := newFakeSearcher("bestmove e7e5 ponder g1f3")
	p := NewPlayer(proc, emptyBook{}, ProfileFor(LevelMedium), func(r Result) { results <- r }, testLogger())
	defer p.Close()

	game := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	if err := game.MoveStr("e2e4"); err != nil {
		t.Fatal(err)
	}

	first := p.RequestMove(Request{Position: game.Position(), Moves: game.Moves()})
	second := p.RequestMove(Request{Position: game.Position(), Moves: game.Moves(), Ponder: true})
	if second <= first {
		t.Fatalf("tokens must increase: %d %d", first, second)
	}

	for _, token := range []uint64{first, second} {
		select {
		case r := <-results:
			if r.Token != token {
				t.Errorf("expected token %d, got %d", token, r.Token)
			}
			if r.Move.String() != "e7e5" || r.Ponder == nil || r.Ponder.String() != "g1f3" {
				t.Errorf("unexpected result %+v", r)
			}
			if r.Pondered != (token == second) {
				t.Errorf("pondered flag wrong for token %d", token)
			}
		case <-time.After(time.Second):
			t.Fatal("no result")
		}
	}
}

func TestPlayerStop(t *testing.T) {
	results := make(chan Result, 4)
	proc := newFakeSearcher("bestmove e2e4")
	proc.block = make(chan struct{})
	p := NewPlayer(proc, nil, ProfileFor(LevelHard), func(r Result) { results <- r }, testLogger())
	defer p.Close()

	token := p.RequestMove(Request{Position: chess.NewGame().Position()})
	select {
	case <-proc.searches:
	case <-time.After(time.Second):
		t.Fatal("search not started")
	}

	p.Stop()
	select {
	case r := <-results:
		if r.Token != token {
			t.Errorf("unexpected token %d", r.Token)
		}
	case <-time.After(time.Second):
		t.Fatal("stopped search did not deliver its result")
	}
}

func TestPlayerRequestNeverBlocks(t *testing.T) {
	results := make(chan Result, 2*requestQueueSize)
	proc := newFakeSearcher("bestmove e2e4")
	proc.block = make(chan struct{})
	p := NewPlayer(proc, nil, ProfileFor(LevelHard), func(r Result) { results <- r }, testLogger())
	defer p.Close()

	pos := chess.NewGame().Position()
	first := p.RequestMove(Request{Position: pos})
	select {
	case <-proc.searches:
	case <-time.After(time.Second):
		t.Fatal("search not started")
	}

	// the worker is busy, so these pile up behind the running search
	done := make(chan uint64, 1)
	go func() {
		var last uint64
		for i := 0; i <= requestQueueSize; i++ {
			last = p.RequestMove(Request{Position: pos})
		}
		done <- last
	}()

	var last uint64
	select {
	case last = <-done:
	case <-time.After(time.Second):
		t.Fatal("RequestMove blocked on a full queue")
	}

	p.Stop()
	var got []uint64
	for len(got) == 0 || got[len(got)-1] != last {
		select {
		case r := <-results:
			got = append(got, r.Token)
		case <-time.After(time.Second):
			t.Fatalf("newest request not served, got %v", got)
		}
	}

	if got[0] != first {
		t.Errorf("running search lost: %v", got)
	}
	for _, token := range got {
		if token == first+1 {
			t.Errorf("oldest waiting request %d not dropped: %v", token, got)
		}
	}
	if len(got) != requestQueueSize+1 {
		t.Errorf("expected %d results, got %v", requestQueueSize+1, got)
	}
}

func TestPlayerBookFirst(t *testing.T) {
	results := make(chan Result, 1)
	proc := newFakeSearcher("bestmove g1f3")
	p := NewPlayer(proc, NewECOBook(), ProfileFor(LevelHard), func(r Result) { results <- r }, testLogger())
	p.SetSeed(1)
	defer p.Close()

	game := chess.NewGame()
	p.RequestMove(Request{Position: game.Position(), Moves: game.Moves()})

	select {
	case r := <-results:
		if !r.FromBook {
			t.Errorf("expected a book move, got %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no result")
	}
	if len(proc.searches) != 0 {
		t.Error("engine searched although the book had a move")
	}
}
