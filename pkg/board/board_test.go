package board

import (
	"math/rand"
	"testing"

	"github.com/notnil/chess"
)

func TestMapRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	maps := []Map{{}, StartMap, {0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}}
	for i := 0; i < 500; i++ {
		var m Map
		for r := range m {
			m[r] = byte(rnd.Intn(256))
		}
		maps = append(maps, m)
	}

	for _, m := range maps {
		if got := FromSquares(m.Squares()); got != m {
			t.Errorf("round trip failed: expected\n%s\ngot\n%s", m, got)
		}
	}
}

func TestRowToSquares(t *testing.T) {
	squares := RowToSquares(1, 0x81)
	if len(squares) != 2 || squares[0] != chess.A2 || squares[1] != chess.H2 {
		t.Errorf("unexpected squares: %v", squares)
	}

	if squares := RowToSquares(7, 0); len(squares) != 0 {
		t.Errorf("expected no squares, got %v", squares)
	}
}

func TestParseSquare(t *testing.T) {
	for name, expected := range map[string]chess.Square{
		"a1": chess.A1,
		"e4": chess.E4,
		"H8": chess.H8,
	} {
		sq, err := ParseSquare(name)
		if err != nil {
			t.Errorf("failed to parse %s: %s", name, err)
		}
		if sq != expected {
			t.Errorf("parse %s: expected %s, got %s", name, expected, sq)
		}
	}

	for _, bad := range []string{"", "i1", "a9", "e44"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestStartPosition(t *testing.T) {
	if StartMap.Count() != 32 {
		t.Errorf("expected 32 men, got %d", StartMap.Count())
	}
	if DetectPosition(StartMap) != PositionNew {
		t.Error("start position not detected as new")
	}

	game := chess.NewGame()
	if occ := Occupancy(game.Position().Board()); occ != StartMap {
		t.Errorf("occupancy of the start position differs:\n%s", occ)
	}
	if mis := Mismatches(game.Position(), StartMap); len(mis) != 0 {
		t.Errorf("unexpected mismatches: %v", mis)
	}
}

func TestDetectPosition(t *testing.T) {
	m := StartMap
	m.Clear(chess.E2)
	m.Set(chess.E4)
	if DetectPosition(m) != PositionCustom {
		t.Error("a piece in the middle ranks must give a custom position")
	}

	m = StartMap
	m[1] = 0x0f
	if DetectPosition(m) != PositionNew {
		t.Error("28 men with empty middle ranks must still be new")
	}

	m = StartMap
	m[1] = 0
	if DetectPosition(m) != PositionCustom {
		t.Error("24 men must give a custom position")
	}

	m = Map{0x10, 0, 0, 0, 0, 0, 0, 0x10}
	if DetectPosition(m) != PositionCustom {
		t.Error("two kings must give a custom position")
	}
}

func TestMissingStartSquares(t *testing.T) {
	m := StartMap
	m[1] = 0x0f // a2..d2 present

	missing := MissingStartSquares(m)
	expected := []chess.Square{chess.E2, chess.F2, chess.G2, chess.H2}
	if len(missing) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, missing)
	}
	for i := range expected {
		if missing[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, missing)
		}
	}
}

func TestMismatchesAfterMove(t *testing.T) {
	game := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	if err := game.MoveStr("e2e4"); err != nil {
		t.Fatal(err)
	}

	sensors := StartMap
	mis := Mismatches(game.Position(), sensors)
	if len(mis) != 2 || !Contains(mis, chess.E2) || !Contains(mis, chess.E4) {
		t.Errorf("expected e2 and e4, got %v", mis)
	}

	sensors.Clear(chess.E2)
	sensors.Set(chess.E4)
	if mis := Mismatches(game.Position(), sensors); len(mis) != 0 {
		t.Errorf("unexpected mismatches: %v", mis)
	}
}

func TestBackRank(t *testing.T) {
	white := BackRank(chess.White)
	if len(white) != 8 || white[0] != chess.A1 || white[7] != chess.H1 {
		t.Errorf("unexpected white back rank: %v", white)
	}
	black := BackRank(chess.Black)
	if len(black) != 8 || black[0] != chess.A8 || black[7] != chess.H8 {
		t.Errorf("unexpected black back rank: %v", black)
	}
}
