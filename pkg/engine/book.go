package engine

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/notnil/chess/opening"
)

// Entry is a candidate book move.
type Entry struct {
	Move   *chess.Move
	Weight int
}

// Book provides weighted candidate moves for a position.
type Book interface {
	// Entries lists the book moves for the position reached by moves from
	// the standard start, or for pos when the game did not start there.
	Entries(pos *chess.Position, moves []*chess.Move) []Entry
	Close() error
}

// InBand keeps the entries whose cumulative weight percentile lies within
// [min, max]. Entries are ranked by weight, heaviest first; an entry's
// percentile is the share of weight ranked above it.
func InBand(entries []Entry, min, max int) []Entry {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })

	total := 0
	for _, e := range sorted {
		total += e.Weight
	}
	if total == 0 {
		return nil
	}

	var band []Entry
	above := 0
	for _, e := range sorted {
		pct := above * 100 / total
		if pct >= min && pct <= max && e.Weight > 0 {
			band = append(band, e)
		}
		above += e.Weight
	}
	return band
}

// WeightedChoice picks a move with probability proportional to its weight,
// skipping excluded moves.
func WeightedChoice(entries []Entry, exclude []*chess.Move, rnd *rand.Rand) (*chess.Move, bool) {
	var candidates []Entry
	total := 0
	for _, e := range entries {
		if e.Weight <= 0 || containsMove(exclude, e.Move) {
			continue
		}
		candidates = append(candidates, e)
		total += e.Weight
	}
	if total == 0 {
		return nil, false
	}

	n := rnd.Intn(total)
	for _, e := range candidates {
		if n < e.Weight {
			return e.Move, true
		}
		n -= e.Weight
	}
	return candidates[len(candidates)-1].Move, true
}

func containsMove(moves []*chess.Move, m *chess.Move) bool {
	for _, x := range moves {
		if x.String() == m.String() {
			return true
		}
	}
	return false
}

// ECOBook uses the named openings of the ECO classification. A move's
// weight is the number of openings continuing with it.
type ECOBook struct {
	book *opening.BookECO
}

func NewECOBook() *ECOBook {
	return &ECOBook{book: opening.NewBookECO()}
}

func (b *ECOBook) Entries(pos *chess.Position, moves []*chess.Move) []Entry {
	if pos.String() != positionAfter(moves).String() {
		return nil
	}

	weights := make(map[string]int)
	var order []string
	for _, o := range b.book.Possible(moves) {
		line := o.Game().Moves()
		if len(line) <= len(moves) {
			continue
		}
		next := line[len(moves)].String()
		if _, ok := weights[next]; !ok {
			order = append(order, next)
		}
		weights[next]++
	}

	var entries []Entry
	for _, s := range order {
		if m, ok := LegalMove(pos, s); ok {
			entries = append(entries, Entry{Move: m, Weight: weights[s]})
		}
	}
	return entries
}

func (b *ECOBook) Close() error {
	return nil
}

// LegalMove finds the legal move written in UCI notation.
func LegalMove(pos *chess.Position, s string) (*chess.Move, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range pos.ValidMoves() {
		if m.String() == s {
			return m, true
		}
	}
	return nil, false
}

func positionAfter(moves []*chess.Move) *chess.Position {
	game := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	for _, m := range moves {
		if err := game.MoveStr(m.String()); err != nil {
			break
		}
	}
	return game.Position()
}

// FileBook is a plain text book, one entry per line:
//
//	<piece placement> <side> <castling> <en passant>;<uci move>;<weight>
//
// Lines starting with # are comments.
type FileBook struct {
	entries map[string][]fileEntry
}

type fileEntry struct {
	move   string
	weight int
}

func OpenFileBook(path string) (*FileBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	defer f.Close()

	b := &FileBook{entries: make(map[string][]fileEntry)}
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) != 3 {
			return nil, fmt.Errorf("book line %d: expected 3 fields, got %d", n, len(fields))
		}
		weight, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("book line %d: bad weight: %w", n, err)
		}

		key := bookKey(fields[0])
		b.entries[key] = append(b.entries[key], fileEntry{move: strings.TrimSpace(fields[1]), weight: weight})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read book: %w", err)
	}
	return b, nil
}

// bookKey keeps the first four FEN fields; move counters do not matter.
func bookKey(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

func (b *FileBook) Entries(pos *chess.Position, moves []*chess.Move) []Entry {
	var entries []Entry
	for _, e := range b.entries[bookKey(pos.String())] {
		if m, ok := LegalMove(pos, e.move); ok {
			entries = append(entries, Entry{Move: m, Weight: e.weight})
		}
	}
	return entries
}

func (b *FileBook) Close() error {
	return nil
}
