// Package board converts between the physical sensor grid and chess squares.
//
// The sensor grid is reported as 8 bytes, one per rank (index 0 = rank 1),
// with one bit per file (bit 0 = file a).
package board

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/notnil/chess"
)

const (
	numrows = 8
	numcols = 8

	// A new game needs at least this many men on the board.
	newGameMinMen = 26
)

var ErrBadSquare = errors.New("invalid square name")

// Map is a bitmap of the board, one byte per rank.
type Map [numrows]byte

// StartMap is the occupancy of the standard starting position.
var StartMap = Map{0xff, 0xff, 0, 0, 0, 0, 0xff, 0xff}

type PositionType int

const (
	PositionNew PositionType = iota
	PositionCustom
)

func (p PositionType) String() string {
	if p == PositionNew {
		return "new"
	}
	return "custom"
}

func getSquare(f chess.File, r chess.Rank) chess.Square {
	return chess.Square((int(r) * 8) + int(f))
}

// ParseSquare converts a square name like "e4".
func ParseSquare(name string) (chess.Square, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return chess.NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, name)
	}
	return getSquare(chess.File(name[0]-'a'), chess.Rank(name[1]-'1')), nil
}

// RowToSquares returns the squares of the given rank whose bits are set.
func RowToSquares(rank int, val byte) []chess.Square {
	var squares []chess.Square
	for f := 0; f < numcols; f++ {
		if val&(1<<f) != 0 {
			squares = append(squares, getSquare(chess.File(f), chess.Rank(rank)))
		}
	}
	return squares
}

// FromSquares builds a map with the given squares set.
func FromSquares(squares []chess.Square) Map {
	var m Map
	for _, sq := range squares {
		m.Set(sq)
	}
	return m
}

// Squares lists every set square, rank by rank starting at a1.
func (m Map) Squares() []chess.Square {
	var squares []chess.Square
	for r := 0; r < numrows; r++ {
		squares = append(squares, RowToSquares(r, m[r])...)
	}
	return squares
}

func onBoard(sq chess.Square) bool {
	return sq >= chess.A1 && sq <= chess.H8
}

func (m Map) Occupied(sq chess.Square) bool {
	return onBoard(sq) && m[sq.Rank()]&(1<<sq.File()) != 0
}

// Set, Clear and Toggle ignore chess.NoSquare.
func (m *Map) Set(sq chess.Square) {
	if onBoard(sq) {
		m[sq.Rank()] |= 1 << sq.File()
	}
}

func (m *Map) Clear(sq chess.Square) {
	if onBoard(sq) {
		m[sq.Rank()] &^= 1 << sq.File()
	}
}

func (m *Map) Toggle(sq chess.Square) {
	if onBoard(sq) {
		m[sq.Rank()] ^= 1 << sq.File()
	}
}

func (m Map) Xor(o Map) Map {
	var r Map
	for i := range m {
		r[i] = m[i] ^ o[i]
	}
	return r
}

func (m Map) Or(o Map) Map {
	var r Map
	for i := range m {
		r[i] = m[i] | o[i]
	}
	return r
}

func (m Map) AndNot(o Map) Map {
	var r Map
	for i := range m {
		r[i] = m[i] &^ o[i]
	}
	return r
}

// Count is the number of set squares.
func (m Map) Count() int {
	n := 0
	for _, row := range m {
		n += bits.OnesCount8(row)
	}
	return n
}

func (m Map) Empty() bool {
	return m == Map{}
}

// Rows returns the map as plain numbers, rank 1 first.
func (m Map) Rows() []int {
	rows := make([]int, numrows)
	for i, row := range m {
		rows[i] = int(row)
	}
	return rows
}

// String draws the map with rank 8 on top.
func (m Map) String() string {
	var sb strings.Builder
	for r := numrows - 1; r >= 0; r-- {
		for f := 0; f < numcols; f++ {
			if m[r]&(1<<f) != 0 {
				sb.WriteByte('x')
			} else {
				sb.WriteByte('.')
			}
		}
		if r > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Occupancy computes the squares holding a piece of either colour.
func Occupancy(b *chess.Board) Map {
	var m Map
	for i := 0; i < numrows*numcols; i++ {
		sq := chess.Square(i)
		if b.Piece(sq) != chess.NoPiece {
			m.Set(sq)
		}
	}
	return m
}

// Mismatches lists the squares where the sensors disagree with the position.
func Mismatches(pos *chess.Position, sensors Map) []chess.Square {
	return Occupancy(pos.Board()).Xor(sensors).Squares()
}

// DetectPosition decides whether the sensors show a new game set-up.
func DetectPosition(m Map) PositionType {
	if m.Count() >= newGameMinMen && m[2] == 0 && m[3] == 0 && m[4] == 0 && m[5] == 0 {
		return PositionNew
	}
	return PositionCustom
}

// MissingStartSquares lists starting squares that are empty.
func MissingStartSquares(m Map) []chess.Square {
	return StartMap.AndNot(m).Squares()
}

// BackRank returns the eight home squares of a colour.
func BackRank(c chess.Color) []chess.Square {
	if c == chess.Black {
		return RowToSquares(int(chess.Rank8), 0xff)
	}
	return RowToSquares(int(chess.Rank1), 0xff)
}

// Contains reports whether sq is in squares.
func Contains(squares []chess.Square, sq chess.Square) bool {
	for _, s := range squares {
		if s == sq {
			return true
		}
	}
	return false
}
