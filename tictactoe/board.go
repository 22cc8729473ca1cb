// Package tictactoe is an m,n,k game environment played against a random
// opponent
package tictactoe

import (
	"errors"
	"strings"
)

var ErrOutOfBoard = errors.New("position outside of the board")

type Cell int

const (
	Cross Cell = iota
	Circle
	Empty
)

func (c Cell) String() string {
	switch c {
	case Cross:
		return "X"
	case Circle:
		return "O"
	default:
		return "_"
	}
}

// Board keeps the cells together with their one-hot encoding: three blocks
// of width*height values for crosses, circles and empty cells
type Board struct {
	width  int
	height int
	filled int
	cells  []Cell
	oneHot []float32
}

func NewBoard(width, height int) *Board {
	b := &Board{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		oneHot: make([]float32, 3*width*height),
	}
	b.Reset()
	return b
}

func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
	for i := range b.oneHot {
		b.oneHot[i] = 0
	}
	for i := 2 * len(b.cells); i < len(b.oneHot); i++ {
		b.oneHot[i] = 1
	}
	b.filled = 0
}

func (b *Board) Width() int {
	return b.width
}

func (b *Board) Height() int {
	return b.height
}

func (b *Board) Len() int {
	return len(b.cells)
}

func (b *Board) Filled() int {
	return b.filled
}

func (b *Board) IsFull() bool {
	return b.filled == len(b.cells)
}

func (b *Board) CoordsToIdx(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, ErrOutOfBoard
	}
	return y*b.width + x, nil
}

func (b *Board) IdxToCoords(idx int) (int, int, error) {
	if idx < 0 || idx >= len(b.cells) {
		return 0, 0, ErrOutOfBoard
	}
	return idx % b.width, idx / b.width, nil
}

func (b *Board) At(idx int) (Cell, error) {
	if idx < 0 || idx >= len(b.cells) {
		return Empty, ErrOutOfBoard
	}
	return b.cells[idx], nil
}

func (b *Board) XY(x, y int) (Cell, error) {
	idx, err := b.CoordsToIdx(x, y)
	if err != nil {
		return Empty, err
	}
	return b.cells[idx], nil
}

func (b *Board) Set(idx int, cell Cell) error {
	if idx < 0 || idx >= len(b.cells) {
		return ErrOutOfBoard
	}
	old := b.cells[idx]
	if old == Empty && cell != Empty {
		b.filled++
	} else if old != Empty && cell == Empty {
		b.filled--
	}
	b.oneHot[int(old)*len(b.cells)+idx] = 0
	b.oneHot[int(cell)*len(b.cells)+idx] = 1
	b.cells[idx] = cell
	return nil
}

func (b *Board) SetXY(x, y int, cell Cell) error {
	idx, err := b.CoordsToIdx(x, y)
	if err != nil {
		return err
	}
	return b.Set(idx, cell)
}

// Empties lists the indices of the free cells
func (b *Board) Empties() []int {
	out := make([]int, 0, len(b.cells)-b.filled)
	for i, c := range b.cells {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

var directions = [4][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}}

// Chain is the longest line of the cell at idx through idx
func (b *Board) Chain(idx int) int {
	x, y, err := b.IdxToCoords(idx)
	if err != nil {
		return 0
	}
	player := b.cells[idx]
	if player == Empty {
		return 0
	}
	longest := 0
	for _, d := range directions {
		count := 1
		for _, k := range []int{1, -1} {
			cx, cy := x, y
			for {
				cx += k * d[0]
				cy += k * d[1]
				cell, err := b.XY(cx, cy)
				if err != nil || cell != player {
					break
				}
				count++
			}
		}
		if count > longest {
			longest = count
		}
	}
	return longest
}

func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b.cells[y*b.width+x].String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *Board) clone() *Board {
	c := &Board{
		width:  b.width,
		height: b.height,
		filled: b.filled,
		cells:  make([]Cell, len(b.cells)),
		oneHot: make([]float32, len(b.oneHot)),
	}
	copy(c.cells, b.cells)
	copy(c.oneHot, b.oneHot)
	return c
}
