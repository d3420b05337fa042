package area

import "fmt"

// Channel is a colour channel of a weight mask.
type Channel int

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelA
)

// String returns the channel letter.
func (c Channel) String() string {
	switch c {
	case ChannelR:
		return "R"
	case ChannelG:
		return "G"
	case ChannelB:
		return "B"
	case ChannelA:
		return "A"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Cell is one logical terrain texture inside the palette atlas.
type Cell struct {
	Index   int
	Row     int
	Col     int
	Origin  [2]float32 // Lower-left corner of the usable area in atlas UV space
	Size    [2]float32 // usableW, usableH
	UVScale float32
	Mask    int // 0 for maskA, 1 for maskA2
	Channel Channel
}

// WeightIndex returns the position of the cell's weight in the flat
// [maskA.R, maskA.G, maskA.B, maskA.A, maskA2.R, ...] list.
func (c Cell) WeightIndex() int {
	return c.Mask*cellsPerMask + int(c.Channel)
}

// Cells derives the active cells of the material. Cells fill the atlas
// column by column: row = i % rows, col = i / rows.
func (s *MaterialBlendSpec) Cells() []Cell {
	rows := s.Rows()
	if rows < 1 {
		rows = 1
	}
	cellW, cellH := s.PalDim[0], s.PalDim[1]
	padX, padY := s.PalParam[0], s.PalParam[1]
	usableW, usableH := s.PalParam[2], s.PalParam[3]

	n := s.CellCount()
	cells := make([]Cell, n)
	for i := 0; i < n; i++ {
		row := i % rows
		col := i / rows
		cells[i] = Cell{
			Index: i,
			Row:   row,
			Col:   col,
			Origin: [2]float32{
				float32(col)*cellW + padX,
				1 - (float32(row)*cellH + padY) - usableH,
			},
			Size:    [2]float32{usableW, usableH},
			UVScale: s.UVScale(i),
			Mask:    i / cellsPerMask,
			Channel: Channel(i % cellsPerMask),
		}
	}
	return cells
}
