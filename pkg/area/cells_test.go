package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestCellCount_Clamp(t *testing.T) {
	tests := []struct {
		name  string
		dim   [4]float32
		total *int
		want  int
	}{
		{"cols*rows", [4]float32{0.5, 0.5, 2, 2}, nil, 4},
		{"explicit", [4]float32{0.5, 0.5, 2, 2}, intPtr(3), 3},
		{"zero clamps to one", [4]float32{0.5, 0.5, 2, 2}, intPtr(0), 1},
		{"negative clamps to one", [4]float32{0.5, 0.5, 2, 2}, intPtr(-3), 1},
		{"twelve clamps to eight", [4]float32{0.5, 0.5, 2, 2}, intPtr(12), 8},
		{"large grid clamps to eight", [4]float32{0.25, 0.25, 4, 4}, nil, 8},
		{"empty grid clamps to one", [4]float32{0, 0, 0, 0}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MaterialBlendSpec{PalDim: tt.dim, TotalCells: tt.total}
			assert.Equal(t, tt.want, s.CellCount())
		})
	}
}

func TestUVScale_Default(t *testing.T) {
	s := MaterialBlendSpec{UVScales: []float32{2, 3}}
	assert.Equal(t, float32(2), s.UVScale(0))
	assert.Equal(t, float32(3), s.UVScale(1))
	assert.Equal(t, float32(1), s.UVScale(2))
	assert.Equal(t, float32(1), s.UVScale(-1))
}

func TestUsesSecondMask(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		maskA2 string
		want   bool
	}{
		{"four cells with maskA2", 4, "a2.png", false},
		{"five cells with maskA2", 5, "a2.png", true},
		{"eight cells without maskA2", 8, "", false},
		{"one cell with maskA2", 1, "a2.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MaterialBlendSpec{PalDim: [4]float32{0.5, 0.5, 4, 2}, TotalCells: intPtr(tt.total), MaskA2: tt.maskA2}
			assert.Equal(t, tt.want, s.UsesSecondMask())
		})
	}
}

func TestCells_Origins(t *testing.T) {
	const usableH = 0.4
	s := MaterialBlendSpec{
		PalDim:   [4]float32{0.5, 0.5, 2, 2},
		PalParam: [4]float32{0, 0, 0.45, usableH},
	}

	cells := s.Cells()
	require.Len(t, cells, 4)

	assert.Equal(t, 0, cells[0].Row)
	assert.Equal(t, 0, cells[0].Col)
	assert.InDelta(t, 0, cells[0].Origin[0], 1e-6)
	assert.InDelta(t, 1-usableH, cells[0].Origin[1], 1e-6)

	assert.Equal(t, 1, cells[1].Row)
	assert.Equal(t, 0, cells[1].Col)
	assert.InDelta(t, 0, cells[1].Origin[0], 1e-6)
	assert.InDelta(t, 1-0.5-usableH, cells[1].Origin[1], 1e-6)

	assert.Equal(t, 0, cells[2].Row)
	assert.Equal(t, 1, cells[2].Col)
	assert.InDelta(t, 0.5, cells[2].Origin[0], 1e-6)
	assert.InDelta(t, 1-usableH, cells[2].Origin[1], 1e-6)
}

func TestCells_Padding(t *testing.T) {
	s := MaterialBlendSpec{
		PalDim:   [4]float32{0.25, 0.5, 4, 2},
		PalParam: [4]float32{0.01, 0.02, 0.23, 0.46},
	}

	cells := s.Cells()
	require.Len(t, cells, 8)

	// Cell 5: row 1, col 2.
	c := cells[5]
	assert.Equal(t, 1, c.Row)
	assert.Equal(t, 2, c.Col)
	assert.InDelta(t, 2*0.25+0.01, c.Origin[0], 1e-6)
	assert.InDelta(t, 1-(0.5+0.02)-0.46, c.Origin[1], 1e-6)
	assert.Equal(t, [2]float32{0.23, 0.46}, c.Size)
}

func TestCells_WeightChannels(t *testing.T) {
	s := MaterialBlendSpec{PalDim: [4]float32{0.25, 0.5, 4, 2}}

	want := []struct {
		mask    int
		channel Channel
	}{
		{0, ChannelR}, {0, ChannelG}, {0, ChannelB}, {0, ChannelA},
		{1, ChannelR}, {1, ChannelG}, {1, ChannelB}, {1, ChannelA},
	}
	for i, c := range s.Cells() {
		assert.Equal(t, want[i].mask, c.Mask, "cell %d mask", i)
		assert.Equal(t, want[i].channel, c.Channel, "cell %d channel", i)
		assert.Equal(t, i, c.WeightIndex())
	}
	assert.Equal(t, "A", ChannelA.String())
}

func TestValidate(t *testing.T) {
	ok := MaterialBlendSpec{Palette: "p.png", MaskA: "a.png", PalDim: [4]float32{1, 1, 1, 1}}
	assert.NoError(t, ok.Validate())

	bad := MaterialBlendSpec{PalDim: [4]float32{1, 1, 1, 0}}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "palette")
	assert.Contains(t, err.Error(), "maskA")
	assert.Contains(t, err.Error(), "rows")
}
