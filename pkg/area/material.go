package area

import (
	"errors"
	"fmt"
)

// MaxCells is the number of weight channels two RGBA masks can carry.
const MaxCells = 8

// cellsPerMask is the number of weight channels in one RGBA mask.
const cellsPerMask = 4

// MaterialBlendSpec describes one tiled-palette terrain material.
type MaterialBlendSpec struct {
	Name       string     // Join key against host material names
	Palette    string     // Palette atlas image
	MaskA      string     // Weights for cells 0-3
	MaskA2     string     // Weights for cells 4-7, optional
	PalDim     [4]float32 // cellW, cellH, cols, rows
	PalParam   [4]float32 // padX, padY, usableW, usableH
	UVScales   []float32  // Per-cell tiling multiplier
	TotalCells *int       // Optional override of cols*rows

	shape []error // malformed manifest fields, reported by Validate
}

// Cols returns the number of cell columns in the palette atlas.
func (s *MaterialBlendSpec) Cols() int { return int(s.PalDim[2]) }

// Rows returns the number of cell rows in the palette atlas.
func (s *MaterialBlendSpec) Rows() int { return int(s.PalDim[3]) }

// CellCount returns totalCells, or cols*rows when absent, clamped to [1, 8].
func (s *MaterialBlendSpec) CellCount() int {
	n := s.Cols() * s.Rows()
	if s.TotalCells != nil {
		n = *s.TotalCells
	}
	return clampCells(n)
}

func clampCells(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxCells {
		return MaxCells
	}
	return n
}

// UVScale returns the tiling multiplier of cell i, 1.0 when not listed.
func (s *MaterialBlendSpec) UVScale(i int) float32 {
	if i >= 0 && i < len(s.UVScales) {
		return s.UVScales[i]
	}
	return 1.0
}

// UsesSecondMask reports whether maskA2 takes part in the blend. It is never
// consulted for four cells or fewer, even when present.
func (s *MaterialBlendSpec) UsesSecondMask() bool {
	return s.CellCount() > cellsPerMask && s.MaskA2 != ""
}

// Validate checks the fields the shader builder depends on.
func (s *MaterialBlendSpec) Validate() error {
	errs := append([]error(nil), s.shape...)
	if s.Palette == "" {
		errs = append(errs, errors.New("palette path is empty"))
	}
	if s.MaskA == "" {
		errs = append(errs, errors.New("maskA path is empty"))
	}
	if s.Rows() < 1 {
		errs = append(errs, fmt.Errorf("palDim rows must be >= 1, got %v", s.PalDim[3]))
	}
	if s.Cols() < 1 && s.TotalCells == nil {
		errs = append(errs, fmt.Errorf("palDim cols must be >= 1, got %v", s.PalDim[2]))
	}
	return errors.Join(errs...)
}
