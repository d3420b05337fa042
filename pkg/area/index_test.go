package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialIndex_Lookup(t *testing.T) {
	idx := NewMaterialIndex([]MaterialBlendSpec{
		{Name: "Terrain_Lak100_0", Palette: "a"},
		{Name: "terrain_lak100_1", Palette: "b"},
		{Name: "", Palette: "ignored"},
	})
	require.Equal(t, 2, idx.Len())

	tests := []struct {
		host    string
		palette string
		found   bool
	}{
		{"Terrain_Lak100_0", "a", true},
		{"TERRAIN_LAK100_0", "a", true},
		{"terrain_lak100_0.001", "a", true},
		{"Terrain_Lak100_1.017", "b", true},
		{"terrain_lak100_1.backup", "", false},
		{"terrain_lak100_2", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			spec, ok := idx.Lookup(tt.host)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.palette, spec.Palette)
			}
		})
	}
}

func TestMaterialIndex_LaterDuplicateWins(t *testing.T) {
	idx := NewMaterialIndex([]MaterialBlendSpec{
		{Name: "ground", Palette: "first"},
		{Name: "GROUND", Palette: "second"},
	})
	spec, ok := idx.Lookup("Ground")
	require.True(t, ok)
	assert.Equal(t, "second", spec.Palette)
}

func TestStripDuplicateSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"mat.001", "mat", true},
		{"a.b.12", "a.b", true},
		{"mat", "mat", false},
		{".001", ".001", false},
		{"mat.", "mat.", false},
		{"mat.x01", "mat.x01", false},
	}
	for _, tt := range tests {
		got, ok := StripDuplicateSuffix(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
