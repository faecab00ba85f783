package channels

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "F1_MS", "F1_MS"},
		{"forbidden characters", `a:b\c/d?e*f[g]h`, "a_b_c_d_e_f_g_h"},
		{"apostrophes trimmed", "'quoted'", "quoted"},
		{"empty falls back", "", "Sheet"},
		{"only apostrophes", "''", "Sheet"},
		{"truncated", strings.Repeat("a", 40), strings.Repeat("a", 31)},
		{"truncated by runes", strings.Repeat("µ", 40), strings.Repeat("µ", 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSheetName(tt.in))
		})
	}
}

func TestSheetNamer_Collisions(t *testing.T) {
	n := NewSheetNamer(IndexSheetName)

	assert.Equal(t, "F2_ch-220", n.Name("F2_ch-220"))
	assert.Equal(t, "F2_ch-220_1", n.Name("F2_ch-220"))
	assert.Equal(t, "f2_CH-220_2", n.Name("f2_CH-220"), "names are compared case-insensitively")
	assert.Equal(t, "index_1", n.Name("index"), "INDEX is reserved")
	assert.Equal(t, "F2_ch_220", n.Name("F2/ch/220"))
}

func TestSheetNamer_TruncatesBeforeSuffix(t *testing.T) {
	n := NewSheetNamer()
	base := strings.Repeat("b", 35)

	first := n.Name(base)
	second := n.Name(base)
	third := n.Name(base)

	assert.Equal(t, strings.Repeat("b", 31), first)
	assert.Equal(t, strings.Repeat("b", 29)+"_1", second)
	assert.Equal(t, strings.Repeat("b", 29)+"_2", third)
	for _, name := range []string{first, second, third} {
		assert.LessOrEqual(t, utf8.RuneCountInString(name), excelize.MaxSheetNameLength)
	}
}
