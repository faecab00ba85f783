package channels

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "mlxcli/internal/errors"
	"mlxcli/internal/masslynx"
	"mlxcli/pkg/contracts/domain"
)

func pt(fn int, ch domain.ChannelID, at, v float64) domain.DataPoint {
	return domain.DataPoint{Function: fn, Channel: ch, RetentionTime: at, RawRetentionTime: at, Value: v}
}

func ch(n float64) domain.ChannelID {
	return domain.NumericChannel(n)
}

func TestAggregator_UnionGrid(t *testing.T) {
	agg := NewAggregator()
	agg.Add("A.txt", slices.Values([]domain.DataPoint{
		pt(2, ch(220), 1.0, 10),
	}))
	agg.Add("B.txt", slices.Values([]domain.DataPoint{
		pt(2, ch(220), 1.0, 20),
		pt(2, ch(220), 2.0, 30),
	}))

	wb, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	table := wb.Sheets[0].Table
	assert.Equal(t, []float64{1.0, 2.0}, table.Times())
	assert.Equal(t, []string{"A.txt_time", "A.txt_intensity", "B.txt_time", "B.txt_intensity"}, table.Header())
	assert.Equal(t, [][]any{
		{1.0, 10.0, 1.0, 20.0},
		{nil, nil, 2.0, 30.0},
	}, table.Rows())
}

func TestAggregator_FromParsedText(t *testing.T) {
	agg := NewAggregator()
	agg.Add("A.txt", masslynx.Parse("FUNCTION 1\nRetention Time 1.000\n100.0 500\n200.0 600\n"))
	agg.Add("B.txt", masslynx.Parse("FUNCTION 1\nRetention Time 1.0004\n150 700\nRetention Time 2\n150 800\n"))

	wb, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	table := wb.Sheets[0].Table
	assert.Equal(t, "F1_MS", wb.Sheets[0].Name)
	assert.Equal(t, []float64{1.0, 2.0}, table.Times())

	v, ok := table.Value("A.txt", 1.0)
	assert.True(t, ok)
	assert.Equal(t, 500.0, v, "first observation at a time wins")

	_, ok = table.Value("A.txt", 2.0)
	assert.False(t, ok)
}

func TestAggregator_NearlyEqualChannelsShareSheet(t *testing.T) {
	agg := NewAggregator()
	agg.Add("A.txt", masslynx.Parse("FUNCTION 2\nRetention Time 1.0\n220.00001 10\n"))
	agg.Add("B.txt", masslynx.Parse("FUNCTION 2\nRetention Time 1.0\n220.00002 20\n"))

	wb, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "F2_ch-220", wb.Sheets[0].Name)
	assert.Equal(t, 2, wb.Index[0].Chromatograms)
}

func TestAggregator_NonContributingFileHasNoColumns(t *testing.T) {
	agg := NewAggregator()
	agg.Add("uv.txt", slices.Values([]domain.DataPoint{pt(2, ch(254), 0.5, 1)}))
	agg.Add("ms.txt", slices.Values([]domain.DataPoint{pt(1, domain.MSChannel, 0.5, 2)}))
	agg.Add("empty.txt", slices.Values([]domain.DataPoint{}))

	wb, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 2)

	assert.Equal(t, []string{"ms.txt_time", "ms.txt_intensity"}, wb.Sheets[0].Table.Header())
	assert.Equal(t, []string{"uv.txt_time", "uv.txt_intensity"}, wb.Sheets[1].Table.Header())

	assert.Equal(t, []FileSummary{
		{Name: "uv.txt", Points: 1},
		{Name: "ms.txt", Points: 1},
		{Name: "empty.txt", Points: 0},
	}, agg.Files())
}

func TestAggregator_OrderingAndIndex(t *testing.T) {
	agg := NewAggregator()
	agg.Add("a.txt", slices.Values([]domain.DataPoint{
		pt(2, ch(254), 0.1, 1),
		pt(3, ch(220.5), 0.1, 1),
		pt(1, domain.MSChannel, 0.1, 1),
		pt(2, ch(220), 0.1, 1),
		pt(2, ch(220), 0.2, 1),
	}))
	agg.Add("b.txt", slices.Values([]domain.DataPoint{
		pt(2, ch(220), 0.3, 1),
	}))

	wb, err := agg.Finalize()
	require.NoError(t, err)

	var names []string
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"F1_MS", "F2_ch-220", "F2_ch-254", "F3_ch-220.5"}, names)

	require.Len(t, wb.Index, 4)
	assert.Equal(t, domain.IndexEntry{
		SheetName:     "F2_ch-220",
		Function:      2,
		ChannelID:     ch(220),
		ChannelLabel:  "ch-220",
		Chromatograms: 2,
		RowsInSheet:   3,
	}, wb.Index[1])
	assert.Equal(t, "MS", wb.Index[0].ChannelLabel)
	for i, entry := range wb.Index {
		assert.Equal(t, wb.Sheets[i].Name, entry.SheetName)
	}
}

func TestAggregator_SheetPrefix(t *testing.T) {
	agg := NewAggregator(WithSheetPrefix("Day1/"))
	agg.Add("a.txt", slices.Values([]domain.DataPoint{pt(1, domain.MSChannel, 0.1, 1)}))

	wb, err := agg.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "Day1_F1_MS", wb.Sheets[0].Name)
}

func TestAggregator_LongPrefixStaysUnique(t *testing.T) {
	agg := NewAggregator(WithSheetPrefix(strings.Repeat("X", 29)))
	var points []domain.DataPoint
	for _, c := range []float64{200, 210, 220, 230, 240} {
		points = append(points, pt(2, ch(c), 0.1, 1))
	}
	agg.Add("a.txt", slices.Values(points))

	wb, err := agg.Finalize()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, s := range wb.Sheets {
		assert.LessOrEqual(t, utf8.RuneCountInString(s.Name), excelize.MaxSheetNameLength)
		assert.False(t, seen[strings.ToLower(s.Name)], "duplicate sheet name %q", s.Name)
		seen[strings.ToLower(s.Name)] = true
	}
	assert.Len(t, seen, 5)
}

func TestAggregator_NoData(t *testing.T) {
	agg := NewAggregator()
	agg.Add("empty.txt", masslynx.Parse("no markers here\n"))

	wb, err := agg.Finalize()
	assert.Nil(t, wb)
	assert.ErrorIs(t, err, apperrors.ErrNoData)
}

func TestAggregator_SameFileTwiceMerges(t *testing.T) {
	agg := NewAggregator()
	agg.Add("a.txt", slices.Values([]domain.DataPoint{pt(2, ch(220), 0.1, 1)}))
	agg.Add("a.txt", slices.Values([]domain.DataPoint{pt(2, ch(220), 0.2, 2)}))

	require.Len(t, agg.Files(), 1)
	assert.Equal(t, 2, agg.Files()[0].Points)
	assert.Equal(t, []string{"a.txt"}, agg.Tables()[0].Files())
	assert.Equal(t, 2, agg.Tables()[0].Len())
}

// TestAggregator_RoundTripProperty checks on random inputs that the union grid
// is the set of distinct times and that every recorded value can be found in
// the wide rows at its time row and file column.
func TestAggregator_RoundTripProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 50; iter++ {
		agg := NewAggregator()
		type obs struct {
			file string
			at   float64
			v    float64
		}
		var recorded []obs
		distinct := map[float64]bool{}
		maxPerFile := 0

		nFiles := 1 + rng.Intn(4)
		for f := 0; f < nFiles; f++ {
			file := fmt.Sprintf("run%02d.txt", f)
			perFile := map[float64]bool{}
			var points []domain.DataPoint
			for n := rng.Intn(30); n > 0; n-- {
				at := float64(rng.Intn(50)) / 10
				v := float64(rng.Intn(1000))
				points = append(points, pt(2, ch(220), at, v))
				if !perFile[at] {
					perFile[at] = true
					recorded = append(recorded, obs{file, at, v})
				}
				distinct[at] = true
			}
			maxPerFile = max(maxPerFile, len(perFile))
			agg.Add(file, slices.Values(points))
		}

		if len(recorded) == 0 {
			continue
		}
		wb, err := agg.Finalize()
		require.NoError(t, err)
		table := wb.Sheets[0].Table

		times := table.Times()
		assert.Len(t, times, len(distinct))
		assert.GreaterOrEqual(t, len(times), maxPerFile)
		assert.True(t, slices.IsSorted(times))

		rows := table.Rows()
		files := table.Files()
		for _, o := range recorded {
			row := slices.Index(times, o.at)
			col := slices.Index(files, o.file)
			require.GreaterOrEqual(t, row, 0)
			require.GreaterOrEqual(t, col, 0)
			assert.Equal(t, o.at, rows[row][2*col])
			assert.Equal(t, o.v, rows[row][2*col+1])
		}
	}
}
