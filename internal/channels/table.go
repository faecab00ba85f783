package channels

import (
	"slices"

	"mlxcli/pkg/contracts/domain"
)

// ChannelTable accumulates the observations of one (function, channel) pair
// across every input file. Absent entries are empty cells, never zeros.
type ChannelTable struct {
	key    domain.ChannelKey
	times  map[float64]struct{}
	sorted []float64
	series map[string]map[float64]float64
	files  []string
}

func newChannelTable(key domain.ChannelKey) *ChannelTable {
	return &ChannelTable{
		key:    key,
		times:  make(map[float64]struct{}),
		series: make(map[string]map[float64]float64),
	}
}

// record stores value for (file, t). The first observation of a time wins.
func (t *ChannelTable) record(file string, at, value float64) {
	values, ok := t.series[file]
	if !ok {
		values = make(map[float64]float64)
		t.series[file] = values
		t.files = append(t.files, file)
	}
	if _, dup := values[at]; dup {
		return
	}
	values[at] = value
	if _, known := t.times[at]; !known {
		t.times[at] = struct{}{}
		t.sorted = nil
	}
}

// Key returns the channel key of the table
func (t *ChannelTable) Key() domain.ChannelKey {
	return t.key
}

// Times returns the union time grid in ascending order
func (t *ChannelTable) Times() []float64 {
	if t.sorted == nil {
		t.sorted = make([]float64, 0, len(t.times))
		for at := range t.times {
			t.sorted = append(t.sorted, at)
		}
		slices.Sort(t.sorted)
	}
	return t.sorted
}

// Files returns the contributing file names in first-seen order
func (t *ChannelTable) Files() []string {
	return t.files
}

// Value returns the value a file recorded at a time
func (t *ChannelTable) Value(file string, at float64) (float64, bool) {
	v, ok := t.series[file][at]
	return v, ok
}

// Len returns the number of rows of the table
func (t *ChannelTable) Len() int {
	return len(t.times)
}

// Header returns the wide-format column names: a time and an intensity
// column per contributing file.
func (t *ChannelTable) Header() []string {
	header := make([]string, 0, 2*len(t.files))
	for _, f := range t.files {
		header = append(header, f+"_time", f+"_intensity")
	}
	return header
}

// Rows materializes the wide-format rows over the union time grid. A nil
// cell is empty: the file has no value at that row's time.
func (t *ChannelTable) Rows() [][]any {
	times := t.Times()
	rows := make([][]any, len(times))
	for i, at := range times {
		row := make([]any, 2*len(t.files))
		for j, f := range t.files {
			if v, ok := t.series[f][at]; ok {
				row[2*j] = at
				row[2*j+1] = v
			}
		}
		rows[i] = row
	}
	return rows
}
