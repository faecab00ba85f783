package channels

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	apperrors "mlxcli/internal/errors"
	"mlxcli/pkg/contracts/domain"
)

// FileSummary reports how many points one input file contributed
type FileSummary struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Sheet is one channel worksheet of the output workbook
type Sheet struct {
	Name  string
	Table *ChannelTable
}

// Workbook is the finalized output: the INDEX summary plus one sheet per
// channel, both in channel-key order.
type Workbook struct {
	Index  []domain.IndexEntry
	Sheets []Sheet
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithSheetPrefix prepends prefix to every channel sheet name
func WithSheetPrefix(prefix string) Option {
	return func(a *Aggregator) {
		a.prefix = prefix
	}
}

// WithLogger sets the aggregator logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Aggregator buckets data points of many files by channel key. It is not
// safe for concurrent use.
type Aggregator struct {
	tables map[domain.ChannelKey]*ChannelTable
	files  []FileSummary
	seen   map[string]int
	prefix string
	logger *slog.Logger
}

// NewAggregator creates an empty aggregator
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		tables: make(map[domain.ChannelKey]*ChannelTable),
		seen:   make(map[string]int),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(slog.String("component", "channel_aggregator"))
	return a
}

// Add consumes the points of one file and returns how many were recorded.
// Adding the same file name twice merges into the same series.
func (a *Aggregator) Add(fileName string, points iter.Seq[domain.DataPoint]) int {
	idx, ok := a.seen[fileName]
	if !ok {
		idx = len(a.files)
		a.seen[fileName] = idx
		a.files = append(a.files, FileSummary{Name: fileName})
	}

	var n int
	for p := range points {
		key := p.Key()
		table, ok := a.tables[key]
		if !ok {
			table = newChannelTable(key)
			a.tables[key] = table
		}
		table.record(fileName, p.RetentionTime, p.Value)
		n++
	}
	a.files[idx].Points += n

	a.logger.Debug("File aggregated",
		slog.String("file", fileName),
		slog.Int("points", n),
		slog.Int("channels", len(a.tables)))
	return n
}

// Files returns the per-file summaries in the order files were added
func (a *Aggregator) Files() []FileSummary {
	return slices.Clone(a.files)
}

// Tables returns the channel tables ordered by key
func (a *Aggregator) Tables() []*ChannelTable {
	tables := make([]*ChannelTable, 0, len(a.tables))
	for _, t := range a.tables {
		tables = append(tables, t)
	}
	slices.SortFunc(tables, func(x, y *ChannelTable) int {
		switch {
		case x.key.Less(y.key):
			return -1
		case y.key.Less(x.key):
			return 1
		}
		return 0
	})
	return tables
}

// Finalize fixes row order, names every sheet and builds the INDEX entries.
// It returns ErrNoData when no file contributed a single point.
func (a *Aggregator) Finalize() (*Workbook, error) {
	if len(a.tables) == 0 {
		return nil, apperrors.ErrNoData.WithContext("files", len(a.files))
	}

	namer := NewSheetNamer(IndexSheetName)
	tables := a.Tables()
	wb := &Workbook{
		Index:  make([]domain.IndexEntry, 0, len(tables)),
		Sheets: make([]Sheet, 0, len(tables)),
	}

	for _, t := range tables {
		label := t.key.Channel.Label()
		name := namer.Name(fmt.Sprintf("%sF%d_%s", a.prefix, t.key.Function, label))

		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Table: t})
		wb.Index = append(wb.Index, domain.IndexEntry{
			SheetName:     name,
			Function:      t.key.Function,
			ChannelID:     t.key.Channel,
			ChannelLabel:  label,
			Chromatograms: len(t.Files()),
			RowsInSheet:   len(t.Times()),
		})
	}

	a.logger.Info("Channels finalized",
		slog.Int("sheets", len(wb.Sheets)),
		slog.Int("files", len(a.files)))
	return wb, nil
}
