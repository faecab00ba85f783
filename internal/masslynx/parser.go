package masslynx

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"mlxcli/pkg/contracts/domain"
)

// DefaultTimeDecimals is the retention-time rounding used as the join key
const DefaultTimeDecimals = 3

// MaxTimeDecimals bounds WithTimeDecimals
const MaxTimeDecimals = 9

// maxLineSize caps one line; MassLynx exports never come close
const maxLineSize = 1 << 20

// Option configures a Reader
type Option func(*options)

type options struct {
	timeDecimals int
	logger       *slog.Logger
}

// WithTimeDecimals sets the number of decimals retention times are rounded to.
// Values outside 0..MaxTimeDecimals are clamped.
func WithTimeDecimals(n int) Option {
	return func(o *options) {
		o.timeDecimals = max(0, min(n, MaxTimeDecimals))
	}
}

// WithLogger sets the logger used for per-line diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{timeDecimals: DefaultTimeDecimals, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Stats counts what a parse pass saw
type Stats struct {
	Lines          int `json:"lines"`
	Blank          int `json:"blank"`
	Functions      int `json:"functions"`
	Scans          int `json:"scans"`
	RetentionTimes int `json:"retention_times"`
	Pairs          int `json:"pairs"`
	Emitted        int `json:"emitted"`
	NoContext      int `json:"no_context"`
	Unrecognized   int `json:"unrecognized"`
	InvalidMarkers int `json:"invalid_markers"`
}

// state is the fold value threaded through one parse pass
type state struct {
	function    int
	hasFunction bool
	time        float64
	hasTime     bool
	scan        int
}

// step applies one classified line and reports the point it yields, if any
func (s state) step(l Line, decimals int) (state, domain.DataPoint, bool) {
	switch l.Kind {
	case FunctionMarker:
		if !l.Valid {
			return s, domain.DataPoint{}, false
		}
		return state{function: l.Function, hasFunction: true}, domain.DataPoint{}, false
	case ScanMarker:
		if l.Valid {
			s.scan = l.Scan
		}
		return s, domain.DataPoint{}, false
	case RetentionTimeMarker:
		s.time, s.hasTime = l.Time, l.Valid
		return s, domain.DataPoint{}, false
	case NumericPair:
		if !s.hasFunction || !s.hasTime {
			return s, domain.DataPoint{}, false
		}
		p := domain.DataPoint{
			Function:         s.function,
			Scan:             s.scan,
			RetentionTime:    roundTo(s.time, decimals),
			RawRetentionTime: s.time,
			Value:            l.Second,
		}
		if s.function == domain.MSFunction {
			p.Channel = domain.MSChannel
			p.MZ = l.First
		} else {
			p.Channel = domain.NumericChannel(l.First)
		}
		return s, p, true
	}
	return s, domain.DataPoint{}, false
}

// Reader parses a MassLynx ASCII export from an io.Reader. Its point
// sequence can be consumed once.
type Reader struct {
	src   io.Reader
	opts  options
	stats Stats
	err   error
	used  bool
}

// NewReader creates a parser over r
func NewReader(r io.Reader, opts ...Option) *Reader {
	return &Reader{src: r, opts: newOptions(opts)}
}

// Points returns the lazy sequence of data points. A second call yields
// nothing.
func (r *Reader) Points() iter.Seq[domain.DataPoint] {
	return func(yield func(domain.DataPoint) bool) {
		if r.used {
			return
		}
		r.used = true

		sc := bufio.NewScanner(r.src)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		var st state
		for sc.Scan() {
			r.stats.Lines++
			text := sc.Text()
			if r.stats.Lines == 1 {
				text = strings.TrimPrefix(text, "\ufeff")
			}
			if !utf8.ValidString(text) {
				text = strings.ToValidUTF8(text, "")
			}
			text = strings.TrimSpace(text)
			if text == "" {
				r.stats.Blank++
				continue
			}

			line := Classify(text)
			r.count(line, text)

			var (
				p  domain.DataPoint
				ok bool
			)
			st, p, ok = st.step(line, r.opts.timeDecimals)
			if line.Kind == NumericPair && !ok {
				r.stats.NoContext++
				continue
			}
			if !ok {
				continue
			}
			r.stats.Emitted++
			if !yield(p) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			r.err = fmt.Errorf("failed to read line %d: %w", r.stats.Lines+1, err)
		}
	}
}

func (r *Reader) count(l Line, text string) {
	switch l.Kind {
	case FunctionMarker:
		r.stats.Functions++
	case ScanMarker:
		r.stats.Scans++
	case RetentionTimeMarker:
		r.stats.RetentionTimes++
	case NumericPair:
		r.stats.Pairs++
	default:
		r.stats.Unrecognized++
		return
	}
	if !l.Valid {
		r.stats.InvalidMarkers++
		r.opts.logger.Warn("Unparseable marker",
			slog.String("kind", l.Kind.String()),
			slog.Int("line", r.stats.Lines),
			slog.String("text", text))
	}
}

// Err returns the I/O error that stopped the pass, if any. Malformed lines
// are never errors.
func (r *Reader) Err() error {
	return r.err
}

// Stats returns the counters of the pass so far
func (r *Reader) Stats() Stats {
	return r.stats
}

// Parse returns the data points of an export held in memory. Unlike
// Reader.Points the sequence can be ranged over repeatedly.
func Parse(text string, opts ...Option) iter.Seq[domain.DataPoint] {
	return func(yield func(domain.DataPoint) bool) {
		r := NewReader(strings.NewReader(text), opts...)
		for p := range r.Points() {
			if !yield(p) {
				return
			}
		}
	}
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
