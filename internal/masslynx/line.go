package masslynx

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// LineKind tags the structural role of one line of a MassLynx ASCII export
type LineKind int

const (
	Unrecognized LineKind = iota
	FunctionMarker
	ScanMarker
	RetentionTimeMarker
	NumericPair
)

func (k LineKind) String() string {
	switch k {
	case FunctionMarker:
		return "function"
	case ScanMarker:
		return "scan"
	case RetentionTimeMarker:
		return "retention_time"
	case NumericPair:
		return "pair"
	default:
		return "unrecognized"
	}
}

// Line is a classified line. Only the fields relevant to Kind are set.
// Valid is false for a marker whose number could not be parsed or, for
// FUNCTION, is not positive.
type Line struct {
	Kind     LineKind
	Valid    bool
	Function int
	Scan     int
	Time     float64
	First    float64
	Second   float64
}

const number = `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`

var (
	reFunction      = regexp.MustCompile(`(?i)^FUNCTION\s+(\d+)$`)
	reScan          = regexp.MustCompile(`(?i)^Scan\s+(\S+)$`)
	reRetentionTime = regexp.MustCompile(`(?i)^Retention\s+Time\s*:?\s*(\S*)$`)
	rePair          = regexp.MustCompile(`^(` + number + `)[\s,;]+(` + number + `)$`)
)

// Classify assigns a trimmed line to exactly one LineKind
func Classify(line string) Line {
	line = strings.TrimSpace(line)

	if m := reFunction.FindStringSubmatch(line); m != nil {
		fn, err := strconv.Atoi(m[1])
		return Line{Kind: FunctionMarker, Valid: err == nil && fn > 0, Function: fn}
	}
	if m := reScan.FindStringSubmatch(line); m != nil {
		scan, err := strconv.Atoi(m[1])
		return Line{Kind: ScanMarker, Valid: err == nil, Scan: scan}
	}
	if m := reRetentionTime.FindStringSubmatch(line); m != nil {
		rt, err := strconv.ParseFloat(m[1], 64)
		valid := err == nil && !math.IsNaN(rt) && !math.IsInf(rt, 0)
		if !valid {
			rt = 0
		}
		return Line{Kind: RetentionTimeMarker, Valid: valid, Time: rt}
	}
	if m := rePair.FindStringSubmatch(line); m != nil {
		a, errA := strconv.ParseFloat(m[1], 64)
		b, errB := strconv.ParseFloat(m[2], 64)
		if errA == nil && errB == nil {
			return Line{Kind: NumericPair, Valid: true, First: a, Second: b}
		}
	}
	return Line{Kind: Unrecognized}
}
