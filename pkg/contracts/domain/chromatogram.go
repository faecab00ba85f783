package domain

import (
	"math"
	"strconv"
)

// MSFunction is the MassLynx function number reserved for full-scan MS data.
const MSFunction = 1

// DataPoint is one numeric observation parsed from a MassLynx ASCII export
type DataPoint struct {
	Function         int       `json:"function"`
	Channel          ChannelID `json:"channel"`
	Scan             int       `json:"scan,omitempty"`
	RetentionTime    float64   `json:"retention_time"`
	RawRetentionTime float64   `json:"raw_retention_time"`
	MZ               float64   `json:"mz,omitempty"`
	Value            float64   `json:"value"`
}

// Key returns the channel bucket the point belongs to
func (p DataPoint) Key() ChannelKey {
	return ChannelKey{Function: p.Function, Channel: p.Channel}
}

// ChannelID identifies a trace inside a function. Function 1 data is
// collapsed into a single MS trace; PDA/UV functions carry the detector
// channel number.
type ChannelID struct {
	MS     bool    `json:"ms"`
	Number float64 `json:"number,omitempty"`
}

// MSChannel is the sentinel channel used for every function-1 point
var MSChannel = ChannelID{MS: true}

// ChannelDecimals is the precision channel numbers are bucketed at
const ChannelDecimals = 4

// NumericChannel returns the channel id for a PDA/UV channel number, rounded
// to ChannelDecimals so numbers that print alike share a channel
func NumericChannel(n float64) ChannelID {
	scale := math.Pow10(ChannelDecimals)
	return ChannelID{Number: math.Round(n*scale) / scale}
}

// String returns "MS" or the channel number with four decimals ("220.0000")
func (c ChannelID) String() string {
	if c.MS {
		return "MS"
	}
	return strconv.FormatFloat(c.Number, 'f', ChannelDecimals, 64)
}

// Label returns the human readable channel name used in sheet names:
// "MS" or "ch-<n>" with integral channel numbers printed without decimals.
func (c ChannelID) Label() string {
	if c.MS {
		return "MS"
	}
	return "ch-" + c.Display()
}

// Display returns the channel number in its shortest readable form
func (c ChannelID) Display() string {
	if c.MS {
		return "MS"
	}
	if r := math.Round(c.Number); math.Abs(c.Number-r) < 1e-6 {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return strconv.FormatFloat(c.Number, 'g', -1, 64)
}

// Less orders MS before numeric channels, numeric channels ascending
func (c ChannelID) Less(other ChannelID) bool {
	if c.MS != other.MS {
		return c.MS
	}
	return c.Number < other.Number
}

// ChannelKey is the (function, channel) pair that maps to one worksheet
type ChannelKey struct {
	Function int       `json:"function"`
	Channel  ChannelID `json:"channel"`
}

// Less orders keys by function, then channel
func (k ChannelKey) Less(other ChannelKey) bool {
	if k.Function != other.Function {
		return k.Function < other.Function
	}
	return k.Channel.Less(other.Channel)
}

// IndexEntry is one row of the INDEX summary sheet
type IndexEntry struct {
	SheetName     string    `json:"sheet_name"`
	Function      int       `json:"function"`
	ChannelID     ChannelID `json:"channel_id"`
	ChannelLabel  string    `json:"channel_label"`
	Chromatograms int       `json:"chromatograms"`
	RowsInSheet   int       `json:"rows_in_sheet"`
}

// IndexHeaders are the column names of the INDEX sheet
var IndexHeaders = []string{
	"sheet_name",
	"function",
	"channel_id",
	"channel_label",
	"chromatograms",
	"rows_in_sheet",
}
