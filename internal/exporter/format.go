package exporter

import (
	"strconv"

	"mlxcli/pkg/contracts/domain"
)

// formatFloat prints the shortest representation that round-trips, so
// retention times keep exactly the precision they were rounded to
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatChannelID prints "MS" or the channel number without trailing zeros
func formatChannelID(id domain.ChannelID) string {
	if id.MS {
		return id.String()
	}
	return formatFloat(id.Number)
}
