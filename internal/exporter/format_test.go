package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mlxcli/pkg/contracts/domain"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{0.5, "0.5"},
		{12.346, "12.346"},
		{-3.25, "-3.25"},
		{1e-7, "0.0000001"},
		{1500000, "1500000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFloat(tt.in))
		})
	}
}

func TestFormatChannelID(t *testing.T) {
	assert.Equal(t, "MS", formatChannelID(domain.MSChannel))
	assert.Equal(t, "220", formatChannelID(domain.NumericChannel(220)))
	assert.Equal(t, "220.5", formatChannelID(domain.NumericChannel(220.5)))
}

func TestChannelIDCell(t *testing.T) {
	assert.Equal(t, "MS", channelIDCell(domain.MSChannel))
	assert.Equal(t, 254.0, channelIDCell(domain.NumericChannel(254)))
}
