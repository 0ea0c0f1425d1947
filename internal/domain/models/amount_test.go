package models

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain integer", input: "1000", want: "1000"},
		{name: "underscores", input: "1_000_000", want: "1000000"},
		{name: "exponent", input: "1000000000e18", want: "1000000000000000000000000000"},
		{name: "fractional mantissa", input: "0.1e18", want: "100000000000000000"},
		{name: "hex", input: "0xff", want: "255"},
		{name: "zero", input: "0", want: "0"},
		{name: "fraction left over", input: "0.5", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "garbage", input: "ten", wantErr: true},
		{name: "empty", input: " ", wantErr: true},
		{name: "negative exponent", input: "1e-3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatUnits(t *testing.T) {
	oneAndHalf, _ := new(big.Int).SetString("1500000000000000000", 10)
	tiny := big.NewInt(1)

	assert.Equal(t, "1.5", FormatUnits(oneAndHalf, 18))
	assert.Equal(t, "0.000000000000000001", FormatUnits(tiny, 18))
	assert.Equal(t, "1000", FormatUnits(big.NewInt(1000), 0))
	assert.Equal(t, "0", FormatUnits(nil, 18))
}

func TestFormatBps(t *testing.T) {
	assert.Equal(t, "5%", FormatBps(500))
	assert.Equal(t, "2.5%", FormatBps(250))
	assert.Equal(t, "0.01%", FormatBps(1))
	assert.Equal(t, "100%", FormatBps(10000))
}
