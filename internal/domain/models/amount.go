package models

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ParseAmount parses an unsigned integer amount. Underscores are ignored and an
// exponent suffix is allowed, so "1_000e18" and "0.1e18" are both accepted as long
// as the result is a whole number.
func ParseAmount(s string) (*big.Int, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if raw == "" {
		return nil, fmt.Errorf("empty amount")
	}

	mantissa, exp := raw, int64(0)
	if idx := strings.IndexAny(raw, "eE"); idx >= 0 {
		var err error
		mantissa = raw[:idx]
		exp, err = strconv.ParseInt(raw[idx+1:], 10, 32)
		if err != nil || exp < 0 {
			return nil, fmt.Errorf("invalid exponent in amount %q", s)
		}
	}

	if strings.HasPrefix(mantissa, "0x") || strings.HasPrefix(mantissa, "0X") {
		if exp != 0 {
			return nil, fmt.Errorf("hex amount %q can't have an exponent", s)
		}
		v, ok := new(big.Int).SetString(mantissa[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex amount %q", s)
		}
		return v, nil
	}

	r, ok := new(big.Rat).SetString(mantissa)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", s)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q is not a whole number of base units", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatUnits renders a base-unit amount with the given number of decimals,
// trimming trailing zeros ("1500000000000000000", 18 -> "1.5").
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	if decimals == 0 {
		return v.String()
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, scale, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	fracStr := frac.String()
	fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	return whole.String() + "." + strings.TrimRight(fracStr, "0")
}

// FormatBps renders basis points as a percentage ("500" -> "5%")
func FormatBps(bps uint64) string {
	whole, frac := bps/100, bps%100
	if frac == 0 {
		return fmt.Sprintf("%d%%", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%02d", whole, frac), "0") + "%"
}
