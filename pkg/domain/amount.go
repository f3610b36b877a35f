package domain

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// AmountDecimals is the number of implied decimal places of a fixed-point
// integer amount, the standard unit for on-chain token quantities.
const AmountDecimals = 18

// NativeToken is the address placeholder for the chain's native coin.
const NativeToken = "0x0000000000000000000000000000000000000000"

// Amount source kinds. AmountDescriptor is a closed tagged union over these.
const (
	AmountStatic         = "static"
	AmountPreviousOutput = "previous_output"
	AmountCurrentBalance = "current_balance"
	AmountPoolRatio      = "pool_ratio"
	AmountVariable       = "variable"
)

// AmountDescriptor declares how a token quantity should be computed at
// execution time. Only the fields relevant to the declared Type are read.
type AmountDescriptor struct {
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// static: a human decimal string ("1.5") or raw base units ("1500000000000000000").
	Value string `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`

	// previous_output: a field of the previous node's output, scaled by Percentage.
	// Percentage 0 is treated as 100 for definitions that omit it.
	Field      string  `json:"field,omitempty" yaml:"field,omitempty" mapstructure:"field"`
	Percentage float64 `json:"percentage,omitempty" yaml:"percentage,omitempty" mapstructure:"percentage"`

	// current_balance: retained for historical definitions only; always fails.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// pool_ratio: the paired amount proportional to a base amount held in
	// another config field. BaseToken is either a field reference ("$tokenA")
	// or, in legacy definitions, a literal token address.
	BaseAmountField string `json:"baseAmountField,omitempty" yaml:"baseAmountField,omitempty" mapstructure:"baseAmountField"`
	BaseToken       string `json:"baseToken,omitempty" yaml:"baseToken,omitempty" mapstructure:"baseToken"`
	PairedToken     string `json:"pairedToken,omitempty" yaml:"pairedToken,omitempty" mapstructure:"pairedToken"`

	// variable: a named value bound earlier in the run.
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
}

var amountScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(AmountDecimals), nil)

// ParseAmount converts a decimal string into a fixed-point integer amount.
// If the string does not parse as a decimal, it falls back to parsing it as a
// raw base-unit integer (compatibility path for already-scaled values).
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount string")
	}

	if v, ok := parseDecimal(s); ok {
		return v, nil
	}

	// Raw integer fallback.
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, nil
	}

	return nil, fmt.Errorf("invalid amount %q", s)
}

func parseDecimal(s string) (*big.Int, bool) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, false
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > AmountDecimals {
		frac = frac[:AmountDecimals]
	}

	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, false
	}

	result := new(big.Int).Mul(wholeInt, amountScale)
	if frac != "" {
		fracInt, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, false
		}
		pad := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(AmountDecimals-len(frac))), nil)
		result.Add(result, fracInt.Mul(fracInt, pad))
	}

	if neg {
		result.Neg(result)
	}
	return result, true
}

// ApplyPercentage computes floor(value * pct / 100) without floating point in
// the scaled path: the percentage is widened to basis points first so that
// fractional percentages like 33.3 keep their precision.
func ApplyPercentage(value *big.Int, pct float64) *big.Int {
	// Round, don't truncate: 33.3*100 is 3329.999... in float64.
	bps := big.NewInt(int64(math.Round(pct * 100)))
	out := new(big.Int).Mul(value, bps)
	return out.Quo(out, big.NewInt(10000))
}

// FormatAmount renders a fixed-point integer as a human decimal string.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(abs, amountScale, frac)

	s := whole.String()
	if frac.Sign() > 0 {
		f := strings.TrimRight(fmt.Sprintf("%018s", frac.String()), "0")
		s += "." + f
	}
	if neg {
		s = "-" + s
	}
	return s
}
