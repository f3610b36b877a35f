package domain_test

import (
	"math/big"
	"testing"

	"github.com/fitzies/pulseflow/pkg/domain"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad test constant %q", s)
	}
	return v
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		fails bool
	}{
		{name: "whole", in: "1", want: "1000000000000000000"},
		{name: "decimal", in: "1.5", want: "1500000000000000000"},
		{name: "small fraction", in: "0.000000000000000001", want: "1"},
		{name: "leading dot", in: ".5", want: "500000000000000000"},
		{name: "negative", in: "-2.5", want: "-2500000000000000000"},
		{name: "integer string scaled", in: "2500000000000000000", want: "2500000000000000000000000000000000000"},
		{name: "excess precision truncated", in: "1.0000000000000000019", want: "1000000000000000001"},
		{name: "whitespace", in: " 3 ", want: "3000000000000000000"},
		{name: "empty", in: "", fails: true},
		{name: "garbage", in: "abc", fails: true},
		{name: "double dot", in: "1.2.3", fails: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ParseAmount(tc.in)
			if tc.fails {
				if err == nil {
					t.Fatalf("ParseAmount(%q) = %v, expected error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) failed: %v", tc.in, err)
			}
			if got.Cmp(mustBig(t, tc.want)) != 0 {
				t.Errorf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestApplyPercentage(t *testing.T) {
	base := mustBig(t, "1000000000000000000") // 1.0

	cases := []struct {
		name string
		pct  float64
		want string
	}{
		{name: "full", pct: 100, want: "1000000000000000000"},
		{name: "half", pct: 50, want: "500000000000000000"},
		{name: "fractional percent", pct: 33.3, want: "333000000000000000"},
		{name: "quarter percent", pct: 0.25, want: "2500000000000000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ApplyPercentage(base, tc.pct)
			if got.Cmp(mustBig(t, tc.want)) != 0 {
				t.Errorf("ApplyPercentage(1.0, %v) = %s, want %s", tc.pct, got, tc.want)
			}
		})
	}
}

func TestApplyPercentage_FractionalBasisPoints(t *testing.T) {
	// 33.3*100 is 3329.999... in float64; the widening must round it to
	// 3330 bps, not truncate to 3329.
	got := domain.ApplyPercentage(big.NewInt(10000), 33.3)
	if got.Cmp(big.NewInt(3330)) != 0 {
		t.Errorf("ApplyPercentage(10000, 33.3) = %s, want 3330", got)
	}
}

func TestApplyPercentage_Floors(t *testing.T) {
	// 3 base units at 50% floors to 1, never rounds up.
	got := domain.ApplyPercentage(big.NewInt(3), 50)
	if got.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("Expected floor division to 1, got %s", got)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "1000000000000000000", want: "1"},
		{in: "1500000000000000000", want: "1.5"},
		{in: "1", want: "0.000000000000000001"},
		{in: "-2500000000000000000", want: "-2.5"},
		{in: "0", want: "0"},
	}
	for _, tc := range cases {
		got := domain.FormatAmount(mustBig(t, tc.in))
		if got != tc.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if got := domain.FormatAmount(nil); got != "0" {
		t.Errorf("FormatAmount(nil) = %q, want 0", got)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1", "0.5", "123456.789", "-42.000000000000000001"} {
		v, err := domain.ParseAmount(s)
		if err != nil {
			t.Fatalf("ParseAmount(%q) failed: %v", s, err)
		}
		if got := domain.FormatAmount(v); got != s {
			t.Errorf("Round trip of %q produced %q", s, got)
		}
	}
}
