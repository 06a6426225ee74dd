package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound_HalfUp(t *testing.T) {
	cases := map[string]string{
		"12.105":  "12.11",
		"12.1049": "12.10",
		"7.26":    "7.26",
		"0.005":   "0.01",
		"0.004":   "0.00",
		"10":      "10.00",
	}
	for in, want := range cases {
		got := Format(Round(decimal.RequireFromString(in)))
		if got != want {
			t.Fatalf("Round(%s): expected %s, got %s", in, want, got)
		}
	}
}

func TestRound_Idempotent(t *testing.T) {
	for _, s := range []string{"0.00", "12.10", "29.04", "220.80", "3.63"} {
		v := decimal.RequireFromString(s)
		once := Round(v)
		twice := Round(once)
		if !once.Equal(v) || !twice.Equal(once) {
			t.Fatalf("rounding %s changed the value: %s, %s", s, once, twice)
		}
	}
}

func TestSum_NoRounding(t *testing.T) {
	got := Sum(decimal.RequireFromString("0.001"), decimal.RequireFromString("0.002"))
	if got.String() != "0.003" {
		t.Fatalf("expected exact 0.003, got %s", got)
	}
	if !Sum().Equal(decimal.Zero) {
		t.Fatalf("expected zero for empty sum")
	}
}

func TestFormatPercent_StripsTrailingZeros(t *testing.T) {
	if got := FormatPercent(decimal.RequireFromString("21.00")); got != "21" {
		t.Fatalf("expected 21, got %s", got)
	}
	if got := FormatPercent(decimal.RequireFromString("2.50")); got != "2.5" {
		t.Fatalf("expected 2.5, got %s", got)
	}
}

func TestAmount_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Price Amount `json:"price"`
	}{Price: RequireAmount("12.1")})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"price":12.10}` {
		t.Fatalf("unexpected json: %s", data)
	}

	var in struct {
		Quoted Amount `json:"quoted"`
		Bare   Amount `json:"bare"`
	}
	if err := json.Unmarshal([]byte(`{"quoted":"10.00","bare":80}`), &in); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if Format(in.Quoted.Decimal) != "10.00" || Format(in.Bare.Decimal) != "80.00" {
		t.Fatalf("unexpected values: %s %s", in.Quoted, in.Bare)
	}
}

func TestBounded(t *testing.T) {
	cases := map[string]bool{
		"0":              true,
		"9999999999.99":  true,
		"-9999999999.99": true,
		"10000000000":    false,
		"1e11":           false,
		"1e10000000":     false,
		"0e10000000":     true,
		"1e-10000000":    false,
		"12.123456789":   true,
	}
	for in, want := range cases {
		if got := Bounded(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Bounded(%s): expected %v, got %v", in, want, got)
		}
	}
}

func TestAmount_UnmarshalRejectsPrecision(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`1e-10000000`), &a); err == nil {
		t.Fatalf("expected precision error")
	}
	if err := json.Unmarshal([]byte(`0.123456789012345678`), &a); err != nil {
		t.Fatalf("18 fraction digits must be accepted, got %v", err)
	}
	if err := json.Unmarshal([]byte(`1e10000000`), &a); err != nil {
		t.Fatalf("magnitude is checked by validation, got %v", err)
	}
}
