package payment

import "testing"

func TestConvertToSmallestUnit(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     int64
	}{
		{25, "NGN", 2500},
		{25, "USD", 2500},
		{0, "NGN", 0},
		{0.01, "USD", 1},
		{19.999, "NGN", 2000},
		{1234.56, "NGN", 123456},
	}
	for _, tt := range tests {
		if got := ConvertToSmallestUnit(tt.amount, tt.currency); got != tt.want {
			t.Fatalf("ConvertToSmallestUnit(%v, %s): expected %d, got %d", tt.amount, tt.currency, tt.want, got)
		}
	}
}

func TestFormatAmountRoundTrip(t *testing.T) {
	// 25 NGN -> 2500 kobo -> ₦25.00
	smallest := ConvertToSmallestUnit(25, "NGN")
	if got := FormatAmount(smallest, "NGN"); got != "₦25.00" {
		t.Fatalf("expected ₦25.00, got %q", got)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		smallest int64
		currency string
		want     string
	}{
		{2500, "NGN", "₦25.00"},
		{2500, "USD", "$25.00"},
		{123456789, "NGN", "₦1,234,567.89"},
		{5, "USD", "$0.05"},
		{-2500, "USD", "-$25.00"},
		{100000, "EUR", "EUR 1,000.00"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.smallest, tt.currency); got != tt.want {
			t.Fatalf("FormatAmount(%d, %s): expected %q, got %q", tt.smallest, tt.currency, tt.want, got)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		12345:      "12,345",
		1234567:    "1,234,567",
		1000000000: "1,000,000,000",
	}
	for n, want := range cases {
		if got := groupThousands(n); got != want {
			t.Fatalf("groupThousands(%d): expected %q, got %q", n, want, got)
		}
	}
}
