package domain

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		raw  string
		want Money
	}{
		{raw: "500", want: 50000},
		{raw: "500.5", want: 50050},
		{raw: "500.00", want: 50000},
		{raw: " 0.05 ", want: 5},
		{raw: ".5", want: 50},
		{raw: "-12.34", want: -1234},
		{raw: "+7", want: 700},
	}
	for _, tt := range tests {
		got, err := ParseMoney(tt.raw)
		if err != nil {
			t.Fatalf("ParseMoney(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseMoney(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseMoneyRejectsMalformedAmounts(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.234", "1.2.3", "1e3", ".", "-", "99999999999999999999"} {
		if _, err := ParseMoney(raw); err == nil {
			t.Fatalf("ParseMoney(%q) expected error", raw)
		}
	}
}

func TestMoneyString(t *testing.T) {
	tests := map[Money]string{
		0:     "0.00",
		5:     "0.05",
		50000: "500.00",
		12345: "123.45",
		-1234: "-12.34",
	}
	for amount, want := range tests {
		if got := amount.String(); got != want {
			t.Fatalf("Money(%d).String() = %q, want %q", amount, got, want)
		}
	}
}

func TestPercentOfRoundsHalfUp(t *testing.T) {
	tests := []struct {
		amount Money
		want   Money
	}{
		{amount: 50000, want: 5000},
		{amount: 12345, want: 1235}, // 1234.5 cents
		{amount: 12344, want: 1234},
		{amount: 5, want: 1},  // 0.5 cents
		{amount: 4, want: 0},  // 0.4 cents
		{amount: 1, want: 0},
		{amount: -5, want: -1},
	}
	for _, tt := range tests {
		if got := percentOf(tt.amount, 10); got != tt.want {
			t.Fatalf("percentOf(%d, 10) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}
