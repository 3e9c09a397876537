package wallet

import (
	"math/big"
	"testing"
)

func TestShortAddress(t *testing.T) {
	cases := map[string]string{
		"0xABCDEF1234567890000000000000000000000001": "0xabcd...0001",
		"0x1234":        "0x1234",
		"0x12345678901": "0x1234...8901",
	}
	for in, want := range cases {
		if got := ShortAddress(in); got != want {
			t.Fatalf("ShortAddress(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatBalance(t *testing.T) {
	wei, _ := new(big.Int).SetString("2500000000000000000", 10)
	cases := []struct {
		wei  *big.Int
		want string
	}{
		{wei, "2.5000"},
		{big.NewInt(0), "0.0000"},
		{nil, "0.0000"},
		{big.NewInt(123456789012345678), "0.1235"},
	}
	for _, tc := range cases {
		if got := FormatBalance(tc.wei); got != tc.want {
			t.Fatalf("FormatBalance(%v) = %s, want %s", tc.wei, got, tc.want)
		}
	}
}
