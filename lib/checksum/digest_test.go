// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"math/big"
	"testing"
)

func TestCRC(t *testing.T) {
	// IEEE CRC-32 of "hello" is 0x3610a686.
	if got := CRC([]byte("hello")); got != 0x3610a686 {
		t.Errorf("CRC(hello) = %#x, want 0x3610a686", got)
	}
	// Values with the top bit set are stored negative.
	if got := CRC([]byte("123456789")); got != int32(-873187034) {
		t.Errorf("CRC(123456789) = %d, want -873187034", got)
	}
}

func TestWhirlpoolEmptyInput(t *testing.T) {
	const want = "19fa61d75522a4669b44e39c1d2e1726c530232130d407f89afee0964997f7a7" +
		"3e83be698b288febcf88e3e03c4f0757ea8964e59b63d93708b138cc42a66eb3"
	if got := FormatDigest(Whirlpool(nil)); got != want {
		t.Errorf("Whirlpool(\"\") = %s, want %s", got, want)
	}
}

func TestParseDigest(t *testing.T) {
	digest := Whirlpool([]byte("abc"))
	parsed, err := ParseDigest(FormatDigest(digest))
	if err != nil {
		t.Fatalf("ParseDigest failed: %v", err)
	}
	if parsed != digest {
		t.Errorf("ParseDigest(FormatDigest(d)) != d")
	}
	if _, err := ParseDigest("abcd"); err == nil {
		t.Errorf("expected error for a short digest")
	}
	if _, err := ParseDigest("zz"); err == nil {
		t.Errorf("expected error for non-hex input")
	}
}

func TestParseInt(t *testing.T) {
	cases := map[string]int64{
		"65537":   65537,
		" 12 ":    12,
		"0x10001": 65537,
		"0XFF":    255,
	}
	for text, want := range cases {
		got, err := ParseInt(text)
		if err != nil {
			t.Fatalf("ParseInt(%q) failed: %v", text, err)
		}
		if got.Cmp(big.NewInt(want)) != 0 {
			t.Errorf("ParseInt(%q) = %v, want %d", text, got, want)
		}
	}
	for _, text := range []string{"", "0x", "12z", "0xg"} {
		if _, err := ParseInt(text); err == nil {
			t.Errorf("ParseInt(%q): expected error", text)
		}
	}
}

func TestTransformAddsSignByte(t *testing.T) {
	key := &RSAKey{Modulus: big.NewInt(1000), Exponent: big.NewInt(1)}
	if got := key.Transform([]byte{200}); len(got) != 2 || got[0] != 0 || got[1] != 200 {
		t.Errorf("Transform(200) = %x, want 00c8", got)
	}
	if got := key.Transform([]byte{0, 5}); len(got) != 1 || got[0] != 5 {
		t.Errorf("Transform(5) = %x, want 05", got)
	}
}
