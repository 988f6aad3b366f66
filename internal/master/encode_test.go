package master

import (
	"net/netip"
	"testing"
)

func TestAppendIPv4HexRecord_MatchesSpecExample(t *testing.T) {
	addr := netip.MustParseAddr("10.0.0.1")
	got := appendIPv4HexRecord(nil, addr, 0x6d38)
	want := "\\0a0000016d38"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(got) != 13 {
		t.Errorf("len = %d, want 13", len(got))
	}
}

func TestAppendIPv4RawRecord_SevenBytes(t *testing.T) {
	addr := netip.MustParseAddr("10.0.0.1")
	got := appendIPv4RawRecord(nil, addr, 0x6d38)
	want := []byte{'\\', 10, 0, 0, 1, 0x6d, 0x38}
	if string(got) != string(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAppendIPv6Record_NineteenBytes(t *testing.T) {
	addr := netip.MustParseAddr("2001:db8::1")
	got := appendIPv6Record(nil, addr, 0x6d38)
	if len(got) != 19 {
		t.Fatalf("len = %d, want 19", len(got))
	}
	if got[0] != '/' {
		t.Errorf("leading byte = %q, want '/'", got[0])
	}
	a16 := addr.As16()
	if string(got[1:17]) != string(a16[:]) {
		t.Error("address bytes mismatch")
	}
	if got[17] != 0x6d || got[18] != 0x38 {
		t.Errorf("port bytes = %x %x, want 6d 38", got[17], got[18])
	}
}

func TestRecordSize_MatchesSpecByteCounts(t *testing.T) {
	tests := []struct {
		enc  Encoding
		isV6 bool
		want int
	}{
		{EncodingLegacyHexCompat, false, 13},
		{EncodingProtocolCompliant, false, 7},
		{EncodingLegacyHexCompat, true, 19},
		{EncodingProtocolCompliant, true, 19},
	}
	for _, tt := range tests {
		if got := recordSize(tt.enc, tt.isV6); got != tt.want {
			t.Errorf("recordSize(%v,%v) = %d, want %d", tt.enc, tt.isV6, got, tt.want)
		}
	}
}
