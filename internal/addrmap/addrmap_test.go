package addrmap

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileIsEmptyNotError(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr := netip.MustParseAddrPort("10.0.0.1:27960")
	if _, ok := table.Lookup(addr); ok {
		t.Error("expected empty table to have no rules")
	}
}

func TestLoad_RewritesAddressAndKeepsPortWhenZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addrmap.yaml")
	content := `
- from: "10.0.0.1:27960"
  to_addr: "203.0.113.9"
  to_port: 0
- from: "10.0.0.2:27960"
  to_addr: "203.0.113.10"
  to_port: 27961
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, ok := table.Lookup(netip.MustParseAddrPort("10.0.0.1:27960"))
	if !ok {
		t.Fatal("expected a mapping for 10.0.0.1:27960")
	}
	if got.Addr().String() != "203.0.113.9" || got.Port() != 27960 {
		t.Errorf("got %v; want 203.0.113.9:27960 (port kept)", got)
	}

	got2, ok := table.Lookup(netip.MustParseAddrPort("10.0.0.2:27960"))
	if !ok {
		t.Fatal("expected a mapping for 10.0.0.2:27960")
	}
	if got2.Addr().String() != "203.0.113.10" || got2.Port() != 27961 {
		t.Errorf("got %v; want 203.0.113.10:27961 (port overridden)", got2)
	}

	if _, ok := table.Lookup(netip.MustParseAddrPort("10.0.0.3:27960")); ok {
		t.Error("expected no mapping for unrelated address")
	}
}
