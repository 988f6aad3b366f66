// Package addrmap implements the default Address-Map Lookup collaborator
// (spec §6, §4.6): a read-only table rewriting a server's advertised
// address at response time, e.g. for servers behind NAT that heartbeat
// from a private address but must be advertised with a public one.
//
// Loading follows the same shape as internal/config: a YAML file read
// once at startup, defaults-first, missing file means an empty table
// rather than an error.
package addrmap

import (
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one address-map rule as written in the YAML file.
type Entry struct {
	From   string `yaml:"from"`    // "ip:port" as heard from the server
	ToAddr string `yaml:"to_addr"` // replacement IP
	ToPort int    `yaml:"to_port"` // replacement port, 0 means "keep original port"
}

// Table is a read-only, in-memory address-map keyed by the original
// address.
type Table struct {
	rules map[netip.AddrPort]mapped
}

type mapped struct {
	addr netip.Addr
	port int
}

// Empty returns a Table with no rules, i.e. a no-op mapper.
func Empty() *Table {
	return &Table{rules: map[netip.AddrPort]mapped{}}
}

// Load reads a YAML address-map file. A missing file yields an empty,
// not an error, table — matching the tolerant config-loading convention
// used for internal/config.
func Load(path string) (*Table, error) {
	t := Empty()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("reading address map %s: %w", path, err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return t, fmt.Errorf("parsing address map %s: %w", path, err)
	}

	for _, e := range entries {
		from, err := netip.ParseAddrPort(e.From)
		if err != nil {
			return t, fmt.Errorf("address map entry %q: invalid \"from\": %w", e.From, err)
		}
		toAddr, err := netip.ParseAddr(e.ToAddr)
		if err != nil {
			return t, fmt.Errorf("address map entry %q: invalid \"to_addr\": %w", e.From, err)
		}
		t.rules[from] = mapped{addr: toAddr, port: e.ToPort}
	}

	return t, nil
}

// Lookup returns the rewritten address for addr, if a rule exists.
// A zero replacement port in the rule means "keep the original port",
// per spec §4.6.
func (t *Table) Lookup(addr netip.AddrPort) (netip.AddrPort, bool) {
	m, ok := t.rules[addr]
	if !ok {
		return netip.AddrPort{}, false
	}
	port := m.port
	if port == 0 {
		port = int(addr.Port())
	}
	return netip.AddrPortFrom(m.addr, uint16(port)), true
}
