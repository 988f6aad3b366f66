package master

import (
	"bytes"
	"log/slog"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/quake3/masterd/internal/registry"
)

// getServersOptions is the parsed option-token list trailing a
// getservers/getserversExt request (spec §4.6).
type getServersOptions struct {
	empty       bool
	full        bool
	gameType    string
	hasGameType bool
	ipv4        bool
	ipv6        bool
}

// handleGetServers implements spec §4.6 for both the legacy and
// extended request forms.
func handleGetServers(c *Collaborators, peer registry.Address, body []byte, extended bool) {
	body = truncateAtNUL(body)

	var gameName string
	var protocol int64
	var rest string
	var ok bool
	if extended {
		gameName, protocol, rest, ok = parseDarkPlacesStyle(string(body))
	} else {
		gameName, protocol, rest, ok = parseLegacy(string(body), c.DefaultGameName)
	}
	if !ok {
		slog.Warn("malformed getservers request", "peer", peer, "extended", extended)
		return
	}

	if !c.GameAccepted(gameName) {
		slog.Warn("getservers rejected by policy", "peer", peer, "gamename", gameName)
		return
	}

	opts := parseOptions(rest, extended)
	now := c.Now()

	var matches []registry.Snapshot
	for _, s := range c.Registry.Iterate() {
		if matchesGetServers(s, gameName, protocol, opts, now) {
			matches = append(matches, s)
		}
	}

	writeGetServersResponse(c, peer, matches, extended)
}

// truncateAtNUL treats a trailing NUL byte, as embedded in a C-string
// style request payload, as the end of the string.
func truncateAtNUL(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i != -1 {
		return b[:i]
	}
	return b
}

// parseLegacy implements the legacy request's disambiguation rule
// (spec §4.6): first try a bare protocol integer; if that does not
// consume the whole leading token, reparse as DarkPlaces-style
// "gamename protocol".
func parseLegacy(body string, defaultGameName string) (gameName string, protocol int64, rest string, ok bool) {
	val, consumed := parseLeadingUint(body)
	if consumed > 0 {
		next := body[consumed:]
		if next == "" || next[0] == ' ' {
			return defaultGameName, val, strings.TrimPrefix(next, " "), true
		}
	}
	return parseDarkPlacesStyle(body)
}

// parseDarkPlacesStyle parses "<gamename> <protocol> [options...]",
// used unconditionally by the extended request and as the legacy
// request's disambiguation fallback (spec §4.6).
func parseDarkPlacesStyle(body string) (gameName string, protocol int64, rest string, ok bool) {
	s := strings.TrimLeft(body, " ")
	sp := strings.IndexByte(s, ' ')
	if sp == -1 {
		return "", 0, "", false
	}
	name := s[:sp]
	if name == "" {
		return "", 0, "", false
	}
	tail := s[sp+1:]
	val, consumed := parseLeadingUint(tail)
	if consumed == 0 {
		return "", 0, "", false
	}
	after := tail[consumed:]
	if after != "" && after[0] != ' ' {
		return "", 0, "", false
	}
	return name, val, strings.TrimPrefix(after, " "), true
}

// parseLeadingUint parses the longest leading run of ASCII digits as a
// base-10 unsigned integer. It returns consumed == 0 if body does not
// start with a digit.
func parseLeadingUint(body string) (value int64, consumed int) {
	i := 0
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, 0
	}
	n, err := strconv.ParseInt(body[:i], 10, 64)
	if err != nil {
		return 0, 0
	}
	return n, i
}

// parseOptions parses the trailing space-delimited option tokens
// (spec §4.6). ipv4/ipv6 tokens are only meaningful for extended
// requests; a legacy request is always IPv4-only. An extended request
// with neither ipv4 nor ipv6 given defaults to both families.
func parseOptions(rest string, extended bool) getServersOptions {
	var opts getServersOptions
	for _, tok := range strings.Fields(rest) {
		switch {
		case tok == "empty":
			opts.empty = true
		case tok == "full":
			opts.full = true
		case tok == "ffa":
			opts.gameType, opts.hasGameType = "0", true
		case tok == "tourney":
			opts.gameType, opts.hasGameType = "1", true
		case tok == "team":
			opts.gameType, opts.hasGameType = "3", true
		case tok == "ctf":
			opts.gameType, opts.hasGameType = "4", true
		case strings.HasPrefix(tok, "gametype="):
			opts.gameType, opts.hasGameType = tok[len("gametype="):], true
		case extended && tok == "ipv4":
			opts.ipv4 = true
		case extended && tok == "ipv6":
			opts.ipv6 = true
		}
	}
	if !extended {
		opts.ipv4 = true
		return opts
	}
	if !opts.ipv4 && !opts.ipv6 {
		opts.ipv4 = true
		opts.ipv6 = true
	}
	return opts
}

// matchesGetServers implements the getservers filtering predicate
// (spec §4.6): validated entries only, exact protocol and gamename
// match, empty/full slots excluded unless requested, gametype filter
// when given, and address-family exclusivity.
func matchesGetServers(s registry.Snapshot, gameName string, protocol int64, opts getServersOptions, now time.Time) bool {
	if !s.State.Validated() {
		return false
	}
	if !s.LivenessExpiry.After(now) {
		return false
	}
	if int64(s.Protocol) != protocol {
		return false
	}
	if s.GameName != gameName {
		return false
	}
	if s.State == registry.Empty && !opts.empty {
		return false
	}
	if s.State == registry.Full && !opts.full {
		return false
	}
	if opts.hasGameType && s.GameType != opts.gameType {
		return false
	}
	if isIPv6(s.Address) {
		return opts.ipv6
	}
	return opts.ipv4
}

func isIPv6(addr registry.Address) bool {
	a := addr.Addr()
	return a.Is6() && !a.Is4In6()
}

// writeGetServersResponse streams matches out as a sequence of
// packets, splitting before any record that would not fit within
// maxPacketSize and always terminating the final packet with the EOT
// record (spec §4.6, §9). The per-record size is computed from the
// record actually being written, not a single hard-coded constant, so
// the fix applies uniformly across encodings and address families.
func writeGetServersResponse(c *Collaborators, peer registry.Address, matches []registry.Snapshot, extended bool) {
	header := buildGetServersHeader(extended)
	buf := append([]byte(nil), header...)

	flush := func() {
		if err := c.Sender.SendTo(peer, buf); err != nil {
			slog.Warn("failed to send getserversResponse", "peer", peer, "err", err)
		}
		buf = append([]byte(nil), header...)
	}

	for _, s := range matches {
		addr, port := resolveRecordAddr(c, s)
		v6 := isIPv6(s.Address)

		if size := recordSize(c.Encoding, v6); len(buf)+size > maxPacketSize {
			flush()
		}
		buf = appendRecord(buf, c.Encoding, v6, addr, port)
	}

	if len(buf)+len(terminator) > maxPacketSize {
		flush()
	}
	buf = append(buf, terminator...)
	flush()
}

// resolveRecordAddr applies the address map to IPv4 entries only
// (spec §4.8); IPv6 entries are always reported as registered.
func resolveRecordAddr(c *Collaborators, s registry.Snapshot) (netip.Addr, uint16) {
	if !isIPv6(s.Address) {
		if mapped, ok := c.AddressMap.Lookup(s.AddrMapKey); ok {
			return mapped.Addr(), mapped.Port()
		}
	}
	return s.Address.Addr(), s.Address.Port()
}

func buildGetServersHeader(extended bool) []byte {
	b := make([]byte, 0, len(outPrefix)+len(getServersExtResponseHdr))
	b = append(b, outPrefix...)
	if extended {
		b = append(b, getServersExtResponseHdr...)
	} else {
		b = append(b, getServersResponseHeader...)
	}
	return b
}
