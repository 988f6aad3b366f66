package master

import (
	"bytes"
	"log/slog"

	"github.com/quake3/masterd/internal/registry"
)

// Kind names the message kind a datagram classified as.
type Kind int

const (
	KindUnknown Kind = iota
	KindHeartbeat
	KindInfoResponse
	KindGetServers
	KindGetServersExt
)

// route is one entry in the dispatch table: a literal prefix and the
// handler it routes to. Spec REDESIGN FLAGS: keep this a data-driven
// table, not cascading string comparisons.
type route struct {
	kind    Kind
	literal []byte
	handle  func(c *Collaborators, peer registry.Address, body []byte)
}

// dispatchTable is ordered longest-literal-first so a literal that is a
// prefix of another (there are none today, but the rule is the
// invariant, not an accident of the current literal set) is never
// shadowed.
var dispatchTable = []route{
	{KindGetServersExt, []byte(prefixGetServersExt), func(c *Collaborators, peer registry.Address, body []byte) {
		handleGetServers(c, peer, body, true)
	}},
	{KindInfoResponse, []byte(prefixInfoResponse), handleInfoResponse},
	{KindGetServers, []byte(prefixGetServers), func(c *Collaborators, peer registry.Address, body []byte) {
		handleGetServers(c, peer, body, false)
	}},
	{KindHeartbeat, []byte(prefixHeartbeat), handleHeartbeat},
}

// Dispatch classifies datagram by its leading literal and routes the
// remainder to the matching handler. Unrecognized datagrams are
// silently dropped (spec §4.7), logged at debug. It returns the kind
// that matched, for test introspection; callers never need to act on
// it.
func Dispatch(c *Collaborators, peer registry.Address, datagram []byte) Kind {
	for _, r := range dispatchTable {
		if bytes.HasPrefix(datagram, r.literal) {
			r.handle(c, peer, datagram[len(r.literal):])
			return r.kind
		}
	}
	slog.Debug("dropping unrecognized datagram", "peer", peer, "len", len(datagram))
	return KindUnknown
}
