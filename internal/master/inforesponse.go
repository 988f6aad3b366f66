package master

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/quake3/masterd/internal/infostring"
	"github.com/quake3/masterd/internal/registry"
)

// handleInfoResponse implements spec §4.5. body is the infostring after
// the "infoResponse\n" literal. Every validation failure logs a warning
// and returns without any state change, per spec §4.5's ordered rule
// list.
func handleInfoResponse(c *Collaborators, peer registry.Address, body []byte) {
	blob := string(body)

	entry := c.Registry.GetByAddr(peer, false)
	now := c.Now()

	// Rule 1: an outstanding, unexpired challenge must exist.
	if entry == nil || !entry.HasValidChallenge(now) {
		slog.Warn("infoResponse with no outstanding challenge", "peer", peer)
		return
	}

	// Rule 2: the echoed challenge must match exactly.
	challenge, ok := infostring.Lookup(blob, "challenge")
	if !ok || !entry.ValidateChallenge(now, challenge) {
		slog.Warn("infoResponse challenge mismatch", "peer", peer)
		return
	}

	// Rule 3: protocol, a base-auto integer consuming the entire value.
	protocolStr, ok := infostring.Lookup(blob, "protocol")
	if !ok {
		slog.Warn("infoResponse missing protocol", "peer", peer)
		return
	}
	protocol, err := strconv.ParseInt(protocolStr, 0, 64)
	if err != nil {
		slog.Warn("infoResponse malformed protocol", "peer", peer, "value", protocolStr)
		return
	}

	// Rule 4: gametype, if present, has no space; absent defaults to "0".
	gameType := "0"
	if v, ok := infostring.Lookup(blob, "gametype"); ok {
		if strings.ContainsRune(v, ' ') {
			slog.Warn("infoResponse gametype contains space", "peer", peer)
			return
		}
		gameType = v
	}

	// Rule 5: sv_maxclients present and nonzero.
	maxClientsStr, ok := infostring.Lookup(blob, "sv_maxclients")
	if !ok {
		slog.Warn("infoResponse missing sv_maxclients", "peer", peer)
		return
	}
	maxClients, err := strconv.ParseUint(maxClientsStr, 10, 64)
	if err != nil || maxClients == 0 {
		slog.Warn("infoResponse invalid sv_maxclients", "peer", peer, "value", maxClientsStr)
		return
	}

	// Rule 6: clients present, unsigned, zero is valid.
	clientsStr, ok := infostring.Lookup(blob, "clients")
	if !ok {
		slog.Warn("infoResponse missing clients", "peer", peer)
		return
	}
	clients, err := strconv.ParseUint(clientsStr, 10, 64)
	if err != nil {
		slog.Warn("infoResponse invalid clients", "peer", peer, "value", clientsStr)
		return
	}

	// Rule 7: gamename, if absent, defaults to the legacy constant; if
	// present, must be nonempty and contain no space.
	gameName := c.DefaultGameName
	if v, ok := infostring.Lookup(blob, "gamename"); ok {
		if v == "" || strings.ContainsRune(v, ' ') {
			slog.Warn("infoResponse invalid gamename", "peer", peer, "value", v)
			return
		}
		gameName = v
	}

	// Rule 8: policy gate.
	if !c.GameAccepted(gameName) {
		slog.Warn("infoResponse rejected by policy", "peer", peer, "gamename", gameName)
		return
	}

	entry.ApplyInfoResponse(now, gameName, gameType, int(protocol), clients, maxClients, c.LivenessTTL)
}
