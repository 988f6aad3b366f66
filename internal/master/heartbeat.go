package master

import (
	"bytes"
	"log/slog"

	"github.com/quake3/masterd/internal/registry"
)

// handleHeartbeat implements spec §4.4. body is the datagram payload
// after the "heartbeat " literal.
func handleHeartbeat(c *Collaborators, peer registry.Address, body []byte) {
	gameID, ok := parseGameID(body)
	if !ok {
		slog.Warn("malformed heartbeat: bad gameId", "peer", peer)
		return
	}

	if gameID == shutdownSentinelGameID {
		c.Registry.MarkInactive(peer)
		slog.Info("heartbeat shutdown sentinel received", "peer", peer)
		return
	}

	entry := c.Registry.GetByAddr(peer, true)
	if entry == nil {
		slog.Warn("registry full, dropping heartbeat", "peer", peer)
		return
	}

	now := c.Now()
	if !entry.HasValidChallenge(now) {
		token := c.Challenges.NewChallenge()
		entry.SetChallenge(token, now.Add(c.ChallengeTTL))
	}

	sendGetInfo(c, peer, entry.ChallengeToken())
}

// parseGameID extracts the first whitespace-delimited token from body,
// bounded at maxGameIDLen bytes (spec §4.4 step 1). fmt.Sscanf on
// unvalidated input is deliberately avoided (spec §9).
func parseGameID(body []byte) (string, bool) {
	end := bytes.IndexFunc(body, isWhitespace)
	var token []byte
	if end == -1 {
		token = body
	} else {
		token = body[:end]
	}
	if len(token) == 0 || len(token) > maxGameIDLen {
		return "", false
	}
	return string(token), true
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// sendGetInfo sends the getinfo challenge packet to a server (spec
// §4.4 step 5).
func sendGetInfo(c *Collaborators, peer registry.Address, challengeToken string) {
	buf := make([]byte, 0, len(outPrefix)+len(getInfoCommand)+challengeLenMax)
	buf = append(buf, outPrefix...)
	buf = append(buf, getInfoCommand...)
	buf = append(buf, challengeToken...)

	if err := c.Sender.SendTo(peer, buf); err != nil {
		slog.Warn("failed to send getinfo", "peer", peer, "err", err)
	}
}

// challengeLenMax is only used to pre-size the getinfo send buffer; it
// is not a protocol limit.
const challengeLenMax = 32
