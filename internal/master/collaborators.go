// Package master implements the message protocol engine (spec §4):
// heartbeat handling, infoResponse validation, getservers/getserversExt
// query answering, and the prefix dispatcher that routes an inbound
// datagram to one of them.
package master

import (
	"time"

	"github.com/quake3/masterd/internal/registry"
)

// Clock returns the current time. Production uses time.Now; tests use a
// fixed or stepped clock. Spec §5: "a single now clock value is read
// per datagram".
type Clock func() time.Time

// AddressMapper is the Address-Map Lookup collaborator (spec §4.8,
// §6): Lookup returns the rewritten address for addr, if a rule exists.
type AddressMapper interface {
	Lookup(addr registry.Address) (registry.Address, bool)
}

// NoAddressMap is an AddressMapper with no rules.
type NoAddressMap struct{}

func (NoAddressMap) Lookup(registry.Address) (registry.Address, bool) { return registry.Address{}, false }

// ChallengeSource is the Challenge Generator collaborator (spec §4.2).
type ChallengeSource interface {
	NewChallenge() string
}

// Sender is the outbound-datagram collaborator: handlers call it to
// send a getinfo packet to a server or a getserversResponse packet to a
// client. Sockets are externally owned (spec §5); handlers never close
// the sender.
type Sender interface {
	SendTo(addr registry.Address, payload []byte) error
}

// Collaborators bundles everything the protocol engine needs from the
// outside world, per the contracts in spec §6.
type Collaborators struct {
	Registry        *registry.Registry
	GameAccepted    func(name string) bool
	AddressMap      AddressMapper
	Sender          Sender
	Now             Clock
	Challenges      ChallengeSource
	Encoding        Encoding
	DefaultGameName string
	ChallengeTTL    time.Duration
	LivenessTTL     time.Duration
}
