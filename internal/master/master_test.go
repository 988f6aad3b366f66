package master

import (
	"net/netip"
	"time"

	"github.com/quake3/masterd/internal/registry"
)

// fakeSender records every datagram sent to it, with its peer, for test
// assertions — there is no real socket in a package-level unit test.
type fakeSender struct {
	sent []sentPacket
}

type sentPacket struct {
	addr    registry.Address
	payload []byte
}

func (f *fakeSender) SendTo(addr registry.Address, payload []byte) error {
	cp := append([]byte(nil), payload...)
	f.sent = append(f.sent, sentPacket{addr: addr, payload: cp})
	return nil
}

// fakeChallenges returns a fixed sequence of tokens, cycling if
// exhausted, so tests can assert on an exact echoed challenge.
type fakeChallenges struct {
	tokens []string
	next   int
}

func (f *fakeChallenges) NewChallenge() string {
	t := f.tokens[f.next%len(f.tokens)]
	f.next++
	return t
}

func mustAddr(s string) registry.Address {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		panic(err)
	}
	return ap
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newTestCollaborators() (*Collaborators, *fakeSender) {
	sender := &fakeSender{}
	return &Collaborators{
		Registry:        registry.New(0),
		GameAccepted:    func(name string) bool { return name == "Quake3Arena" },
		AddressMap:      NoAddressMap{},
		Sender:          sender,
		Now:             fixedClock(time.Unix(1700000000, 0)),
		Challenges:      &fakeChallenges{tokens: []string{"tok12345"}},
		Encoding:        EncodingLegacyHexCompat,
		DefaultGameName: "Quake3Arena",
		ChallengeTTL:    2 * time.Second,
		LivenessTTL:     15 * time.Minute,
	}, sender
}
