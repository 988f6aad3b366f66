// Package registry implements the master server's server table: the
// mapping from a game server's network address to its ServerEntry, and
// the lifecycle transitions a heartbeat/infoResponse exchange drives it
// through.
//
// The table itself is guarded by a single RWMutex, following the same
// shape as the teacher's GameServerTable: all mutation and iteration
// goes through the registry, never direct map access, so a future
// multi-threaded dispatcher only has one lock to reason about.
package registry

import (
	"net/netip"
	"sync"
	"time"
)

// Address identifies a game server or client by its UDP endpoint.
// netip.AddrPort is comparable, so it doubles as the map key.
type Address = netip.AddrPort

// State is a ServerEntry's lifecycle stage. The ordering is meaningful:
// State >= Empty means the entry has been validated at least once by a
// successful infoResponse.
type State int

const (
	UnusedSlot State = iota
	Uninitialized
	Empty
	Occupied
	Full
)

func (s State) String() string {
	switch s {
	case UnusedSlot:
		return "UnusedSlot"
	case Uninitialized:
		return "Uninitialized"
	case Empty:
		return "Empty"
	case Occupied:
		return "Occupied"
	case Full:
		return "Full"
	default:
		return "Unknown"
	}
}

// Validated reports whether s implies the entry passed at least one
// infoResponse validation (spec invariant: gamename/protocol/liveness
// all hold for Empty|Occupied|Full).
func (s State) Validated() bool {
	return s >= Empty
}

// Entry is one known game server slot. Every field access outside the
// registry package goes through a method that takes the entry's own
// mutex, so callers never need to hold the registry lock while mutating
// a single entry.
type Entry struct {
	mu sync.Mutex

	address         Address
	state           State
	protocol        int
	gameName        string
	gameType        string
	challenge       string
	challengeExpiry time.Time
	livenessExpiry  time.Time

	// addrMapKey is a non-owning key into the external address-map
	// table (spec §9: "model as a key into that table rather than a
	// direct reference"). It defaults to address and is otherwise
	// identical to it in this implementation; it exists as its own
	// field so a future remap-by-identity scheme doesn't require a
	// data model change.
	addrMapKey Address
}

// Snapshot is a point-in-time, immutable copy of an Entry, safe to read
// without holding any lock. Iterate returns these.
type Snapshot struct {
	Address         Address
	State           State
	Protocol        int
	GameName        string
	GameType        string
	LivenessExpiry  time.Time
	ChallengeExpiry time.Time
	AddrMapKey      Address
}

func newEntry(addr Address) *Entry {
	return &Entry{
		address:    addr,
		state:      Uninitialized,
		addrMapKey: addr,
	}
}

// Address returns the entry's network address. Immutable for the
// entry's lifetime, safe to read without locking.
func (e *Entry) Address() Address {
	return e.address
}

// Snapshot copies out the entry's current state under lock.
func (e *Entry) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Address:         e.address,
		State:           e.state,
		Protocol:        e.protocol,
		GameName:        e.gameName,
		GameType:        e.gameType,
		LivenessExpiry:  e.livenessExpiry,
		ChallengeExpiry: e.challengeExpiry,
		AddrMapKey:      e.addrMapKey,
	}
}

// HasValidChallenge reports whether the entry already carries a
// challenge whose expiry is still in the future.
func (e *Entry) HasValidChallenge(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challengeExpiry.After(now)
}

// SetChallenge installs a new outstanding challenge with the given
// expiry, overwriting any prior one.
func (e *Entry) SetChallenge(token string, expiry time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.challenge = token
	e.challengeExpiry = expiry
}

// ChallengeToken returns the currently outstanding challenge token,
// regardless of whether it has expired.
func (e *Entry) ChallengeToken() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challenge
}

// ValidateChallenge reports whether token matches the outstanding
// challenge and that challenge has not expired as of now.
func (e *Entry) ValidateChallenge(now time.Time, token string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challengeExpiry.After(now) && e.challenge == token
}

// ApplyInfoResponse records a validated infoResponse: it updates the
// descriptive fields, derives state from clients/maxClients, and
// refreshes livenessExpiry.
func (e *Entry) ApplyInfoResponse(now time.Time, gameName, gameType string, protocol int, clients, maxClients uint64, livenessTTL time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gameName = gameName
	e.gameType = gameType
	e.protocol = protocol
	switch {
	case clients == 0:
		e.state = Empty
	case clients == maxClients:
		e.state = Full
	default:
		e.state = Occupied
	}
	e.livenessExpiry = now.Add(livenessTTL)
}

// MarkInactive immediately removes the entry from listability, per the
// TikiServer-Flatline shutdown sentinel (spec §3 lifecycle rule 5).
func (e *Entry) MarkInactive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = UnusedSlot
	e.livenessExpiry = time.Time{}
	e.challengeExpiry = time.Time{}
}

// Registry is the server table: address -> Entry. All access is
// serialized through a single RWMutex.
type Registry struct {
	mu         sync.RWMutex
	entries    map[Address]*Entry
	maxEntries int // 0 means unbounded
}

// New creates an empty Registry. maxEntries <= 0 means unbounded.
func New(maxEntries int) *Registry {
	return &Registry{
		entries:    make(map[Address]*Entry),
		maxEntries: maxEntries,
	}
}

// GetByAddr looks up the entry for addr. If create is true and no entry
// exists, a fresh Uninitialized entry is inserted and returned, unless
// the registry is already at capacity, in which case nil is returned
// (spec §7 error kind 5: registry full, silent drop).
func (r *Registry) GetByAddr(addr Address, create bool) *Entry {
	r.mu.RLock()
	e, ok := r.entries[addr]
	r.mu.RUnlock()
	if ok {
		return e
	}
	if !create {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[addr]; ok {
		return e
	}
	if r.maxEntries > 0 && len(r.entries) >= r.maxEntries {
		return nil
	}
	e = newEntry(addr)
	r.entries[addr] = e
	return e
}

// MarkInactive marks the entry at addr inactive, if one exists. It is a
// no-op if the address is unknown (spec §4.4 step 2: "no-create" lookup).
func (r *Registry) MarkInactive(addr Address) {
	if e := r.GetByAddr(addr, false); e != nil {
		e.MarkInactive()
	}
}

// Iterate returns a snapshot of every entry in the table, consistent
// for the duration of one list query. Iteration order is unspecified.
func (r *Registry) Iterate() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Snapshot())
	}
	return out
}

// Len returns the number of entries currently tracked, including ones
// pending eviction.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep removes entries that can no longer become listable: those whose
// liveness has expired, and Uninitialized entries whose challenge has
// also expired without ever producing a valid infoResponse. It stands
// in for "the external registry sweeper" spec §3 lifecycle rule 4
// assumes exists; list-query correctness never depends on Sweep having
// run, since filtering already checks LivenessExpiry directly.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for addr, e := range r.entries {
		snap := e.Snapshot()
		stale := snap.State.Validated() && !snap.LivenessExpiry.After(now)
		pendingEviction := snap.State == Uninitialized && !snap.ChallengeExpiry.After(now)
		if stale || pendingEviction {
			delete(r.entries, addr)
			removed++
		}
	}
	return removed
}
