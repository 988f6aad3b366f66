// Package policy implements the default GameAccepted collaborator
// (spec §6): a pure, non-blocking predicate over a fixed allow-list of
// game names, loaded from config.
package policy

// AllowList is a GameAccepted implementation backed by a fixed set of
// accepted game names.
type AllowList struct {
	accepted map[string]struct{}
}

// NewAllowList builds an AllowList from names. Comparison is
// case-sensitive: spec.md never specifies case-folding for gamename,
// and gamenames are short fixed identifiers in practice ("Quake3Arena",
// "DarkPlaces-Quake"), not user input that needs normalizing.
func NewAllowList(names []string) *AllowList {
	a := &AllowList{accepted: make(map[string]struct{}, len(names))}
	for _, n := range names {
		a.accepted[n] = struct{}{}
	}
	return a
}

// Accepted reports whether name is in the allow-list.
func (a *AllowList) Accepted(name string) bool {
	_, ok := a.accepted[name]
	return ok
}
