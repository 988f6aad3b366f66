// Package infostring parses the `\key\value\key\value...` blobs used
// throughout the Quake III master/server protocol family for structured
// descriptions (heartbeats, getinfo replies). There is no escape
// mechanism: a backslash always starts a new key or value.
package infostring

import "strings"

// maxItemLen bounds both keys and values at 255 bytes, per protocol.
const maxItemLen = 255

// Lookup returns the value for key in blob, or ("", false) if key is
// absent or malformed. blob must begin with a backslash; anything else
// is rejected outright. Keys of 256 bytes or more are skipped (along
// with their value) rather than failing the whole lookup; a value of
// 256 bytes or more on the matching key fails the lookup outright,
// since at that point the caller's one chance to read it is gone.
func Lookup(blob, key string) (string, bool) {
	if !strings.HasPrefix(blob, "\\") {
		return "", false
	}
	s := blob[1:]

	for len(s) > 0 {
		keyEnd := strings.IndexByte(s, '\\')
		if keyEnd == -1 {
			// Trailing key with no value separator: nothing more to read.
			return "", false
		}
		k := s[:keyEnd]
		rest := s[keyEnd+1:]

		valEnd := strings.IndexByte(rest, '\\')
		var v, next string
		if valEnd == -1 {
			v = rest
			next = ""
		} else {
			v = rest[:valEnd]
			next = rest[valEnd+1:]
		}

		if len(k) >= 256 {
			if next == "" && valEnd == -1 {
				return "", false
			}
			s = next
			continue
		}

		if k == key {
			if len(v) > maxItemLen {
				return "", false
			}
			return v, true
		}

		s = next
	}

	return "", false
}
