package challenge

import "testing"

func TestNewChallenge_LengthBounds(t *testing.T) {
	for _, src := range []Source{SourceWeak, SourceSecure} {
		g := New(src)
		for i := 0; i < 200; i++ {
			c := g.NewChallenge()
			if len(c) < MinLen || len(c) > MaxLen {
				t.Fatalf("source %v: challenge length %d out of bounds [%d,%d]", src, len(c), MinLen, MaxLen)
			}
		}
	}
}

func TestNewChallenge_ExcludesUnsafeBytes(t *testing.T) {
	unsafe := map[byte]bool{'\\': true, ';': true, '"': true, '%': true, '/': true}
	for _, src := range []Source{SourceWeak, SourceSecure} {
		g := New(src)
		for i := 0; i < 500; i++ {
			c := g.NewChallenge()
			for j := 0; j < len(c); j++ {
				b := c[j]
				if b < 33 || b > 126 {
					t.Fatalf("source %v: challenge byte %d outside printable range", src, b)
				}
				if unsafe[b] {
					t.Fatalf("source %v: challenge contains unsafe byte %q", src, b)
				}
			}
		}
	}
}

func TestNewChallenge_NotTriviallyConstant(t *testing.T) {
	g := New(SourceSecure)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[g.NewChallenge()] = true
	}
	if len(seen) < 40 {
		t.Fatalf("expected most challenges to be distinct, got %d unique out of 50", len(seen))
	}
}
