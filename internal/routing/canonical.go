// internal/routing/canonical.go
//
// Request-path canonicalization.
//
// CanonicalizePath(raw) converts an arbitrary, possibly malformed request
// path into the stable form used as the lookup key for URL mappings.
//
// Rules, applied in order
// -----------------------
// 1. Lower-case everything.  Canonical paths are always lower-case.
// 2. Drop any byte outside the safe set: ASCII a-z, 0-9, and “/ - _ . ~”.
//    Non-ASCII runes and control characters are removed entirely, never
//    substituted, so "/te\xa0–st" becomes "/test".
// 3. Collapse runs of “/” into one separator.
// 4. Resolve “.” and “..” segments the way filesystem normalization does.
//    A leading “..” with no parent to pop is dropped; the result never
//    escapes the root.
//
// The result is always absolute, and the function is total and idempotent:
// feeding the output back in returns the same string.
//
// Notes
// -----
// • Steps 3 and 4 are path.Clean; step 2 guarantees its input is ASCII.
// • Oxford commas, two spaces after periods.

package routing

import (
	"path"
	"strings"
)

// CanonicalizePath normalizes raw into the canonical lookup form.  It never
// fails; the worst input still yields "/".
func CanonicalizePath(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 1)

	// Force a rooted path so path.Clean cannot produce a relative result
	// and "../x" cannot escape upward.
	b.WriteByte('/')

	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/' || r == '-' || r == '_' || r == '.' || r == '~':
			b.WriteRune(r)
		default:
			// outside the safe set: drop, do not substitute
		}
	}

	return path.Clean(b.String())
}
