// internal/routing/canonical_test.go
//
// Unit-tests for CanonicalizePath.
//
// The vectors cover the four rules in order: case folding, unsafe-byte
// stripping, separator collapsing, and dot-segment resolution, plus the
// idempotence property that makes the function safe to apply to already
// canonical paths.

package routing

import "testing"

func TestCanonicalizePath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lower", "/TEST", "/test"},
		{"slashes", "//t//e///s/t", "/t/e/s/t"},
		{"dots", "./../this/./is/./only/../a/./test.html", "/this/is/a/test.html"},
		{"leading parent", "../this/./is/./only/../a/./test.html", "/this/is/a/test.html"},
		{"non ascii", "/te\u00a0\u2013st", "/test"},
		{"empty", "", "/"},
		{"root", "/", "/"},
		{"relative", "about", "/about"},
		{"trailing slash", "/about/", "/about"},
		{"parent at root", "/..", "/"},
		{"control bytes", "/a\tb\nc", "/abc"},
	}

	for _, c := range cases {
		if got := CanonicalizePath(c.in); got != c.want {
			t.Errorf("%s: CanonicalizePath(%q) = %q, want %q", c.name, c.in, got, c.want)
		}
	}
}

func TestCanonicalizePathIdempotent(t *testing.T) {
	inputs := []string{
		"/TEST", "//t//e///s/t", "./../this/./is/./only/../a/./test.html",
		"/te\u00a0\u2013st", "", "/", "weird//../path/", "/plain/path.html",
	}
	for _, in := range inputs {
		once := CanonicalizePath(in)
		if twice := CanonicalizePath(once); twice != once {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
