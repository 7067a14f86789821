// internal/urlmap/model_test.go
//
// Unit-tests for the Record model and digest computation.

package urlmap

import (
	"testing"

	"github.com/yanizio/urlmap/internal/site"
)

func TestHexdigest(t *testing.T) {
	// Known vector: md5("example.com" + "/test_path").
	const want = "389661d2e64f9d426ad306abe6e8f957"
	if got := Hexdigest("example.com", "/test_path"); got != want {
		t.Fatalf("Hexdigest = %q, want %q", got, want)
	}

	// Host participates in the digest, so the same path on two sites
	// yields two distinct cache keys.
	if Hexdigest("example.com", "/test_path") == Hexdigest("example.org", "/test_path") {
		t.Error("digest ignores host")
	}
}

func TestSetHexdigest(t *testing.T) {
	rec := New(&site.Record{ID: 1, Host: "example.com"}, "/test_path", 200)
	if rec.Hexdigest != "" {
		t.Fatalf("New should not compute a digest, got %q", rec.Hexdigest)
	}

	rec.SetHexdigest()
	if rec.Hexdigest != "389661d2e64f9d426ad306abe6e8f957" {
		t.Errorf("SetHexdigest = %q", rec.Hexdigest)
	}

	// A rename produces a fresh digest.
	rec.Path = "/renamed"
	rec.SetHexdigest()
	if rec.Hexdigest == "389661d2e64f9d426ad306abe6e8f957" {
		t.Error("digest not recomputed after rename")
	}
}

func TestProtocolAndURL(t *testing.T) {
	rec := New(&site.Record{ID: 1, Host: "example.com"}, "/test", 200)

	if got := rec.Protocol(); got != "http" {
		t.Errorf("Protocol = %q, want http", got)
	}
	if got := rec.URL(); got != "http://example.com/test" {
		t.Errorf("URL = %q", got)
	}

	rec.ForceSecure = true
	if got := rec.Protocol(); got != "https" {
		t.Errorf("secure Protocol = %q, want https", got)
	}
	if got := rec.URL(); got != "https://example.com/test" {
		t.Errorf("secure URL = %q", got)
	}
}

func TestIsRedirect(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{StatusMovedPermanently, true},
		{StatusFound, true},
		{200, false},
		{StatusGone, false},
		{204, false},
	}
	for _, c := range cases {
		rec := Record{StatusCode: c.status}
		if got := rec.IsRedirect(); got != c.want {
			t.Errorf("IsRedirect(%d) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestNewBindsSite(t *testing.T) {
	st := &site.Record{ID: 9, Host: "example.com"}
	rec := New(st, "/about", 200)

	if rec.SiteID != 9 || rec.Host != "example.com" {
		t.Errorf("New did not bind site: SiteID=%d Host=%q", rec.SiteID, rec.Host)
	}
	if rec.ID != 0 {
		t.Errorf("New record must be unsaved, got ID %d", rec.ID)
	}
}
