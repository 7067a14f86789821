// internal/urlmap/model.go
//
// Mapping record and digest computation.
//
// Context
// -------
// One Record binds a (site, canonical path) pair to a routing outcome:
// serve content through a ContentMap, redirect to another record, answer
// 410 Gone, or emit a bare status.  The path stored here is always the
// canonical form; canonicalization of inbound requests happens in
// internal/routing, never at write time.
//
// The Hexdigest column doubles as the cache key suffix.  It is an md5 of
// host + path, recomputed on every save so renames produce a fresh key
// (the old entry is left to expire under TTL).
//
// Notes
// -----
// • Redirect target fields are denormalized into the record by the store's
//   read queries so a redirect resolves without a second store read.
// • Oxford commas, two spaces after periods.

package urlmap

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/yanizio/urlmap/internal/site"
)

// Redirect and terminal status codes recognized by the resolver.
const (
	StatusMovedPermanently = 301
	StatusFound            = 302
	StatusGone             = 410
)

// Record mirrors one row in the persistent `url_map` table, enriched by
// the store's read queries with the owning site's host, the redirect
// target's path and scheme flag, and the content map's view + options.
type Record struct {
	ID           uint64  `db:"id"             json:"id"`
	SiteID       uint64  `db:"site_id"        json:"site_id"`
	Host         string  `db:"host"           json:"host"`
	Path         string  `db:"path"           json:"path"`
	StatusCode   int     `db:"status_code"    json:"status_code"`
	RedirectID   *uint64 `db:"redirect_id"    json:"redirect_id,omitempty"`
	ContentMapID *uint64 `db:"content_map_id" json:"content_map_id,omitempty"`
	ForceSecure  bool    `db:"force_secure"   json:"force_secure"`
	Hexdigest    string  `db:"hexdigest"      json:"hexdigest"`

	// Denormalized one-hop redirect target, populated on read when
	// RedirectID is set.  The chain invariant guarantees the target is
	// terminal, so these two fields are all a redirect needs.
	RedirectPath   string `db:"redirect_path"   json:"redirect_path,omitempty"`
	RedirectSecure bool   `db:"redirect_secure" json:"redirect_secure,omitempty"`

	// Denormalized content map, populated on read when ContentMapID is
	// set.  View is empty for records with no content map.
	View    string         `db:"view" json:"view,omitempty"`
	Options map[string]any `db:"-"    json:"options,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// New returns an unsaved Record bound to st.  The caller supplies the
// canonical path; write paths never canonicalize.
func New(st *site.Record, path string, statusCode int) *Record {
	return &Record{
		SiteID:     st.ID,
		Host:       st.Host,
		Path:       path,
		StatusCode: statusCode,
	}
}

// Protocol returns the canonical scheme for this record.
func (r *Record) Protocol() string {
	if r.ForceSecure {
		return "https"
	}
	return "http"
}

// URL renders the absolute canonical URL, e.g. "http://example.com/test".
func (r *Record) URL() string {
	return r.Protocol() + "://" + r.Host + r.Path
}

// IsRedirect reports whether the status code is one of the two redirect
// codes the resolver understands.
func (r *Record) IsRedirect() bool {
	return r.StatusCode == StatusMovedPermanently || r.StatusCode == StatusFound
}

// SetHexdigest recomputes the digest from the current host and path.
// Called by the store on every save.
func (r *Record) SetHexdigest() {
	r.Hexdigest = Hexdigest(r.Host, r.Path)
}

// Hexdigest computes the 32-character cache-key digest for a host and
// canonical path.  md5 is deliberate: this is a cache key, not a
// credential, and collisions are accepted risk at 128 bits.
func Hexdigest(host, path string) string {
	sum := md5.Sum([]byte(host + path))
	return hex.EncodeToString(sum[:])
}
