// internal/requestinfo/requestinfo.go
//
// Per-request metadata: user-agent classification and optional IP
// geolocation.  The routing layer logs the bot flag with every decision
// so crawler traffic can be split out of redirect and not-found counts;
// geo fields are best-effort and stay empty unless a MaxMind database is
// configured at start-up.
//
// The structs are inert: no handles, no large buffers, safe to log or
// JSON-encode.

package requestinfo

import (
	"context"
	"net"
	"strings"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA holds the parsed user-agent properties the routing layer cares
// about.
type UA struct {
	Raw     string // entire User-Agent header
	Browser string // "Chrome", "Firefox", "Safari", …
	OS      string // "MacOSX", "Windows", "Android", …
	Device  string // "Computer", "Phone", "Tablet", …
	IsBot   bool   // crawler signature matched
}

// Geo holds IP-based geolocation hints.  Empty when no database is
// loaded or the address has no match.
type Geo struct {
	IP         net.IP
	CountryISO string // "US", "CA", "FR", …
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA  UA
	Geo Geo
}

// geoReader is a process-wide MaxMind handle; nil when geolocation is
// not configured.  Safe for concurrent reads.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2 database at dbPath.  Call once from main
// when a path is configured; skipping the call simply disables geo
// fields.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoReader = r
	return nil
}

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich, or nil
// when the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(raw string) UA {
	u := uasurfer.Parse(raw)
	return UA{
		Raw:     raw,
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		OS:      strings.TrimPrefix(u.OS.Name.String(), "OS"),
		Device:  strings.TrimPrefix(u.DeviceType.String(), "Device"),
		IsBot:   u.Browser.Name == uasurfer.BrowserBot || u.OS.Name == uasurfer.OSBot,
	}
}

// lookupGeo resolves ip against the MaxMind database when one is loaded.
func lookupGeo(ip net.IP) Geo {
	g := Geo{IP: ip}
	if geoReader == nil || ip == nil {
		return g
	}
	rec, err := geoReader.City(ip)
	if err != nil {
		return g
	}
	g.CountryISO = rec.Country.IsoCode
	return g
}
