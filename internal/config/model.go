// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `URLMAP_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with `vault:` is resolved through the
// secrets client after unmarshalling, so consumers only ever see plain
// strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the control-plane DSN.  The DSN may carry a `vault:`
// reference; the loader resolves it before anything connects.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Cache section
//

// Cache selects the key-value backend for the mapping cache and its TTL.
type Cache struct {
	Backend    string `koanf:"backend" validate:"required,oneof=memory redis"`
	RedisAddr  string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	TTLSeconds int    `koanf:"ttl_seconds" validate:"gte=0"`
}

//
// Geo section
//

// Geo points at an optional MaxMind database for request enrichment.
// Empty disables geolocation.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Views section
//

// Views locates the template tree served by the page handler.
type Views struct {
	Dir string `koanf:"dir"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.
type Paths struct {
	Root string // URLMAP_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Cache    Cache    `koanf:"cache"`
	Geo      Geo      `koanf:"geo"`
	Views    Views    `koanf:"views"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
