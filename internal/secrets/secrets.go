// internal/secrets/secrets.go
//
// Vault-backed secret references.
//
// Context
// -------
// Config files keep DSN templates and addresses in the clear but never
// credentials.  A value may instead be a reference of the form
//
//	vault:<mount>/<path>#<key>
//
// e.g. `vault:secret/urlmap/db#dsn`, which Resolve reads from the KV-v2
// engine at <mount>, path <path>, field <key>.  Plain values pass
// through untouched, so deployments without Vault work unchanged.
//
// The client is safe for concurrent use and caches each resolved key for
// a short TTL so config reloads do not hammer Vault.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR  – scheme and host of the Vault server.
// • VAULT_TOKEN – token (falls back to ~/.vault-token).

package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// Prefix marks a config value as a Vault reference.
const Prefix = "vault:"

// cacheTTL bounds how long a resolved secret is reused.
const cacheTTL = 5 * time.Minute

type cached struct {
	val string
	exp time.Time
}

// Client wraps the Vault SDK.  Construct with New; zero value is invalid.
type Client struct {
	api *vault.Client

	mu    sync.RWMutex
	cache map[string]cached
}

// New builds a client from the process environment.
func New() (*Client, error) {
	api, err := vault.NewClient(vault.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("secrets: new vault client: %w", err)
	}
	return &Client{api: api, cache: make(map[string]cached)}, nil
}

// Resolve returns value unchanged unless it carries the vault: prefix, in
// which case the referenced KV-v2 field is fetched and returned.
func (c *Client) Resolve(ctx context.Context, value string) (string, error) {
	if !strings.HasPrefix(value, Prefix) {
		return value, nil
	}
	ref := strings.TrimPrefix(value, Prefix)

	c.mu.RLock()
	if hit, ok := c.cache[ref]; ok && time.Now().Before(hit.exp) {
		c.mu.RUnlock()
		return hit.val, nil
	}
	c.mu.RUnlock()

	mount, path, key, err := splitRef(ref)
	if err != nil {
		return "", err
	}

	secret, err := c.api.KVv2(mount).Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("secrets: read %s/%s: %w", mount, path, err)
	}
	raw, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("secrets: %s/%s has no field %q", mount, path, key)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("secrets: %s/%s field %q is not a string", mount, path, key)
	}

	c.mu.Lock()
	c.cache[ref] = cached{val: val, exp: time.Now().Add(cacheTTL)}
	c.mu.Unlock()
	return val, nil
}

// ResolveFromEnv is a convenience for one-shot resolution during config
// load: it builds a client from the environment and resolves value.
func ResolveFromEnv(ctx context.Context, value string) (string, error) {
	if !strings.HasPrefix(value, Prefix) {
		return value, nil
	}
	c, err := New()
	if err != nil {
		return "", err
	}
	return c.Resolve(ctx, value)
}

// splitRef parses "<mount>/<path>#<key>".
func splitRef(ref string) (mount, path, key string, err error) {
	ref, key, ok := strings.Cut(ref, "#")
	if !ok || key == "" {
		return "", "", "", fmt.Errorf("secrets: reference %q has no #key suffix", ref)
	}
	mount, path, ok = strings.Cut(ref, "/")
	if !ok || mount == "" || path == "" {
		return "", "", "", fmt.Errorf("secrets: reference %q is not <mount>/<path>", ref)
	}
	return mount, path, key, nil
}
