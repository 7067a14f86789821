// cmd/web/main.go
//
// urlmap – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load config (YAML + env overlay, Vault references resolved).
//
//  4. Open the control-plane DB and log active-site count.
//
//  5. Build the key-value cache tier (memory or Redis), the mapping
//     store + cache, the site cache, and the resolver.
//
//  6. Load templates and register the built-in content handlers.
//
//  7. Mount /metrics and /healthz beside the catch-all route handler,
//     wrap everything with request enrichment, security headers, and
//     (when configured) ForceHTTPS, then serve with hardened timeouts.
//
// Large comment blocks are framed by blank “//” lines; inline comments
// use a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/yanizio/urlmap/handlers/page"
	"github.com/yanizio/urlmap/internal/config"
	"github.com/yanizio/urlmap/internal/database"
	"github.com/yanizio/urlmap/internal/kvcache"
	"github.com/yanizio/urlmap/internal/logger"
	"github.com/yanizio/urlmap/internal/middleware"
	"github.com/yanizio/urlmap/internal/requestinfo"
	"github.com/yanizio/urlmap/internal/routing"
	"github.com/yanizio/urlmap/internal/server"
	"github.com/yanizio/urlmap/internal/site"
	"github.com/yanizio/urlmap/internal/urlmap"
	"github.com/yanizio/urlmap/internal/view"
)

const serverEnvPath = "/usr/local/etc/urlmap/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 1.  Control-plane DB connect ────────────────────────────────────
	//
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalf("connect DB: %v", err)
	}
	defer db.Close()
	logOut.Infow("db online")

	// Log active-site count as an early sanity check.
	if sites, err := site.AllActive(db); err == nil {
		logOut.Infow("active sites", "count", len(sites))
	}

	//
	// ── 2.  Cache tier, mapping store + cache, resolver ─────────────────
	//
	var kv kvcache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		kv = kvcache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr}))
	default:
		kv = kvcache.NewMemory(kvcache.DefaultJanitorInterval, kvcache.DefaultMaxEntries)
	}
	defer kv.Close()

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	mappings := urlmap.NewCache(urlmap.NewStore(db), kv, ttl)
	sites := site.NewCache(db, site.IdleTTL)
	defer sites.Close()
	resolver := routing.NewResolver(mappings)

	//
	// ── 3.  Templates and content handlers ──────────────────────────────
	//
	viewsDir := cfg.Views.Dir
	if viewsDir == "" {
		viewsDir = filepath.Join(cfg.Paths.Root, "views")
	}
	views, err := view.Load(viewsDir)
	if err != nil {
		logOut.Fatalf("load views: %v", err)
	}
	page.Register(views)

	//
	// ── 4.  Optional GeoIP enrichment ───────────────────────────────────
	//
	if cfg.Geo.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
			logOut.Warnw("geoip disabled", "err", err)
		}
	}

	//
	// ── 5.  Router: ops endpoints + catch-all route handler ────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	route := routing.NewHandler(sites, resolver)
	r.Handle("/*", route)

	var root http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		root = middleware.ForceHTTPS(sites, root)
	}

	srv := server.New(cfg.HTTP.ListenAddr, root)
	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		logOut.Fatalf("http server: %v", err)
	}
}
