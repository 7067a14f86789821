// internal/routing/route.go
//
// HTTP front door: Decision → transport response.
//
// Context
// -------
// Handler is mounted as the catch-all route.  Per request it maps the
// Host header to a site row, asks the Resolver for a Decision, and
// translates that Decision into status codes, Location headers, or a
// content-handler dispatch.  Unresolvable view names at dispatch time are
// configuration errors and answer 500, never 404.

package routing

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/urlmap/internal/handler"
	"github.com/yanizio/urlmap/internal/requestinfo"
	"github.com/yanizio/urlmap/internal/site"
	"github.com/yanizio/urlmap/internal/urlmap"
)

// Handler serves every inbound request.  Construct with NewHandler.
type Handler struct {
	sites    *site.Cache
	resolver *Resolver
}

// NewHandler wires the site cache and resolver into the front door.
func NewHandler(sites *site.Cache, resolver *Resolver) *Handler {
	return &Handler{sites: sites, resolver: resolver}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host := stripPort(r.Host)

	st, err := h.sites.Get(r.Context(), host)
	if err != nil {
		if errors.Is(err, site.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		zap.L().Error("site lookup failed", zap.String("host", host), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	dec, err := h.resolver.Resolve(r.Context(), st, r.URL.Path)
	if err != nil {
		if errors.Is(err, urlmap.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		zap.L().Error("resolve failed",
			zap.String("host", host),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	logDecision(r, host, dec)

	switch dec.Outcome {
	case OutcomeRedirectPermanent:
		http.Redirect(w, r, dec.Location, http.StatusMovedPermanently)

	case OutcomeRedirectTemporary:
		http.Redirect(w, r, dec.Location, http.StatusFound)

	case OutcomeGone:
		w.WriteHeader(http.StatusGone)

	case OutcomeServeContent:
		if err := handler.Dispatch(dec.View, dec.Options, w, r); err != nil {
			zap.L().Error("content dispatch failed",
				zap.String("view", dec.View),
				zap.String("path", r.URL.Path),
				zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

	case OutcomeBareStatus:
		w.WriteHeader(dec.Status)
	}
}

// logDecision emits one access record per resolution.  The bot flag from
// request enrichment rides along so traffic analysis can split crawlers
// out of redirect counts.
func logDecision(r *http.Request, host string, dec Decision) {
	fields := []zap.Field{
		zap.String("host", host),
		zap.String("path", r.URL.Path),
		zap.String("outcome", dec.Outcome.String()),
	}
	if info := requestinfo.FromContext(r.Context()); info != nil {
		fields = append(fields, zap.Bool("bot", info.UA.IsBot))
	}
	zap.L().Info("route", fields...)
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
