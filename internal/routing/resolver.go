// internal/routing/resolver.go
//
// Path → routing-decision state machine.
//
// Context
// -------
// Resolve turns (site, raw path) into one terminal Decision:
//
//	RedirectPermanent / RedirectTemporary – absolute Location URL
//	Gone                                  – 410
//	ServeContent                          – registered view + options
//	BareStatus                            – status code, empty body
//
// "Not found" is not a Decision; Resolve fails with urlmap.ErrNotFound
// and the HTTP layer translates it to a 404.
//
// Transition order matters and is fixed: record redirects fire first,
// then the canonical-mismatch 301 (so "/TEST" normalizes to "/test" even
// for content records), then gone, content, and bare status.  Redirect
// targets resolve in exactly one hop; the write-time chain invariant
// makes loops impossible.
//
// Side effects: the lookup may populate the mapping cache.  Nothing else
// is mutated.

package routing

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/urlmap/internal/metrics"
	"github.com/yanizio/urlmap/internal/site"
	"github.com/yanizio/urlmap/internal/urlmap"
)

// Outcome enumerates the terminal decision kinds.
type Outcome int

const (
	OutcomeRedirectPermanent Outcome = iota
	OutcomeRedirectTemporary
	OutcomeGone
	OutcomeServeContent
	OutcomeBareStatus
)

// String names the outcome for logs and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeRedirectPermanent:
		return "redirect_permanent"
	case OutcomeRedirectTemporary:
		return "redirect_temporary"
	case OutcomeGone:
		return "gone"
	case OutcomeServeContent:
		return "serve_content"
	case OutcomeBareStatus:
		return "bare_status"
	}
	return "unknown"
}

// Decision is the resolver's verdict for one request.
type Decision struct {
	Outcome  Outcome
	Location string         // absolute URL, redirects only
	Status   int            // Gone and BareStatus
	View     string         // ServeContent: handler-registry key
	Options  map[string]any // ServeContent: handler options
	Record   *urlmap.Record // the matched record, for logging
}

// Resolver owns no state beyond its injected mapping cache, so one
// instance serves every request concurrently.
type Resolver struct {
	mappings *urlmap.Cache
}

// NewResolver builds a Resolver around the given mapping cache.
func NewResolver(mappings *urlmap.Cache) *Resolver {
	return &Resolver{mappings: mappings}
}

// Resolve canonicalizes rawPath, looks up the mapping, and walks the
// decision table.  It returns urlmap.ErrNotFound when no record exists.
func (rv *Resolver) Resolve(ctx context.Context, st *site.Record, rawPath string) (Decision, error) {
	canonical := CanonicalizePath(rawPath)
	mismatch := canonical != rawPath

	rec, err := rv.mappings.Get(ctx, st, canonical)
	if err != nil {
		metrics.ResolveOutcomeTotal.WithLabelValues("not_found").Inc()
		return Decision{}, err
	}

	dec := decide(st, rec, canonical, mismatch)
	metrics.ResolveOutcomeTotal.WithLabelValues(dec.Outcome.String()).Inc()
	zap.L().Debug("resolved",
		zap.String("host", st.Host),
		zap.String("path", canonical),
		zap.String("outcome", dec.Outcome.String()))
	return dec, nil
}

func decide(st *site.Record, rec *urlmap.Record, canonical string, mismatch bool) Decision {
	switch {
	case rec.IsRedirect():
		out := OutcomeRedirectPermanent
		if rec.StatusCode == urlmap.StatusFound {
			out = OutcomeRedirectTemporary
		}
		return Decision{
			Outcome:  out,
			Location: scheme(rec.RedirectSecure) + "://" + st.Host + rec.RedirectPath,
			Record:   rec,
		}

	case mismatch:
		// Normalize the visible URL before anything is served.
		return Decision{
			Outcome:  OutcomeRedirectPermanent,
			Location: rec.Protocol() + "://" + st.Host + canonical,
			Record:   rec,
		}

	case rec.StatusCode == urlmap.StatusGone:
		return Decision{Outcome: OutcomeGone, Status: urlmap.StatusGone, Record: rec}

	case rec.View != "":
		return Decision{
			Outcome: OutcomeServeContent,
			View:    rec.View,
			Options: rec.Options,
			Record:  rec,
		}

	default:
		return Decision{Outcome: OutcomeBareStatus, Status: rec.StatusCode, Record: rec}
	}
}

func scheme(secure bool) string {
	if secure {
		return "https"
	}
	return "http"
}
