// internal/routing/route_test.go
//
// End-to-end tests for the HTTP front door over httptest, a mocked
// control-plane DB, and a live in-memory cache tier.

package routing

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/urlmap/internal/handler"
	"github.com/yanizio/urlmap/internal/kvcache"
	"github.com/yanizio/urlmap/internal/site"
	"github.com/yanizio/urlmap/internal/urlmap"
)

func newTestFrontDoor(t *testing.T) (*Handler, *kvcache.Memory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sdb := sqlx.NewDb(db, "sqlmock")
	kv := kvcache.NewMemory(time.Minute, 0)
	t.Cleanup(func() { kv.Close() })

	mappings := urlmap.NewCache(urlmap.NewStore(sdb), kv, time.Minute)
	sites := site.NewCache(sdb, time.Minute)
	t.Cleanup(sites.Close)
	return NewHandler(sites, NewResolver(mappings)), kv, mock
}

func expectSite(mock sqlmock.Sqlmock, host string) {
	now := time.Now()
	mock.ExpectQuery(`FROM\s+site\s+WHERE\s+host = \?`).WithArgs(host).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "host", "suspended_at", "deleted_at", "created_at", "updated_at"}).
			AddRow(1, host, nil, nil, now, now))
}

func TestRouteGone(t *testing.T) {
	h, kv, mock := newTestFrontDoor(t)
	expectSite(mock, "example.com")
	seedRecord(t, kv, &urlmap.Record{
		ID: 2, SiteID: 1, Host: "example.com", Path: "/retired",
		StatusCode: urlmap.StatusGone,
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/retired", nil))

	if w.Code != http.StatusGone {
		t.Errorf("status = %d, want 410", w.Code)
	}
}

func TestRouteRedirect(t *testing.T) {
	h, kv, mock := newTestFrontDoor(t)
	expectSite(mock, "example.com")
	seedRecord(t, kv, &urlmap.Record{
		ID: 2, SiteID: 1, Host: "example.com", Path: "/old",
		StatusCode:   urlmap.StatusMovedPermanently,
		RedirectPath: "/target",
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/old", nil))

	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "http://example.com/target" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRouteUnknownHost(t *testing.T) {
	h, _, mock := newTestFrontDoor(t)
	mock.ExpectQuery(`FROM\s+site\s+WHERE\s+host = \?`).
		WithArgs("nobody.example").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "http://nobody.example/", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRouteUnknownPath(t *testing.T) {
	h, _, mock := newTestFrontDoor(t)
	expectSite(mock, "example.com")
	mock.ExpectQuery(`WHERE u\.site_id = \? AND u\.path = \?`).
		WithArgs(1, "/missing").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRouteServeContent(t *testing.T) {
	handler.RegisterFunc("routetest.Hello",
		func(w http.ResponseWriter, r *http.Request, options map[string]any) error {
			msg, _ := options["message"].(string)
			_, err := w.Write([]byte(msg))
			return err
		})

	h, kv, mock := newTestFrontDoor(t)
	expectSite(mock, "example.com")
	seedRecord(t, kv, &urlmap.Record{
		ID: 3, SiteID: 1, Host: "example.com", Path: "/hello",
		StatusCode: 200,
		View:       "routetest.Hello",
		Options:    map[string]any{"message": "hi there"},
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/hello", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "hi there" {
		t.Errorf("body = %q", got)
	}
}

func TestRouteUnregisteredViewIs500(t *testing.T) {
	h, kv, mock := newTestFrontDoor(t)
	expectSite(mock, "example.com")
	seedRecord(t, kv, &urlmap.Record{
		ID: 4, SiteID: 1, Host: "example.com", Path: "/broken",
		StatusCode: 200,
		View:       "routetest.Vanished",
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/broken", nil))

	// A view that disappeared from the registry is a configuration
	// error, never a 404.
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestStripPort(t *testing.T) {
	if got := stripPort("example.com:8080"); got != "example.com" {
		t.Errorf("stripPort = %q", got)
	}
	if got := stripPort("example.com"); got != "example.com" {
		t.Errorf("stripPort = %q", got)
	}
}
