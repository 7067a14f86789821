// internal/urlmap/store_test.go
//
// Store tests over sqlmock.
//
// The mock's ExpectationsWereMet doubles as a read counter: a test that
// declares one SELECT and passes has proven exactly one store round trip
// happened.

package urlmap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/urlmap/internal/handler"
	"github.com/yanizio/urlmap/internal/site"
)

var recordCols = []string{
	"id", "site_id", "host", "path", "status_code", "redirect_id",
	"content_map_id", "force_secure", "hexdigest",
	"redirect_path", "redirect_secure", "view", "options",
	"created_at", "updated_at",
}

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlmock")), mock
}

func u64(v uint64) *uint64 { return &v }

func TestStoreSaveInsert(t *testing.T) {
	store, mock := newStoreMock(t)
	rec := New(&site.Record{ID: 1, Host: "example.com"}, "/test_path", 200)

	mock.ExpectExec(`INSERT INTO url_map`).
		WithArgs(1, "/test_path", 200, nil, nil, false,
			"389661d2e64f9d426ad306abe6e8f957").
		WillReturnResult(sqlmock.NewResult(7, 1))

	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID != 7 {
		t.Errorf("ID = %d, want store-assigned 7", rec.ID)
	}
	if rec.Hexdigest != "389661d2e64f9d426ad306abe6e8f957" {
		t.Errorf("Hexdigest = %q", rec.Hexdigest)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreSaveUpdate(t *testing.T) {
	store, mock := newStoreMock(t)
	rec := New(&site.Record{ID: 1, Host: "example.com"}, "/test_path", 204)
	rec.ID = 7

	mock.ExpectExec(`UPDATE url_map`).
		WithArgs(1, "/test_path", 204, nil, nil, false,
			"389661d2e64f9d426ad306abe6e8f957", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreSaveValidation(t *testing.T) {
	t.Run("redirect without target", func(t *testing.T) {
		store, _ := newStoreMock(t)
		rec := New(&site.Record{ID: 1, Host: "example.com"}, "/old", StatusMovedPermanently)

		assertValidationError(t, store.Save(context.Background(), rec))
	})

	t.Run("non-redirect with target", func(t *testing.T) {
		store, _ := newStoreMock(t)
		rec := New(&site.Record{ID: 1, Host: "example.com"}, "/page", 200)
		rec.RedirectID = u64(5)

		assertValidationError(t, store.Save(context.Background(), rec))
	})

	t.Run("self redirect", func(t *testing.T) {
		store, _ := newStoreMock(t)
		rec := New(&site.Record{ID: 1, Host: "example.com"}, "/loop", StatusFound)
		rec.ID = 7
		rec.RedirectID = u64(7)

		assertValidationError(t, store.Save(context.Background(), rec))
	})

	t.Run("missing target", func(t *testing.T) {
		store, mock := newStoreMock(t)
		rec := New(&site.Record{ID: 1, Host: "example.com"}, "/old", StatusMovedPermanently)
		rec.RedirectID = u64(5)

		mock.ExpectQuery(`WHERE u\.id = \?`).WithArgs(5).
			WillReturnError(sql.ErrNoRows)

		assertValidationError(t, store.Save(context.Background(), rec))
	})

	t.Run("chained redirect", func(t *testing.T) {
		store, mock := newStoreMock(t)
		rec := New(&site.Record{ID: 1, Host: "example.com"}, "/old", StatusMovedPermanently)
		rec.RedirectID = u64(5)

		// Target 5 is itself a 301, which would make a two-hop chain.
		now := time.Now()
		mock.ExpectQuery(`WHERE u\.id = \?`).WithArgs(5).
			WillReturnRows(sqlmock.NewRows(recordCols).AddRow(
				5, 1, "example.com", "/middle", StatusMovedPermanently,
				nil, nil, false, "abc", nil, nil, nil, nil, now, now))

		assertValidationError(t, store.Save(context.Background(), rec))
	})

	t.Run("missing host", func(t *testing.T) {
		store, _ := newStoreMock(t)
		rec := &Record{SiteID: 1, Path: "/orphan", StatusCode: 200}

		assertValidationError(t, store.Save(context.Background(), rec))
	})
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
}

func TestStoreSaveDenormalizesRedirect(t *testing.T) {
	store, mock := newStoreMock(t)
	rec := New(&site.Record{ID: 1, Host: "example.com"}, "/old", StatusMovedPermanently)
	rec.RedirectID = u64(5)

	now := time.Now()
	mock.ExpectQuery(`WHERE u\.id = \?`).WithArgs(5).
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow(
			5, 1, "example.com", "/target", 200,
			nil, nil, true, "abc", nil, nil, nil, nil, now, now))
	mock.ExpectExec(`INSERT INTO url_map`).
		WillReturnResult(sqlmock.NewResult(8, 1))

	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.RedirectPath != "/target" || !rec.RedirectSecure {
		t.Errorf("denormalized target = (%q, %v), want (/target, true)",
			rec.RedirectPath, rec.RedirectSecure)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreGetByKey(t *testing.T) {
	store, mock := newStoreMock(t)
	now := time.Now()

	mock.ExpectQuery(`WHERE u\.site_id = \? AND u\.path = \?`).
		WithArgs(1, "/test").
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow(
			3, 1, "example.com", "/test", 200,
			nil, 11, false, "abc",
			nil, nil, "page.Template", []byte(`{"template_name":"home.html"}`),
			now, now))

	rec, err := store.GetByKey(context.Background(), 1, "/test")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if rec.Host != "example.com" || rec.View != "page.Template" {
		t.Errorf("record = %+v", rec)
	}
	if got := rec.Options["template_name"]; got != "home.html" {
		t.Errorf("options not decoded: %v", rec.Options)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreGetByKeyNotFound(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery(`WHERE u\.site_id = \? AND u\.path = \?`).
		WithArgs(1, "/missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := store.GetByKey(context.Background(), 1, "/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSaveContentMapUnknownView(t *testing.T) {
	store, _ := newStoreMock(t)
	cm := &ContentMap{View: "no.such.View"}

	if err := store.SaveContentMap(context.Background(), cm); !errors.Is(err, handler.ErrNotRegistered) {
		t.Fatalf("want ErrNotRegistered, got %v", err)
	}
}

func TestSaveContentMap(t *testing.T) {
	handler.RegisterFunc("storetest.View",
		func(http.ResponseWriter, *http.Request, map[string]any) error { return nil })

	store, mock := newStoreMock(t)
	cm := &ContentMap{
		View:    "storetest.View",
		Options: map[string]any{"template_name": "home.html"},
	}

	mock.ExpectExec(`INSERT INTO content_map`).
		WithArgs("storetest.View", []byte(`{"template_name":"home.html"}`)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	if err := store.SaveContentMap(context.Background(), cm); err != nil {
		t.Fatalf("SaveContentMap: %v", err)
	}
	if cm.ID != 11 {
		t.Errorf("ID = %d, want 11", cm.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
