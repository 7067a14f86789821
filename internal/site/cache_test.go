// internal/site/cache_test.go

package site

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newCacheMock(t *testing.T) (*Cache, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	c := NewCache(sqlx.NewDb(db, "sqlmock"), time.Minute)
	t.Cleanup(c.Close)
	return c, mock
}

var siteCols = []string{"id", "host", "suspended_at", "deleted_at", "created_at", "updated_at"}

func TestCacheLoadsOnce(t *testing.T) {
	c, mock := newCacheMock(t)
	now := time.Now()

	// One SELECT; the second Get must be served from the map.
	mock.ExpectQuery(`FROM\s+site\s+WHERE\s+host = \?`).
		WithArgs("example.com").
		WillReturnRows(sqlmock.NewRows(siteCols).
			AddRow(1, "example.com", nil, nil, now, now))

	ctx := context.Background()
	first, err := c.Get(ctx, "example.com")
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	second, err := c.Get(ctx, "example.com")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if first != second {
		t.Error("second Get did not return the cached row")
	}
	if first.ID != 1 || first.Host != "example.com" {
		t.Errorf("record = %+v", first)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCacheUnknownHost(t *testing.T) {
	c, mock := newCacheMock(t)

	mock.ExpectQuery(`FROM\s+site\s+WHERE\s+host = \?`).
		WithArgs("nobody.example").
		WillReturnError(sql.ErrNoRows)

	if _, err := c.Get(context.Background(), "nobody.example"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c := NewCache(sqlx.NewDb(db, "sqlmock"), time.Minute)
	c.Close()
	c.Close() // second Close must be a no-op
}

func TestByHostNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery(`FROM\s+site\s+WHERE\s+host = \?`).
		WithArgs("gone.example").
		WillReturnRows(sqlmock.NewRows(siteCols))

	_, err = ByHost(context.Background(), sqlx.NewDb(db, "sqlmock"), "gone.example")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
