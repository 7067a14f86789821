// internal/urlmap/store.go
//
// Authoritative mapping store over sqlx/MySQL.
//
// Context
// -------
// Three tables back the mapping layer:
//
//	site         (id PK, host, suspended_at, deleted_at, …)
//	content_map  (id PK, view, options JSON)
//	url_map      (id PK, site_id FK, path, status_code, redirect_id FK,
//	              content_map_id FK, force_secure, hexdigest,
//	              UNIQUE (site_id, path))
//
// Read queries join site, the redirect target, and the content map so one
// round trip yields everything resolution needs; the denormalized fields
// ride along into the cache value.
//
// Save enforces the redirect invariants before touching the table:
// a 301/302 must point at an existing, terminal (non-redirect) record
// other than itself, and every other status must carry no target.
// Violations surface as *ValidationError and are never corrected
// silently.
//
// Notes
// -----
// • Save does not write the cache; the write-through lives in Cache.Save
//   so the store stays a pure persistence boundary.
// • Oxford commas, two spaces after periods.

package urlmap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/urlmap/internal/handler"
	"github.com/yanizio/urlmap/internal/metrics"
)

// Store wraps the persistent tables.  Safe for concurrent use; all
// synchronization is the database's.
type Store struct {
	db *sqlx.DB
}

// NewStore returns a Store over db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// recordRow is the scan target for the joined read queries.
type recordRow struct {
	ID             uint64         `db:"id"`
	SiteID         uint64         `db:"site_id"`
	Host           string         `db:"host"`
	Path           string         `db:"path"`
	StatusCode     int            `db:"status_code"`
	RedirectID     sql.NullInt64  `db:"redirect_id"`
	ContentMapID   sql.NullInt64  `db:"content_map_id"`
	ForceSecure    bool           `db:"force_secure"`
	Hexdigest      string         `db:"hexdigest"`
	RedirectPath   sql.NullString `db:"redirect_path"`
	RedirectSecure sql.NullBool   `db:"redirect_secure"`
	View           sql.NullString `db:"view"`
	Options        []byte         `db:"options"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (row *recordRow) toRecord() (*Record, error) {
	rec := &Record{
		ID:          row.ID,
		SiteID:      row.SiteID,
		Host:        row.Host,
		Path:        row.Path,
		StatusCode:  row.StatusCode,
		ForceSecure: row.ForceSecure,
		Hexdigest:   row.Hexdigest,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.RedirectID.Valid {
		id := uint64(row.RedirectID.Int64)
		rec.RedirectID = &id
		rec.RedirectPath = row.RedirectPath.String
		rec.RedirectSecure = row.RedirectSecure.Bool
	}
	if row.ContentMapID.Valid {
		id := uint64(row.ContentMapID.Int64)
		rec.ContentMapID = &id
		rec.View = row.View.String
		if len(row.Options) > 0 {
			if err := json.Unmarshal(row.Options, &rec.Options); err != nil {
				return nil, fmt.Errorf("urlmap: decode content map options: %w", err)
			}
		}
	}
	return rec, nil
}

const recordColumns = `
        u.id, u.site_id, s.host, u.path, u.status_code, u.redirect_id,
        u.content_map_id, u.force_secure, u.hexdigest,
        t.path  AS redirect_path, t.force_secure AS redirect_secure,
        c.view  AS view, c.options AS options,
        u.created_at, u.updated_at
        FROM url_map u
        JOIN site s ON s.id = u.site_id
        LEFT JOIN url_map     t ON t.id = u.redirect_id
        LEFT JOIN content_map c ON c.id = u.content_map_id`

// GetByKey fetches the record for (siteID, canonicalPath), or ErrNotFound.
func (s *Store) GetByKey(ctx context.Context, siteID uint64, canonicalPath string) (*Record, error) {
	const q = `SELECT` + recordColumns + `
        WHERE u.site_id = ? AND u.path = ?
        LIMIT 1`
	return s.getOne(ctx, q, siteID, canonicalPath)
}

// GetByID fetches a record by identity, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id uint64) (*Record, error) {
	const q = `SELECT` + recordColumns + `
        WHERE u.id = ?
        LIMIT 1`
	return s.getOne(ctx, q, id)
}

func (s *Store) getOne(ctx context.Context, q string, args ...any) (*Record, error) {
	metrics.StoreReadTotal.Inc()

	var row recordRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toRecord()
}

// Save validates rec, recomputes its hexdigest, and inserts or updates
// the row.  On first save the store-assigned ID is written back into rec.
// The denormalized redirect and content map fields are refreshed as a
// side effect, so the record is complete enough to cache afterwards.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if err := s.validate(ctx, rec); err != nil {
		return err
	}
	rec.SetHexdigest()

	if rec.ID == 0 {
		const q = `
            INSERT INTO url_map
                   (site_id, path, status_code, redirect_id,
                    content_map_id, force_secure, hexdigest)
            VALUES (?, ?, ?, ?, ?, ?, ?)`
		res, err := s.db.ExecContext(ctx, q,
			rec.SiteID, rec.Path, rec.StatusCode, rec.RedirectID,
			rec.ContentMapID, rec.ForceSecure, rec.Hexdigest)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rec.ID = uint64(id)
		return nil
	}

	const q = `
        UPDATE url_map
           SET site_id = ?, path = ?, status_code = ?, redirect_id = ?,
               content_map_id = ?, force_secure = ?, hexdigest = ?
         WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q,
		rec.SiteID, rec.Path, rec.StatusCode, rec.RedirectID,
		rec.ContentMapID, rec.ForceSecure, rec.Hexdigest, rec.ID)
	return err
}

// validate enforces the redirect invariants and refreshes the
// denormalized target and content map fields from the store.
func (s *Store) validate(ctx context.Context, rec *Record) error {
	if rec.Host == "" {
		return invalid("record has no host; load it through the store or build it with New")
	}

	if rec.IsRedirect() {
		if rec.RedirectID == nil {
			return invalid("status %d requires a redirect target", rec.StatusCode)
		}
		if rec.ID != 0 && *rec.RedirectID == rec.ID {
			return invalid("record may not redirect to itself")
		}
		target, err := s.GetByID(ctx, *rec.RedirectID)
		if errors.Is(err, ErrNotFound) {
			return invalid("redirect target %d does not exist", *rec.RedirectID)
		}
		if err != nil {
			return err
		}
		if target.IsRedirect() {
			return invalid("redirect target %d is itself a redirect; chains are forbidden",
				*rec.RedirectID)
		}
		rec.RedirectPath = target.Path
		rec.RedirectSecure = target.ForceSecure
	} else {
		if rec.RedirectID != nil {
			return invalid("status %d must not carry a redirect target", rec.StatusCode)
		}
		rec.RedirectPath = ""
		rec.RedirectSecure = false
	}

	if rec.ContentMapID != nil {
		cm, err := s.GetContentMap(ctx, *rec.ContentMapID)
		if errors.Is(err, ErrNotFound) {
			return invalid("content map %d does not exist", *rec.ContentMapID)
		}
		if err != nil {
			return err
		}
		rec.View = cm.View
		rec.Options = cm.Options
	} else {
		rec.View = ""
		rec.Options = nil
	}
	return nil
}

//
// ContentMap persistence
//

// GetContentMap fetches one content map row, or ErrNotFound.
func (s *Store) GetContentMap(ctx context.Context, id uint64) (*ContentMap, error) {
	metrics.StoreReadTotal.Inc()

	const q = `SELECT id, view, options FROM content_map WHERE id = ? LIMIT 1`
	var row struct {
		ID      uint64 `db:"id"`
		View    string `db:"view"`
		Options []byte `db:"options"`
	}
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cm := &ContentMap{ID: row.ID, View: row.View}
	if len(row.Options) > 0 {
		if err := json.Unmarshal(row.Options, &cm.Options); err != nil {
			return nil, fmt.Errorf("urlmap: decode content map options: %w", err)
		}
	}
	return cm, nil
}

// SaveContentMap validates the view name against the handler registry and
// inserts or updates the row.  An unknown view fails fast with
// handler.ErrNotRegistered so bad references never reach request time.
func (s *Store) SaveContentMap(ctx context.Context, cm *ContentMap) error {
	if !handler.Registered(cm.View) {
		return fmt.Errorf("%w: %s", handler.ErrNotRegistered, cm.View)
	}

	opts, err := json.Marshal(cm.Options)
	if err != nil {
		return fmt.Errorf("urlmap: encode content map options: %w", err)
	}

	if cm.ID == 0 {
		const q = `INSERT INTO content_map (view, options) VALUES (?, ?)`
		res, err := s.db.ExecContext(ctx, q, cm.View, opts)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		cm.ID = uint64(id)
		return nil
	}

	const q = `UPDATE content_map SET view = ?, options = ? WHERE id = ?`
	_, err = s.db.ExecContext(ctx, q, cm.View, opts, cm.ID)
	return err
}
