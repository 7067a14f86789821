// internal/urlmap/contentmap.go
//
// ContentMap names the executable content-serving logic for a record.
// View is a handler-registry key ("page.Template"); Options is free-form
// keyword configuration stored as JSON and handed to the handler at
// dispatch time.  Records reference content maps many-to-one and never
// own them.

package urlmap

// ContentMap mirrors one row in the persistent `content_map` table.
type ContentMap struct {
	ID      uint64         `db:"id"   json:"id"`
	View    string         `db:"view" json:"view"`
	Options map[string]any `db:"-"    json:"options,omitempty"`
}
