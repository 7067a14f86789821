// internal/handler/registry.go
//
// Content-handler registry and dispatcher.
//
// Context
// -------
// Mapping records name their content handler by a stable string key, e.g.
// "page.Template".  Handlers register under that key at process start-up,
// so resolving a name is a map lookup, never reflection.  A name that was
// valid when the ContentMap was written but is no longer registered at
// dispatch time is a configuration error, surfaced as ErrNotRegistered
// and translated to a 500 by the HTTP layer.
//
// Two handler shapes are supported:
//
//   - Func     – invoked directly with the record's options.
//   - Factory  – class-style: instantiated per dispatch from the options,
//     then served as a plain http.Handler.

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrNotRegistered is returned when a view name resolves to nothing.
var ErrNotRegistered = errors.New("handler: view not registered")

// Func is a plain function handler.  Options come from the record's
// ContentMap and are free-form.
type Func func(w http.ResponseWriter, r *http.Request, options map[string]any) error

// Factory is the class-style shape: New builds an instance from the
// record's options, then the instance serves the request.
type Factory interface {
	New(options map[string]any) (http.Handler, error)
}

type registration struct {
	fn      Func
	factory Factory
}

var (
	mu       sync.RWMutex
	registry = map[string]registration{}
)

// RegisterFunc binds name to a function handler.  Call from start-up
// wiring or init().  Re-registering a name replaces the previous binding.
func RegisterFunc(name string, fn Func) {
	mu.Lock()
	registry[name] = registration{fn: fn}
	mu.Unlock()
}

// RegisterFactory binds name to a class-style handler.
func RegisterFactory(name string, f Factory) {
	mu.Lock()
	registry[name] = registration{factory: f}
	mu.Unlock()
}

// Registered reports whether name resolves to a handler.  ContentMap
// writes use this to fail fast on unknown views.
func Registered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Dispatch resolves name and invokes the handler with the request and
// options.  Returns ErrNotRegistered when the name is unknown.
func Dispatch(name string, options map[string]any, w http.ResponseWriter, r *http.Request) error {
	mu.RLock()
	reg, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	if reg.fn != nil {
		return reg.fn(w, r, options)
	}

	h, err := reg.factory.New(options)
	if err != nil {
		return err
	}
	h.ServeHTTP(w, r)
	return nil
}
