// Package storage binds typed values to datastore documents.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
)

// Document is one named JSON document holding a value of type T.
type Document[T any] struct {
	backend datastore.Backend
	name    string
	logger  *log.Logger
}

// NewDocument binds name on backend. A nil logger discards warnings.
func NewDocument[T any](backend datastore.Backend, name string, logger *log.Logger) *Document[T] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Document[T]{backend: backend, name: name, logger: logger}
}

// Name returns the document name.
func (d *Document[T]) Name() string { return d.name }

// Logger returns the logger warnings are written to.
func (d *Document[T]) Logger() *log.Logger { return d.logger }

// Load returns the stored value, or def() when the document is missing,
// unreadable, not valid JSON or null. Read failures are logged, never returned.
func (d *Document[T]) Load(ctx context.Context, def func() T) T {
	data, err := d.backend.Load(ctx, d.name)
	if errors.Is(err, datastore.ErrNotFound) {
		return def()
	}
	if err != nil {
		d.logger.Warn("load failed, using empty state", "document", d.name, "err", err)
		return def()
	}

	v := def()
	if err := json.Unmarshal(data, &v); err != nil {
		d.logger.Warn("invalid JSON, using empty state", "document", d.name, "err", err)
		return def()
	}
	if isNil(v) {
		d.logger.Warn("null document, using empty state", "document", d.name)
		return def()
	}
	return v
}

// isNil reports whether v decoded to a nil pointer, map, slice or interface,
// as JSON null does.
func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Save rewrites the whole document.
func (d *Document[T]) Save(ctx context.Context, v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.name, err)
	}
	if err := d.backend.Save(ctx, d.name, data); err != nil {
		d.logger.Error("save failed", "document", d.name, "err", err)
		return fmt.Errorf("save %s: %w", d.name, err)
	}
	return nil
}

// Delete removes the document.
func (d *Document[T]) Delete(ctx context.Context) error {
	return d.backend.Delete(ctx, d.name)
}
