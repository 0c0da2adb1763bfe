package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned when no document matches an id or filter
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a unique index
	ErrConflict = errors.New("already exists")
)

// Filter selects documents by field equality. When the stored field is an
// array the condition holds if the array contains the value. The key "id"
// always addresses the document id. Dotted keys address nested fields.
type Filter map[string]any

// Between matches numeric fields strictly between Min and Max
type Between struct {
	Min, Max int64
}

// FindOptions controls ordering, paging and substring search for Find
type FindOptions struct {
	Sort  string
	Desc  bool
	Limit int64
	Skip  int64
	// Match holds case-insensitive substring conditions per field
	Match map[string]string
}

// Store is a minimal document database. Every write touches a single document.
type Store interface {
	Insert(ctx context.Context, coll, id string, doc any) error
	FindByID(ctx context.Context, coll, id string, out any) error
	FindOne(ctx context.Context, coll string, filter Filter, out any) error
	// Find decodes every match into out, which must point to a slice
	Find(ctx context.Context, coll string, filter Filter, opts *FindOptions, out any) error
	Count(ctx context.Context, coll string, filter Filter) (int64, error)
	Replace(ctx context.Context, coll, id string, doc any) error
	// Update sets the given top-level fields on one document
	Update(ctx context.Context, coll, id string, fields map[string]any) error
	UpdateMany(ctx context.Context, coll string, filter Filter, fields map[string]any) (int64, error)
	Delete(ctx context.Context, coll, id string) error
	EnsureUnique(ctx context.Context, coll string, fields ...string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

func checkField(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("invalid field name %q", name)
	}
	return nil
}

func checkFilter(filter Filter, opts *FindOptions) error {
	for k := range filter {
		if err := checkField(k); err != nil {
			return err
		}
	}
	if opts == nil {
		return nil
	}
	if opts.Sort != "" {
		if err := checkField(opts.Sort); err != nil {
			return err
		}
	}
	for k := range opts.Match {
		if err := checkField(k); err != nil {
			return err
		}
	}
	return nil
}

// IsNotFound reports whether err wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err wraps ErrConflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
