package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// FieldKind classifies a schema field.
type FieldKind string

const (
	KindNumeric FieldKind = "numeric"
	KindLabel   FieldKind = "label"
	KindDate    FieldKind = "date"
)

// NumericFunc reads a numeric field. ok=false marks the value as missing.
type NumericFunc[R any] func(row R) (v decimal.Decimal, ok bool)

// LabelFunc reads a categorical field.
type LabelFunc[R any] func(row R) (v string, ok bool)

// DateFunc reads a date field.
type DateFunc[R any] func(row R) (v time.Time, ok bool)

// Schema is the fixed set of named, typed fields a Relation exposes.
// Build it once with the fluent setters and share it between relations.
type Schema[R any] struct {
	name    string
	kinds   map[string]FieldKind
	numeric map[string]NumericFunc[R]
	labels  map[string]LabelFunc[R]
	dates   map[string]DateFunc[R]
}

// NewSchema creates an empty schema for rows of type R.
func NewSchema[R any](name string) *Schema[R] {
	return &Schema[R]{
		name:    name,
		kinds:   make(map[string]FieldKind),
		numeric: make(map[string]NumericFunc[R]),
		labels:  make(map[string]LabelFunc[R]),
		dates:   make(map[string]DateFunc[R]),
	}
}

// Numeric registers a numeric field.
func (s *Schema[R]) Numeric(name string, fn NumericFunc[R]) *Schema[R] {
	s.register(name, KindNumeric)
	s.numeric[name] = fn
	return s
}

// Label registers a categorical field.
func (s *Schema[R]) Label(name string, fn LabelFunc[R]) *Schema[R] {
	s.register(name, KindLabel)
	s.labels[name] = fn
	return s
}

// Date registers a date field.
func (s *Schema[R]) Date(name string, fn DateFunc[R]) *Schema[R] {
	s.register(name, KindDate)
	s.dates[name] = fn
	return s
}

func (s *Schema[R]) register(name string, kind FieldKind) {
	if name == "" {
		panic(fmt.Sprintf("aggregate: schema %q: empty field name", s.name))
	}
	if prev, ok := s.kinds[name]; ok {
		panic(fmt.Sprintf("aggregate: schema %q: field %q already registered as %s", s.name, name, prev))
	}
	s.kinds[name] = kind
}

// Name returns the schema (relation) name used in error messages.
func (s *Schema[R]) Name() string {
	return s.name
}

// Kind reports the kind of a field.
func (s *Schema[R]) Kind(field string) (FieldKind, bool) {
	k, ok := s.kinds[field]
	return k, ok
}

// Fields lists every registered field name in lexical order.
func (s *Schema[R]) Fields() []string {
	out := make([]string, 0, len(s.kinds))
	for name := range s.kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Schema[R]) numericField(field, op string) (NumericFunc[R], error) {
	fn, ok := s.numeric[field]
	if !ok {
		return nil, s.fieldError(field, KindNumeric, op)
	}
	return fn, nil
}

func (s *Schema[R]) labelField(field, op string) (LabelFunc[R], error) {
	fn, ok := s.labels[field]
	if !ok {
		return nil, s.fieldError(field, KindLabel, op)
	}
	return fn, nil
}

func (s *Schema[R]) dateField(field, op string) (DateFunc[R], error) {
	fn, ok := s.dates[field]
	if !ok {
		return nil, s.fieldError(field, KindDate, op)
	}
	return fn, nil
}

// keyField returns an accessor that renders any field kind as a string key.
// Used by DistinctCount and DistinctBy, which accept every kind.
func (s *Schema[R]) keyField(field, op string) (func(R) (string, bool), error) {
	switch s.kinds[field] {
	case KindLabel:
		return s.labels[field], nil
	case KindNumeric:
		fn := s.numeric[field]
		return func(row R) (string, bool) {
			v, ok := fn(row)
			if !ok {
				return "", false
			}
			return v.String(), true
		}, nil
	case KindDate:
		fn := s.dates[field]
		return func(row R) (string, bool) {
			v, ok := fn(row)
			if !ok {
				return "", false
			}
			return v.UTC().Format(time.RFC3339Nano), true
		}, nil
	}
	return nil, s.fieldError(field, "", op)
}

func (s *Schema[R]) fieldError(field string, want FieldKind, op string) error {
	err := &AggregationError{Relation: s.name, Field: field, Want: want, Op: op}
	if have, ok := s.kinds[field]; ok {
		err.Have = have
	}
	return err
}
