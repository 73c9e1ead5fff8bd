package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// HeaderTag is the struct tag that lists alternate header names for a field:
//
//	Name string `header:"FullName,Full Name"`
//
// The field name itself always resolves. `header:"-"` excludes the field.
const HeaderTag = "header"

// Binding ties one record field to its conversion rule and setter.
type Binding struct {
	Field   string       // Go field name, also the canonical header
	Aliases []string     // declared alternate headers, in tag order
	Index   []int        // reflect index path, promoted fields included
	Type    reflect.Type // field type

	convert convertFunc
	set     func(rec reflect.Value, v reflect.Value) error
}

// assign converts raw and stores it into rec (an addressable struct value).
func (b *Binding) assign(rec reflect.Value, raw string) error {
	v, err := runConverter(b.convert, raw, b.Type)
	if err != nil {
		return err
	}
	return b.set(rec, v)
}

// Mapping resolves header names to bindings for one record type.
// It is immutable once built and safe for concurrent use.
type Mapping struct {
	Type     reflect.Type
	bindings []*Binding
	byKey    map[string]*Binding
}

// mappings caches one *Mapping per record type for the process lifetime.
var mappings sync.Map

// MappingFor returns the mapping for struct type t, building it on first use.
// Concurrent first calls may build twice; the first stored mapping wins.
func MappingFor(t reflect.Type) (*Mapping, error) {
	if m, ok := mappings.Load(t); ok {
		return m.(*Mapping), nil
	}
	m, err := buildMapping(t)
	if err != nil {
		return nil, err
	}
	actual, _ := mappings.LoadOrStore(t, m)
	return actual.(*Mapping), nil
}

// Lookup resolves a header, trimmed and case-insensitive.
// Unknown headers report false and are skipped by readers.
func (m *Mapping) Lookup(header string) (*Binding, bool) {
	b, ok := m.byKey[headerKey(header)]
	return b, ok
}

// Bindings returns the bindings in field declaration order.
func (m *Mapping) Bindings() []*Binding {
	return m.bindings
}

// Columns returns the canonical header of every bound field, in declaration
// order. Used for template downloads.
func (m *Mapping) Columns() []string {
	cols := make([]string, len(m.bindings))
	for i, b := range m.bindings {
		cols[i] = b.Field
	}
	return cols
}

func headerKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func buildMapping(t reflect.Type) (*Mapping, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrNotStruct, t)
	}

	m := &Mapping{Type: t, byKey: make(map[string]*Binding)}
	var errs []error

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		// Embedded structs contribute their promoted fields instead.
		if f.Anonymous && indirectType(f.Type).Kind() == reflect.Struct && f.Tag.Get(HeaderTag) == "" {
			continue
		}
		tag, tagged := f.Tag.Lookup(HeaderTag)
		if tag == "-" {
			continue
		}

		conv, err := converterFor(f.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", f.Name, err))
			continue
		}

		b := &Binding{
			Field:   f.Name,
			Index:   f.Index,
			Type:    f.Type,
			convert: conv,
			set:     fieldSetter(f.Index),
		}
		if tagged {
			for _, alias := range strings.Split(tag, ",") {
				if alias = strings.TrimSpace(alias); alias != "" {
					b.Aliases = append(b.Aliases, alias)
				}
			}
		}
		m.bindings = append(m.bindings, b)

		// Later declarations overwrite earlier ones on key collisions.
		for _, alias := range b.Aliases {
			m.byKey[headerKey(alias)] = b
		}
		m.byKey[headerKey(b.Field)] = b
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("mapping %s: %w", t, errors.Join(errs...))
	}
	return m, nil
}

func indirectType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// fieldSetter walks index from the record root, allocating nil embedded
// pointers on the way.
func fieldSetter(index []int) func(rec, v reflect.Value) error {
	if len(index) == 1 {
		i := index[0]
		return func(rec, v reflect.Value) error {
			rec.Field(i).Set(v)
			return nil
		}
	}
	return func(rec, v reflect.Value) error {
		cur := rec
		for depth, i := range index {
			if depth > 0 && cur.Kind() == reflect.Pointer {
				if cur.IsNil() {
					if !cur.CanSet() {
						return fmt.Errorf("cannot allocate unexported embedded %s", cur.Type())
					}
					cur.Set(reflect.New(cur.Type().Elem()))
				}
				cur = cur.Elem()
			}
			cur = cur.Field(i)
		}
		cur.Set(v)
		return nil
	}
}
