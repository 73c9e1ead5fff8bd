package core

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"sort"
	"sync"
)

// RecordType is a registered, type-erased record shape. Hosts that pick
// the record type at runtime (an HTTP route parameter, a CLI flag) go
// through it instead of calling ReadAll[T] directly.
type RecordType struct {
	Key     string
	Label   string
	Columns []string // canonical headers, declaration order
	Type    reflect.Type

	readAll func(ctx context.Context, imp *Importer, f File, opts ...ReadOption) (*ImportSummary, error)
	stream  func(ctx context.Context, imp *Importer, f File, opts ...ReadOption) (*ErasedStream, error)
}

// ReadAll reads f whole into the registered type.
func (rt RecordType) ReadAll(ctx context.Context, imp *Importer, f File, opts ...ReadOption) (*ImportSummary, error) {
	return rt.readAll(ctx, imp, f, opts...)
}

// Stream opens f for streaming into the registered type.
func (rt RecordType) Stream(ctx context.Context, imp *Importer, f File, opts ...ReadOption) (*ErasedStream, error) {
	return rt.stream(ctx, imp, f, opts...)
}

// ErasedStream is a Stream with the record type erased.
type ErasedStream struct {
	All       func() iter.Seq[Outcome]
	Err       func() error
	Estimated func() int
	Close     func() error
}

var (
	registry   = make(map[string]RecordType)
	registryMu sync.RWMutex
)

// RegisterType adds T under key. It panics if key is taken or T cannot be
// mapped, so bad schemas fail at init. Registered types must be tabular:
// hosts offer every format for them. Types with slice, map or nested struct
// fields can still be read from JSON and YAML through ReadAll.
func RegisterType[T any](key, label string) {
	m, err := MappingFor(reflect.TypeFor[T]())
	if err != nil {
		panic(fmt.Sprintf("record type %s: %v", key, err))
	}

	rt := RecordType{
		Key:     key,
		Label:   label,
		Columns: m.Columns(),
		Type:    m.Type,
		readAll: func(ctx context.Context, imp *Importer, f File, opts ...ReadOption) (*ImportSummary, error) {
			res, err := ReadAll[T](ctx, imp, f, opts...)
			if err != nil {
				return nil, err
			}
			return Summarize(res), nil
		},
		stream: func(ctx context.Context, imp *Importer, f File, opts ...ReadOption) (*ErasedStream, error) {
			s, err := ReadStreaming[T](ctx, imp, f, opts...)
			if err != nil {
				return nil, err
			}
			return eraseStream(s), nil
		},
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("record type already registered: %s", key))
	}
	registry[key] = rt
}

func eraseStream[T any](s *Stream[T]) *ErasedStream {
	return &ErasedStream{
		All: func() iter.Seq[Outcome] {
			return func(yield func(Outcome) bool) {
				for o := range s.All() {
					out := Outcome{Row: o.Row, Columns: o.Columns, OK: o.OK, Error: o.Error}
					if o.Record != nil {
						out.Record = o.Record
					}
					if !yield(out) {
						return
					}
				}
			}
		},
		Err:       s.Err,
		Estimated: s.Estimated,
		Close:     s.Close,
	}
}

// Get returns a record type by key.
// Returns false if not found.
func Get(key string) (RecordType, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	rt, ok := registry[key]
	return rt, ok
}

// All returns all registered record types, sorted by key.
func All() []RecordType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]RecordType, 0, len(registry))
	for _, rt := range registry {
		result = append(result, rt)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Count returns the number of registered record types.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered record types.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]RecordType)
}
