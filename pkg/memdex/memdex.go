package memdex

import (
	"errors"
	"fmt"
	"slices"
)

// Config provides the record equality notion and index declarations for a
// store.
type Config[T any] struct {
	// Equal reports whether two records are the same record. [Store.Remove]
	// and [Store.Contains] use it to locate records in the primary
	// sequence. Required.
	//
	// For comparable record types this is usually func(a, b T) bool
	// { return a == b }; pointer records may compare identities instead.
	Equal func(a, b T) bool

	// Indexes declares the indexed fields. May be empty, in which case the
	// store behaves as a plain insertion-ordered collection and every
	// Find fails with [ErrUnknownIndex].
	Indexes []Index[T]
}

// Seq is the iterator type returned by [Store.All] and [Store.SortedBy].
//
// It matches the shape of iter.Seq[T] so callers can use slices.Collect:
//
//	slices.Collect(iter.Seq[Item](seq))
//
// The memdex package avoids depending on iter directly.
type Seq[T any] func(yield func(T) bool)

// entry is one primary-sequence slot: the record plus its extracted key per
// index, cached at insert so rebuilds never re-run extraction functions.
type entry[T any] struct {
	rec  T
	keys []Key
}

// Store is an in-memory record collection with declared secondary indexes.
//
// The primary sequence keeps records in insertion order and is the source of
// truth. Each declared index maintains a derived sorted view that is rebuilt
// from the primary sequence after every mutation; queries binary-search the
// view and expand to the full run of equal keys.
//
// A Store is not safe for concurrent use. Callers that share one across
// goroutines must serialize all calls, or at minimum serialize mutations
// against everything else.
//
// Records must be treated as immutable with respect to their indexed fields
// while they are in the store; a caller that mutates one anyway must call
// [Store.Reindex] before the next query.
type Store[T any] struct {
	equal   func(a, b T) bool
	entries []entry[T]
	views   []*sortedView[T]
	byField map[string]int
}

// New constructs an empty store from cfg.
//
// Two index declarations for the same field name are a configuration error
// ([ErrDuplicateIndex]), not a silent overwrite: re-registering an index is
// almost always a caller bug and hiding it corrupts query expectations.
func New[T any](cfg Config[T]) (*Store[T], error) {
	if cfg.Equal == nil {
		return nil, errors.New("new store: equal function is required")
	}

	s := &Store[T]{
		equal:   cfg.Equal,
		byField: make(map[string]int, len(cfg.Indexes)),
	}

	for _, idx := range cfg.Indexes {
		if idx.Field == "" {
			return nil, errors.New("new store: index field name is empty")
		}

		if idx.Key == nil {
			return nil, fmt.Errorf("new store: index %s has no key function", idx.Field)
		}

		if _, exists := s.byField[idx.Field]; exists {
			return nil, fmt.Errorf("new store: %w", &FieldError{Field: idx.Field, Err: ErrDuplicateIndex})
		}

		s.byField[idx.Field] = len(s.views)
		s.views = append(s.views, &sortedView[T]{
			field:  idx.Field,
			keyOf:  idx.Key,
			unique: idx.Unique,
		})
	}

	return s, nil
}

// Insert validates rec against every index and appends it to the store.
//
// Returns [ErrInvalidRecord] if an extraction function fails,
// [ErrNotComparable] if a key's kind conflicts with the keys an index already
// holds, and [ErrDuplicateKey] if a unique index already holds an equal key.
// A failed insert leaves the store unmodified.
//
// Every successful insert rebuilds all sorted views, so iterators obtained
// from [Store.SortedBy] before the insert no longer reflect the store;
// [Store.All] iterators keep their snapshot of the primary order.
func (s *Store[T]) Insert(rec T) error {
	err := s.insert(rec)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	return nil
}

// InsertAll inserts each record in sequence with the same validation and
// reindexing granularity as [Store.Insert]: an earlier record in the batch
// can make a later one a duplicate.
//
// InsertAll is NOT atomic. It fails on the first violation and leaves the
// successfully inserted prefix in the store; the error reports the position
// of the failing record.
func (s *Store[T]) InsertAll(recs ...T) error {
	for i, rec := range recs {
		err := s.insert(rec)
		if err != nil {
			return fmt.Errorf("insert all: record %d: %w", i, err)
		}
	}

	return nil
}

func (s *Store[T]) insert(rec T) error {
	keys, err := s.extractKeys(rec)
	if err != nil {
		return err
	}

	for i, v := range s.views {
		if !v.unique {
			continue
		}

		if _, found := v.search(keys[i]); found {
			return &FieldError{Field: v.field, Value: formatKey(keys[i]), Err: ErrDuplicateKey}
		}
	}

	s.entries = append(s.entries, entry[T]{rec: rec, keys: keys})
	s.rebuild()

	return nil
}

// extractKeys runs every index's extraction function against rec and checks
// kind compatibility. It does not mutate the store.
func (s *Store[T]) extractKeys(rec T) ([]Key, error) {
	if len(s.views) == 0 {
		return nil, nil
	}

	keys := make([]Key, len(s.views))

	for i, v := range s.views {
		key, err := v.keyOf(rec)
		if err != nil {
			return nil, &FieldError{Field: v.field, Err: fmt.Errorf("%w: %w", ErrInvalidRecord, err)}
		}

		if !v.compatible(key) {
			return nil, &FieldError{Field: v.field, Value: formatKey(key), Err: ErrNotComparable}
		}

		keys[i] = key
	}

	return keys, nil
}

// Remove deletes the first record equal to rec (per the configured Equal)
// from the primary sequence and rebuilds all views. It reports whether a
// removal occurred; removing an absent record is not an error.
func (s *Store[T]) Remove(rec T) bool {
	for i, e := range s.entries {
		if s.equal(e.rec, rec) {
			s.entries = slices.Delete(s.entries, i, i+1)
			s.rebuild()

			return true
		}
	}

	return false
}

// RemoveAll removes the first equal match for each given record and returns
// how many removals occurred. Passing the same record twice removes up to
// two equal records.
func (s *Store[T]) RemoveAll(recs ...T) int {
	removed := 0

	for _, rec := range recs {
		if s.Remove(rec) {
			removed++
		}
	}

	return removed
}

// Clear empties the store. Clearing an empty store is a no-op.
func (s *Store[T]) Clear() {
	s.entries = nil
	s.rebuild()
}

// Len returns the number of records in the store.
func (s *Store[T]) Len() int {
	return len(s.entries)
}

// Contains reports whether the store holds a record equal to rec per the
// configured Equal.
func (s *Store[T]) Contains(rec T) bool {
	for _, e := range s.entries {
		if s.equal(e.rec, rec) {
			return true
		}
	}

	return false
}

// Records returns a copy of the primary sequence in insertion order.
func (s *Store[T]) Records() []T {
	out := make([]T, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.rec)
	}

	return out
}

// All returns an insertion-order iterator over a snapshot taken at call
// time. Mutating the store does not invalidate the iterator; it keeps
// yielding the snapshot.
func (s *Store[T]) All() Seq[T] {
	snapshot := s.Records()

	return func(yield func(T) bool) {
		for _, rec := range snapshot {
			if !yield(rec) {
				return
			}
		}
	}
}

// SortedBy returns an iterator over a snapshot of the given index's sorted
// view, ordered by that field's key (null keys first). Records with equal
// keys appear in their primary insertion order.
//
// Returns [ErrUnknownIndex] if no index was declared for field.
func (s *Store[T]) SortedBy(field string) (Seq[T], error) {
	v, err := s.view(field)
	if err != nil {
		return nil, fmt.Errorf("sorted by: %w", err)
	}

	snapshot := make([]T, 0, len(v.items))
	for _, item := range v.items {
		snapshot = append(snapshot, item.rec)
	}

	return func(yield func(T) bool) {
		for _, rec := range snapshot {
			if !yield(rec) {
				return
			}
		}
	}, nil
}

// Find returns all records whose key under the given index compares equal to
// key, ordered by their primary insertion order among themselves. The result
// is a fresh slice; an empty result is (nil, nil).
//
// Returns [ErrUnknownIndex] if no index was declared for field, and
// [ErrNotComparable] if key's kind has no order against the keys the index
// holds.
func (s *Store[T]) Find(field string, key Key) ([]T, error) {
	matches, err := s.find(field, key)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	return matches, nil
}

// FindOne returns the first record [Store.Find] would return, or ok=false
// when no record matches.
func (s *Store[T]) FindOne(field string, key Key) (T, bool, error) {
	var zero T

	matches, err := s.find(field, key)
	if err != nil {
		return zero, false, fmt.Errorf("find one: %w", err)
	}

	if len(matches) == 0 {
		return zero, false, nil
	}

	return matches[0], true, nil
}

func (s *Store[T]) find(field string, key Key) ([]T, error) {
	v, err := s.view(field)
	if err != nil {
		return nil, err
	}

	if !v.compatible(key) {
		return nil, &FieldError{Field: field, Value: formatKey(key), Err: ErrNotComparable}
	}

	return v.run(key), nil
}

// Reindex re-extracts every key and rebuilds all sorted views from scratch.
//
// It exists as a deliberate escape hatch for callers that mutated a record's
// indexed field after insertion, which the store cannot detect. Reindex
// revalidates everything the mutation could have broken: extraction failures
// return [ErrInvalidRecord], kind conflicts [ErrNotComparable], and unique
// indexes that now hold equal keys [ErrDuplicateKey]. On error the store is
// left unchanged (with its possibly stale views).
func (s *Store[T]) Reindex() error {
	fresh := make([][]Key, len(s.entries))
	kinds := make([]KeyKind, len(s.views))

	for i, e := range s.entries {
		keys := make([]Key, len(s.views))

		for j, v := range s.views {
			key, err := v.keyOf(e.rec)
			if err != nil {
				return fmt.Errorf("reindex: %w", &FieldError{Field: v.field, Err: fmt.Errorf("%w: %w", ErrInvalidRecord, err)})
			}

			if key.Kind != KindNull {
				if kinds[j] == KindNull {
					kinds[j] = key.Kind
				} else if kinds[j] != key.Kind {
					return fmt.Errorf("reindex: %w", &FieldError{Field: v.field, Value: formatKey(key), Err: ErrNotComparable})
				}
			}

			keys[j] = key
		}

		fresh[i] = keys
	}

	for j, v := range s.views {
		if !v.unique {
			continue
		}

		sorted := make([]Key, 0, len(fresh))
		for _, keys := range fresh {
			sorted = append(sorted, keys[j])
		}

		slices.SortFunc(sorted, compareKeys)

		for i := 1; i < len(sorted); i++ {
			if compareKeys(sorted[i-1], sorted[i]) == 0 {
				return fmt.Errorf("reindex: %w", &FieldError{Field: v.field, Value: formatKey(sorted[i]), Err: ErrDuplicateKey})
			}
		}
	}

	for i := range s.entries {
		s.entries[i].keys = fresh[i]
	}

	s.rebuild()

	return nil
}

// rebuild refreshes every sorted view from the primary sequence.
func (s *Store[T]) rebuild() {
	for i, v := range s.views {
		v.rebuild(s.entries, i)
	}
}

func (s *Store[T]) view(field string) (*sortedView[T], error) {
	pos, ok := s.byField[field]
	if !ok {
		return nil, &FieldError{Field: field, Err: ErrUnknownIndex}
	}

	return s.views[pos], nil
}
