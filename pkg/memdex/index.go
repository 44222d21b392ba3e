package memdex

import "slices"

// Index declares that a named field of the record type supports sorted
// lookup, optionally with a uniqueness constraint.
//
// Indexes are immutable after [New]; there is no way to add or drop an index
// on a live store.
type Index[T any] struct {
	// Field is the name used by [Store.Find], [Store.FindOne], and
	// [Store.SortedBy]. Must be non-empty and unique within one store.
	Field string

	// Key extracts the indexed field value from a record. It replaces the
	// runtime reflection a schema-less store would need: extraction is
	// explicit, typed, and decided by the caller.
	//
	// Returning an error marks the record invalid for this store; the
	// insert fails with [ErrInvalidRecord]. Return the null key for records
	// where the field is present but has no value.
	Key func(rec T) (Key, error)

	// Unique enforces that no two records in the store have keys that
	// compare equal under this index. Two null keys compare equal, so a
	// unique index admits at most one null-keyed record.
	Unique bool
}

// viewEntry pairs a record with its extracted key so the rebuild sort never
// re-runs the extraction function.
type viewEntry[T any] struct {
	rec T
	key Key
}

// sortedView is the derived ordering of the primary sequence under one index.
// It is a permutation of the primary sequence at all times between mutations.
type sortedView[T any] struct {
	field  string
	keyOf  func(rec T) (Key, error)
	unique bool

	// kind is the key kind every non-null key in this view shares.
	// KindNull until the first non-null key arrives; recomputed on rebuild.
	kind KeyKind

	items []viewEntry[T]
}

// rebuild discards the view and re-sorts the entire primary sequence. The
// full O(n log n) rebuild on every mutation is deliberate: it keeps the
// permutation invariant trivially correct instead of maintaining the view
// incrementally. pos is this view's position in each entry's cached key set.
func (v *sortedView[T]) rebuild(entries []entry[T], pos int) {
	v.items = v.items[:0]

	for _, e := range entries {
		v.items = append(v.items, viewEntry[T]{rec: e.rec, key: e.keys[pos]})
	}

	// Stable, so records with equal keys keep their primary insertion order.
	slices.SortStableFunc(v.items, func(a, b viewEntry[T]) int {
		return compareKeys(a.key, b.key)
	})

	v.kind = KindNull

	for _, item := range v.items {
		if item.key.Kind != KindNull {
			v.kind = item.key.Kind

			break
		}
	}
}

// search runs a binary search for key and returns a matching position.
// With duplicate keys in the view the returned position is some match, not
// necessarily the first or last; callers expand from it.
func (v *sortedView[T]) search(key Key) (int, bool) {
	low := 0
	high := len(v.items) - 1

	for low <= high {
		mid := low + (high-low)/2

		switch c := compareKeys(v.items[mid].key, key); {
		case c < 0:
			low = mid + 1
		case c > 0:
			high = mid - 1
		default:
			return mid, true
		}
	}

	return 0, false
}

// expand widens a single match at position at to the full contiguous run of
// entries whose keys compare equal, returning the inclusive bounds. The scan
// is O(k) in the run length, on top of the O(log n) search.
func (v *sortedView[T]) expand(at int) (int, int) {
	key := v.items[at].key

	first := at
	for first > 0 && compareKeys(v.items[first-1].key, key) == 0 {
		first--
	}

	last := at
	for last < len(v.items)-1 && compareKeys(v.items[last+1].key, key) == 0 {
		last++
	}

	return first, last
}

// run returns a copy of the contiguous run of records matching key, in view
// order, or nil when no entry matches.
func (v *sortedView[T]) run(key Key) []T {
	at, found := v.search(key)
	if !found {
		return nil
	}

	first, last := v.expand(at)

	out := make([]T, 0, last-first+1)
	for _, item := range v.items[first : last+1] {
		out = append(out, item.rec)
	}

	return out
}

// compatible reports whether a key can be ordered against this view's
// established kind. Null keys are compatible with every view.
func (v *sortedView[T]) compatible(key Key) bool {
	return key.Kind == KindNull || v.kind == KindNull || key.Kind == v.kind
}
