// Package memdex provides an in-memory, generically-typed record store with
// declared secondary indexes.
//
// # Overview
//
// A [Store] owns an insertion-ordered primary sequence of records — the
// source of truth — and one derived sorted view per declared [Index]. Point
// lookups by field value binary-search the view and expand the match to the
// full contiguous run of equal keys, so duplicate keys are fine unless the
// index is unique.
//
// Field values are [Key] scalars (null, string, int, bool); each index
// supplies an explicit extraction function instead of relying on reflection,
// and null keys order before everything else.
//
// Every mutation rebuilds all sorted views from the primary sequence with a
// stable sort. That trades mutation throughput for views that are trivially
// correct and for equal-keyed query results that always come back in
// insertion order. There is no persistence, no locking, and no background
// work: the store is plain heap memory and the caller owns all coordination.
//
// # Example
//
//	type Item struct {
//	    N int64
//	    S string
//	}
//
//	s, err := memdex.New(memdex.Config[Item]{
//	    Equal: func(a, b Item) bool { return a == b },
//	    Indexes: []memdex.Index[Item]{
//	        {Field: "n", Key: func(it Item) (memdex.Key, error) { return memdex.IntKey(it.N), nil }},
//	        {Field: "s", Key: func(it Item) (memdex.Key, error) { return memdex.StringKey(it.S), nil }, Unique: true},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//
//	_ = s.Insert(Item{N: 5, S: "d"})
//	matches, _ := s.Find("n", memdex.IntKey(5))
package memdex
