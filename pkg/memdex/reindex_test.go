package memdex_test

import (
	"errors"
	"testing"

	"github.com/calvinalkan/memdex/pkg/memdex"
)

// Reindex exists for callers that mutate a record's indexed field after
// insertion. These tests use pointer records with identity equality so a
// mutation is visible to the store's extraction functions.

type box struct {
	n int64
	s string
}

func newBoxStore(t *testing.T, unique bool) *memdex.Store[*box] {
	t.Helper()

	s, err := memdex.New(memdex.Config[*box]{
		Equal: func(a, b *box) bool { return a == b },
		Indexes: []memdex.Index[*box]{
			{
				Field:  "n",
				Key:    func(b *box) (memdex.Key, error) { return memdex.IntKey(b.n), nil },
				Unique: unique,
			},
			{
				Field: "s",
				Key:   func(b *box) (memdex.Key, error) { return memdex.StringKey(b.s), nil },
			},
		},
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	return s
}

func Test_Reindex_Restores_Views_After_External_Mutation(t *testing.T) {
	t.Parallel()

	s := newBoxStore(t, false)

	b1 := &box{n: 1, s: "a"}
	b2 := &box{n: 2, s: "b"}

	if err := s.InsertAll(b1, b2); err != nil {
		t.Fatalf("insert all: %v", err)
	}

	// Mutate an indexed field behind the store's back. The views still hold
	// the key extracted at insert, so the record is findable only under its
	// old value.
	b1.n = 42

	stale, err := s.Find("n", memdex.IntKey(1))
	if err != nil {
		t.Fatalf("find stale: %v", err)
	}

	if len(stale) != 1 {
		t.Fatalf("stale matches = %d, want 1", len(stale))
	}

	if err := s.Reindex(); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	old, err := s.Find("n", memdex.IntKey(1))
	if err != nil {
		t.Fatalf("find old: %v", err)
	}

	if len(old) != 0 {
		t.Fatalf("old matches = %d, want 0", len(old))
	}

	fresh, err := s.Find("n", memdex.IntKey(42))
	if err != nil {
		t.Fatalf("find fresh: %v", err)
	}

	if len(fresh) != 1 || fresh[0] != b1 {
		t.Fatalf("fresh matches = %v, want [b1]", fresh)
	}
}

func Test_Reindex_Detects_Unique_Violation_From_Mutation(t *testing.T) {
	t.Parallel()

	s := newBoxStore(t, true)

	b1 := &box{n: 1, s: "a"}
	b2 := &box{n: 2, s: "b"}

	if err := s.InsertAll(b1, b2); err != nil {
		t.Fatalf("insert all: %v", err)
	}

	b2.n = 1

	err := s.Reindex()
	if !errors.Is(err, memdex.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	// The store keeps its records and its previous (stale) views.
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}

	matches, findErr := s.Find("n", memdex.IntKey(2))
	if findErr != nil {
		t.Fatalf("find: %v", findErr)
	}

	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
}

func Test_Reindex_Fails_When_Extraction_Starts_Failing(t *testing.T) {
	t.Parallel()

	extractable := true

	s, err := memdex.New(memdex.Config[*box]{
		Equal: func(a, b *box) bool { return a == b },
		Indexes: []memdex.Index[*box]{
			{
				Field: "n",
				Key: func(b *box) (memdex.Key, error) {
					if !extractable {
						return memdex.Key{}, errors.New("field vanished")
					}

					return memdex.IntKey(b.n), nil
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := s.Insert(&box{n: 1}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	extractable = false

	reindexErr := s.Reindex()
	if !errors.Is(reindexErr, memdex.ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", reindexErr)
	}
}

func Test_Reindex_Is_A_NoOp_On_Unmutated_Store(t *testing.T) {
	t.Parallel()

	s := newBoxStore(t, false)

	b1 := &box{n: 5, s: "d"}
	b2 := &box{n: 5, s: "d2"}

	if err := s.InsertAll(b1, b2); err != nil {
		t.Fatalf("insert all: %v", err)
	}

	if err := s.Reindex(); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	matches, err := s.Find("n", memdex.IntKey(5))
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if len(matches) != 2 || matches[0] != b1 || matches[1] != b2 {
		t.Fatalf("matches = %v, want [b1 b2] in insertion order", matches)
	}
}
