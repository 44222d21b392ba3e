package memdex

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyKind distinguishes the scalar key types an index can order.
type KeyKind uint8

// KeyKind values enumerate the supported key kinds. KindNull is the zero
// value, so the zero Key is the null key.
const (
	KindNull KeyKind = iota
	KindString
	KindInt
	KindBool
)

// String returns the kind name for error messages and display.
func (k KeyKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Key is an indexed field value. It keeps the supported scalar types explicit
// so that ordering is total within a kind and never depends on runtime type
// inspection.
//
// The null key orders strictly before every non-null key. Within a kind,
// strings order bytewise, ints numerically, and false before true.
type Key struct {
	Kind   KeyKind // Kind describes which key value is populated.
	String string  // String holds the key value when Kind == KindString.
	Int    int64   // Int holds the key value when Kind == KindInt.
	Bool   bool    // Bool holds the key value when Kind == KindBool.
}

// NullKey returns the null key.
func NullKey() Key {
	return Key{}
}

// StringKey creates a string key.
func StringKey(s string) Key {
	return Key{Kind: KindString, String: s}
}

// IntKey creates an integer key.
func IntKey(i int64) Key {
	return Key{Kind: KindInt, Int: i}
}

// BoolKey creates a boolean key.
func BoolKey(b bool) Key {
	return Key{Kind: KindBool, Bool: b}
}

// Compare orders k against other. It returns a negative value when k orders
// first, zero when the keys compare equal, and a positive value when other
// orders first. Null keys order before all non-null keys.
//
// Comparing two non-null keys of different kinds returns [ErrNotComparable];
// there is no meaningful order between, say, an int and a string.
func (k Key) Compare(other Key) (int, error) {
	if k.Kind == KindNull || other.Kind == KindNull {
		return compareKeys(k, other), nil
	}

	if k.Kind != other.Kind {
		return 0, fmt.Errorf("compare %s key against %s key: %w", k.Kind, other.Kind, ErrNotComparable)
	}

	return compareKeys(k, other), nil
}

// compareKeys is the internal comparison used by sorted views. Insert
// validation guarantees that all non-null keys within one view share a kind,
// so this path never sees a cross-kind pair except through the null cases.
func compareKeys(a, b Key) int {
	if a.Kind == KindNull || b.Kind == KindNull {
		switch {
		case a.Kind == b.Kind:
			return 0
		case a.Kind == KindNull:
			return -1
		default:
			return 1
		}
	}

	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}

	switch a.Kind {
	case KindString:
		return strings.Compare(a.String, b.String)
	case KindInt:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		default:
			return 0
		}
	case KindBool:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	default:
		return 0
	}
}

// formatKey renders a key for error messages.
func formatKey(k Key) string {
	switch k.Kind {
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(k.String)
	case KindInt:
		return strconv.FormatInt(k.Int, 10)
	case KindBool:
		return strconv.FormatBool(k.Bool)
	default:
		return k.Kind.String()
	}
}
