package memdex

import (
	"errors"
	"strings"
)

// Sentinel errors returned by Store operations. Match them with [errors.Is];
// the returned error usually also carries a [*FieldError] with the affected
// field name.
var (
	// ErrDuplicateIndex indicates two index declarations target the same
	// field name at construction.
	ErrDuplicateIndex = errors.New("duplicate index field")

	// ErrUnknownIndex indicates a query against a field that was not
	// registered at construction.
	ErrUnknownIndex = errors.New("no index for field")

	// ErrDuplicateKey indicates an insert would violate a unique index.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidRecord indicates an indexed field is missing or unreadable
	// on a record.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrNotComparable indicates a key kind has no order against the keys
	// already held by an index.
	ErrNotComparable = errors.New("key is not comparable")
)

// FieldError is the uniform error type returned by Store operations that
// fail against a specific indexed field.
//
// The underlying error message appears first, followed by field context:
//
//	duplicate key (field=integer key=100)
//
// Use [errors.As] to extract structured fields:
//
//	var fErr *memdex.FieldError
//	if errors.As(err, &fErr) {
//	    fmt.Printf("failed on field %s\n", fErr.Field)
//	}
//
// Use [errors.Is] to check for sentinel errors:
//
//	if errors.Is(err, memdex.ErrDuplicateKey) { ... }
type FieldError struct {
	// Field is the index field name the operation touched.
	Field string

	// Value is the rendered key value when the failure concerns a specific
	// key, empty otherwise.
	Value string

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (field=X key=Y)".
func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}

	cause := e.cause()
	suffix := e.suffix()

	if suffix == "" {
		return cause
	}

	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// String implements fmt.Stringer.
func (e *FieldError) String() string {
	return e.Error()
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *FieldError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// suffix builds the "(field=X key=Y)" portion.
func (e *FieldError) suffix() string {
	var parts []string

	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}

	if e.Value != "" {
		parts = append(parts, "key="+e.Value)
	}

	if len(parts) == 0 {
		return ""
	}

	return "(" + strings.Join(parts, " ") + ")"
}

// cause returns the underlying error message.
func (e *FieldError) cause() string {
	if e.Err == nil {
		return ""
	}

	return e.Err.Error()
}
