package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/calvinalkan/memdex/pkg/memdex"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// record is one row of a collection: field name to scalar value.
// Fields not declared in the collection config are carried but not indexed.
type record map[string]memdex.Key

func recordEqual(a, b record) bool {
	return maps.Equal(a, b)
}

// loadRecords reads a JSONC file holding an array of record objects.
func loadRecords(path string) ([]record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return nil, fmt.Errorf("cannot read records file %s: %w", path, err)
	}

	recs, parseErr := parseRecords(data)
	if parseErr != nil {
		return nil, fmt.Errorf("invalid records file %s: %w", path, parseErr)
	}

	return recs, nil
}

func parseRecords(data []byte) ([]record, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	// json.Number keeps integers exact instead of going through float64.
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.UseNumber()

	var raw []map[string]any

	decodeErr := dec.Decode(&raw)
	if decodeErr != nil {
		return nil, fmt.Errorf("invalid JSON: %w", decodeErr)
	}

	recs := make([]record, 0, len(raw))

	for i, obj := range raw {
		rec := make(record, len(obj))

		for field, val := range obj {
			key, keyErr := keyFromJSON(val)
			if keyErr != nil {
				return nil, fmt.Errorf("record %d, field %q: %w", i, field, keyErr)
			}

			rec[field] = key
		}

		recs = append(recs, rec)
	}

	return recs, nil
}

// keyFromJSON converts a decoded JSON value into a key scalar.
func keyFromJSON(val any) (memdex.Key, error) {
	switch v := val.(type) {
	case nil:
		return memdex.NullKey(), nil
	case string:
		return memdex.StringKey(v), nil
	case bool:
		return memdex.BoolKey(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return memdex.Key{}, fmt.Errorf("non-integer number %s", v)
		}

		return memdex.IntKey(n), nil
	default:
		return memdex.Key{}, fmt.Errorf("unsupported value type %T", val)
	}
}

func jsonFromKey(k memdex.Key) any {
	switch k.Kind {
	case memdex.KindString:
		return k.String
	case memdex.KindInt:
		return k.Int
	case memdex.KindBool:
		return k.Bool
	case memdex.KindNull:
		return nil
	default:
		return nil
	}
}

// exportRecords writes all records, in insertion order, as a JSON array.
// The write is atomic so an interrupted export never leaves a torn file.
func exportRecords(path string, recs []record) error {
	out := make([]map[string]any, 0, len(recs))

	for _, rec := range recs {
		obj := make(map[string]any, len(rec))
		for field, key := range rec {
			obj[field] = jsonFromKey(key)
		}

		out = append(out, obj)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	data = append(data, '\n')

	writeErr := atomic.WriteFile(path, bytes.NewReader(data))
	if writeErr != nil {
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}

	return nil
}

// formatRecord renders a record with fields in sorted order so output
// is stable regardless of map iteration.
func formatRecord(rec record) string {
	fields := make([]string, 0, len(rec))
	for field := range rec {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+"="+renderKey(rec[field]))
	}

	return "{" + strings.Join(parts, " ") + "}"
}

func renderKey(k memdex.Key) string {
	switch k.Kind {
	case memdex.KindString:
		return strconv.Quote(k.String)
	case memdex.KindInt:
		return strconv.FormatInt(k.Int, 10)
	case memdex.KindBool:
		return strconv.FormatBool(k.Bool)
	case memdex.KindNull:
		return "null"
	default:
		return "null"
	}
}

// parseKeyLiteral turns a REPL token into a key scalar.
//
// null is the null key, true/false are bools, anything that parses as an
// integer is an int, and everything else is a string. Double quotes force
// a string ("true" is the string true) and allow embedded spaces once the
// REPL tokenizer rejoins them.
func parseKeyLiteral(tok string) memdex.Key {
	if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
		return memdex.StringKey(tok[1 : len(tok)-1])
	}

	switch tok {
	case "null":
		return memdex.NullKey()
	case "true":
		return memdex.BoolKey(true)
	case "false":
		return memdex.BoolKey(false)
	}

	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return memdex.IntKey(n)
	}

	return memdex.StringKey(tok)
}

// parseRecordLiteral parses REPL tokens of the form field=value into a record.
func parseRecordLiteral(toks []string) (record, error) {
	rec := make(record, len(toks))

	for _, tok := range toks {
		field, val, ok := strings.Cut(tok, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", tok)
		}

		rec[field] = parseKeyLiteral(val)
	}

	return rec, nil
}
