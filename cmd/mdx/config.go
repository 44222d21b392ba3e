package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/calvinalkan/memdex/pkg/memdex"
	"github.com/tailscale/hujson"
)

// collectionConfig describes a collection: its name and the indexed fields.
// Config files are JSONC (JSON with comments and trailing commas).
type collectionConfig struct {
	Name   string        `json:"name"`
	Fields []fieldConfig `json:"fields"`
}

// fieldConfig declares one secondary index.
type fieldConfig struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Unique bool   `json:"unique"`
}

var (
	errConfigFileRead = errors.New("cannot read collection config")
	errConfigInvalid  = errors.New("invalid collection config")
	errNoFields       = errors.New("collection declares no fields")
)

// loadCollectionConfig reads and parses a collection config file.
func loadCollectionConfig(path string) (collectionConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return collectionConfig{}, fmt.Errorf("%w: %s", errConfigFileRead, path)
	}

	cfg, parseErr := parseCollectionConfig(data)
	if parseErr != nil {
		return collectionConfig{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
	}

	return cfg, nil
}

func parseCollectionConfig(data []byte) (collectionConfig, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return collectionConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg collectionConfig

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return collectionConfig{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	validateErr := validateCollectionConfig(cfg)
	if validateErr != nil {
		return collectionConfig{}, validateErr
	}

	return cfg, nil
}

func validateCollectionConfig(cfg collectionConfig) error {
	if len(cfg.Fields) == 0 {
		return errNoFields
	}

	for _, f := range cfg.Fields {
		if f.Name == "" {
			return errors.New("field with empty name")
		}

		_, err := kindFromString(f.Kind)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}

	return nil
}

func kindFromString(s string) (memdex.KeyKind, error) {
	switch s {
	case "string":
		return memdex.KindString, nil
	case "int":
		return memdex.KindInt, nil
	case "bool":
		return memdex.KindBool, nil
	default:
		return memdex.KindNull, fmt.Errorf("unknown kind %q (want string, int, or bool)", s)
	}
}

// buildStore constructs a store from a collection config. Each declared field
// becomes one index whose extractor reads the field from the record map;
// absent fields index as null, and values whose kind does not match the
// declaration fail extraction.
func buildStore(cfg collectionConfig) (*memdex.Store[record], error) {
	indexes := make([]memdex.Index[record], 0, len(cfg.Fields))

	for _, f := range cfg.Fields {
		field := f.Name

		kind, err := kindFromString(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}

		indexes = append(indexes, memdex.Index[record]{
			Field:  field,
			Unique: f.Unique,
			Key: func(rec record) (memdex.Key, error) {
				key, ok := rec[field]
				if !ok || key.Kind == memdex.KindNull {
					return memdex.NullKey(), nil
				}

				if key.Kind != kind {
					return memdex.Key{}, fmt.Errorf("field %q holds %s, index expects %s", field, key.Kind, kind)
				}

				return key, nil
			},
		})
	}

	return memdex.New(memdex.Config[record]{
		Equal:   recordEqual,
		Indexes: indexes,
	})
}
