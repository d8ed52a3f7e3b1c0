package db

import (
	"errors"
	"strings"
)

const maxIndexNameBytes = 255

// IndexName derives the index of an entity for one language:
// <prefix><entity>_<languageID>, lower-cased.
func IndexName(prefix, entity, languageID string) string {
	return strings.ToLower(prefix + entity + "_" + languageID)
}

// ValidateIndexName checks the engine's index naming rules.
func ValidateIndexName(name string) error {
	if name == "" {
		return errors.New("index name is required")
	}
	if len(name) > maxIndexNameBytes {
		return errors.New("index name too long (max 255 bytes)")
	}
	if name == "." || name == ".." {
		return errors.New("index name cannot be . or ..")
	}
	if strings.ContainsAny(name[:1], "-_+") {
		return errors.New("index name cannot start with - _ or +")
	}
	if strings.ToLower(name) != name {
		return errors.New("index name must be lowercase")
	}
	if strings.ContainsAny(name, "\\/*?\"<>| ,#:") {
		return errors.New("index name contains invalid characters")
	}
	return nil
}
