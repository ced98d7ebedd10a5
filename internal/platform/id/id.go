// Package id generates opaque record identifiers.
//
// Identifiers are random UUIDv4 values encoded as lowercase base32 without
// padding, which yields 26 URL-safe characters.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a fresh identifier.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// Generator produces identifiers; tests swap it for a deterministic sequence.
type Generator func() (string, error)
