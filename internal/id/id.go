// Package id generates identifiers for LocalCircle records.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated record IDs.
const (
	PrefixPost    = "post"
	PrefixComment = "cmt"
	PrefixFolder  = "fld"
	PrefixAlert   = "alrt"
)

// Generate creates a prefixed NanoID, e.g. "post-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Compose joins parts with "_" to build a deterministic record ID.
// Like records use Compose(postID, userID) so at most one exists per pair.
func Compose(parts ...string) string {
	return strings.Join(parts, "_")
}
