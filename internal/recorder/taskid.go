package recorder

import (
	"regexp"
	"strings"

	"github.com/fieldops/walkabout/pkg/types"
)

// Task identifiers arrive from different UI surfaces decorated with
// human-readable suffixes: a slug behind a "--" separator, or a title
// behind whitespace. Merge keys must be the canonical identifier or merges
// fragment across synonymous keys.

// canonicalIDPattern is the grammar of an undecorated identifier: alphanumeric
// segments joined by single separators.
var canonicalIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+(?:[._-][A-Za-z0-9]+)*$`)

// NormalizeID strips a known decoration and validates the remainder
// against the identifier grammar. Unlike a silent pattern-match fallback,
// an identifier that cannot be normalized is rejected with
// ErrInvalidTaskID; a dropped event is recoverable, a fragmented merge key
// is not.
func NormalizeID(raw string) (string, error) {
	id := strings.TrimSpace(raw)

	if i := strings.Index(id, "--"); i >= 0 {
		id = id[:i]
	}
	if i := strings.IndexFunc(id, func(r rune) bool { return r == ' ' || r == '\t' }); i >= 0 {
		id = id[:i]
	}

	if id == "" || !canonicalIDPattern.MatchString(id) {
		return "", types.ErrInvalidTaskID
	}
	return id, nil
}
