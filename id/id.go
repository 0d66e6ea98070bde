// Package id defines the prefixed identifiers used for job executions and
// workers.
//
// An ID renders as "prefix_uuid" where the UUID is version 7, so IDs of the
// same prefix sort by creation time. Execution IDs are the opaque tokens held
// in a lock and recorded in the active-job registry.
package id

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Prefix identifies the entity type encoded in an ID.
type Prefix string

// Prefix constants.
const (
	PrefixExecution Prefix = "exec"
	PrefixWorker    Prefix = "wkr"
)

const separator = "_"

var prefixPattern = regexp.MustCompile(`^[a-z]{1,32}$`)

// ID is a prefix-qualified UUIDv7.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	prefix Prefix
	uuid   uuid.UUID
	valid  bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is malformed or the system entropy source fails;
// both are unrecoverable.
func New(prefix Prefix) ID {
	if !prefixPattern.MatchString(string(prefix)) {
		panic(fmt.Sprintf("id: invalid prefix %q", prefix))
	}
	u, err := uuid.NewV7()
	if err != nil {
		panic(fmt.Sprintf("id: generate uuid: %v", err))
	}
	return ID{prefix: prefix, uuid: u, valid: true}
}

// Parse parses "prefix_uuid" into an ID.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	p, rest, ok := strings.Cut(s, separator)
	if !ok {
		return Nil, fmt.Errorf("id: parse %q: missing prefix", s)
	}
	if !prefixPattern.MatchString(p) {
		return Nil, fmt.Errorf("id: parse %q: invalid prefix", s)
	}
	u, err := uuid.Parse(rest)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{prefix: Prefix(p), uuid: u, valid: true}, nil
}

// ParseWithPrefix parses s and checks that its prefix matches expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.prefix != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.prefix)
	}
	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}
	return parsed
}

// NewExecutionID generates a new execution ID.
func NewExecutionID() ID { return New(PrefixExecution) }

// NewWorkerID generates a new worker ID.
func NewWorkerID() ID { return New(PrefixWorker) }

// ParseExecutionID parses s and validates the "exec" prefix.
func ParseExecutionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixExecution) }

// ParseWorkerID parses s and validates the "wkr" prefix.
func ParseWorkerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixWorker) }

// String returns "prefix_uuid", or an empty string for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return string(i.prefix) + separator + i.uuid.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return i.prefix
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// Compare orders IDs by their string form. For one prefix that is
// creation order.
func Compare(a, b ID) int { return strings.Compare(a.String(), b.String()) }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
