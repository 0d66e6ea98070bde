// Package jobkey derives stable lock keys from a job name and its ordered
// arguments.
//
// Arguments are normalized by kind and serialized with MessagePack, which
// keeps type tags: the number 5 and the string "5" encode differently, and a
// nil optional argument differs from an empty string. The key is the job
// name followed by the hex SHA-256 of that encoding, so it is safe to use as
// a Redis key and short enough to log.
package jobkey

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dai/shuttle"
)

// Key identifies one logical job for locking purposes.
type Key string

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// JobType returns the job name portion of the key.
func (k Key) JobType() string {
	name, _, _ := strings.Cut(string(k), ":")
	return name
}

// Encode derives the key for jobType called with args. It is pure: equal
// inputs always produce equal keys.
//
// Supported argument kinds are nil, bool, signed and unsigned integers,
// floats, strings, byte slices, and pointers to any of those (a nil pointer
// encodes as nil). Named types are normalized by their underlying kind, and
// integers compare by value whatever their width or signedness. Floats keep
// their own tag, so 5 and 5.0 are different keys.
// Anything else fails with shuttle.ErrEncoding.
func Encode(jobType string, args ...any) (Key, error) {
	if jobType == "" || strings.Contains(jobType, ":") {
		return "", fmt.Errorf("%w: job type %q", shuttle.ErrEncoding, jobType)
	}

	normalized := make([]any, 0, len(args))
	for i, arg := range args {
		v, err := normalize(arg)
		if err != nil {
			return "", fmt.Errorf("%w: %s argument %d: %w", shuttle.ErrEncoding, jobType, i, err)
		}
		normalized = append(normalized, v)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(normalized); err != nil {
		return "", fmt.Errorf("%w: %s: %w", shuttle.ErrEncoding, jobType, err)
	}

	sum := sha256.Sum256(buf.Bytes())
	return Key(jobType + ":" + hex.EncodeToString(sum[:])), nil
}

// MustEncode is like Encode but panics on error. Use it in tests and for
// statically known arguments.
func MustEncode(jobType string, args ...any) Key {
	k, err := Encode(jobType, args...)
	if err != nil {
		panic(err)
	}
	return k
}

func normalize(arg any) (any, error) {
	if arg == nil {
		return nil, nil
	}

	v := reflect.ValueOf(arg)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if v.IsNil() {
				return nil, nil
			}
			return v.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("unsupported type %T", arg)
}
