package main

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// parseKeyArgs decodes a JSON array of scalars into key arguments. Integer
// literals become int64 and other numbers float64, so "5" and "5.0" yield
// different keys just as they would from typed job arguments.
func parseKeyArgs(raw string) ([]any, error) {
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON array: %w", err)
	}

	args := make([]any, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				args[i] = n
				continue
			}
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			args[i] = f
		case nil, string, bool:
			args[i] = v
		default:
			return nil, fmt.Errorf("argument %d: unsupported %T, want a scalar", i, v)
		}
	}
	return args, nil
}
