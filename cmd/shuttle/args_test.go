package main

import (
	"reflect"
	"testing"
)

func TestParseKeyArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []any
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "empty array", raw: "[]", want: []any{}},
		{name: "integers", raw: "[1, -5]", want: []any{int64(1), int64(-5)}},
		{name: "float stays float", raw: "[5.0]", want: []any{float64(5)}},
		{name: "mixed", raw: `[1, "abc", null, true]`, want: []any{int64(1), "abc", nil, true}},
		{name: "not an array", raw: `{"a":1}`, wantErr: true},
		{name: "nested", raw: `[[1]]`, wantErr: true},
		{name: "malformed", raw: `[1,`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseKeyArgs(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseKeyArgs: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}
