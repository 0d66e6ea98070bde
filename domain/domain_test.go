package domain_test

import (
	"errors"
	"testing"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/domain"
)

func TestErrCommitNotReady_WrapsNotReady(t *testing.T) {
	t.Parallel()
	if !errors.Is(domain.ErrCommitNotReady, shuttle.ErrNotReady) {
		t.Fatal("ErrCommitNotReady must wrap shuttle.ErrNotReady")
	}
	if errors.Is(domain.ErrNotFound, shuttle.ErrNotReady) {
		t.Fatal("ErrNotFound must not be ignorable")
	}
}

func TestParseLocale(t *testing.T) {
	t.Parallel()

	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		in      *string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "nil", in: nil, wantNil: true},
		{name: "language", in: str("fr"), want: "fr"},
		{name: "region", in: str("en-US"), want: "en-US"},
		{name: "script", in: str("zh-Hant-TW"), want: "zh-Hant-TW"},
		{name: "case normalized", in: str("EN-us"), want: "en-US"},
		{name: "empty", in: str(""), wantErr: true},
		{name: "garbage", in: str("not a locale!"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := domain.ParseLocale(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocale: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil tag, got %v", got)
				}
				return
			}
			if got.String() != tt.want {
				t.Fatalf("tag = %q, want %q", got.String(), tt.want)
			}
		})
	}
}
