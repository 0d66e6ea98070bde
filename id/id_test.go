package id_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dai/shuttle/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"ExecutionID", id.NewExecutionID, "exec_"},
		{"WorkerID", id.NewWorkerID, "wkr_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew_InvalidPrefixPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid prefix")
		}
	}()
	id.New("Bad_Prefix")
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewExecutionID()
	parsed, err := id.ParseExecutionID(original.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed != original {
		t.Errorf("round-trip mismatch: %q != %q", parsed, original)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "exec0190"},
		{"bad prefix", "EXEC_0190c4a4-0000-7000-8000-000000000000"},
		{"bad uuid", "exec_not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := id.Parse(tt.input); err == nil {
				t.Errorf("expected error for %q", tt.input)
			}
		})
	}
}

func TestParseWithPrefix_CrossTypeRejection(t *testing.T) {
	w := id.NewWorkerID()
	if _, err := id.ParseExecutionID(w.String()); err == nil {
		t.Fatal("expected worker id to be rejected as execution id")
	}
}

func TestNil(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Fatal("Nil should be nil")
	}
	if id.Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", id.Nil.String())
	}
	if id.Nil.Prefix() != "" {
		t.Errorf("Nil.Prefix() = %q, want empty", id.Nil.Prefix())
	}
}

func TestCompare_CreationOrder(t *testing.T) {
	a := id.NewExecutionID()
	time.Sleep(2 * time.Millisecond)
	b := id.NewExecutionID()

	if id.Compare(a, b) >= 0 {
		t.Errorf("expected %s < %s", a, b)
	}
	if id.Compare(a, a) != 0 {
		t.Error("expected id to compare equal to itself")
	}
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		ID id.ID `json:"id"`
	}

	in := wrapper{ID: id.NewExecutionID()}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != in.ID {
		t.Errorf("got %s, want %s", out.ID, in.ID)
	}

	var empty wrapper
	if err := json.Unmarshal([]byte(`{"id":""}`), &empty); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !empty.ID.IsNil() {
		t.Error("expected empty string to decode as Nil")
	}
}
