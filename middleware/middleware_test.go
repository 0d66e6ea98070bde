package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/job"
	"github.com/dai/shuttle/middleware"
	"github.com/dai/shuttle/policy"
)

func TestChain(t *testing.T) {
	trace := func(log *[]string, name string) middleware.Middleware {
		return func(ctx context.Context, _ *job.Execution, next middleware.Handler) error {
			*log = append(*log, name+">")
			err := next(ctx)
			*log = append(*log, "<"+name)
			return err
		}
	}
	boom := errors.New("boom")

	tests := []struct {
		name      string
		layers    []string
		work      error
		wantOrder string
	}{
		{"empty", nil, nil, "work"},
		{"single", []string{"a"}, nil, "a> work <a"},
		{"outer first", []string{"a", "b", "c"}, nil, "a> b> c> work <c <b <a"},
		{"error unwinds", []string{"a", "b"}, boom, "a> b> work <b <a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string
			mws := make([]middleware.Middleware, 0, len(tt.layers))
			for _, l := range tt.layers {
				mws = append(mws, trace(&log, l))
			}

			err := middleware.Chain(mws...)(context.Background(), newTestExecution(), func(context.Context) error {
				log = append(log, "work")
				return tt.work
			})
			if !errors.Is(err, tt.work) {
				t.Fatalf("err = %v, want %v", err, tt.work)
			}
			if got := strings.Join(log, " "); got != tt.wantOrder {
				t.Errorf("order = %q, want %q", got, tt.wantOrder)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	t.Parallel()
	e := &job.Execution{Name: "manifest.precompile", ID: id.NewExecutionID()}
	rec := middleware.Recover(slog.New(slog.DiscardHandler))

	err := rec(context.Background(), e, func(context.Context) error { panic("nil compiler") })
	if !errors.Is(err, shuttle.ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	if got := err.Error(); got != "shuttle: job panicked: manifest.precompile: nil compiler" {
		t.Errorf("message = %q", got)
	}

	if err := rec(context.Background(), e, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("clean work: %v", err)
	}
}

func TestLogging_Levels(t *testing.T) {
	stale := policy.New(errStaleBlob)
	tests := []struct {
		name      string
		err       error
		opts      []middleware.Option
		wantMsg   string
		wantLevel string
	}{
		{"completed", nil, nil, "job completed", "INFO"},
		{"failed", errors.New("disk full"), nil, "job returned error", "WARN"},
		{"deferred", fmt.Errorf("commit 5: %w", shuttle.ErrNotReady), nil, "job deferred", "INFO"},
		{"policy deferred", fmt.Errorf("import: %w", errStaleBlob), []middleware.Option{middleware.WithIgnorable(stale.Ignorable)}, "job deferred", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			err := middleware.Logging(logger, tt.opts...)(context.Background(), newTestExecution(), func(context.Context) error {
				return tt.err
			})
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != 2 {
				t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
			}
			var start, end map[string]any
			if err := json.Unmarshal([]byte(lines[0]), &start); err != nil {
				t.Fatal(err)
			}
			if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
				t.Fatal(err)
			}
			if start["msg"] != "job started" || start["owner"] != "commit:5" {
				t.Errorf("start record = %v", start)
			}
			if end["msg"] != tt.wantMsg || end["level"] != tt.wantLevel {
				t.Errorf("end record = %v", end)
			}
			if end["execution_id"] != start["execution_id"] {
				t.Error("records disagree on execution id")
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()
	bounded := middleware.Timeout(slog.New(slog.DiscardHandler))

	t.Run("deadline applied", func(t *testing.T) {
		e := &job.Execution{Name: "blob.import", ID: id.NewExecutionID(), Timeout: time.Minute}
		err := bounded(context.Background(), e, func(ctx context.Context) error {
			deadline, ok := ctx.Deadline()
			if !ok || time.Until(deadline) > time.Minute {
				return fmt.Errorf("deadline = %v, %v", deadline, ok)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("zero is unbounded", func(t *testing.T) {
		e := &job.Execution{Name: "blob.import", ID: id.NewExecutionID()}
		err := bounded(context.Background(), e, func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); ok {
				return errors.New("unexpected deadline")
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("slow work cancelled", func(t *testing.T) {
		e := &job.Execution{Name: "blob.import", ID: id.NewExecutionID(), Timeout: 10 * time.Millisecond}
		err := bounded(context.Background(), e, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected DeadlineExceeded, got %v", err)
		}
	})
}
