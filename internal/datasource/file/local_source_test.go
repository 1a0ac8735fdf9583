package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, payload string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(payload), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return p
}

func canceled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// TestLocalOpen covers success, missing file, and pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		path            func(t *testing.T) string
		ctx             context.Context
		wantErrIs       error
		wantErrContains string
		wantContent     string
	}{
		{
			name:        "reads_content",
			path:        func(t *testing.T) string { return writeFile(t, "pim.xlsx", "PK\x03\x04") },
			ctx:         context.Background(),
			wantContent: "PK\x03\x04",
		},
		{
			name:            "missing_file_is_wrapped",
			path:            func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.xlsx") },
			ctx:             context.Background(),
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "open ",
		},
		{
			name:      "canceled_context_short_circuits",
			path:      func(t *testing.T) string { return writeFile(t, "pim.xlsx", "ignored") },
			ctx:       canceled(),
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			rc, err := NewLocal(c.path(t)).Open(c.ctx)
			if c.wantErrIs != nil {
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain %q", err, c.wantErrContains)
				}
				if rc != nil {
					_ = rc.Close()
					t.Fatalf("got non-nil ReadCloser on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer rc.Close()
			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("reading: %v", err)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content = %q, want %q", got, c.wantContent)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := writeFile(t, "a.xlsx", "preset v1")
	b := writeFile(t, "b.xlsx", "preset v1")
	c := writeFile(t, "c.xlsx", "preset v2")

	fa, err := Fingerprint(ctx, NewLocal(a))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if len(fa) != 32 {
		t.Fatalf("fingerprint %q has length %d, want 32", fa, len(fa))
	}
	fb, _ := Fingerprint(ctx, NewLocal(b))
	fc, _ := Fingerprint(ctx, NewLocal(c))
	if fa != fb {
		t.Fatalf("same content, different fingerprints: %s vs %s", fa, fb)
	}
	if fa == fc {
		t.Fatalf("different content, same fingerprint %s", fa)
	}

	if _, err := Fingerprint(canceled(), NewLocal(a)); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled ctx: err = %v", err)
	}
}
