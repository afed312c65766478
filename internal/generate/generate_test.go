package generate

import (
	"strings"
	"testing"
)

func TestUnifiedMarksMissingTrailingNewline(t *testing.T) {
	a := []byte("one\ntwo\nthree\n")
	b := []byte("one\ntwo\nTHREE")
	body, oversize := Unified("a/f.txt", "b/f.txt", a, b, Options{Context: 4})
	if oversize {
		t.Fatalf("unexpected oversize")
	}
	if !strings.Contains(body, "-three\n") {
		t.Fatalf("missing deleted line: %q", body)
	}
	if !strings.Contains(body, "+THREE\n\\ No newline at end of file\n") {
		t.Fatalf("missing no-newline marker after +THREE: %q", body)
	}
}

func TestUnifiedNoMarkerWhenTerminated(t *testing.T) {
	a := []byte("one\ntwo\n")
	b := []byte("one\nTWO\n")
	body, _ := Unified("a/f.txt", "b/f.txt", a, b, Options{Context: 4})
	if strings.Contains(body, "No newline") {
		t.Fatalf("unexpected no-newline marker: %q", body)
	}
}

func TestAddedMarksMissingTrailingNewline(t *testing.T) {
	b := []byte("hello")
	body, oversize := Added("b/new.txt", b, Options{Context: 4})
	if oversize {
		t.Fatalf("unexpected oversize")
	}
	if !strings.Contains(body, "+hello\n\\ No newline at end of file\n") {
		t.Fatalf("missing no-newline marker: %q", body)
	}
}

func TestContextMarksMissingTrailingNewline(t *testing.T) {
	a := []byte("one\ntwo\n")
	b := []byte("one\nTWO")
	body, _ := Context("a/f.txt", "b/f.txt", a, b, Options{Context: 4})
	if !strings.Contains(body, "+ TWO\n\\ No newline at end of file\n") {
		t.Fatalf("missing no-newline marker: %q", body)
	}
}

func TestUnifiedRoundTripBasic(t *testing.T) {
	a := []byte("one\ntwo\nthree\n")
	b := []byte("one\nTWO\nthree\n")
	body, oversize := Unified("a/f.txt", "b/f.txt", a, b, Options{Context: 4})
	if oversize {
		t.Fatalf("unexpected oversize")
	}
	if !strings.HasPrefix(body, "--- a/f.txt\n+++ b/f.txt\n") {
		t.Fatalf("unexpected header: %q", body)
	}
	if !strings.Contains(body, "@@ -1,3 +1,3 @@\n") {
		t.Fatalf("missing hunk header: %q", body)
	}
	if !strings.Contains(body, "-two\n") || !strings.Contains(body, "+TWO\n") {
		t.Fatalf("missing changed lines: %q", body)
	}
}

func TestOversizeReturnsPlaceholder(t *testing.T) {
	a := []byte("aaaaaaaaaa")
	b := []byte("bbbbbbbbbb")
	body, oversize := Unified("a/f.txt", "b/f.txt", a, b, Options{MaxBytes: 5})
	if !oversize {
		t.Fatalf("expected oversize")
	}
	if !strings.Contains(body, "diff omitted") {
		t.Fatalf("expected placeholder body: %q", body)
	}
}

func TestLooksBinaryDetectsNUL(t *testing.T) {
	if LooksBinary([]byte("plain text")) {
		t.Fatalf("plain text misclassified as binary")
	}
	if !LooksBinary([]byte("abc\x00def")) {
		t.Fatalf("NUL-containing data not classified as binary")
	}
}
