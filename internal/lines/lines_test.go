package lines

import "testing"

func TestSplitKeepsTerminators(t *testing.T) {
	buf := SplitString("a\nb\r\nc")
	if buf.Len() != 3 {
		t.Fatalf("expected 3 lines, got %d: %#v", buf.Len(), buf)
	}
	if buf.At(0) != "a\n" || buf.At(1) != "b\r\n" || buf.At(2) != "c" {
		t.Fatalf("unexpected lines: %#v", buf)
	}
	if !buf.At(0).HasTerminator() || !buf.At(1).HasTerminator() {
		t.Fatalf("expected terminated lines to report HasTerminator")
	}
	if buf.At(2).HasTerminator() {
		t.Fatalf("final unterminated fragment should not report HasTerminator")
	}
}

func TestSplitEmpty(t *testing.T) {
	if buf := SplitString(""); buf != nil {
		t.Fatalf("expected nil buffer for empty input, got %#v", buf)
	}
}

func TestTrimTerminator(t *testing.T) {
	if got := Line("foo\r\n").TrimTerminator(); got != "foo" {
		t.Fatalf("TrimTerminator(CRLF) = %q, want %q", got, "foo")
	}
	if got := Line("foo\n").TrimTerminator(); got != "foo" {
		t.Fatalf("TrimTerminator(LF) = %q, want %q", got, "foo")
	}
	if got := Line("foo").TrimTerminator(); got != "foo" {
		t.Fatalf("TrimTerminator(none) = %q, want %q", got, "foo")
	}
}

func TestJoinRoundTrip(t *testing.T) {
	orig := "one\ntwo\nthree"
	if got := SplitString(orig).String(); got != orig {
		t.Fatalf("round trip = %q, want %q", got, orig)
	}
}

func TestContainsAtAndFindFirst(t *testing.T) {
	buf := SplitString("a\nb\nc\nb\nd\n")
	sub := SplitString("b\nd\n")
	if !buf.ContainsAt(sub, 3) {
		t.Fatalf("expected sub to match at index 3")
	}
	if buf.ContainsAt(sub, 1) {
		t.Fatalf("did not expect sub to match at index 1")
	}
	if idx := buf.FindFirst(sub, 0); idx != 3 {
		t.Fatalf("FindFirst = %d, want 3", idx)
	}
	if idx := buf.FindFirst(sub, 4); idx != -1 {
		t.Fatalf("FindFirst past match = %d, want -1", idx)
	}
}

func TestSliceBorrowsAndCloneCopies(t *testing.T) {
	buf := SplitString("a\nb\nc\n")
	sub := buf.Slice(1, 2)
	if sub.Len() != 1 || sub.At(0) != "b\n" {
		t.Fatalf("unexpected slice: %#v", sub)
	}
	clone := sub.Clone()
	clone[0] = "z\n"
	if buf.At(1) != "b\n" {
		t.Fatalf("mutating clone affected original buffer: %q", buf.At(1))
	}
}

func TestEnsureTrailingNewline(t *testing.T) {
	if got := string(EnsureTrailingNewline([]byte("abc"))); got != "abc\n" {
		t.Fatalf("EnsureTrailingNewline = %q, want %q", got, "abc\n")
	}
	if got := string(EnsureTrailingNewline([]byte("abc\n"))); got != "abc\n" {
		t.Fatalf("EnsureTrailingNewline idempotent = %q, want %q", got, "abc\n")
	}
}
