package hunk

import (
	"testing"

	"patchlib/internal/lines"
)

func TestChunkMatchesLines(t *testing.T) {
	target := lines.SplitString("one\ntwo\nthree\nfour\n")
	c := Chunk{StartIndex: 1, Lines: lines.SplitString("two\nthree\n")}
	if !c.MatchesLines(target, 0) {
		t.Fatalf("expected chunk to match target at its own StartIndex")
	}
	if c.MatchesLines(target, 1) {
		t.Fatalf("did not expect chunk to match with a bad offset")
	}
}

func TestGetBeforeCompromisedPosnExactMatch(t *testing.T) {
	target := lines.SplitString("a\nb\nc\nd\ne\n")
	h := Abstract{
		Before: Chunk{StartIndex: 1, Lines: lines.SplitString("b\nc\nd\n")},
	}
	idx, preRedn, postRedn, ok := h.GetBeforeCompromisedPosn(target, 0, 2)
	if !ok || idx != 1 || preRedn != 0 || postRedn != 0 {
		t.Fatalf("unexpected result: idx=%d pre=%d post=%d ok=%v", idx, preRedn, postRedn, ok)
	}
}

func TestGetBeforeCompromisedPosnFuzzyMatch(t *testing.T) {
	// Target has drifted context around the changed middle line.
	target := lines.SplitString("X\nmiddle\nY\n")
	h := Abstract{
		Before:         Chunk{StartIndex: 0, Lines: lines.SplitString("ctx1\nmiddle\nctx2\n")},
		PreContextLen:  1,
		PostContextLen: 1,
	}
	idx, preRedn, postRedn, ok := h.GetBeforeCompromisedPosn(target, 0, 2)
	if !ok {
		t.Fatalf("expected a fuzzy match after reducing context")
	}
	if preRedn != 1 || postRedn != 1 {
		t.Fatalf("expected both ends reduced, got pre=%d post=%d", preRedn, postRedn)
	}
	if idx != 1 {
		t.Fatalf("GetBeforeCompromisedPosn idx = %d, want 1", idx)
	}
}

func TestIsAlreadyAppliedForward(t *testing.T) {
	h := Abstract{
		Before: Chunk{StartIndex: 0, Lines: lines.SplitString("old\n")},
		After:  Chunk{StartIndex: 0, Lines: lines.SplitString("new\n")},
	}
	target := lines.SplitString("new\n")
	if !h.IsAlreadyAppliedForward(target, 0) {
		t.Fatalf("expected hunk to be detected as already applied")
	}
	target2 := lines.SplitString("old\n")
	if h.IsAlreadyAppliedForward(target2, 0) {
		t.Fatalf("did not expect an unapplied hunk to be flagged as applied")
	}
}

func TestReversedSwapsChunks(t *testing.T) {
	h := Abstract{
		Before:         Chunk{StartIndex: 2, Lines: lines.SplitString("old\n")},
		After:          Chunk{StartIndex: 3, Lines: lines.SplitString("new\n")},
		PreContextLen:  1,
		PostContextLen: 2,
	}
	r := h.Reversed()
	if r.Before.StartIndex != 3 || r.After.StartIndex != 2 {
		t.Fatalf("Reversed did not swap chunks: %+v", r)
	}
	if !r.Before.Lines.Equal(h.After.Lines) || !r.After.Lines.Equal(h.Before.Lines) {
		t.Fatalf("Reversed did not swap chunk content")
	}
	if r.PreContextLen != h.PreContextLen || r.PostContextLen != h.PostContextLen {
		t.Fatalf("Reversed should preserve context lengths")
	}
}

func TestAppliedPosnString(t *testing.T) {
	if got := (AppliedPosn{StartPosn: 5, Length: 1}).String(); got != "5" {
		t.Fatalf("String() = %q, want %q", got, "5")
	}
	if got := (AppliedPosn{StartPosn: 5, Length: 3}).String(); got != "5-7" {
		t.Fatalf("String() = %q, want %q", got, "5-7")
	}
}
