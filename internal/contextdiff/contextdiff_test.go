package contextdiff

import (
	"testing"

	"patchlib/internal/lines"
)

func sampleHunkText() string {
	return "***************\n" +
		"*** 1,3 ****\n" +
		"  ctx1\n" +
		"! old\n" +
		"  ctx2\n" +
		"--- 1,3 ----\n" +
		"  ctx1\n" +
		"! new\n" +
		"  ctx2\n"
}

func TestGetHunkAtParsesBothSides(t *testing.T) {
	buf := lines.SplitString(sampleHunkText())
	h, next, ok, err := GetHunkAt(buf, 0)
	if err != nil || !ok {
		t.Fatalf("GetHunkAt error=%v ok=%v", err, ok)
	}
	if next != buf.Len() {
		t.Fatalf("next = %d, want %d", next, buf.Len())
	}
	if h.Header() != "***************" {
		t.Fatalf("Header() = %q", h.Header())
	}

	before := h.BeforeLines()
	after := h.AfterLines()
	wantBefore := []string{"ctx1\n", "old\n", "ctx2\n"}
	wantAfter := []string{"ctx1\n", "new\n", "ctx2\n"}
	if !equalStrings(before, wantBefore) {
		t.Fatalf("BeforeLines() = %v, want %v", before, wantBefore)
	}
	if !equalStrings(after, wantAfter) {
		t.Fatalf("AfterLines() = %v, want %v", after, wantAfter)
	}
}

func TestToAbstractContextCounts(t *testing.T) {
	buf := lines.SplitString(sampleHunkText())
	h, _, ok, err := GetHunkAt(buf, 0)
	if err != nil || !ok {
		t.Fatalf("GetHunkAt error=%v ok=%v", err, ok)
	}
	abs := h.ToAbstract()
	if abs.PreContextLen != 1 || abs.PostContextLen != 1 {
		t.Fatalf("context lengths = pre:%d post:%d, want 1/1", abs.PreContextLen, abs.PostContextLen)
	}
	if abs.Before.StartIndex != 0 || abs.After.StartIndex != 0 {
		t.Fatalf("unexpected start indices: before=%d after=%d", abs.Before.StartIndex, abs.After.StartIndex)
	}
	if got := abs.Before.Lines.String(); got != "ctx1\nold\nctx2\n" {
		t.Fatalf("Before.Lines = %q", got)
	}
	if got := abs.After.Lines.String(); got != "ctx1\nnew\nctx2\n" {
		t.Fatalf("After.Lines = %q", got)
	}
}

func TestDiffStatsCountsModifications(t *testing.T) {
	buf := lines.SplitString(sampleHunkText())
	h, _, ok, err := GetHunkAt(buf, 0)
	if err != nil || !ok {
		t.Fatalf("GetHunkAt error=%v ok=%v", err, ok)
	}
	s := h.DiffStats()
	if s.Get("modified") != 2 {
		t.Fatalf("modified = %d, want 2", s.Get("modified"))
	}
	if s.Get("inserted") != 0 || s.Get("deleted") != 0 {
		t.Fatalf("expected no plain insertions/deletions, got %+v", s)
	}
}

func TestGetHunkAtNoMatch(t *testing.T) {
	buf := lines.SplitString("not a context hunk\n")
	_, _, ok, err := GetHunkAt(buf, 0)
	if ok || err != nil {
		t.Fatalf("expected ok=false err=nil, got ok=%v err=%v", ok, err)
	}
}

func TestRenderMarkers(t *testing.T) {
	if got := RenderBeforeMarker(1, 1); got != "*** 1 ****" {
		t.Fatalf("RenderBeforeMarker single = %q", got)
	}
	if got := RenderBeforeMarker(1, 3); got != "*** 1,3 ****" {
		t.Fatalf("RenderBeforeMarker range = %q", got)
	}
	if got := RenderAfterMarker(1, 1); got != "--- 1 ----" {
		t.Fatalf("RenderAfterMarker single = %q", got)
	}
	if got := RenderAfterMarker(1, 3); got != "--- 1,3 ----" {
		t.Fatalf("RenderAfterMarker range = %q", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
