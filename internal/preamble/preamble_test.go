package preamble

import (
	"testing"

	"patchlib/internal/lines"
)

func TestGetGitPreambleAtWithExtras(t *testing.T) {
	text := "diff --git a/foo.go b/foo.go\n" +
		"old mode 100644\n" +
		"new mode 100755\n" +
		"index abc123..def456 100755\n" +
		"not an extras line\n"
	buf := lines.SplitString(text)
	p, next, ok := GetGitPreambleAt(buf, 0)
	if !ok {
		t.Fatalf("expected a git preamble match")
	}
	if p.Before != "a/foo.go" || p.After != "b/foo.go" {
		t.Fatalf("unexpected before/after: %+v", p)
	}
	if p.Extras.OldMode != "100644" || p.Extras.NewMode != "100755" {
		t.Fatalf("unexpected mode extras: %+v", p.Extras)
	}
	if p.Extras.IndexHashBefore != "abc123" || p.Extras.IndexHashAfter != "def456" || p.Extras.IndexMode != "100755" {
		t.Fatalf("unexpected index extras: %+v", p.Extras)
	}
	if next != 4 {
		t.Fatalf("next = %d, want 4 (stop before the unrecognised line)", next)
	}
}

func TestGetDiffPreambleAt(t *testing.T) {
	buf := lines.SplitString("diff -u a/foo.go b/foo.go\n")
	p, next, ok := GetDiffPreambleAt(buf, 0)
	if !ok || p.Before != "a/foo.go" || p.After != "b/foo.go" {
		t.Fatalf("unexpected result: %+v ok=%v", p, ok)
	}
	if next != 1 {
		t.Fatalf("next = %d, want 1", next)
	}
}

func TestGetIndexPreambleAt(t *testing.T) {
	buf := lines.SplitString("Index: foo.go\n")
	p, next, ok := GetIndexPreambleAt(buf, 0)
	if !ok || p.Before != "foo.go" || p.After != "foo.go" {
		t.Fatalf("unexpected result: %+v ok=%v", p, ok)
	}
	if next != 1 {
		t.Fatalf("next = %d, want 1", next)
	}
}

func TestGetSetAtAndResolvedPath(t *testing.T) {
	text := "Index: foo.go\n" +
		"diff --git a/foo.go b/foo.go\n" +
		"index abc123..def456 100644\n"
	buf := lines.SplitString(text)
	set, next := GetSetAt(buf, 0)
	if next != buf.Len() {
		t.Fatalf("next = %d, want %d", next, buf.Len())
	}
	if len(set.Preambles) != 2 {
		t.Fatalf("expected 2 preambles, got %d", len(set.Preambles))
	}

	pair, kind, ok := set.ResolvedPath()
	if !ok || kind != Index || pair.Before != "foo.go" {
		t.Fatalf("expected Index preamble to win path precedence, got %+v kind=%v ok=%v", pair, kind, ok)
	}
}

func TestResolvedExPath(t *testing.T) {
	text := "diff --git a/foo.go b/bar.go\n" +
		"rename from foo.go\n" +
		"rename to bar.go\n"
	buf := lines.SplitString(text)
	set, _ := GetSetAt(buf, 0)
	from, kind, ok := set.ResolvedExPath()
	if !ok || kind != Git || from != "foo.go" {
		t.Fatalf("unexpected rename source: from=%q kind=%v ok=%v", from, kind, ok)
	}
}

func TestRenderGitHeaderAndModeLines(t *testing.T) {
	if got := RenderGitHeader("foo.go", "foo.go"); got != "diff --git a/foo.go b/foo.go\n" {
		t.Fatalf("RenderGitHeader = %q", got)
	}
	if got := RenderIndexLine("abc", "def", 0); got != "index abc..def\n" {
		t.Fatalf("RenderIndexLine no mode = %q", got)
	}
	if got := RenderIndexLine("abc", "def", 0100644); got != "index abc..def 100644\n" {
		t.Fatalf("RenderIndexLine with mode = %q", got)
	}

	lines := RenderModeLines(0, 0100644)
	if len(lines) != 1 || lines[0] != "new file mode 100644\n" {
		t.Fatalf("RenderModeLines(created) = %v", lines)
	}
	lines = RenderModeLines(0100644, 0)
	if len(lines) != 1 || lines[0] != "deleted file mode 100644\n" {
		t.Fatalf("RenderModeLines(deleted) = %v", lines)
	}
	lines = RenderModeLines(0100644, 0100755)
	if len(lines) != 2 || lines[0] != "old mode 100644\n" || lines[1] != "new mode 100755\n" {
		t.Fatalf("RenderModeLines(changed) = %v", lines)
	}
	if lines = RenderModeLines(0100644, 0100644); lines != nil {
		t.Fatalf("RenderModeLines(unchanged) = %v, want nil", lines)
	}
}
