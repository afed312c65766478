package diffstat

import (
	"testing"

	"patchlib/internal/lines"
)

func TestStatsAddAndAsString(t *testing.T) {
	s := NewStats()
	s.Incr(Inserted)
	s.Incr(Inserted)
	s.Incr(Deleted)
	if s.Get(Inserted) != 2 || s.Get(Deleted) != 1 {
		t.Fatalf("unexpected counts: %+v", s.counts)
	}
	if s.Total() != 3 {
		t.Fatalf("Total() = %d, want 3", s.Total())
	}
	str := s.AsString()
	if str == "" {
		t.Fatalf("AsString() returned empty string for non-zero stats")
	}
}

func TestParseFileStatLine(t *testing.T) {
	path, n, binary, ok := ParseFileStatLine(" foo/bar.go | 12 +++---")
	if !ok || path != "foo/bar.go" || n != 12 || binary {
		t.Fatalf("ParseFileStatLine unexpected result: %q %d %v %v", path, n, binary, ok)
	}
	path, _, binary, ok = ParseFileStatLine("image.png | Bin")
	if ok && !binary {
		t.Fatalf("binary file-stat line should report binary=true when matched")
	}
	_, _, _, ok = ParseFileStatLine("not a stat line at all")
	if ok {
		t.Fatalf("expected no match for a non-stat line")
	}
}

func TestSummaryLengthAtValidSummary(t *testing.T) {
	buf := lines.SplitString(" foo.go | 2 +-\n bar.go | 4 ++--\n 2 files changed, 3 insertions(+), 3 deletions(-)\n")
	n, err := SummaryLengthAt(buf, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("SummaryLengthAt = %d, want 3", n)
	}
	if !StartsAt(buf, 0) {
		t.Fatalf("StartsAt should report true for a valid summary")
	}
}

func TestSummaryLengthAtNoSummary(t *testing.T) {
	buf := lines.SplitString("this is not a diffstat block\n")
	n, err := SummaryLengthAt(buf, 0)
	if err != nil || n != 0 {
		t.Fatalf("SummaryLengthAt = (%d, %v), want (0, nil)", n, err)
	}
	if StartsAt(buf, 0) {
		t.Fatalf("StartsAt should report false for ordinary text")
	}
}

func TestSummaryLengthAtMalformed(t *testing.T) {
	buf := lines.SplitString(" foo.go | 2 +-\nnot a totals line\n")
	_, err := SummaryLengthAt(buf, 0)
	if err == nil {
		t.Fatalf("expected a malformed-summary error")
	}
}

func TestPathStatsListSortAndFormat(t *testing.T) {
	list := PathStatsList{
		{Path: "z.go", Stats: NewStats()},
		{Path: "a.go", Stats: NewStats()},
	}
	list[0].Stats.Incr(Inserted)
	list[1].Stats.Incr(Deleted)
	list.Sort()
	if list[0].Path != "a.go" || list[1].Path != "z.go" {
		t.Fatalf("Sort did not order by path: %+v", list)
	}
	if !list.Contains("a.go") || list.Contains("missing.go") {
		t.Fatalf("Contains behaved unexpectedly")
	}
	out := list.ListFormatString(false, false, false, 80)
	if out == "" {
		t.Fatalf("ListFormatString returned empty output")
	}
}
