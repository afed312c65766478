package pathutil

import "testing"

func TestStripLevel(t *testing.T) {
	strip := StripLevel(1)
	got, err := strip("a/b/c.go")
	if err != nil || got != "b/c.go" {
		t.Fatalf("StripLevel(1)(a/b/c.go) = %q, %v", got, err)
	}

	if _, err := StripLevel(3)("a/b.go"); err == nil {
		t.Fatalf("expected an error stripping more levels than the path has")
	}

	abs := "/etc/passwd"
	got, err = StripLevel(2)(abs)
	if err != nil || got != abs {
		t.Fatalf("absolute path should pass through unchanged, got %q, %v", got, err)
	}
}

func TestNoStrip(t *testing.T) {
	got, err := NoStrip("a/b/c.go")
	if err != nil || got != "a/b/c.go" {
		t.Fatalf("NoStrip = %q, %v", got, err)
	}
}

func TestFilePathOfPair(t *testing.T) {
	cases := []struct {
		pair Pair
		want string
	}{
		{Pair{Before: "a/foo.go", After: "b/foo.go"}, "b/foo.go"},
		{Pair{Before: "a/foo.go", After: DevNull}, "a/foo.go"},
		{Pair{Before: DevNull, After: "b/foo.go"}, "b/foo.go"},
		{Pair{Before: DevNull, After: DevNull}, ""},
	}
	for _, c := range cases {
		got, err := FilePathOfPair(c.pair, nil)
		if err != nil || got != c.want {
			t.Fatalf("FilePathOfPair(%+v) = %q, %v; want %q", c.pair, got, err, c.want)
		}
	}
}

func TestFileOutcomeOfPair(t *testing.T) {
	cases := []struct {
		pair Pair
		want Outcome
	}{
		{Pair{Before: "a/foo.go", After: "b/foo.go"}, Modified},
		{Pair{Before: DevNull, After: "b/foo.go"}, Created},
		{Pair{Before: "a/foo.go", After: DevNull}, Deleted},
	}
	for _, c := range cases {
		if got := FileOutcomeOfPair(c.pair); got != c.want {
			t.Fatalf("FileOutcomeOfPair(%+v) = %v, want %v", c.pair, got, c.want)
		}
	}
	if Created.String() != "created" || Deleted.String() != "deleted" || Modified.String() != "modified" {
		t.Fatalf("unexpected Outcome.String() values")
	}
}

func TestFilePathPlusOfPair(t *testing.T) {
	fp, err := FilePathPlusOfPair(Pair{Before: DevNull, After: "b/new.go"}, nil)
	if err != nil || fp == nil || fp.Path != "b/new.go" || fp.Status != StatusAdded {
		t.Fatalf("unexpected created result: %+v, %v", fp, err)
	}
	fp, err = FilePathPlusOfPair(Pair{Before: "a/old.go", After: DevNull}, nil)
	if err != nil || fp == nil || fp.Path != "a/old.go" || fp.Status != StatusDeleted {
		t.Fatalf("unexpected deleted result: %+v, %v", fp, err)
	}
	fp, err = FilePathPlusOfPair(Pair{Before: DevNull, After: DevNull}, nil)
	if err != nil || fp != nil {
		t.Fatalf("expected nil result for an all-null pair, got %+v, %v", fp, err)
	}
}

func TestGuessStripLevel(t *testing.T) {
	if got := GuessStripLevel("a/b/c.go", "b/c.go", 3); got != 1 {
		t.Fatalf("GuessStripLevel = %d, want 1", got)
	}
	if got := GuessStripLevel("a/b/c.go", "nomatch.go", 3); got != -1 {
		t.Fatalf("GuessStripLevel = %d, want -1", got)
	}
}
