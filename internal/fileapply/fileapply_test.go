package fileapply

import (
	"os"
	"path/filepath"
	"testing"

	"patchlib/internal/apply"
	"patchlib/internal/patch"
)

const modifyPatch = "diff --git a/foo.txt b/foo.txt\n" +
	"--- a/foo.txt\n" +
	"+++ b/foo.txt\n" +
	"@@ -1,3 +1,3 @@\n" +
	" one\n" +
	"-two\n" +
	"+TWO\n" +
	" three\n"

func TestApplyAllModifiesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "foo.txt"), []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("setup WriteFile: %v", err)
	}

	p, err := patch.ParseText(modifyPatch, 1)
	if err != nil {
		t.Fatalf("ParseText error: %v", err)
	}

	driver := NewDriver(Options{Dir: dir, StripLevel: -1})
	results, err := driver.ApplyAll(p)
	if err != nil {
		t.Fatalf("ApplyAll error: %v", err)
	}
	if len(results) != 1 || results[0].Ecode != apply.OK || results[0].Action != "modified" {
		t.Fatalf("unexpected results: %+v", results)
	}

	got, err := os.ReadFile(filepath.Join(dir, "foo.txt"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != "one\nTWO\nthree\n" {
		t.Fatalf("file content = %q, want %q", got, "one\nTWO\nthree\n")
	}
}

const createPatch = "diff --git a/new.txt b/new.txt\n" +
	"--- /dev/null\n" +
	"+++ b/new.txt\n" +
	"@@ -0,0 +1,2 @@\n" +
	"+hello\n" +
	"+world\n"

func TestApplyAllCreatesFile(t *testing.T) {
	dir := t.TempDir()
	p, err := patch.ParseText(createPatch, 1)
	if err != nil {
		t.Fatalf("ParseText error: %v", err)
	}

	driver := NewDriver(Options{Dir: dir, StripLevel: -1})
	results, err := driver.ApplyAll(p)
	if err != nil {
		t.Fatalf("ApplyAll error: %v", err)
	}
	if len(results) != 1 || results[0].Ecode != apply.OK || results[0].Action != "created" {
		t.Fatalf("unexpected results: %+v", results)
	}

	got, err := os.ReadFile(filepath.Join(dir, "new.txt"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != "hello\nworld\n" {
		t.Fatalf("file content = %q", got)
	}
}

const deletePatch = "diff --git a/gone.txt b/gone.txt\n" +
	"--- a/gone.txt\n" +
	"+++ /dev/null\n" +
	"@@ -1,2 +0,0 @@\n" +
	"-hello\n" +
	"-world\n"

func TestApplyAllDeletesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gone.txt"), []byte("hello\nworld\n"), 0o644); err != nil {
		t.Fatalf("setup WriteFile: %v", err)
	}

	p, err := patch.ParseText(deletePatch, 1)
	if err != nil {
		t.Fatalf("ParseText error: %v", err)
	}

	driver := NewDriver(Options{Dir: dir, StripLevel: -1})
	results, err := driver.ApplyAll(p)
	if err != nil {
		t.Fatalf("ApplyAll error: %v", err)
	}
	if len(results) != 1 || results[0].Action != "deleted" {
		t.Fatalf("unexpected results: %+v", results)
	}

	if _, err := os.Stat(filepath.Join(dir, "gone.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected gone.txt to be removed, stat err = %v", err)
	}
}

func TestApplyAllReverse(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "foo.txt"), []byte("one\nTWO\nthree\n"), 0o644); err != nil {
		t.Fatalf("setup WriteFile: %v", err)
	}

	p, err := patch.ParseText(modifyPatch, 1)
	if err != nil {
		t.Fatalf("ParseText error: %v", err)
	}

	driver := NewDriver(Options{Dir: dir, StripLevel: -1, Reverse: true})
	results, err := driver.ApplyAll(p)
	if err != nil {
		t.Fatalf("ApplyAll error: %v", err)
	}
	if len(results) != 1 || results[0].Ecode != apply.OK {
		t.Fatalf("unexpected results: %+v", results)
	}

	got, err := os.ReadFile(filepath.Join(dir, "foo.txt"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != "one\ntwo\nthree\n" {
		t.Fatalf("file content = %q, want reverted original", got)
	}
}
