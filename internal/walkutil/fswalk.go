// Package walkutil provides a deterministic, filterable filesystem walker
// used to gather the file pairs a directory-to-directory patch generation
// run needs to diff. Adapted from a source-tree collector: the extension
// allow-list is dropped (a patch generator must see every file, not just
// source files) and DiffTrees is added on top to pair two snapshots by
// relative path and content hash.
package walkutil

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"patchlib/internal/pathutil"
)

// FileInfo is a minimal, deterministic descriptor of a collected file.
type FileInfo struct {
	RelPath   string // project-relative path with forward slashes
	AbsPath   string // absolute filesystem path
	Size      int64  // size in bytes
	SHA256Hex string // lowercase hex sha256 of the file contents
}

// CollectFiles walks src and returns every regular file not excluded by
// name prefix or .gitignore.
//
// Filters:
//   - exclude — set of base-name prefixes (dir/file) to skip (case-sensitive).
//   - maxFileBytes — per-file size guardrail (0 = no limit).
//   - followSymlinks — has no effect on the result: symlinked directories
//     are never descended into and symlinked files are skipped either way.
//
// Determinism:
//   - Output is sorted by RelPath.
//   - RelPath uses forward slashes on all platforms.
func CollectFiles(
	src string,
	exclude map[string]struct{},
	maxFileBytes int64,
	useGitignore bool,
	followSymlinks bool,
) ([]FileInfo, error) {
	var list []FileInfo

	srcAbs, _ := filepath.Abs(src)

	var gipats []gitPattern
	if useGitignore {
		gipats, _ = parseGitignore(filepath.Join(srcAbs, ".gitignore"))
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		base := filepath.Base(path)

		rel, rerr := filepath.Rel(srcAbs, path)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, "../") || rel == ".." {
			return nil
		}

		if _, bad := exclude[base]; bad || hasExcludedPrefix(base, exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if useGitignore && matchGitignore(gipats, rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !followSymlinks && isSymlink(d) {
				return filepath.SkipDir
			}
			return nil
		}

		if !followSymlinks && isSymlink(d) {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil || !info.Mode().IsRegular() {
			return nil
		}

		if maxFileBytes > 0 && info.Size() > maxFileBytes {
			return nil
		}

		sumHex, herr := sha256File(path)
		if herr != nil {
			return nil
		}

		list = append(list, FileInfo{
			RelPath:   rel,
			AbsPath:   path,
			Size:      info.Size(),
			SHA256Hex: sumHex,
		})
		return nil
	}

	if err := filepath.WalkDir(srcAbs, walkFn); err != nil {
		return nil, err
	}

	sort.Slice(list, func(i, j int) bool { return list[i].RelPath < list[j].RelPath })
	return list, nil
}

// TreePair describes one relative path's membership across two directory
// snapshots, ready to be handed to internal/generate as a before/after
// pair once the caller reads each side's bytes.
type TreePair struct {
	RelPath string
	Before  *FileInfo // nil if the path does not exist in the "before" tree
	After   *FileInfo // nil if the path does not exist in the "after" tree
}

// Outcome classifies a TreePair the same way pathutil.Outcome classifies a
// single diff entry.
func (p TreePair) Outcome() pathutil.Outcome {
	switch {
	case p.Before == nil:
		return pathutil.Created
	case p.After == nil:
		return pathutil.Deleted
	default:
		return pathutil.Modified
	}
}

// Unchanged reports whether both sides exist and their content hashes
// match, meaning no diff need be generated for this path.
func (p TreePair) Unchanged() bool {
	return p.Before != nil && p.After != nil && p.Before.SHA256Hex == p.After.SHA256Hex
}

// DiffTrees walks beforeDir and afterDir and pairs their files by relative
// path, returning one TreePair per path present on either side, sorted by
// RelPath. Unchanged pairs are included; callers wanting only the changed
// set should filter on TreePair.Unchanged.
func DiffTrees(beforeDir, afterDir string, exclude map[string]struct{}, maxFileBytes int64, useGitignore, followSymlinks bool) ([]TreePair, error) {
	beforeFiles, err := CollectFiles(beforeDir, exclude, maxFileBytes, useGitignore, followSymlinks)
	if err != nil {
		return nil, err
	}
	afterFiles, err := CollectFiles(afterDir, exclude, maxFileBytes, useGitignore, followSymlinks)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]*TreePair, len(beforeFiles)+len(afterFiles))
	var order []string
	for i := range beforeFiles {
		f := beforeFiles[i]
		byPath[f.RelPath] = &TreePair{RelPath: f.RelPath, Before: &f}
		order = append(order, f.RelPath)
	}
	for i := range afterFiles {
		f := afterFiles[i]
		if p, ok := byPath[f.RelPath]; ok {
			p.After = &f
			continue
		}
		byPath[f.RelPath] = &TreePair{RelPath: f.RelPath, After: &f}
		order = append(order, f.RelPath)
	}

	sort.Strings(order)
	out := make([]TreePair, 0, len(order))
	seen := make(map[string]struct{}, len(order))
	for _, rel := range order {
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}
		out = append(out, *byPath[rel])
	}
	return out, nil
}

func isSymlink(d fs.DirEntry) bool {
	return d.Type()&fs.ModeSymlink != 0
}

func hasExcludedPrefix(base string, exclude map[string]struct{}) bool {
	for k := range exclude {
		if strings.HasPrefix(base, k) {
			return true
		}
	}
	return false
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ---------------- .gitignore support ----------------

type gitPattern struct {
	neg      bool
	dirOnly  bool
	anchored bool
	rx       *regexp.Regexp
}

// parseGitignore reads a .gitignore file and compiles patterns. Minimal support:
//   - '#' comments, blank lines ignored
//   - '!' negation
//   - leading '/' anchors to repo root
//   - trailing '/' restricts to directories
//   - '**' matches across directories
//   - '*' and '?' behave like shell globs (not crossing '/')
func parseGitignore(path string) ([]gitPattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var res []gitPattern
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		neg := false
		if strings.HasPrefix(line, "!") {
			neg = true
			line = strings.TrimSpace(line[1:])
			if line == "" {
				continue
			}
		}
		dirOnly := strings.HasSuffix(line, "/")
		if dirOnly {
			line = strings.TrimSuffix(line, "/")
		}
		anchored := strings.HasPrefix(line, "/")
		if anchored {
			line = strings.TrimPrefix(line, "/")
		}
		rx := compileGitGlob(line, anchored, dirOnly)
		res = append(res, gitPattern{neg: neg, dirOnly: dirOnly, anchored: anchored, rx: rx})
	}
	return res, nil
}

func compileGitGlob(glob string, anchored, dirOnly bool) *regexp.Regexp {
	esc := regexp.QuoteMeta(glob)
	esc = strings.ReplaceAll(esc, "\\*\\*", "__DOUBLESTAR__")
	esc = strings.ReplaceAll(esc, "\\*", "[^/]*")
	esc = strings.ReplaceAll(esc, "\\?", "[^/]")
	esc = strings.ReplaceAll(esc, "__DOUBLESTAR__", ".*")
	var pattern string
	if anchored {
		pattern = "^" + esc + "$"
	} else {
		pattern = "(^|.*/)" + esc + "$"
	}
	_ = dirOnly
	return regexp.MustCompile(pattern)
}

func matchGitignore(pats []gitPattern, rel string, isDir bool) bool {
	if len(pats) == 0 {
		return false
	}
	ignored := false
	for _, p := range pats {
		if p.rx.MatchString(rel) {
			if p.dirOnly && !isDir {
				continue
			}
			ignored = !p.neg
		}
	}
	return ignored
}
