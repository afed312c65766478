// Package preamble parses the three dialects of diff preamble that can
// precede a unified/context/git-binary diff's hunks: a git extended
// header ("diff --git a/x b/x" plus "index"/"rename"/"mode" extras), a
// bare "diff ... x y" line, and an SCCS-style "Index: x" marker. Grounded
// on patchlib.py's Preamble/GitPreamble/DiffPreamble/IndexPreamble
// classes and their path_precedence/expath_precedence lists.
package preamble

import (
	"fmt"
	"regexp"
	"strings"

	"patchlib/internal/lines"
	"patchlib/internal/pathutil"
)

// Kind identifies which preamble dialect produced a Preamble value.
type Kind string

const (
	Git   Kind = "git"
	Diff  Kind = "diff"
	Index Kind = "index"
)

// PathPrecedence is the order in which same-patch preambles are
// consulted to determine a diff's target path: Index beats Git beats
// bare Diff.
var PathPrecedence = []Kind{Index, Git, Diff}

// ExPathPrecedence is the order used to determine a rename/copy source
// path: Git beats Index beats bare Diff.
var ExPathPrecedence = []Kind{Git, Index, Diff}

// Extras holds the git extended-header fields beyond the "diff --git"
// line itself.
type Extras struct {
	OldMode            string
	NewMode            string
	DeletedFileMode    string
	NewFileMode        string
	CopyFrom           string
	CopyTo             string
	RenameFrom         string
	RenameTo           string
	SimilarityIndex    string
	DissimilarityIndex string
	IndexHashBefore    string
	IndexHashAfter     string
	IndexMode          string
}

// Preamble is one parsed preamble block of any dialect.
type Preamble struct {
	Kind   Kind
	Raw    lines.Buffer
	Before string
	After  string
	Extras Extras
}

// FilePath returns this preamble's notion of the diff's target path,
// following the rule used throughout pd_utils.FilePathOfPair.
func (p *Preamble) FilePath(strip pathutil.StripFunc) (string, error) {
	return pathutil.FilePathOfPair(pathutil.Pair{Before: p.Before, After: p.After}, strip)
}

var (
	diffGitRE = regexp.MustCompile(`^diff --git (` + pathREStr + `) (` + pathREStr + `)$`)
	diffBareRE = regexp.MustCompile(`^diff(\s.+)\s+(` + pathREStr + `)\s+(` + pathREStr + `)$`)
	indexLineRE = regexp.MustCompile(`^Index:\s+(.+)$`)

	oldModeRE         = regexp.MustCompile(`^old mode\s+(\d*)$`)
	newModeRE         = regexp.MustCompile(`^new mode\s+(\d*)$`)
	deletedFileModeRE = regexp.MustCompile(`^deleted file mode\s+(\d*)$`)
	newFileModeRE     = regexp.MustCompile(`^new file mode\s+(\d*)$`)
	copyFromRE        = regexp.MustCompile(`^copy from\s+(.+)$`)
	copyToRE          = regexp.MustCompile(`^copy to\s+(.+)$`)
	renameFromRE      = regexp.MustCompile(`^rename from\s+(.+)$`)
	renameToRE        = regexp.MustCompile(`^rename to\s+(.+)$`)
	similarityRE      = regexp.MustCompile(`^similarity index\s+(\d*)%$`)
	dissimilarityRE   = regexp.MustCompile(`^dissimilarity index\s+(\d*)%$`)
	indexHashRE       = regexp.MustCompile(`^index\s+([a-fA-F0-9]+)\.\.([a-fA-F0-9]+)(\s+(\d*))?$`)
)

const pathREStr = `\S+`

// GetGitPreambleAt parses a git extended-header preamble starting at
// index: the "diff --git a/x b/x" line plus every recognised extras line
// that follows, stopping at the first unrecognised line.
func GetGitPreambleAt(buf lines.Buffer, index int) (*Preamble, int, bool) {
	if index >= buf.Len() {
		return nil, index, false
	}
	m := diffGitRE.FindStringSubmatch(buf.At(index).TrimTerminator())
	if m == nil {
		return nil, index, false
	}
	start := index
	before, after := m[1], m[2]
	index++
	var ex Extras
	for index < buf.Len() {
		line := buf.At(index).TrimTerminator()
		switch {
		case oldModeRE.MatchString(line):
			ex.OldMode = oldModeRE.FindStringSubmatch(line)[1]
		case newModeRE.MatchString(line):
			ex.NewMode = newModeRE.FindStringSubmatch(line)[1]
		case deletedFileModeRE.MatchString(line):
			ex.DeletedFileMode = deletedFileModeRE.FindStringSubmatch(line)[1]
		case newFileModeRE.MatchString(line):
			ex.NewFileMode = newFileModeRE.FindStringSubmatch(line)[1]
		case copyFromRE.MatchString(line):
			ex.CopyFrom = copyFromRE.FindStringSubmatch(line)[1]
		case copyToRE.MatchString(line):
			ex.CopyTo = copyToRE.FindStringSubmatch(line)[1]
		case renameFromRE.MatchString(line):
			ex.RenameFrom = renameFromRE.FindStringSubmatch(line)[1]
		case renameToRE.MatchString(line):
			ex.RenameTo = renameToRE.FindStringSubmatch(line)[1]
		case similarityRE.MatchString(line):
			ex.SimilarityIndex = similarityRE.FindStringSubmatch(line)[1]
		case dissimilarityRE.MatchString(line):
			ex.DissimilarityIndex = dissimilarityRE.FindStringSubmatch(line)[1]
		case indexHashRE.MatchString(line):
			sm := indexHashRE.FindStringSubmatch(line)
			ex.IndexHashBefore, ex.IndexHashAfter, ex.IndexMode = sm[1], sm[2], sm[4]
		default:
			goto doneExtras
		}
		index++
	}
doneExtras:
	return &Preamble{Kind: Git, Raw: buf.Slice(start, index).Clone(), Before: before, After: after, Extras: ex}, index, true
}

// GetDiffPreambleAt parses a bare "diff [options] before after" line,
// rejecting one whose options contain "--git" (that's GetGitPreambleAt's
// job, and it's tried first by GetPreambleAt).
func GetDiffPreambleAt(buf lines.Buffer, index int) (*Preamble, int, bool) {
	if index >= buf.Len() {
		return nil, index, false
	}
	line := buf.At(index).TrimTerminator()
	m := diffBareRE.FindStringSubmatch(line)
	if m == nil || strings.Contains(m[1], "--git") {
		return nil, index, false
	}
	return &Preamble{Kind: Diff, Raw: buf.Slice(index, index+1).Clone(), Before: m[2], After: m[3]}, index + 1, true
}

// GetIndexPreambleAt parses an "Index: path" line.
func GetIndexPreambleAt(buf lines.Buffer, index int) (*Preamble, int, bool) {
	if index >= buf.Len() {
		return nil, index, false
	}
	m := indexLineRE.FindStringSubmatch(buf.At(index).TrimTerminator())
	if m == nil {
		return nil, index, false
	}
	return &Preamble{Kind: Index, Raw: buf.Slice(index, index+1).Clone(), Before: m[1], After: m[1]}, index + 1, true
}

// Set is the (possibly empty) collection of preambles seen immediately
// before one diff's hunks, in the order they were encountered.
type Set struct {
	Preambles []*Preamble
}

// ByKind returns the first preamble of the given kind in the set, or nil.
func (s *Set) ByKind(k Kind) *Preamble {
	for _, p := range s.Preambles {
		if p.Kind == k {
			return p
		}
	}
	return nil
}

// ResolvedPath returns the target path following PathPrecedence: the
// first dialect in that order that is present in the set wins.
func (s *Set) ResolvedPath() (pathutil.Pair, Kind, bool) {
	for _, k := range PathPrecedence {
		if p := s.ByKind(k); p != nil {
			return pathutil.Pair{Before: p.Before, After: p.After}, k, true
		}
	}
	return pathutil.Pair{}, "", false
}

// ResolvedExPath returns the rename/copy source path following
// ExPathPrecedence.
func (s *Set) ResolvedExPath() (string, Kind, bool) {
	for _, k := range ExPathPrecedence {
		p := s.ByKind(k)
		if p == nil {
			continue
		}
		if p.Kind == Git && (p.Extras.RenameFrom != "" || p.Extras.CopyFrom != "") {
			from := p.Extras.RenameFrom
			if from == "" {
				from = p.Extras.CopyFrom
			}
			return from, k, true
		}
	}
	return "", "", false
}

// GetPreambleAt tries git, then bare-diff, then Index dialects in turn
// and returns whichever first matches at index, per diffs.py's ordering
// convention of "most likely first".
func GetPreambleAt(buf lines.Buffer, index int) (*Preamble, int, bool) {
	if p, next, ok := GetGitPreambleAt(buf, index); ok {
		return p, next, true
	}
	if p, next, ok := GetDiffPreambleAt(buf, index); ok {
		return p, next, true
	}
	if p, next, ok := GetIndexPreambleAt(buf, index); ok {
		return p, next, true
	}
	return nil, index, false
}

// GetSetAt greedily parses every preamble line found starting at index,
// stopping at the first line that matches none of the three dialects.
func GetSetAt(buf lines.Buffer, index int) (*Set, int) {
	var set Set
	for {
		p, next, ok := GetPreambleAt(buf, index)
		if !ok {
			break
		}
		set.Preambles = append(set.Preambles, p)
		index = next
	}
	return &set, index
}

// RenderGitHeader formats a "diff --git a/x b/x" line.
func RenderGitHeader(beforePath, afterPath string) string {
	return fmt.Sprintf("diff --git a/%s b/%s\n", beforePath, afterPath)
}

// RenderIndexLine formats an "index oldhash..newhash mode" extras line.
func RenderIndexLine(oldHash, newHash string, mode int) string {
	if mode == 0 {
		return fmt.Sprintf("index %s..%s\n", oldHash, newHash)
	}
	return fmt.Sprintf("index %s..%s %s\n", oldHash, newHash, modeOctal(mode))
}

func modeOctal(mode int) string {
	return fmt.Sprintf("%06o", mode)
}

// RenderModeLines formats the "old mode"/"new mode" or "new file
// mode"/"deleted file mode" extras lines for a mode change between
// beforeMode and afterMode (either may be 0 for "absent").
func RenderModeLines(beforeMode, afterMode int) []string {
	switch {
	case beforeMode == 0 && afterMode != 0:
		return []string{fmt.Sprintf("new file mode %s\n", modeOctal(afterMode))}
	case beforeMode != 0 && afterMode == 0:
		return []string{fmt.Sprintf("deleted file mode %s\n", modeOctal(beforeMode))}
	case beforeMode != afterMode:
		return []string{
			fmt.Sprintf("old mode %s\n", modeOctal(beforeMode)),
			fmt.Sprintf("new mode %s\n", modeOctal(afterMode)),
		}
	default:
		return nil
	}
}
