// Package unified parses and renders unified-format diff hunks (the
// "--- a/x\n+++ b/x\n@@ -1,3 +1,3 @@" style produced by `diff -u` and
// `git diff`). Grounded on unified_diff.py's UnifiedDiff/UnifiedDiffHunk.
package unified

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"patchlib/internal/diffstat"
	"patchlib/internal/hunk"
	"patchlib/internal/lines"
	"patchlib/internal/pathutil"
	"patchlib/internal/perr"
)

// pathREStr matches either a double-quoted path or a bare whitespace-free
// token, mirroring PATH_RE_STR.
const pathREStr = `"([^"]+)"|(\S+)`

const (
	timestampREStr    = `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d{9})? [-+]\d{4}`
	altTimestampREStr = `[A-Z][a-z]{2} [A-Z][a-z]{2} \d{2} \d{2}:\d{2}:\d{2} \d{4} [-+]\d{4}`
)

var eitherTimestampREStr = "(" + timestampREStr + "|" + altTimestampREStr + ")"

var (
	beforeFileRE = regexp.MustCompile(`^--- (` + pathREStr + `)(\s+` + eitherTimestampREStr + `)?(.*)$`)
	afterFileRE  = regexp.MustCompile(`^\+\+\+ (` + pathREStr + `)(\s+` + eitherTimestampREStr + `)?(.*)$`)
	hunkDataRE   = regexp.MustCompile(`^@@\s+-(\d+)(,(\d+))?\s+\+(\d+)(,(\d+))?\s+@@\s*(.*)$`)
)

// FileHeader is a parsed "--- path timestamp" or "+++ path timestamp" line.
type FileHeader struct {
	Path      string
	Timestamp string
}

func fileDataAt(re *regexp.Regexp, buf lines.Buffer, index int) (*FileHeader, int, bool) {
	if index >= buf.Len() {
		return nil, index, false
	}
	m := re.FindStringSubmatch(buf.At(index).TrimTerminator())
	if m == nil {
		return nil, index, false
	}
	// groups: 1=whole path alt, 2=quoted, 3=bare, 4=ts-with-space, 5=ts
	path := m[2]
	if path == "" {
		path = m[3]
	}
	return &FileHeader{Path: path, Timestamp: strings.TrimSpace(m[5])}, index + 1, true
}

// GetBeforeFileDataAt parses a "--- ..." line at index.
func GetBeforeFileDataAt(buf lines.Buffer, index int) (*FileHeader, int, bool) {
	return fileDataAt(beforeFileRE, buf, index)
}

// GetAfterFileDataAt parses a "+++ ..." line at index.
func GetAfterFileDataAt(buf lines.Buffer, index int) (*FileHeader, int, bool) {
	return fileDataAt(afterFileRE, buf, index)
}

// chunkPos is a (start-line, length) pair in one side's coordinate space.
type chunkPos struct {
	Start, Length int
}

// Hunk is one "@@ -a,b +c,d @@" block plus its body lines.
type Hunk struct {
	Raw    lines.Buffer
	Before chunkPos
	After  chunkPos
}

var _ hunk.Hunk = (*Hunk)(nil)

// Header renders this hunk's "@@ ... @@" line.
func (h *Hunk) Header() string {
	return fmt.Sprintf("@@ -%s +%s @@", formatChunkPos(h.Before), formatChunkPos(h.After))
}

func formatChunkPos(c chunkPos) string {
	if c.Length == 1 {
		return strconv.Itoa(c.Start)
	}
	return fmt.Sprintf("%d,%d", c.Start, c.Length)
}

// Render returns this hunk's full text, header line included.
func (h *Hunk) Render() lines.Buffer {
	return h.Raw
}

// ToAbstract reduces this hunk to the before/after chunk pair the fuzzy
// applier needs, counting leading and trailing unchanged-context lines.
func (h *Hunk) ToAbstract() hunk.Abstract {
	var before, after lines.Buffer
	preCtx, postCtx := 0, 0
	sawChange := false
	for _, ln := range h.Raw.Slice(1, h.Raw.Len()) {
		text := string(ln)
		if strings.HasPrefix(text, "\\") {
			continue
		}
		body := text[1:]
		switch text[0] {
		case '-':
			before = append(before, lines.Line(body))
			sawChange = true
			postCtx = 0
		case '+':
			after = append(after, lines.Line(body))
			sawChange = true
			postCtx = 0
		case ' ':
			before = append(before, lines.Line(body))
			after = append(after, lines.Line(body))
			if !sawChange {
				preCtx++
			} else {
				postCtx++
			}
		}
	}
	beforeStart := h.Before.Start - 1
	if len(before) == 0 {
		beforeStart = h.Before.Start
	}
	afterStart := h.After.Start - 1
	if len(after) == 0 {
		afterStart = h.After.Start
	}
	return hunk.Abstract{
		Before:         hunk.Chunk{StartIndex: beforeStart, Lines: before},
		After:          hunk.Chunk{StartIndex: afterStart, Lines: after},
		PreContextLen:  preCtx,
		PostContextLen: postCtx,
	}
}

// DiffStats returns the diffstat counters for this hunk's additions and
// removals.
func (h *Hunk) DiffStats() *diffstat.Stats {
	s := diffstat.NewStats()
	for _, ln := range h.Raw.Slice(1, h.Raw.Len()) {
		text := string(ln)
		switch {
		case strings.HasPrefix(text, "-"):
			s.Incr(diffstat.Deleted)
		case strings.HasPrefix(text, "+"):
			s.Incr(diffstat.Inserted)
		}
	}
	return s
}

// GetHunkAt parses one hunk starting at index, returning the hunk and the
// index of the first line past it. ok is false if index does not start a
// unified hunk.
func GetHunkAt(buf lines.Buffer, index int) (h *Hunk, next int, ok bool, err error) {
	if index >= buf.Len() {
		return nil, index, false, nil
	}
	m := hunkDataRE.FindStringSubmatch(buf.At(index).TrimTerminator())
	if m == nil {
		return nil, index, false, nil
	}
	startIndex := index
	beforeStart, _ := strconv.Atoi(m[1])
	beforeLength := 1
	if m[3] != "" {
		beforeLength, _ = strconv.Atoi(m[3])
	}
	afterStart, _ := strconv.Atoi(m[4])
	afterLength := 1
	if m[6] != "" {
		afterLength, _ = strconv.Atoi(m[6])
	}
	index++
	beforeCount, afterCount := 0, 0
	for beforeCount < beforeLength || afterCount < afterLength {
		if index >= buf.Len() {
			return nil, index, false, &perr.UnexpectedEndOfPatch{Line: startIndex, Wanted: "unified diff hunk body"}
		}
		line := string(buf.At(index))
		switch {
		case strings.HasPrefix(line, "-"):
			beforeCount++
		case strings.HasPrefix(line, "+"):
			afterCount++
		case strings.HasPrefix(line, " "):
			beforeCount++
			afterCount++
		case strings.HasPrefix(line, "\\"):
			// "\ No newline at end of file" markers don't count.
		default:
			return nil, index, false, perr.NewParseError(index, "unexpected end of unified diff hunk")
		}
		index++
	}
	if index < buf.Len() && strings.HasPrefix(string(buf.At(index)), "\\") {
		index++
	}
	return &Hunk{
		Raw:    buf.Slice(startIndex, index).Clone(),
		Before: chunkPos{Start: beforeStart, Length: beforeLength},
		After:  chunkPos{Start: afterStart, Length: afterLength},
	}, index, true, nil
}

// RenderFileHeader formats one file-header line: marker, a space, path
// and, when timestamp is non-empty, a tab and the timestamp. No newline is
// appended, and pair is not used.
func RenderFileHeader(marker string, pair pathutil.Pair, path, timestamp string) string {
	if timestamp == "" {
		return fmt.Sprintf("%s %s", marker, path)
	}
	return fmt.Sprintf("%s %s\t%s", marker, path, timestamp)
}
