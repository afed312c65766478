// Package contextdiff parses and renders context-format diff hunks (the
// "*** 1,3 ****\n--- 1,3 ----" style produced by `diff -c`). Grounded on
// context_diff.py's ContextDiff/ContextDiffHunk.
package contextdiff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"patchlib/internal/diffstat"
	"patchlib/internal/hunk"
	"patchlib/internal/lines"
	"patchlib/internal/perr"
)

const (
	pathREStr         = `"([^"]+)"|(\S+)`
	timestampREStr    = `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d{9})? [-+]\d{4}`
	altTimestampREStr = `[A-Z][a-z]{2} [A-Z][a-z]{2} \d{2} \d{2}:\d{2}:\d{2} \d{4} [-+]\d{4}`
)

var eitherTimestampREStr = "(" + timestampREStr + "|" + altTimestampREStr + ")"

var (
	beforeFileRE = regexp.MustCompile(`^\*\*\* (` + pathREStr + `)(\s+` + eitherTimestampREStr + `)?$`)
	afterFileRE  = regexp.MustCompile(`^--- (` + pathREStr + `)(\s+` + eitherTimestampREStr + `)?$`)

	hunkStartRE  = regexp.MustCompile(`^\*{15}\s*(.*)$`)
	hunkBeforeRE = regexp.MustCompile(`^\*\*\*\s+(\d+)(,(\d+))?\s+\*\*\*\*\s*(.*)$`)
	hunkAfterRE  = regexp.MustCompile(`^---\s+(\d+)(,(\d+))?\s+----(.*)$`)
)

// FileHeader is a parsed "*** path timestamp" or "--- path timestamp" line.
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
	path := m[2]
	if path == "" {
		path = m[3]
	}
	return &FileHeader{Path: path, Timestamp: strings.TrimSpace(m[5])}, index + 1, true
}

// GetBeforeFileDataAt parses a "*** ..." line at index.
func GetBeforeFileDataAt(buf lines.Buffer, index int) (*FileHeader, int, bool) {
	return fileDataAt(beforeFileRE, buf, index)
}

// GetAfterFileDataAt parses a "--- ..." line at index.
func GetAfterFileDataAt(buf lines.Buffer, index int) (*FileHeader, int, bool) {
	return fileDataAt(afterFileRE, buf, index)
}

type chunkPos struct {
	Start, Length int
}

func chunkFromMatch(m []string) chunkPos {
	start, _ := strconv.Atoi(m[1])
	finish := start
	if m[3] != "" {
		finish, _ = strconv.Atoi(m[3])
	}
	length := 0
	if !(start == 0 && finish == 0) {
		length = finish - start + 1
	}
	return chunkPos{Start: start, Length: length}
}

// sideSpan locates one side (before/after) of a hunk within its raw lines:
// Offset is the line index (relative to the hunk's first line) its marker
// line occupies, NumLines is the count of lines belonging to that side
// including its marker.
type sideSpan struct {
	Offset, Start, Length, NumLines int
}

// Hunk is one context-diff change block: a "***" separator, a "*** a,b
// ****" before-marker and body, and a "--- c,d ----" after-marker and body.
type Hunk struct {
	Raw    lines.Buffer
	Before sideSpan
	After  sideSpan
}

var _ hunk.Hunk = (*Hunk)(nil)

// Header renders this hunk's "***************" separator line.
func (h *Hunk) Header() string { return "***************" }

// Render returns this hunk's full text.
func (h *Hunk) Render() lines.Buffer { return h.Raw }

func stripMarker(line string) string {
	if len(line) >= 2 {
		return line[2:]
	}
	return ""
}

// iterSideLines yields the content lines of buf[1:], optionally skipping
// lines starting with skip, and trimming a trailing bare newline when the
// following line is a "\ No newline..." marker.
func iterSideLines(buf lines.Buffer, skip string) []string {
	var out []string
	index := 1
	for index < buf.Len() {
		line := string(buf.At(index))
		if skip == "" || !strings.HasPrefix(line, skip) {
			body := stripMarker(line)
			if index+1 == buf.Len() || !strings.HasPrefix(string(buf.At(index+1)), "\\") {
				out = append(out, body)
			} else {
				out = append(out, strings.TrimRight(body, "\n"))
			}
		}
		index++
		if index < buf.Len() && strings.HasPrefix(string(buf.At(index)), "\\") {
			index++
		}
	}
	return out
}

// BeforeLines returns this hunk's "before" side content, following the
// single-line-hunk special case where an unchanged before side with no
// own lines borrows the '+' complement from the after side.
func (h *Hunk) BeforeLines() []string {
	if h.Before.NumLines == 0 {
		sub := h.Raw.Slice(h.After.Offset, h.After.Offset+h.After.NumLines)
		return iterSideLines(sub, "+")
	}
	sub := h.Raw.Slice(h.Before.Offset, h.Before.Offset+h.Before.NumLines)
	return iterSideLines(sub, "")
}

// AfterLines returns this hunk's "after" side content.
func (h *Hunk) AfterLines() []string {
	sub := h.Raw.Slice(h.After.Offset, h.After.Offset+h.After.NumLines)
	return iterSideLines(sub, "")
}

// ToAbstract reduces this hunk to the shared fuzzy-apply representation.
func (h *Hunk) ToAbstract() hunk.Abstract {
	bLines := h.BeforeLines()
	aLines := h.AfterLines()
	bStart := h.Before.Start - 1
	if len(bLines) == 0 {
		bStart = h.Before.Start
	}
	before := toLineBuffer(bLines)
	after := toLineBuffer(aLines)
	aStart := h.After.Start - 1
	if len(aLines) == 0 {
		aStart = h.After.Start
	}
	preCtx, postCtx, _ := contextCounts(h)
	return hunk.Abstract{
		Before:         hunk.Chunk{StartIndex: bStart, Lines: before},
		After:          hunk.Chunk{StartIndex: aStart, Lines: after},
		PreContextLen:  preCtx,
		PostContextLen: postCtx,
	}
}

func toLineBuffer(ss []string) lines.Buffer {
	out := make(lines.Buffer, len(ss))
	for i, s := range ss {
		out[i] = lines.Line(s)
	}
	return out
}

// contextCounts walks the after-side body (the side that always carries
// every context line) counting leading and trailing "  " marked lines.
func contextCounts(h *Hunk) (pre, post int, sawChange bool) {
	sub := h.Raw.Slice(h.After.Offset+1, h.After.Offset+h.After.NumLines)
	markers := make([]bool, len(sub))
	for i, ln := range sub {
		markers[i] = strings.HasPrefix(string(ln), "  ")
	}
	i := 0
	for i < len(markers) && markers[i] {
		pre++
		i++
	}
	j := len(markers) - 1
	for j >= i && markers[j] {
		post++
		j--
	}
	sawChange = post != len(markers)-pre || pre != len(markers)
	return pre, post, sawChange
}

// DiffStats returns the diffstat counters for this hunk.
func (h *Hunk) DiffStats() *diffstat.Stats {
	s := diffstat.NewStats()
	bSub := h.Raw.Slice(h.Before.Offset+1, h.Before.Offset+h.Before.NumLines)
	for _, ln := range bSub {
		text := string(ln)
		switch {
		case strings.HasPrefix(text, "- "):
			s.Incr(diffstat.Deleted)
		case strings.HasPrefix(text, "! "):
			s.Incr(diffstat.Modified)
		}
	}
	aSub := h.Raw.Slice(h.After.Offset+1, h.After.Offset+h.After.NumLines)
	for _, ln := range aSub {
		text := string(ln)
		switch {
		case strings.HasPrefix(text, "+ "):
			s.Incr(diffstat.Inserted)
		case strings.HasPrefix(text, "! "):
			s.Incr(diffstat.Modified)
		}
	}
	return s
}

// GetHunkAt parses one context-diff hunk starting at index.
func GetHunkAt(buf lines.Buffer, index int) (h *Hunk, next int, ok bool, err error) {
	if index >= buf.Len() || !hunkStartRE.MatchString(buf.At(index).TrimTerminator()) {
		return nil, index, false, nil
	}
	startIndex := index
	beforeStartIndex := index + 1
	if beforeStartIndex >= buf.Len() {
		return nil, index, false, &perr.UnexpectedEndOfPatch{Line: startIndex, Wanted: "context diff before-hunk"}
	}
	m := hunkBeforeRE.FindStringSubmatch(buf.At(beforeStartIndex).TrimTerminator())
	if m == nil {
		return nil, index, false, nil
	}
	beforeChunk := chunkFromMatch(m)
	index = beforeStartIndex + 1

	beforeCount, afterCount := 0, 0
	var afterChunk *chunkPos
	afterStartIndex := index
	for beforeCount < beforeChunk.Length {
		if index >= buf.Len() {
			return nil, index, false, &perr.UnexpectedEndOfPatch{Line: startIndex, Wanted: "context diff hunk body"}
		}
		afterStartIndex = index
		if am := hunkAfterRE.FindStringSubmatch(buf.At(index).TrimTerminator()); am != nil {
			c := chunkFromMatch(am)
			afterChunk = &c
			break
		}
		beforeCount++
		index++
	}
	if afterChunk == nil {
		if index < buf.Len() && strings.HasPrefix(string(buf.At(index)), `\ `) {
			beforeCount++
			index++
		}
		afterStartIndex = index
		if index >= buf.Len() {
			return nil, index, false, &perr.UnexpectedEndOfPatch{Line: startIndex, Wanted: "context diff after-hunk"}
		}
		if am := hunkAfterRE.FindStringSubmatch(buf.At(index).TrimTerminator()); am != nil {
			c := chunkFromMatch(am)
			afterChunk = &c
		} else {
			return nil, index, false, perr.NewParseError(index, "failed to find context diff after-hunk")
		}
	}
	index++
	for afterCount < afterChunk.Length {
		if index >= buf.Len() {
			return nil, index, false, &perr.UnexpectedEndOfPatch{Line: startIndex, Wanted: "context diff after-hunk body"}
		}
		line := string(buf.At(index))
		if !(strings.HasPrefix(line, "! ") || strings.HasPrefix(line, "+ ") || strings.HasPrefix(line, "  ")) {
			if afterCount == 0 {
				break
			}
			return nil, index, false, perr.NewParseError(index, "unexpected end of context diff hunk")
		}
		afterCount++
		index++
	}
	if index < buf.Len() && strings.HasPrefix(string(buf.At(index)), `\ `) {
		afterCount++
		index++
	}

	beforeSpan := sideSpan{
		Offset:   beforeStartIndex - startIndex,
		Start:    beforeChunk.Start,
		Length:   beforeChunk.Length,
		NumLines: afterStartIndex - beforeStartIndex,
	}
	afterSpan := sideSpan{
		Offset:   afterStartIndex - startIndex,
		Start:    afterChunk.Start,
		Length:   afterChunk.Length,
		NumLines: index - afterStartIndex,
	}
	return &Hunk{
		Raw:    buf.Slice(startIndex, index).Clone(),
		Before: beforeSpan,
		After:  afterSpan,
	}, index, true, nil
}

// RenderSeparator is the literal "***************" line every context
// hunk begins with.
func RenderSeparator() string { return "***************" }

// RenderBeforeMarker formats the "*** start,finish ****" marker line.
func RenderBeforeMarker(start, finish int) string {
	if start == finish {
		return fmt.Sprintf("*** %d ****", start)
	}
	return fmt.Sprintf("*** %d,%d ****", start, finish)
}

// RenderAfterMarker formats the "--- start,finish ----" marker line.
func RenderAfterMarker(start, finish int) string {
	if start == finish {
		return fmt.Sprintf("--- %d ----", start)
	}
	return fmt.Sprintf("--- %d,%d ----", start, finish)
}
