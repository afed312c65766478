// Package generate provides unified, context, and git-binary diff
// generation for a before/after byte pair. It uses
// github.com/pmezard/go-difflib/difflib as the underlying opcode differ
// for all three hand-rolled renderers; binary pairs are handed off to
// internal/gitbinary.
package generate

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"patchlib/internal/gitbinary"
	"patchlib/internal/textutil"
)

// Options controls patch generation behavior.
type Options struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded,
	// a minimal placeholder patch is returned and oversize=true.
	// 0 means "no limit".
	MaxBytes int

	// TimeoutSeconds kept for backward compatibility. difflib does not use it.
	TimeoutSeconds float64

	// Context controls the number of CONTEXT LINES in unified/context hunks.
	// If 0, default to 4.
	Context int

	// NoPrefix is not read by any renderer here: the paths passed by the
	// caller are always used as given, with no "a/" or "b/" added.
	NoPrefix bool

	// LineMode kept for backward compatibility (unified output is line-based).
	LineMode bool
}

// noNewlineMarker is the standard diff/patch annotation for a body line
// whose source content did not end in a newline.
const noNewlineMarker = "\\ No newline at end of file\n"

// writeContentLine writes prefix+line to out. The patch text itself is
// always newline-delimited, so a line lacking its own trailing "\n" (only
// possible for the last line of a or b) is terminated here and followed
// by the noNewlineMarker annotation.
func writeContentLine(out *strings.Builder, prefix, line string) {
	out.WriteString(prefix)
	noEOL := !strings.HasSuffix(line, "\n")
	out.Write(textutil.EnsureTrailingLF([]byte(line)))
	if noEOL {
		out.WriteString(noNewlineMarker)
	}
}

// Unified produces a classic unified patch for a↦b.
// Returns the patch body and a flag indicating it was omitted due to size.
func Unified(aName, bName string, a, b []byte, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && (len(a)+len(b)) > opt.MaxBytes {
		return omitted(aName, bName), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 4
	}
	ua := splitLinesKeepNL(string(a))
	ub := splitLinesKeepNL(string(b))
	body = renderUnified(aName, bName, ua, ub, ctx)
	if body == "" {
		return "", false
	}
	return body, false
}

// Added produces a patch that adds the entire content b (no old version).
func Added(bName string, b []byte, opt Options) (string, bool) {
	if opt.MaxBytes > 0 && len(b) > opt.MaxBytes {
		return omitted("/dev/null", bName), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 4
	}
	// Ensure no "b/" prefix in ToFile per policy.
	if strings.HasPrefix(bName, "b/") {
		bName = bName[2:]
	}
	ub := splitLinesKeepNL(string(b))
	body := renderUnified("/dev/null", bName, []string{}, ub, ctx)
	if body == "" {
		return "", false
	}
	return body, false
}

// renderUnified builds a "--- a\n+++ b\n@@ -a,b +c,d @@" style patch body
// from two already-split line slices, using difflib's SequenceMatcher for
// opcodes (the same matcher Context uses) so that both renderers agree on
// hunk boundaries. Hunk pieces are stitched together with
// textutil.JoinWithSingleNL, which guards against any piece failing to
// end in its own newline.
func renderUnified(aName, bName string, ua, ub []string, ctx int) string {
	matcher := difflib.NewMatcher(ua, ub)
	groups := matcher.GetGroupedOpCodes(ctx)
	if len(groups) == 0 {
		return ""
	}

	pieces := [][]byte{
		[]byte(fmt.Sprintf("--- %s\n", aName)),
		[]byte(fmt.Sprintf("+++ %s\n", bName)),
	}
	for _, group := range groups {
		var hunk strings.Builder
		first, last := group[0], group[len(group)-1]
		fmt.Fprintf(&hunk, "@@ -%s +%s @@\n",
			formatRangeUnified(first.I1, last.I2-first.I1),
			formatRangeUnified(first.J1, last.J2-first.J1))
		for _, op := range group {
			switch op.Tag {
			case 'e':
				for _, l := range ua[op.I1:op.I2] {
					writeContentLine(&hunk, " ", l)
				}
			case 'd':
				for _, l := range ua[op.I1:op.I2] {
					writeContentLine(&hunk, "-", l)
				}
			case 'i':
				for _, l := range ub[op.J1:op.J2] {
					writeContentLine(&hunk, "+", l)
				}
			case 'r':
				for _, l := range ua[op.I1:op.I2] {
					writeContentLine(&hunk, "-", l)
				}
				for _, l := range ub[op.J1:op.J2] {
					writeContentLine(&hunk, "+", l)
				}
			}
		}
		pieces = append(pieces, []byte(hunk.String()))
	}
	return string(textutil.JoinWithSingleNL(pieces...))
}

// formatRangeUnified renders one "@@" side's "start" or "start,length"
// component, matching GNU diff's convention: a one-line range is given as
// a bare line number, and a zero-length range reports the line it would
// be inserted before.
func formatRangeUnified(start, length int) string {
	beginning := start + 1
	if length == 0 {
		beginning--
	}
	if length == 1 {
		return fmt.Sprintf("%d", beginning)
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}

// Context produces a classic context-format patch ("diff -c" style) for
// a↦b, built on the same difflib.SequenceMatcher opcodes Unified uses,
// rendered through the "*** before ****"/"--- after ----" grouping
// instead of "@@ ... @@".
func Context(aName, bName string, a, b []byte, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && (len(a)+len(b)) > opt.MaxBytes {
		return omitted(aName, bName), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 4
	}
	ua := splitLinesKeepNL(string(a))
	ub := splitLinesKeepNL(string(b))

	matcher := difflib.NewMatcher(ua, ub)
	groups := matcher.GetGroupedOpCodes(ctx)
	if len(groups) == 0 {
		return "", false
	}

	pieces := [][]byte{
		[]byte(fmt.Sprintf("*** %s\n", aName)),
		[]byte(fmt.Sprintf("--- %s\n", bName)),
	}
	for _, group := range groups {
		var hunk strings.Builder
		hunk.WriteString("***************\n")
		first, last := group[0], group[len(group)-1]

		writeBeforeMarker(&hunk, first.I1, last.I2)
		if anyOpIsOrWasDeleteOrReplace(group) {
			for _, op := range group {
				switch op.Tag {
				case 'e':
					for _, l := range ua[op.I1:op.I2] {
						writeContentLine(&hunk, "  ", l)
					}
				case 'd', 'r':
					for _, l := range ua[op.I1:op.I2] {
						writeContentLine(&hunk, "- ", l)
					}
				}
			}
		}

		writeAfterMarker(&hunk, first.J1, last.J2)
		if anyOpIsOrWasInsertOrReplace(group) {
			for _, op := range group {
				switch op.Tag {
				case 'e':
					for _, l := range ub[op.J1:op.J2] {
						writeContentLine(&hunk, "  ", l)
					}
				case 'i', 'r':
					for _, l := range ub[op.J1:op.J2] {
						writeContentLine(&hunk, "+ ", l)
					}
				}
			}
		}
		pieces = append(pieces, []byte(hunk.String()))
	}
	return string(textutil.JoinWithSingleNL(pieces...)), false
}

func anyOpIsOrWasDeleteOrReplace(group []difflib.OpCode) bool {
	for _, op := range group {
		if op.Tag == 'd' || op.Tag == 'r' {
			return true
		}
	}
	return false
}

func anyOpIsOrWasInsertOrReplace(group []difflib.OpCode) bool {
	for _, op := range group {
		if op.Tag == 'i' || op.Tag == 'r' {
			return true
		}
	}
	return false
}

func writeBeforeMarker(out *strings.Builder, i1, i2 int) {
	start, finish := i1+1, i2
	if start > finish {
		fmt.Fprintf(out, "*** %d ****\n", finish)
	} else if start == finish {
		fmt.Fprintf(out, "*** %d ****\n", start)
	} else {
		fmt.Fprintf(out, "*** %d,%d ****\n", start, finish)
	}
}

func writeAfterMarker(out *strings.Builder, j1, j2 int) {
	start, finish := j1+1, j2
	if start > finish {
		fmt.Fprintf(out, "--- %d ----\n", finish)
	} else if start == finish {
		fmt.Fprintf(out, "--- %d ----\n", start)
	} else {
		fmt.Fprintf(out, "--- %d,%d ----\n", start, finish)
	}
}

// GitBinary produces a "GIT binary patch" block for a↦b when either side
// looks non-textual, or nil if the two are equal.
func GitBinary(a, b []byte) (*gitbinary.Diff, error) {
	return gitbinary.GenerateDiff(a, b)
}

// LooksBinary reports whether data contains a NUL byte in its first 8000
// bytes, the same heuristic git itself uses to decide whether a file
// needs a "GIT binary patch" instead of a textual diff.
func LooksBinary(data []byte) bool {
	n := len(data)
	if n > 8000 {
		n = 8000
	}
	for i := 0; i < n; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}

// splitLinesKeepNL splits s into lines, keeping each line's trailing "\n".
// A final line missing its "\n" (content not ending in a newline) is kept
// terminator-less so callers can detect it; the empty trailing element
// SplitAfter produces when s does end in "\n" is dropped, since it is not
// a real line.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// omitted returns a compact placeholder when size limits are exceeded.
func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", aName, bName)
}
