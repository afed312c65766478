// Package hunk models a single diff hunk abstractly enough that the
// unified and context diff formats can share one fuzzy-application
// algorithm. Grounded on a_diff.py's AbstractChunk/AbstractHunk/
// AbstractDiff: every concrete hunk type (internal/unified, internal/
// contextdiff) converts itself to an Abstract via ToAbstract, and
// internal/apply operates only on Abstracts.
package hunk

import "patchlib/internal/lines"

// Chunk is one side (before or after) of a hunk: the line index it starts
// at in its own file's coordinate space, and its literal content.
type Chunk struct {
	StartIndex int
	Lines      lines.Buffer
}

// MatchesLines reports whether target contains this chunk's lines
// starting at StartIndex+offset.
func (c Chunk) MatchesLines(target lines.Buffer, offset int) bool {
	return target.ContainsAt(c.Lines, c.StartIndex+offset)
}

// FindFirstIn returns the first index at which this chunk's lines occur
// in target, or -1.
func (c Chunk) FindFirstIn(target lines.Buffer) int {
	return target.FindFirst(c.Lines, 0)
}

// AppliedPosn describes where a hunk ended up landing in the output,
// as a 1-based, inclusive line range for human-readable messages.
type AppliedPosn struct {
	StartPosn int
	Length    int
}

func (a AppliedPosn) String() string {
	if a.Length > 1 {
		return itoa(a.StartPosn) + "-" + itoa(a.StartPosn+a.Length-1)
	}
	return itoa(a.StartPosn)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Abstract is a single hunk reduced to its before/after chunks plus the
// amount of unchanged context at each end, which is all the fuzzy
// applier needs regardless of source dialect.
type Abstract struct {
	Before        Chunk
	After         Chunk
	PreContextLen  int
	PostContextLen int
}

// GetBeforeCompromisedPosn searches target (starting at offset) for a
// position where this hunk's before-chunk matches after reducing leading
// and/or trailing context by up to fuzzFactor lines. Returns the match
// start index and the context reductions applied, or ok=false if no
// position was found even at maximum reduction.
func (h Abstract) GetBeforeCompromisedPosn(target lines.Buffer, offset, fuzzFactor int) (startIndex, preRedn, postRedn int, ok bool) {
	maxRedn := h.PreContextLen
	if h.PostContextLen > maxRedn {
		maxRedn = h.PostContextLen
	}
	if fuzzFactor < maxRedn {
		maxRedn = fuzzFactor
	}
	for redn := 0; redn <= maxRedn; redn++ {
		preRedn = redn
		if preRedn > h.PreContextLen {
			preRedn = h.PreContextLen
		}
		postRedn = redn
		if postRedn > h.PostContextLen {
			postRedn = h.PostContextLen
		}
		sub := h.Before.Lines.Slice(preRedn, h.Before.Lines.Len()-postRedn)
		idx := target.FindFirst(sub, offset)
		if idx != -1 {
			return idx, preRedn, postRedn, true
		}
	}
	return 0, 0, 0, false
}

// GetBeforeAppliedPosn computes the 1-based applied-position range of
// this hunk's before-side content, given where its output ended (endPosn,
// a line count) and the trailing-context reduction that was used.
func (h Abstract) GetBeforeAppliedPosn(endPosn, postContextRedn int) AppliedPosn {
	numLines := h.After.Lines.Len() - h.PreContextLen - h.PostContextLen
	startPosn := endPosn - numLines - (h.PostContextLen - postContextRedn) + 1
	return AppliedPosn{StartPosn: startPosn, Length: numLines}
}

// IsAlreadyAppliedForward reports whether this hunk's after-chunk is
// already present in target at the position its before-chunk would have
// mapped to, meaning the hunk has no remaining work to do.
func (h Abstract) IsAlreadyAppliedForward(target lines.Buffer, offset int) bool {
	frOffset := h.Before.StartIndex - h.After.StartIndex
	return h.After.MatchesLines(target, frOffset+offset)
}

// Reversed swaps this hunk's before and after chunks, turning a
// forward-application abstract into the one needed to apply the diff's
// inverse (patched text back to original).
func (h Abstract) Reversed() Abstract {
	return Abstract{
		Before:         h.After,
		After:          h.Before,
		PreContextLen:  h.PreContextLen,
		PostContextLen: h.PostContextLen,
	}
}

// Hunk is implemented by every concrete diff-format hunk type so that
// internal/apply can operate on a uniform representation.
type Hunk interface {
	ToAbstract() Abstract
	Header() string
	Render() lines.Buffer
}
