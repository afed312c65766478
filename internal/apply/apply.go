// Package apply implements the fuzzy forward-application algorithm shared
// by every diff dialect: given a sequence of abstract hunks and the
// original file content, produce the patched content plus a severity
// code describing how cleanly it went. Grounded line-for-line on
// a_diff.py's AbstractDiff.apply_forwards.
package apply

import (
	"fmt"

	"patchlib/internal/diag"
	"patchlib/internal/hunk"
	"patchlib/internal/lines"
)

// Ecode is the severity of an apply attempt, ordered so that max(a, b)
// picks the worse outcome, matching CmdResult.OK/WARNING/ERROR.
type Ecode int

const (
	OK Ecode = iota
	Warning
	Error
)

func worse(a, b Ecode) Ecode {
	if b > a {
		return b
	}
	return a
}

// FuzzFactor bounds how much leading/trailing hunk context may be
// discarded while searching for a fuzzy match, matching patch(1)'s
// default -F2.
const FuzzFactor = 2

// Result is the outcome of applying a diff to one file's content.
type Result struct {
	Ecode Ecode
	Lines lines.Buffer
}

// Forward applies hunks, in order, to target and returns the resulting
// lines plus the worst severity encountered. Diagnostics about merged,
// already-applied, or unmergeable hunks are written to sink as they
// occur; filePath labels those messages.
func Forward(hunks []hunk.Abstract, target lines.Buffer, filePath string, sink diag.Sink) Result {
	if sink == nil {
		sink = diag.Discard
	}
	var result lines.Buffer
	linesIndex := 0
	ecode := OK
	numDone := 0
	currentOffset := 0

	firstBeforeMismatch := func(skipping, offset int) int {
		for i := skipping; i < len(hunks); i++ {
			if !hunks[i].Before.MatchesLines(target, offset) {
				return i
			}
		}
		return -1
	}

	for numDone < len(hunks) {
		firstMismatch := firstBeforeMismatch(numDone, currentOffset)
		limit := len(hunks)
		if firstMismatch != -1 {
			limit = firstMismatch
		}
		for _, h := range hunks[numDone:limit] {
			result = append(result, target.Slice(linesIndex, h.Before.StartIndex+currentOffset)...)
			result = append(result, h.After.Lines...)
			linesIndex = h.Before.StartIndex + currentOffset + h.Before.Lines.Len()
			numDone++
		}
		if firstMismatch == -1 {
			break
		}
		ecode = worse(ecode, Warning)
		mHunk := hunks[firstMismatch]
		altStart, preRedn, postRedn, ok := mHunk.GetBeforeCompromisedPosn(target, linesIndex, FuzzFactor)
		switch {
		case ok:
			result = append(result, target.Slice(linesIndex, altStart)...)
			afterEnd := mHunk.After.Lines.Len()
			if postRedn != 0 {
				afterEnd -= postRedn
			}
			result = append(result, mHunk.After.Lines.Slice(preRedn, afterEnd)...)
			linesIndex = altStart + mHunk.Before.Lines.Len() - preRedn - postRedn
			currentOffset = altStart - mHunk.Before.StartIndex - preRedn
			sink.WriteLine(fmt.Sprintf("%s: Hunk #%d merged at %s.", filePath, firstMismatch+1,
				mHunk.GetBeforeAppliedPosn(len(result), postRedn)))
		case mHunk.IsAlreadyAppliedForward(target, currentOffset):
			end := mHunk.Before.StartIndex + currentOffset + mHunk.After.Lines.Len()
			result = append(result, target.Slice(linesIndex, end)...)
			linesIndex = end
			currentOffset += mHunk.After.Lines.Len() - mHunk.Before.Lines.Len()
			sink.WriteLine(fmt.Sprintf("%s: Hunk #%d already applied at %s.", filePath, firstMismatch+1,
				mHunk.GetBeforeAppliedPosn(len(result), 0)))
		default:
			ecode = worse(ecode, Error)
			beforeHLen := mHunk.Before.Lines.Len() - mHunk.PostContextLen
			if mHunk.Before.StartIndex+currentOffset+beforeHLen > target.Len() {
				if len(hunks)-numDone > 1 {
					sink.WriteLine(fmt.Sprintf("%s: Unexpected end of file: Hunks #%d-%d could NOT be applied.",
						filePath, numDone+1, len(hunks)))
				} else {
					sink.WriteLine(fmt.Sprintf("%s: Unexpected end of file: Hunk #%d could NOT be applied.",
						filePath, numDone+1))
				}
				numDone = len(hunks)
				goto done
			}
			result = append(result, target.Slice(linesIndex, mHunk.Before.StartIndex+currentOffset)...)
			linesIndex = mHunk.Before.StartIndex + currentOffset
			result = append(result, lines.Line("<<<<<<<\n"))
			startLine := len(result)
			result = append(result, target.Slice(linesIndex, linesIndex+beforeHLen)...)
			linesIndex += beforeHLen
			result = append(result, lines.Line("=======\n"))
			afterEnd := mHunk.After.Lines.Len()
			if mHunk.PostContextLen != 0 {
				afterEnd -= mHunk.PostContextLen
			}
			result = append(result, mHunk.After.Lines.Slice(0, afterEnd)...)
			result = append(result, lines.Line(">>>>>>>\n"))
			endLine := len(result)
			sink.WriteLine(fmt.Sprintf("%s: Hunk #%d NOT MERGED at %d-%d.", filePath, firstMismatch+1, startLine, endLine))
		}
		numDone++
	}
done:
	result = append(result, target.Slice(linesIndex, target.Len())...)
	return Result{Ecode: ecode, Lines: result}
}
