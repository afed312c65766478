// Package patch assembles the full document model patchlib exposes to
// callers: a Diff (one file's unified/context/git-binary change, plus
// any preamble), a DiffPlus (a Diff with its preambles and trailing
// junk), and a Patch (an optional header plus every DiffPlus in the
// file). Grounded on patches.py's DiffPlus/Patch and diffs.py's
// get_diff_at dispatch order.
package patch

import (
	"fmt"

	"patchlib/internal/apply"
	"patchlib/internal/contextdiff"
	"patchlib/internal/diag"
	"patchlib/internal/diffstat"
	"patchlib/internal/gitbinary"
	"patchlib/internal/hunk"
	"patchlib/internal/lines"
	"patchlib/internal/pathutil"
	"patchlib/internal/unified"
)

// Format identifies which dialect a Diff's body is written in.
type Format string

const (
	FormatUnified   Format = "unified"
	FormatContext   Format = "context"
	FormatGitBinary Format = "git_binary"
)

// Diff is one file's change, independent of any preamble that introduced
// it: the before/after file-header lines (absent for git-binary) and the
// parsed hunks or binary payload.
type Diff struct {
	Format Format

	BeforePath      string
	BeforeTimestamp string
	AfterPath       string
	AfterTimestamp  string

	UnifiedHunks []*unified.Hunk
	ContextHunks []*contextdiff.Hunk
	GitBinary    *gitbinary.Diff
}

// Pair returns this diff's before/after path pair as reported by its own
// file-header lines (not any enclosing preamble).
func (d *Diff) Pair() pathutil.Pair {
	return pathutil.Pair{Before: d.BeforePath, After: d.AfterPath}
}

// Outcome classifies this diff using its own path pair.
func (d *Diff) Outcome() pathutil.Outcome {
	return pathutil.FileOutcomeOfPair(d.Pair())
}

// abstractHunks reduces every hunk in d to the shared fuzzy-apply model.
func (d *Diff) abstractHunks() []hunk.Abstract {
	var out []hunk.Abstract
	switch d.Format {
	case FormatUnified:
		for _, h := range d.UnifiedHunks {
			out = append(out, h.ToAbstract())
		}
	case FormatContext:
		for _, h := range d.ContextHunks {
			out = append(out, h.ToAbstract())
		}
	}
	return out
}

// Apply applies this diff's hunks to target text, returning the patched
// lines and the worst severity encountered. When reverse is true, the
// diff's inverse is applied instead (patched text back to original).
// Git-binary diffs are applied via their own delta/literal payload
// rather than the hunk applier.
func (d *Diff) Apply(target lines.Buffer, filePath string, reverse bool, sink diag.Sink) (apply.Result, error) {
	if d.Format == FormatGitBinary {
		payload := d.GitBinary.Forward
		if reverse {
			if d.GitBinary.Reverse == nil {
				return apply.Result{}, fmt.Errorf("%s: git binary diff has no reverse payload", filePath)
			}
			payload = d.GitBinary.Reverse
		}
		raw, err := payload.Decompress()
		if err != nil {
			return apply.Result{}, err
		}
		if payload.Method == gitbinary.Delta {
			raw, err = gitbinary.ApplyDelta(target.Join(), raw)
			if err != nil {
				return apply.Result{}, err
			}
		}
		return apply.Result{Ecode: apply.OK, Lines: lines.Split(raw)}, nil
	}
	abstracts := d.abstractHunks()
	if reverse {
		for i, a := range abstracts {
			abstracts[i] = a.Reversed()
		}
	}
	return apply.Forward(abstracts, target, filePath, sink), nil
}

// ApplyForwards is Apply with reverse=false.
func (d *Diff) ApplyForwards(target lines.Buffer, filePath string, sink diag.Sink) (apply.Result, error) {
	return d.Apply(target, filePath, false, sink)
}

// DiffStats aggregates the diffstat counters across every hunk in d.
func (d *Diff) DiffStats() *diffstat.Stats {
	s := diffstat.NewStats()
	switch d.Format {
	case FormatUnified:
		for _, h := range d.UnifiedHunks {
			s = s.Add(h.DiffStats())
		}
	case FormatContext:
		for _, h := range d.ContextHunks {
			s = s.Add(h.DiffStats())
		}
	}
	return s
}

// GetDiffAt tries, in order, unified, git-binary, then context diffs,
// matching diffs.py's "ordered by likelihood of being encountered"
// comment. ok is false if none matched at index.
func GetDiffAt(buf lines.Buffer, index int) (d *Diff, next int, ok bool, err error) {
	if d, next, ok := getUnifiedDiffAt(buf, index); ok {
		return d, next, true, nil
	}
	if gb, next, ok, gerr := gitbinary.GetDiffAt(buf, index); gerr != nil {
		return nil, index, false, gerr
	} else if ok {
		return &Diff{Format: FormatGitBinary, GitBinary: gb}, next, true, nil
	}
	if d, next, ok, cerr := getContextDiffAt(buf, index); cerr != nil {
		return nil, index, false, cerr
	} else if ok {
		return d, next, true, nil
	}
	return nil, index, false, nil
}

func getUnifiedDiffAt(buf lines.Buffer, index int) (*Diff, int, bool) {
	before, next, ok := unified.GetBeforeFileDataAt(buf, index)
	if !ok {
		return nil, index, false
	}
	after, next2, ok := unified.GetAfterFileDataAt(buf, next)
	if !ok {
		return nil, index, false
	}
	index = next2
	var hunks []*unified.Hunk
	for {
		h, nextIdx, hok, _ := unified.GetHunkAt(buf, index)
		if !hok {
			break
		}
		hunks = append(hunks, h)
		index = nextIdx
	}
	if len(hunks) == 0 {
		return nil, index, false
	}
	return &Diff{
		Format:          FormatUnified,
		BeforePath:      before.Path,
		BeforeTimestamp: before.Timestamp,
		AfterPath:       after.Path,
		AfterTimestamp:  after.Timestamp,
		UnifiedHunks:    hunks,
	}, index, true
}

func getContextDiffAt(buf lines.Buffer, index int) (*Diff, int, bool, error) {
	before, next, ok := contextdiff.GetBeforeFileDataAt(buf, index)
	if !ok {
		return nil, index, false, nil
	}
	after, next2, ok := contextdiff.GetAfterFileDataAt(buf, next)
	if !ok {
		return nil, index, false, nil
	}
	index = next2
	var hunks []*contextdiff.Hunk
	for {
		h, nextIdx, hok, herr := contextdiff.GetHunkAt(buf, index)
		if herr != nil {
			return nil, index, false, herr
		}
		if !hok {
			break
		}
		hunks = append(hunks, h)
		index = nextIdx
	}
	if len(hunks) == 0 {
		return nil, index, false, nil
	}
	return &Diff{
		Format:          FormatContext,
		BeforePath:      before.Path,
		BeforeTimestamp: before.Timestamp,
		AfterPath:       after.Path,
		AfterTimestamp:  after.Timestamp,
		ContextHunks:    hunks,
	}, index, true, nil
}
