package patch

import (
	"crypto/sha1"

	"patchlib/internal/diffstat"
	"patchlib/internal/lines"
	"patchlib/internal/pathutil"
	"patchlib/internal/preamble"
)

// DiffPlus is one file's diff together with whatever preambles
// introduced it and any trailing junk (quilt separators, stray blank
// lines) that followed it before the next recognised diff or end of
// input. Grounded on patches.py's DiffPlus.
type DiffPlus struct {
	Preambles    *preamble.Set
	Diff         *Diff
	TrailingJunk lines.Buffer
}

// GetDiffPlusAt parses preambles, then a diff, starting at index. A
// DiffPlus with a nil Diff is returned when preambles were found but no
// diff followed (e.g. a rename-only git preamble with no content
// change); ok is false only when nothing recognisable starts at index.
func GetDiffPlusAt(buf lines.Buffer, index int) (dp *DiffPlus, next int, ok bool, err error) {
	set, afterPreamble := preamble.GetSetAt(buf, index)
	if afterPreamble >= buf.Len() {
		if len(set.Preambles) > 0 {
			return &DiffPlus{Preambles: set}, afterPreamble, true, nil
		}
		return nil, index, false, nil
	}
	d, nextIdx, dok, derr := GetDiffAt(buf, afterPreamble)
	if derr != nil {
		return nil, afterPreamble, false, derr
	}
	if !dok {
		if len(set.Preambles) > 0 {
			return &DiffPlus{Preambles: set}, afterPreamble, true, nil
		}
		return nil, index, false, nil
	}
	return &DiffPlus{Preambles: set, Diff: d}, nextIdx, true, nil
}

// FilePath resolves this entry's target path: the diff's own file-header
// pair takes precedence, falling back to whatever the preamble set
// resolves to via preamble.PathPrecedence.
func (dp *DiffPlus) FilePath(strip pathutil.StripFunc) (string, error) {
	if dp.Diff != nil {
		path, err := pathutil.FilePathOfPair(dp.Diff.Pair(), strip)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
	}
	pair, _, ok := dp.Preambles.ResolvedPath()
	if !ok {
		return "", nil
	}
	return pathutil.FilePathOfPair(pair, strip)
}

// FilePathPlus resolves this entry's target path with add/extant/delete
// status, preferring the diff's own pair and falling back to the
// preamble set, then borrowing a rename/copy source path (ExPath) from
// ExPathPrecedence when the file was added.
func (dp *DiffPlus) FilePathPlus(strip pathutil.StripFunc) (*pathutil.FilePathPlus, error) {
	var fpp *pathutil.FilePathPlus
	var err error
	if dp.Diff != nil {
		fpp, err = pathutil.FilePathPlusOfPair(dp.Diff.Pair(), strip)
		if err != nil {
			return nil, err
		}
	}
	if fpp == nil {
		pair, _, ok := dp.Preambles.ResolvedPath()
		if !ok {
			return nil, nil
		}
		fpp, err = pathutil.FilePathPlusOfPair(pair, strip)
		if err != nil {
			return nil, err
		}
	}
	if fpp != nil && fpp.Status == pathutil.StatusAdded && fpp.ExPath == "" {
		if expath, _, ok := dp.Preambles.ResolvedExPath(); ok {
			stripped, serr := strip(expath)
			if serr == nil {
				fpp.ExPath = stripped
			}
		}
	}
	return fpp, nil
}

// Outcome classifies this entry, preferring the diff's own pair.
func (dp *DiffPlus) Outcome() pathutil.Outcome {
	if dp.Diff != nil {
		return dp.Diff.Outcome()
	}
	if pair, _, ok := dp.Preambles.ResolvedPath(); ok {
		return pathutil.FileOutcomeOfPair(pair)
	}
	return pathutil.Modified
}

// DiffStats returns this entry's diffstat counters, zero if it carries
// no diff body (preamble-only entries such as pure renames).
func (dp *DiffPlus) DiffStats() *diffstat.Stats {
	if dp.Diff == nil {
		return diffstat.NewStats()
	}
	return dp.Diff.DiffStats()
}

// Render reassembles this entry's text: every preamble's raw lines, the
// diff body, and the trailing junk. The diff body's file-header lines are
// rebuilt from the parsed paths alone ("--- "/"+++ " for unified, "*** "/
// "--- " for context), so timestamps, quoting and any other text on those
// lines are not reproduced; the hunks come from Render on each hunk type.
func (dp *DiffPlus) Render() lines.Buffer {
	var out lines.Buffer
	for _, p := range dp.Preambles.Preambles {
		out = append(out, p.Raw...)
	}
	if dp.Diff != nil {
		out = append(out, renderDiffBody(dp.Diff)...)
	}
	out = append(out, dp.TrailingJunk...)
	return out
}

func renderDiffBody(d *Diff) lines.Buffer {
	var out lines.Buffer
	switch d.Format {
	case FormatUnified:
		out = append(out, lines.Line("--- "+d.BeforePath+"\n"), lines.Line("+++ "+d.AfterPath+"\n"))
		for _, h := range d.UnifiedHunks {
			out = append(out, h.Render()...)
		}
	case FormatContext:
		out = append(out, lines.Line("*** "+d.BeforePath+"\n"), lines.Line("--- "+d.AfterPath+"\n"))
		for _, h := range d.ContextHunks {
			out = append(out, h.Render()...)
		}
	case FormatGitBinary:
		out = append(out, d.GitBinary.Render()...)
	}
	return out
}

// HashDigest returns the SHA-1 digest of this entry's rendered text, used
// to fingerprint a DiffPlus the way Patch.get_hash_digest does for the
// whole file.
func (dp *DiffPlus) HashDigest() [20]byte {
	return sha1.Sum(dp.Render().Join())
}
