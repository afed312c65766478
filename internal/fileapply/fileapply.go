// Package fileapply drives applying a Patch's entries against real files
// on disk: reading the target, applying forwards or in reverse, and
// writing the result back (or removing the file on a clean delete).
// Grounded on unified_diff.py/context_diff.py's apply_to_file methods,
// adapted from their single-file scope to drive every entry in a Patch.
package fileapply

import (
	"fmt"
	"os"
	"path/filepath"

	"patchlib/internal/apply"
	"patchlib/internal/diag"
	"patchlib/internal/lines"
	"patchlib/internal/patch"
	"patchlib/internal/pathutil"
)

// ExternalPatch is the hook a caller can supply to fall back to running
// the real `patch(1)` binary when this package's own fuzzy applier
// can't place a hunk cleanly, mirroring
// pd_utils.apply_diff_to_text_using_patch's role as a last resort.
type ExternalPatch func(original []byte, diffText []byte) (patched []byte, stderr string, err error)

// Options configures a Driver.
type Options struct {
	// Dir is the directory entry paths are resolved relative to.
	Dir string
	// StripLevel is the -pN level used to resolve each entry's path; -1
	// asks the Patch for its own estimated/default level.
	StripLevel int
	// Reverse applies each entry's inverse (after→before) instead of
	// forwards.
	Reverse bool
	// Sink receives per-hunk diagnostics (merged/already-applied/
	// conflict messages).
	Sink diag.Sink
	// External, if non-nil, is invoked when a hunk could not be applied
	// even fuzzily.
	External ExternalPatch
}

// FileResult reports the outcome of applying one entry.
type FileResult struct {
	Path   string
	Ecode  apply.Ecode
	Action string // "modified", "created" or "deleted"
}

// Driver applies a Patch's entries to files under Options.Dir.
type Driver struct {
	Opts Options
}

// NewDriver returns a Driver configured with opts, defaulting a nil Sink
// to a discarding one.
func NewDriver(opts Options) *Driver {
	if opts.Sink == nil {
		opts.Sink = diag.Discard
	}
	return &Driver{Opts: opts}
}

// ApplyAll applies every entry of p in order, returning one FileResult
// per entry that carried an applicable diff.
func (d *Driver) ApplyAll(p *patch.Patch) ([]FileResult, error) {
	var results []FileResult
	for _, entry := range p.Entries {
		if entry.Diff == nil {
			continue
		}
		res, err := d.applyEntry(p, entry)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Driver) applyEntry(p *patch.Patch, entry *patch.DiffPlus) (FileResult, error) {
	strip := pathutil.StripLevel(p.AdjustedStripLevel(d.Opts.StripLevel))
	targetPath, err := entry.FilePath(strip)
	if err != nil {
		return FileResult{}, err
	}
	fullPath := targetPath
	if d.Opts.Dir != "" {
		fullPath = filepath.Join(d.Opts.Dir, targetPath)
	}

	outcome := entry.Outcome()
	if d.Opts.Reverse {
		outcome = reverseOutcome(outcome)
	}

	original, readErr := os.ReadFile(fullPath)
	if readErr != nil {
		if !os.IsNotExist(readErr) {
			return FileResult{}, fmt.Errorf("reading %s: %w", fullPath, readErr)
		}
		original = nil
	}

	targetLines := lines.Split(original)
	res, applyErr := entry.Diff.Apply(targetLines, targetPath, d.Opts.Reverse, d.Opts.Sink)
	if applyErr != nil {
		return FileResult{}, applyErr
	}

	if res.Ecode == apply.Error && d.Opts.External != nil {
		patched, stderr, extErr := d.Opts.External(original, entry.Render().Join())
		if extErr == nil {
			res = apply.Result{Ecode: apply.OK, Lines: lines.Split(patched)}
			if stderr != "" {
				d.Opts.Sink.WriteLine(stderr)
			}
		}
	}

	finalText := res.Lines.Join()
	action := "modified"
	switch {
	case outcome == pathutil.Deleted && len(finalText) == 0:
		action = "deleted"
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			return FileResult{}, fmt.Errorf("removing %s: %w", fullPath, err)
		}
	case outcome == pathutil.Created:
		action = "created"
		if err := writeFile(fullPath, finalText); err != nil {
			return FileResult{}, err
		}
	default:
		if err := writeFile(fullPath, finalText); err != nil {
			return FileResult{}, err
		}
	}

	return FileResult{Path: targetPath, Ecode: res.Ecode, Action: action}, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	tmp := path + ".patchlib.tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming into place %s: %w", path, err)
	}
	return nil
}

func reverseOutcome(o pathutil.Outcome) pathutil.Outcome {
	switch o {
	case pathutil.Created:
		return pathutil.Deleted
	case pathutil.Deleted:
		return pathutil.Created
	default:
		return pathutil.Modified
	}
}
