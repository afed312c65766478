// Package pathutil derives target file paths and outcomes (created,
// modified, deleted) from a diff's before/after path pair, and implements
// -pN strip-level logic. Grounded on pd_utils.py's file_path_fm_pair,
// file_outcome_fm_pair, FilePathPlus.fm_pair and gen_strip_level_function.
package pathutil

import (
	"strings"

	"patchlib/internal/perr"
)

// DevNull is the sentinel path used by unified/context/git diffs to mark a
// side of a pair as absent.
const DevNull = "/dev/null"

// IsNonNull reports whether path names a real file, as opposed to being
// empty or the /dev/null sentinel.
func IsNonNull(path string) bool {
	return path != "" && path != DevNull
}

// Outcome describes the expected effect of applying a diff to its target.
type Outcome int

const (
	Modified Outcome = 0
	Created  Outcome = 1
	Deleted  Outcome = -1
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	default:
		return "modified"
	}
}

// Pair holds the before/after paths reported by a diff's preamble or hunk
// header lines.
type Pair struct {
	Before string
	After  string
}

// StripFunc strips leading path components per a -pN style level.
type StripFunc func(path string) (string, error)

// NoStrip returns paths unchanged.
func NoStrip(path string) (string, error) { return path, nil }

// StripLevel returns a StripFunc that removes the first `level` leading
// path components, as patch(1)'s -pN option does. An absolute path (one
// starting with "/") is returned unchanged, matching gen_strip_level_function's
// treatment of os.sep-prefixed paths.
func StripLevel(level int) StripFunc {
	if level <= 0 {
		return NoStrip
	}
	return func(path string) (string, error) {
		if strings.HasPrefix(path, "/") {
			return path, nil
		}
		parts := strings.SplitN(path, "/", level+1)
		if len(parts) <= level {
			return "", &perr.TooManyStripLevels{Path: path, Strip: level}
		}
		return parts[level], nil
	}
}

// FilePathOfPair returns the effective target path for pair: the after
// path if non-null, else the before path, else "". strip is applied to
// whichever path is chosen.
func FilePathOfPair(pair Pair, strip StripFunc) (string, error) {
	if strip == nil {
		strip = NoStrip
	}
	if IsNonNull(pair.After) {
		return strip(pair.After)
	}
	if IsNonNull(pair.Before) {
		return strip(pair.Before)
	}
	return "", nil
}

// FileOutcomeOfPair classifies pair as a creation, deletion, or
// modification based on which side is /dev/null.
func FileOutcomeOfPair(pair Pair) Outcome {
	if pair.After == DevNull {
		return Deleted
	}
	if pair.Before == DevNull {
		return Created
	}
	return Modified
}

// FilePathPlus is a stripped target path annotated with its add/extant/
// delete status, as produced when summarising a Patch's affected files.
type FilePathPlus struct {
	Path   string
	Status byte
	ExPath string
}

const (
	StatusAdded  byte = '+'
	StatusExtant byte = ' '
	StatusDeleted byte = '-'
)

// FilePathPlusOfPair mirrors FilePathPlus.fm_pair: nil if both sides are
// null, else a FilePathPlus carrying the stripped path and status.
func FilePathPlusOfPair(pair Pair, strip StripFunc) (*FilePathPlus, error) {
	if strip == nil {
		strip = NoStrip
	}
	if IsNonNull(pair.After) {
		path, err := strip(pair.After)
		if err != nil {
			return nil, err
		}
		status := byte(StatusAdded)
		if IsNonNull(pair.Before) {
			status = StatusExtant
		}
		return &FilePathPlus{Path: path, Status: status}, nil
	}
	if IsNonNull(pair.Before) {
		path, err := strip(pair.Before)
		if err != nil {
			return nil, err
		}
		return &FilePathPlus{Path: path, Status: StatusDeleted}, nil
	}
	return nil, nil
}

// GuessStripLevel tries strip levels 0..maxLevel against candidate and
// returns the first level at which strip(candidate) == against, or -1 if
// none match. A trial-and-error helper for comparing a preamble path with
// a hunk path; Patch.EstimateStripLevel does not call it.
func GuessStripLevel(candidate, against string, maxLevel int) int {
	for level := 0; level <= maxLevel; level++ {
		stripped, err := StripLevel(level)(candidate)
		if err != nil {
			continue
		}
		if stripped == against {
			return level
		}
	}
	return -1
}
