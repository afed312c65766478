package patch

import (
	"crypto/sha1"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"patchlib/internal/diffstat"
	"patchlib/internal/lines"
	"patchlib/internal/pathutil"
	"patchlib/internal/preamble"
)

const preambleKindGit = preamble.Git

// Header is the free text that precedes a patch's first diff: leading
// "#"-prefixed comment lines, a free-form description, and an optional
// trailing diffstat summary block. Grounded on patches.py's Header.
type Header struct {
	Comments    lines.Buffer
	Description lines.Buffer
	DiffStat    lines.Buffer
}

// ParseHeader splits text into its comment/description/diffstat
// sections, matching Header.__init__'s scan for a "#"-prefix run
// followed by a diffstat.list_summary_starts_at hit.
func ParseHeader(buf lines.Buffer) *Header {
	descrStartsAt := 0
	for descrStartsAt < buf.Len() && strings.HasPrefix(string(buf.At(descrStartsAt)), "#") {
		descrStartsAt++
	}
	diffstatStartsAt := -1
	for index := descrStartsAt; index < buf.Len(); index++ {
		if diffstat.StartsAt(buf, index) {
			diffstatStartsAt = index
			break
		}
	}
	h := &Header{Comments: buf.Slice(0, descrStartsAt).Clone()}
	if diffstatStartsAt >= 0 {
		h.Description = buf.Slice(descrStartsAt, diffstatStartsAt).Clone()
		h.DiffStat = buf.Slice(diffstatStartsAt, buf.Len()).Clone()
	} else {
		h.Description = buf.Slice(descrStartsAt, buf.Len()).Clone()
	}
	return h
}

// String renders the header's three sections back to back.
func (h *Header) String() string {
	return h.Comments.String() + h.Description.String() + h.DiffStat.String()
}

// SetDescription replaces the description section, appending a trailing
// newline if text lacks one (matching set_description's normalisation).
func (h *Header) SetDescription(text string) {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	h.Description = lines.SplitString(text)
}

// Patch is a complete parsed patch file: an optional header plus every
// DiffPlus entry found in it. Grounded on patches.py's Patch.
type Patch struct {
	SourceName     string
	NumStripLevels int
	Header         *Header
	Entries        []*DiffPlus
}

// ParseLines parses buf into a Patch. Every recognised DiffPlus is kept
// in order; any line that precedes the first DiffPlus becomes the
// header, and any unrecognised line following a DiffPlus is appended to
// that DiffPlus's trailing junk, matching Patch.parse_lines's "attach
// stray lines to the previous diff" rule.
func ParseLines(buf lines.Buffer, numStripLevels int) (*Patch, error) {
	var diffStartsAt = -1
	var entries []*DiffPlus
	var lastEntry *DiffPlus
	index := 0
	for index < buf.Len() {
		raiseIfMalformed := diffStartsAt != -1
		startsAt := index
		dp, next, ok, err := GetDiffPlusAt(buf, index)
		if err != nil && raiseIfMalformed {
			return nil, err
		}
		if ok {
			if diffStartsAt == -1 {
				diffStartsAt = startsAt
			}
			entries = append(entries, dp)
			lastEntry = dp
			index = next
			continue
		}
		if lastEntry != nil {
			lastEntry.TrailingJunk = append(lastEntry.TrailingJunk, buf.At(index))
		}
		index++
	}
	headerEnd := diffStartsAt
	if headerEnd < 0 {
		headerEnd = buf.Len()
	}
	return &Patch{
		NumStripLevels: numStripLevels,
		Header:         ParseHeader(buf.Slice(0, headerEnd)),
		Entries:        entries,
	}, nil
}

// ParseText parses patch text.
func ParseText(text string, numStripLevels int) (*Patch, error) {
	return ParseLines(lines.SplitString(text), numStripLevels)
}

// ParseEmailText parses a patch carried as the body of an email message
// (as produced by `git format-patch` / `git send-email`), prepending the
// Subject line to the patch description when present. Uses net/mail in
// place of Python's email.message_from_string: this repo's corpus has no
// MIME/email parsing library, and net/mail's Message/header parsing is a
// direct, dependency-free substitute for the single feature needed here.
func ParseEmailText(text string, numStripLevels int) (*Patch, error) {
	msg, err := mail.ReadMessage(strings.NewReader(text))
	if err != nil {
		return ParseText(text, numStripLevels)
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("reading patch email body: %w", err)
	}
	payload := strings.ReplaceAll(string(body), "\r\n", "\n")
	p, err := ParseText(payload, numStripLevels)
	if err != nil {
		return nil, err
	}
	if subject := msg.Header.Get("Subject"); subject != "" {
		descr := p.Header.Description.String()
		p.Header.SetDescription(subject + "\n" + descr)
	}
	return p, nil
}

// AdjustedStripLevel returns level if non-negative, else the patch's own
// NumStripLevels, mirroring _adjusted_strip_level's None-means-default
// rule (Go has no optional int, so -1 plays that role here).
func (p *Patch) AdjustedStripLevel(level int) int {
	if level >= 0 {
		return level
	}
	return p.NumStripLevels
}

// FilePaths returns the resolved target path of every entry.
func (p *Patch) FilePaths(level int) ([]string, error) {
	strip := pathutil.StripLevel(p.AdjustedStripLevel(level))
	out := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		path, err := e.FilePath(strip)
		if err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, nil
}

// FilePathsPlus returns the resolved, status-annotated target path of
// every entry, skipping entries that resolve to no path at all.
func (p *Patch) FilePathsPlus(level int) ([]*pathutil.FilePathPlus, error) {
	strip := pathutil.StripLevel(p.AdjustedStripLevel(level))
	var out []*pathutil.FilePathPlus
	for _, e := range p.Entries {
		fpp, err := e.FilePathPlus(strip)
		if err != nil {
			return nil, err
		}
		if fpp != nil {
			out = append(out, fpp)
		}
	}
	return out, nil
}

// DiffStatList returns a diffstat.PathStatsList summarising every entry
// in this patch.
func (p *Patch) DiffStatList(level int) (diffstat.PathStatsList, error) {
	strip := pathutil.StripLevel(p.AdjustedStripLevel(level))
	out := make(diffstat.PathStatsList, 0, len(p.Entries))
	for _, e := range p.Entries {
		path, err := e.FilePath(strip)
		if err != nil {
			return nil, err
		}
		out = append(out, &diffstat.PathStats{Path: path, Stats: e.DiffStats()})
	}
	return out, nil
}

// EstimateStripLevel guesses -pN from the patch's own content: any git
// preamble forces level 1 (git patches always emit an a/ b/ prefix);
// otherwise every entry's before/after paths are checked for consistency
// at strip level 1, matching estimate_strip_level. Returns -1 if no
// entries offer any evidence either way.
func (p *Patch) EstimateStripLevel() int {
	trues := 0
	for _, e := range p.Entries {
		if e.Preambles != nil && e.Preambles.ByKind(preambleKindGit) != nil {
			return 1
		}
		if e.Diff == nil {
			continue
		}
		consistent, known := fileDataConsistentWithStripOne(e.Diff.Pair())
		if !known {
			continue
		}
		if consistent {
			trues++
		} else {
			return 0
		}
	}
	if trues > 0 {
		return 1
	}
	return -1
}

func fileDataConsistentWithStripOne(pair pathutil.Pair) (consistent, known bool) {
	strip := pathutil.StripLevel(1)
	if !pathutil.IsNonNull(pair.Before) || !pathutil.IsNonNull(pair.After) {
		return false, false
	}
	b, err := strip(pair.Before)
	if err != nil {
		return false, true
	}
	a, err := strip(pair.After)
	if err != nil {
		return false, true
	}
	return b == a, true
}

// HashDigest returns the SHA-1 digest of the patch's full rendered text.
func (p *Patch) HashDigest() [20]byte {
	var buf lines.Buffer
	buf = append(buf, p.Header.Comments...)
	buf = append(buf, p.Header.Description...)
	buf = append(buf, p.Header.DiffStat...)
	for _, e := range p.Entries {
		buf = append(buf, e.Render()...)
	}
	return sha1.Sum(buf.Join())
}
