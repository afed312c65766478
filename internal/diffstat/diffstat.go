// Package diffstat detects and parses the "diffstat"-style summary block
// that sometimes precedes a patch (as produced by `diffstat` or `git diff
// --stat`), and accumulates per-file line-change statistics. Grounded on
// diffstat.py's regex set and get_summary_length_starting_at algorithm.
package diffstat

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"patchlib/internal/lines"
	"patchlib/internal/perr"
)

var (
	emptyRE    = regexp.MustCompile(`^#? 0 files changed$`)
	endRE      = regexp.MustCompile(`^#? (\d+) files? changed(, (\d+) insertions?\(\+\))?(, (\d+) deletions?\(-\))?(, (\d+) modifications?\(!\))?$`)
	fstatsRE   = regexp.MustCompile(`^#? (\S+)\s*\|((binary)|(\s*(\d+)(\s+\+*-*!*)?))$`)
	blankLineRE    = regexp.MustCompile(`^\s*$`)
	dividerLineRE  = regexp.MustCompile(`^---$`)
)

// Keys, in display order, for the four counters a Stats value tracks.
const (
	Inserted  = "inserted"
	Deleted   = "deleted"
	Modified  = "modified"
	Unchanged = "unchanged"
)

var orderedKeys = []string{Inserted, Deleted, Modified, Unchanged}

var fmtData = map[string]string{
	Inserted:  "insertion",
	Deleted:   "deletion",
	Modified:  "modification",
	Unchanged: "unchanged line",
}

var fmtSign = map[string]byte{
	Inserted:  '+',
	Deleted:   '-',
	Modified:  '!',
	Unchanged: '+',
}

// Stats holds the four diffstat counters for one file or one whole patch.
type Stats struct {
	counts map[string]int
}

// NewStats returns a zeroed Stats.
func NewStats() *Stats {
	s := &Stats{counts: make(map[string]int, len(orderedKeys))}
	for _, k := range orderedKeys {
		s.counts[k] = 0
	}
	return s
}

// Incr increments the named counter and returns its new value.
func (s *Stats) Incr(key string) int {
	s.counts[key]++
	return s.counts[key]
}

// Get returns the named counter's value.
func (s *Stats) Get(key string) int { return s.counts[key] }

// Add returns a new Stats holding the element-wise sum of s and other.
func (s *Stats) Add(other *Stats) *Stats {
	r := NewStats()
	for _, k := range orderedKeys {
		r.counts[k] = s.counts[k] + other.counts[k]
	}
	return r
}

// Total returns the sum of all four counters.
func (s *Stats) Total() int {
	t := 0
	for _, k := range orderedKeys {
		t += s.counts[k]
	}
	return t
}

// TotalChanges returns the sum of every counter except Unchanged.
func (s *Stats) TotalChanges() int {
	t := 0
	for _, k := range orderedKeys[:len(orderedKeys)-1] {
		t += s.counts[k]
	}
	return t
}

// AsString renders the non-zero counters as a comma-joined clause, e.g.
// ", 3 insertions(+), 1 deletion(-)". Returns "" if every counter is zero.
func (s *Stats) AsString() string {
	var parts []string
	for _, k := range orderedKeys {
		n := s.counts[k]
		if n == 0 {
			continue
		}
		plural := ""
		if n != 1 {
			plural = "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s%s(%c)", n, fmtData[k], plural, fmtSign[k]))
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

// AsBar renders the counters as a run of '+'/'-'/'!' characters, one per
// unit after applying scale, in orderedKeys order.
func (s *Stats) AsBar(scale func(int) int) string {
	var b strings.Builder
	for _, k := range orderedKeys {
		n := scale(s.counts[k])
		for i := 0; i < n; i++ {
			b.WriteByte(fmtSign[k])
		}
	}
	return b.String()
}

// PathStats pairs a file path with its Stats.
type PathStats struct {
	Path  string
	Stats *Stats
}

// PathStatsList is a sortable, path-indexable collection of PathStats.
type PathStatsList []*PathStats

// Contains reports whether p holds an entry for the given path.
func (p PathStatsList) Contains(filePath string) bool {
	for _, ps := range p {
		if ps.Path == filePath {
			return true
		}
	}
	return false
}

// Len, Less, Swap implement sort.Interface, ordering by Path.
func (p PathStatsList) Len() int           { return len(p) }
func (p PathStatsList) Less(i, j int) bool { return p[i].Path < p[j].Path }
func (p PathStatsList) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Sort orders p by path in place.
func (p PathStatsList) Sort() { sort.Sort(p) }

// commonPath returns the longest common directory prefix of the given
// paths, mirroring get_common_path's use of os.path.commonprefix plus
// dirname.
func commonPath(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := paths[0]
	for _, p := range paths[1:] {
		prefix = commonStringPrefix(prefix, p)
		if prefix == "" {
			break
		}
	}
	i := strings.LastIndex(prefix, "/")
	if i < 0 {
		return ""
	}
	head := prefix[:i+1]
	if strings.Trim(head, "/") != "" {
		head = strings.TrimRight(head, "/")
	}
	return head
}

func commonStringPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// ListFormatString renders p in the classic `diffstat` textual format:
// one "name | NNN +++---" line per file followed by a totals line.
func (p PathStatsList) ListFormatString(quiet, comment, trimNames bool, maxWidth int) string {
	if len(p) == 0 && quiet {
		return ""
	}
	var out strings.Builder
	offset := 0
	if trimNames {
		all := make([]string, len(p))
		for i, ps := range p {
			all[i] = ps.Path
		}
		offset = len(commonPath(all))
	}
	numFiles := len(p)
	summation := NewStats()
	if numFiles > 0 {
		longest := 0
		largestTotal := 1
		for _, ps := range p {
			if l := len(ps.Path) - offset; l > longest {
				longest = l
			}
			if t := ps.Stats.Total(); t > largestTotal {
				largestTotal = t
			}
		}
		availWidth := maxWidth - (longest + 9)
		if comment {
			availWidth--
		}
		if availWidth < 0 {
			availWidth = 0
		}
		scale := func(count int) int {
			return (count * availWidth) / largestTotal
		}
		hashPrefix := ""
		if comment {
			hashPrefix = "#"
		}
		for _, ps := range p {
			summation = summation.Add(ps.Stats)
			total := ps.Stats.Total()
			name := ps.Path[offset:]
			spaces := strings.Repeat(" ", longest-len(name))
			bar := ps.Stats.AsBar(scale)
			fmt.Fprintf(&out, "%s %s%s |%5d %s\n", hashPrefix, name, spaces, total, bar)
		}
	}
	if numFiles > 0 || !quiet {
		if comment {
			out.WriteString("#")
		}
		plural := ""
		if numFiles != 1 {
			plural = "s"
		}
		fmt.Fprintf(&out, " %d file%s changed%s\n", numFiles, plural, summation.AsString())
	}
	return out.String()
}

// SummaryLengthAt returns the number of lines a diffstat summary occupies
// starting at index, or 0 if none starts there. Returns a *perr.MalformedSummary
// if a run of file-stat lines fails to terminate with a valid totals line.
func SummaryLengthAt(buf lines.Buffer, index int) (int, error) {
	start := index
	raw := make([]string, buf.Len())
	for i := range buf {
		raw[i] = buf[i].TrimTerminator()
	}
	if index < len(raw) && dividerLineRE.MatchString(raw[index]) {
		index++
	}
	for index < len(raw) && blankLineRE.MatchString(raw[index]) {
		index++
	}
	if index >= len(raw) {
		return 0, nil
	}
	if emptyRE.MatchString(raw[index]) {
		return index + 1 - start, nil
	}
	count := 0
	for index < len(raw) && fstatsRE.MatchString(raw[index]) {
		count++
		index++
	}
	if index < len(raw) && endRE.MatchString(raw[index]) {
		return index + 1 - start, nil
	}
	if count == 0 {
		return 0, nil
	}
	return 0, &perr.MalformedSummary{Line: start, Detail: "file-stat lines not followed by a totals line"}
}

// StartsAt reports whether a valid diffstat summary begins at index.
func StartsAt(buf lines.Buffer, index int) bool {
	n, err := SummaryLengthAt(buf, index)
	return err == nil && n != 0
}

// ParseFileStatLine extracts the path and line count from one " path |
// NNN +++---" line (a leading space, optionally after "#", precedes the
// path), returning ok=false if line does not match.
func ParseFileStatLine(line string) (filePath string, count int, binary bool, ok bool) {
	m := fstatsRE.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false, false
	}
	filePath = m[1]
	if m[3] == "binary" {
		return filePath, 0, true, true
	}
	n, _ := strconv.Atoi(m[5])
	return filePath, n, false, true
}
