// Package lines owns the input to a parse as an ordered sequence of text
// lines with their terminators preserved, and a monotonically-advancing
// cursor over them. Preserving terminators matters: unified and context
// diffs signal "no newline at end of file" with a following
// "\ No newline at end of file" line whose presence depends on whether the
// previous line carried one.
package lines

import "bytes"

// Line is one line of input text, including its original terminator
// ("\n", "\r\n", or empty for a final partial line).
type Line string

// HasTerminator reports whether l ends with a newline.
func (l Line) HasTerminator() bool {
	return len(l) > 0 && l[len(l)-1] == '\n'
}

// TrimTerminator returns l with any trailing "\r\n" or "\n" removed.
func (l Line) TrimTerminator() string {
	s := string(l)
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}

// Buffer is an indexable, borrowed view over a sequence of Lines.
// Slices borrow the backing array; they never copy during parsing.
type Buffer []Line

// Split divides data into lines at each '\n', preserving each line's
// terminator ("\r\n" stays whole because it ends in '\n'): a trailing
// unterminated fragment becomes its own final Line, and fully-terminated
// input produces no trailing empty Line. Unlike Python's str.splitlines, a
// lone '\r' or other line-break character does not end a line.
//
// bufio.Scanner's SplitFunc machinery is not used here: it discards
// terminators and swallows the final unterminated fragment distinction
// this package needs to preserve (see SPEC_FULL.md's C1 notes).
func Split(data []byte) Buffer {
	if len(data) == 0 {
		return nil
	}
	var out Buffer
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		out = append(out, Line(data[start:i+1]))
		start = i + 1
	}
	if start < len(data) {
		out = append(out, Line(data[start:]))
	}
	return out
}

// SplitString is Split for a string input.
func SplitString(s string) Buffer {
	return Split([]byte(s))
}

// Join concatenates the buffer back into a single byte slice.
func (b Buffer) Join() []byte {
	var buf bytes.Buffer
	for _, l := range b {
		buf.WriteString(string(l))
	}
	return buf.Bytes()
}

// String renders the buffer as text.
func (b Buffer) String() string {
	return string(b.Join())
}

// At returns the line at index i, or "" if out of range.
func (b Buffer) At(i int) Line {
	if i < 0 || i >= len(b) {
		return ""
	}
	return b[i]
}

// Slice returns the half-open range [i, j) as a borrowed view.
func (b Buffer) Slice(i, j int) Buffer {
	if i < 0 {
		i = 0
	}
	if j > len(b) {
		j = len(b)
	}
	if i >= j {
		return nil
	}
	return b[i:j]
}

// Len returns the number of lines.
func (b Buffer) Len() int { return len(b) }

// Equal reports whether b and other hold identical line sequences.
func (b Buffer) Equal(other Buffer) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

// ContainsAt reports whether sub occurs in b starting at index.
func (b Buffer) ContainsAt(sub Buffer, index int) bool {
	if index < 0 || index+len(sub) > len(b) {
		return false
	}
	return b[index : index+len(sub)].Equal(sub)
}

// FindFirst returns the index of the first occurrence of sub in b at or
// after offset, or -1 if not found.
func (b Buffer) FindFirst(sub Buffer, offset int) int {
	if offset < 0 {
		offset = 0
	}
	if len(sub) == 0 {
		return offset
	}
	limit := len(b) - len(sub)
	for i := offset; i <= limit; i++ {
		if b.ContainsAt(sub, i) {
			return i
		}
	}
	return -1
}

// Clone returns an owned copy of b, detaching it from any larger buffer it
// was sliced from. Used when a parsed fragment is materialised into a
// long-lived value (e.g. a Patch) that must outlive the parse's input
// buffer.
func (b Buffer) Clone() Buffer {
	if b == nil {
		return nil
	}
	out := make(Buffer, len(b))
	copy(out, b)
	return out
}

// EnsureTrailingNewline returns b with a '\n' appended when b is non-empty
// and does not already end in one; otherwise it returns b unchanged.
func EnsureTrailingNewline(b []byte) []byte {
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return b
	}
	out := make([]byte, len(b)+1)
	copy(out, b)
	out[len(b)] = '\n'
	return out
}
