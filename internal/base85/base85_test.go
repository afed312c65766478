package base85

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("hello, world!"),
		bytes.Repeat([]byte{0x00, 0xFF, 0x7F, 0x10}, 20), // > 52 bytes, forces multiple lines
	}
	for _, data := range cases {
		encoded := EncodeToLines(data)
		decoded, err := DecodeLines(encoded)
		if err != nil {
			t.Fatalf("DecodeLines(%d bytes) error: %v", len(data), err)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("round trip mismatch for %d bytes: got %v, want %v", len(data), decoded, data)
		}
	}
}

func TestEncodeToLinesChunking(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, 100)
	lines := EncodeToLines(data)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines for 100 bytes (52+48), got %d", len(lines))
	}
	if lines[0][0] != 'z' { // length indicator for 52 bytes: 'a'+52-27='z'
		t.Fatalf("first line length indicator = %q, want 'z'", lines[0][0])
	}
}

func TestDecodeLinesRejectsBadLength(t *testing.T) {
	// "0000" (4 chars) is not a multiple of 5.
	_, err := DecodeLines([]string{"A0000\n"})
	if err == nil {
		t.Fatalf("expected an error decoding a malformed-length chunk")
	}
}

func TestDecodeLinesRejectsBadChar(t *testing.T) {
	_, err := DecodeLines([]string{"A     \n"})
	if err == nil {
		t.Fatalf("expected an error decoding an invalid base85 character")
	}
}

func TestLineRE(t *testing.T) {
	if !LineRE.MatchString("AMPLE") {
		t.Fatalf("expected LineRE to match a plausible encoded line")
	}
	if LineRE.MatchString("") {
		t.Fatalf("did not expect LineRE to match an empty string")
	}
}
