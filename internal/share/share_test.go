package share

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatCodeWithSpaces(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"123456", "1 2 3 4 5 6"},
		{"A", "A"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FormatCodeWithSpaces(tc.in); got != tc.want {
			t.Errorf("FormatCodeWithSpaces(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayCode(t *testing.T) {
	var buf bytes.Buffer
	DisplayCode(&buf, "654321")
	if !strings.Contains(buf.String(), "6 5 4 3 2 1") {
		t.Errorf("output missing spaced code: %q", buf.String())
	}
}

func TestDisplayQRCode(t *testing.T) {
	var buf bytes.Buffer
	DisplayQRCode(&buf, "654321")

	out := buf.String()
	if !strings.Contains(out, "SCAN TO JOIN") {
		t.Errorf("output missing banner: %q", out)
	}
	if !strings.Contains(out, "6 5 4 3 2 1") {
		t.Errorf("output missing readable code: %q", out)
	}
}
