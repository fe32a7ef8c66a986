package term

import "testing"

func TestStdioSurfaceSizeFallback(t *testing.T) {
	// Under `go test` stdout is a pipe, so the tty probe fails and the
	// surface reports the conventional fallback.
	s := NewStdioSurface()
	cols, rows := s.Size()
	if cols <= 0 || rows <= 0 {
		t.Fatalf("size = %dx%d", cols, rows)
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	s := NewStdioSurface()
	if got := s.Selection(); got != "" {
		t.Errorf("fresh surface has selection %q", got)
	}

	s.SetSelection("grep -r TODO")
	if got := s.Selection(); got != "grep -r TODO" {
		t.Errorf("selection = %q", got)
	}
}
