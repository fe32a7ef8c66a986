package transfer

import (
	"os"
	"testing"
)

func TestSinkCapturesStream(t *testing.T) {
	dir := t.TempDir()

	sink, err := NewSink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.Feed([]byte("chunk one ")); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if err := sink.Feed([]byte("chunk two")); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if sink.Size() != int64(len("chunk one chunk two")) {
		t.Errorf("size = %d", sink.Size())
	}
	data, err := os.ReadFile(sink.Path())
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	if string(data) != "chunk one chunk two" {
		t.Errorf("capture = %q", data)
	}
}

func TestEmptyCaptureIsRemoved(t *testing.T) {
	dir := t.TempDir()

	sink, err := NewSink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := os.Stat(sink.Path()); !os.IsNotExist(err) {
		t.Errorf("empty capture file left behind at %s", sink.Path())
	}
}

func TestSinkCreatesDownloadDir(t *testing.T) {
	dir := t.TempDir() + "/nested/downloads"

	sink, err := NewSink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("download dir not created: %v", err)
	}
}
