package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"buildlog/internal/logging"
)

func TestFileSinkAppendsThroughHub(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "build.clef")
	file, err := OpenFile(path, nil)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}

	hub := logging.NewStreamHub(8)
	hub.AddSink(file)
	hub.Publish(logging.LogEvent{Level: "Error", Message: "bad syntax", Template: "{ErrorMessage}"})
	hub.Publish(logging.LogEvent{Level: "Information", Message: "done"})

	if err := file.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	hub.Publish(logging.LogEvent{Message: "after close"})
	if file.Failed() != 1 {
		t.Fatalf("expected append after close to fail, got %d failures", file.Failed())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read clef file: %v", err)
	}
	lines := splitLines(data)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), data)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first["@l"] != "Error" || first["@mt"] != "{ErrorMessage}" {
		t.Fatalf("unexpected first line: %v", first)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Fatalf("expected lock file next to the clef file: %v", err)
	}
}
