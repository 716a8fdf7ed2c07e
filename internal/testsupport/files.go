package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"buildlog/internal/buildevent"
)

// WriteEventStream encodes events to path in the requested format, creating
// parent directories as needed.
func WriteEventStream(t testing.TB, path string, format buildevent.Format, events ...buildevent.Event) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc, err := buildevent.NewEncoder(f, format)
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			t.Fatalf("encode %s: %v", ev.EventType(), err)
		}
	}
}
