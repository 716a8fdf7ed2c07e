package sink

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"buildlog/internal/logging"
)

func TestEncodeCLEF(t *testing.T) {
	evt := logging.LogEvent{
		Sequence:  7,
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("x", 3600)),
		Level:     "Warning",
		Message:   "obsolete",
		Template:  "{WarningMessage}",
		Properties: map[string]any{
			"ProjectPath":    "root.proj",
			"WarningMessage": "obsolete",
			"@weird":         true,
		},
	}
	data, err := EncodeCLEF(evt)
	if err != nil {
		t.Fatalf("EncodeCLEF returned error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode clef: %v", err)
	}
	want := map[string]any{
		"@t":             "2024-03-01T08:30:00Z",
		"@l":             "Warning",
		"@m":             "obsolete",
		"@mt":            "{WarningMessage}",
		"@@weird":        true,
		"ProjectPath":    "root.proj",
		"WarningMessage": "obsolete",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("clef mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeCLEFOmitsInformationLevel(t *testing.T) {
	data, err := EncodeCLEF(logging.LogEvent{Level: "Information", Message: "hi"})
	if err != nil {
		t.Fatalf("EncodeCLEF returned error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode clef: %v", err)
	}
	if _, ok := got["@l"]; ok {
		t.Fatalf("expected @l to be omitted for Information, got %v", got)
	}
	if _, ok := got["@mt"]; ok {
		t.Fatalf("expected no @mt without a template, got %v", got)
	}
}

func TestEncodeBatchSkipsUnencodable(t *testing.T) {
	payload, skipped := encodeBatch([]logging.LogEvent{
		{Message: "ok"},
		{Message: "bad", Properties: map[string]any{"ch": make(chan int)}},
		{Message: "ok again"},
	})
	if len(skipped) != 1 {
		t.Fatalf("expected one skipped event, got %d", len(skipped))
	}
	if lines := len(splitLines(payload)); lines != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", lines, payload)
	}
}
