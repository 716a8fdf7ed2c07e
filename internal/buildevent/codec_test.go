package buildevent

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const sampleStream = `{"type":"BuildStarted","timestamp":"2026-03-01T10:00:00Z","environment":{"PATH":"/usr/bin"}}
{"type":"ProjectStarted","timestamp":"2026-03-01T10:00:01Z","projectFile":"root.proj","targetNames":["Build"],"properties":{"Configuration":"Release"}}
{"type":"TargetStarted","timestamp":"2026-03-01T10:00:02Z","targetName":"Compile","targetFile":"root.proj"}
{"type":"ErrorRaised","timestamp":"2026-03-01T10:00:03Z","message":"bad syntax","code":"CS1002","file":"Program.cs","line":12,"column":7}
{"type":"MessageRaised","timestamp":"2026-03-01T10:00:04Z","message":"copying","importance":"low"}
{"type":"TargetFinished","timestamp":"2026-03-01T10:00:05Z","message":"ok"}
{"type":"ProjectFinished","timestamp":"2026-03-01T10:00:06Z","message":"done"}
{"type":"BuildFinished","timestamp":"2026-03-01T10:00:07Z","message":"done"}
`

func TestDecoderNDJSON(t *testing.T) {
	dec, err := NewDecoder(strings.NewReader(sampleStream), FormatNDJSON)
	if err != nil {
		t.Fatalf("NewDecoder returned error: %v", err)
	}

	var types []Type
	var events []Event
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next returned error: %v", err)
		}
		types = append(types, ev.EventType())
		events = append(events, ev)
	}

	want := []Type{
		TypeBuildStarted, TypeProjectStarted, TypeTargetStarted, TypeErrorRaised,
		TypeMessageRaised, TypeTargetFinished, TypeProjectFinished, TypeBuildFinished,
	}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Fatalf("event types mismatch (-want +got):\n%s", diff)
	}

	project := events[1].(ProjectStarted)
	if project.ProjectFile != "root.proj" || len(project.TargetNames) != 1 || project.TargetNames[0] != "Build" {
		t.Fatalf("unexpected project event: %+v", project)
	}
	props, ok := project.Properties.(map[string]any)
	if !ok || props["Configuration"] != "Release" {
		t.Fatalf("unexpected properties: %#v", project.Properties)
	}

	errEv := events[3].(ErrorRaised)
	wantDiag := Diagnostic{Code: "CS1002", File: "Program.cs", Line: 12, Column: 7}
	if errEv.Diagnostic != wantDiag {
		t.Fatalf("unexpected diagnostic: %+v", errEv.Diagnostic)
	}
	if msg := events[4].(MessageRaised); msg.Importance != ImportanceLow {
		t.Fatalf("expected low importance, got %s", msg.Importance)
	}
	wantTS := time.Date(2026, 3, 1, 10, 0, 7, 0, time.UTC)
	if !events[7].EventTime().Equal(wantTS) {
		t.Fatalf("unexpected timestamp: %s", events[7].EventTime())
	}
}

func TestDecoderRejectsUnknownType(t *testing.T) {
	dec, err := NewDecoder(strings.NewReader(`{"type":"Bogus"}`+"\n"), FormatNDJSON)
	if err != nil {
		t.Fatalf("NewDecoder returned error: %v", err)
	}
	_, err = dec.Next()
	if err == nil || !strings.Contains(err.Error(), `unknown event type "Bogus"`) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestMsgpackStreamPreservesOrderAndPayload(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []Event{
		BuildStarted{Header: Header{Timestamp: ts}, Environment: map[string]string{"CI": "true"}},
		ProjectStarted{Header: Header{Timestamp: ts}, ProjectFile: "a.proj", TargetNames: []string{"Build", "Test"}},
		WarningRaised{Header: Header{Timestamp: ts}, Diagnostic: Diagnostic{Code: "W1"}, Message: "careful"},
		TargetFinished{Header: Header{Timestamp: ts}, Message: "ok", Outputs: []string{"bin/a.dll"}},
		BuildFinished{Header: Header{Timestamp: ts}, Message: "done", Succeeded: true},
	}

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, FormatMsgpack)
	if err != nil {
		t.Fatalf("NewEncoder returned error: %v", err)
	}
	for _, ev := range in {
		if err := enc.Encode(ev); err != nil {
			t.Fatalf("Encode(%T) returned error: %v", ev, err)
		}
	}

	dec, err := NewDecoder(&buf, FormatMsgpack)
	if err != nil {
		t.Fatalf("NewDecoder returned error: %v", err)
	}
	var out []Event
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next returned error: %v", err)
		}
		out = append(out, ev)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d events, got %d", len(in), len(out))
	}
	if got := out[1].(ProjectStarted).TargetNames; !cmp.Equal(got, []string{"Build", "Test"}) {
		t.Fatalf("unexpected target names: %v", got)
	}
	if got := out[2].(WarningRaised); got.Code != "W1" || got.Message != "careful" {
		t.Fatalf("unexpected warning: %+v", got)
	}
	if got := out[3].(TargetFinished).Outputs; !cmp.Equal(got, []string{"bin/a.dll"}) {
		t.Fatalf("unexpected outputs: %v", got)
	}
	if got := out[4].(BuildFinished); !got.Succeeded || !got.Timestamp.Equal(ts) {
		t.Fatalf("unexpected build finished: %+v", got)
	}
	env, ok := out[0].(BuildStarted).Environment.(map[string]any)
	if !ok || env["CI"] != "true" {
		t.Fatalf("unexpected environment: %#v", out[0].(BuildStarted).Environment)
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{"": FormatNDJSON, "JSON": FormatNDJSON, "msgpack": FormatMsgpack} {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if FormatFromPath("build.events.msgpack") != FormatMsgpack {
		t.Fatal("expected msgpack format from extension")
	}
}
