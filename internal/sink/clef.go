package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"buildlog/internal/logging"
)

// ContentType is the media type Seq expects for raw CLEF payloads.
const ContentType = "application/vnd.serilog.clef"

// EncodeCLEF renders one event as a single CLEF JSON object. Properties are
// flattened to the top level; property names that start with @ are escaped
// by doubling the @. Information is the CLEF default level and is omitted.
func EncodeCLEF(evt logging.LogEvent) ([]byte, error) {
	obj := make(map[string]any, len(evt.Properties)+4)
	for key, value := range evt.Properties {
		if strings.HasPrefix(key, "@") {
			key = "@" + key
		}
		obj[key] = value
	}
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	obj["@t"] = ts.UTC().Format(time.RFC3339Nano)
	if evt.Template != "" {
		obj["@mt"] = evt.Template
	}
	if evt.Message != "" {
		obj["@m"] = evt.Message
	}
	if evt.Level != "" && evt.Level != "Information" {
		obj["@l"] = evt.Level
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode clef event %d: %w", evt.Sequence, err)
	}
	return data, nil
}

// encodeBatch joins events into a newline-delimited payload. Events that
// cannot be encoded are skipped and reported through skipped.
func encodeBatch(events []logging.LogEvent) (payload []byte, skipped []error) {
	var buf bytes.Buffer
	for _, evt := range events {
		line, err := EncodeCLEF(evt)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), skipped
}
