package buildevent

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the stream encoding.
type Format string

const (
	FormatNDJSON  Format = "ndjson"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ndjson", "json", "":
		return FormatNDJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("invalid event format %q (expected: ndjson|msgpack)", value)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".msgpack") || strings.HasSuffix(lower, ".mp") {
		return FormatMsgpack
	}
	return FormatNDJSON
}

// Source yields events in delivery order. Next returns io.EOF when the stream
// ends cleanly.
type Source interface {
	Next() (Event, error)
}

// Decoder reads envelopes from a stream.
type Decoder struct {
	decode func(*envelope) error
	count  int
}

// NewDecoder returns a Decoder for the given format.
func NewDecoder(r io.Reader, format Format) (*Decoder, error) {
	switch format {
	case FormatNDJSON:
		dec := json.NewDecoder(bufio.NewReader(r))
		return &Decoder{decode: func(env *envelope) error { return dec.Decode(env) }}, nil
	case FormatMsgpack:
		dec := msgpack.NewDecoder(bufio.NewReader(r))
		return &Decoder{decode: func(env *envelope) error { return dec.Decode(env) }}, nil
	default:
		return nil, fmt.Errorf("unsupported event format %q", format)
	}
}

// Next decodes the next event.
func (d *Decoder) Next() (Event, error) {
	var env envelope
	if err := d.decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decode event %d: %w", d.count+1, err)
	}
	d.count++
	ev, err := env.event()
	if err != nil {
		return nil, fmt.Errorf("decode event %d: %w", d.count, err)
	}
	return ev, nil
}

// Encoder writes events as envelopes.
type Encoder struct {
	encode func(*envelope) error
}

// NewEncoder returns an Encoder for the given format.
func NewEncoder(w io.Writer, format Format) (*Encoder, error) {
	switch format {
	case FormatNDJSON:
		enc := json.NewEncoder(w)
		return &Encoder{encode: func(env *envelope) error { return enc.Encode(env) }}, nil
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		return &Encoder{encode: func(env *envelope) error { return enc.Encode(env) }}, nil
	default:
		return nil, fmt.Errorf("unsupported event format %q", format)
	}
}

// Encode writes one event.
func (e *Encoder) Encode(ev Event) error {
	env, err := toEnvelope(ev)
	if err != nil {
		return err
	}
	return e.encode(&env)
}
