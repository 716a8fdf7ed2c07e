package logging

import (
	"fmt"
	"strings"
	"time"
)

// Template is a parsed message template. Holes are written {Name}; the
// Serilog prefixes @ and $ and a trailing :format are accepted and ignored.
// Doubled braces escape a literal brace.
type Template struct {
	text   string
	tokens []templateToken
}

type templateToken struct {
	literal string
	hole    string
	raw     string
}

// ParseTemplate splits text into literals and holes. Malformed holes are kept
// as literal text.
func ParseTemplate(text string) Template {
	t := Template{text: text}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.tokens = append(t.tokens, templateToken{literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				lit.WriteString(text[i:])
				i = len(text)
				continue
			}
			raw := text[i : i+end+2]
			name := holeName(text[i+1 : i+1+end])
			if name == "" {
				lit.WriteString(raw)
			} else {
				flush()
				t.tokens = append(t.tokens, templateToken{hole: name, raw: raw})
			}
			i += end + 1
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t
}

func holeName(inner string) string {
	inner = strings.TrimLeft(inner, "@$")
	if idx := strings.IndexAny(inner, ":,"); idx >= 0 {
		inner = inner[:idx]
	}
	for _, r := range inner {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return ""
		}
	}
	return inner
}

// Text returns the template as written.
func (t Template) Text() string { return t.text }

// Holes lists hole names in order of appearance.
func (t Template) Holes() []string {
	var out []string
	for _, tok := range t.tokens {
		if tok.hole != "" {
			out = append(out, tok.hole)
		}
	}
	return out
}

// Render fills holes with args by position and returns the rendered message
// together with one attribute per filled hole. Holes without an argument are
// left as written; surplus arguments are ignored.
func (t Template) Render(args []any) (string, []Attr) {
	var b strings.Builder
	b.Grow(len(t.text) + 16*len(args))
	attrs := make([]Attr, 0, len(args))
	next := 0
	for _, tok := range t.tokens {
		if tok.hole == "" {
			b.WriteString(tok.literal)
			continue
		}
		if next >= len(args) {
			b.WriteString(tok.raw)
			continue
		}
		arg := args[next]
		next++
		b.WriteString(formatArg(arg))
		attrs = append(attrs, Any(tok.hole, arg))
	}
	return b.String(), attrs
}

func formatArg(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(val, ", ")
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	default:
		return fmt.Sprint(val)
	}
}
