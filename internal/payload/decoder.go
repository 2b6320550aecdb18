// Package payload recovers structured assistant output from the raw text the
// backend produces. The model is asked to reply with a JSON object but in
// practice returns plain prose, fenced pseudo-JSON, or JSON surrounded by
// chatter, so decoding is strictly best-effort: anything that cannot be
// parsed is treated as plain display text, never as an error.
package payload

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Result is one structured item (flight, hotel, destination...) attached to
// an assistant reply. The backend does not commit to a fixed schema, so the
// raw object is kept and well-known fields are exposed through accessors.
type Result map[string]any

// Title returns the display title of the result, if any.
func (r Result) Title() string { return r.str("title") }

// Subtitle returns the secondary display line of the result, if any.
func (r Result) Subtitle() string { return r.str("subtitle") }

// Description returns the long-form description of the result, if any.
func (r Result) Description() string { return r.str("description") }

// Kind returns the result type tag ("flight", "hotel", ...), if any.
func (r Result) Kind() string { return r.str("type") }

// IDs returns the identifier map of the result (flightId, hotelId, ...).
func (r Result) IDs() map[string]string {
	out := map[string]string{}
	ids, ok := r["ids"].(map[string]any)
	if !ok {
		return out
	}
	for k, v := range ids {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (r Result) str(key string) string {
	s, _ := r[key].(string)
	return s
}

// Payload is the decoded {message, results, suggestions} triple.
type Payload struct {
	Message     string
	Results     []Result
	Suggestions []string
}

// Decode extracts a structured payload from raw assistant output. It returns
// nil when the input is blank or holds no recognizable JSON object; callers
// then display the raw string as-is. Decode never panics, whatever the input.
func Decode(raw string) *Payload {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	cleaned := stripFence(trimmed)

	obj := parseObject(cleaned)
	if obj == nil {
		// Payloads sometimes carry prose around a single JSON object.
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil
		}
		obj = parseObject(cleaned[start : end+1])
		if obj == nil {
			return nil
		}
	}

	p := &Payload{
		// The UI never shows an empty bubble: fall back to the raw input
		// when the object has no usable message field.
		Message:     raw,
		Results:     decodeResults(obj["results"]),
		Suggestions: decodeSuggestions(obj),
	}
	if msg, ok := obj["message"].(string); ok && strings.TrimSpace(msg) != "" {
		p.Message = msg
	}
	return p
}

func parseObject(s string) map[string]any {
	var v any
	if err := sonic.UnmarshalString(s, &v); err != nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return obj
}

// stripFence removes a surrounding triple-backtick wrapper, including an
// optional "json" language tag after the opening fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSpace(s[3:])
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(s[:len(s)-3])
	}
	if rest, ok := cutLangTag(s); ok {
		s = strings.TrimSpace(rest)
	}
	return s
}

func cutLangTag(s string) (string, bool) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "json") {
		return s, false
	}
	rest := s[len("json"):]
	if rest == "" {
		return rest, true
	}
	// The tag must stand alone: followed by whitespace or the payload itself.
	switch rest[0] {
	case '\n', '\r', ' ', '\t', '{', '[':
		return rest, true
	}
	return s, false
}

func decodeResults(v any) []Result {
	arr, ok := v.([]any)
	if !ok {
		return []Result{}
	}
	out := make([]Result, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok && m != nil {
			out = append(out, Result(m))
		}
	}
	return out
}

// decodeSuggestions normalizes the follow-up suggestion field. Two key
// spellings are accepted for backward compatibility, camelCase taking
// precedence, and the value may be an array or a map whose values are the
// suggestions. Items are coerced to trimmed strings; empties are dropped.
func decodeSuggestions(obj map[string]any) []string {
	v, ok := obj["nextRequestSuggestions"]
	if !ok {
		v, ok = obj["next_request_suggestions"]
	}
	if !ok {
		return []string{}
	}

	var candidates []any
	switch raw := v.(type) {
	case []any:
		candidates = raw
	case map[string]any:
		// JSON decoding loses object order; sort keys so output is stable.
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			candidates = append(candidates, raw[k])
		}
	default:
		return []string{}
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if s := coerceSuggestion(c); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func coerceSuggestion(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if val, ok := t["value"].(string); ok {
			return strings.TrimSpace(val)
		}
		s, err := sonic.MarshalString(t)
		if err != nil {
			return ""
		}
		return s
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
