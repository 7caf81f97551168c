// Package facade provides the normalized analytics event types consumed by
// the integration: page views, identify calls, and track events, together
// with the lenient property accessor contract the payload builders rely on.
package facade

import (
	"strconv"
	"strings"
)

// Properties is a flat-or-nested bag of event properties.
type Properties map[string]any

// Get resolves key using a two-step lookup: nested dotted-path resolution
// first, then the literal flat key. Key matching is lenient (case and
// separators are ignored), so "order_id" resolves "orderId" and vice versa.
// Returns nil when the key cannot be resolved.
func (p Properties) Get(key string) any {
	if p == nil {
		return nil
	}
	if strings.Contains(key, ".") {
		if v, ok := p.resolvePath(key); ok {
			return v
		}
	}
	if v, ok := p.lookup(key); ok {
		return v
	}
	return nil
}

// Has reports whether key resolves to a non-nil value.
func (p Properties) Has(key string) bool {
	return p.Get(key) != nil
}

// String returns the value at key when it is a string, "" otherwise.
func (p Properties) String(key string) string {
	s, _ := p.Get(key).(string)
	return s
}

// Float returns the value at key coerced to float64. Numeric strings are
// parsed; any other type reports false.
func (p Properties) Float(key string) (float64, bool) {
	return toFloat(p.Get(key))
}

// Int returns the value at key coerced to int.
func (p Properties) Int(key string) (int, bool) {
	f, ok := toFloat(p.Get(key))
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Clone returns a shallow copy of the properties. Nested maps are shared.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Properties) lookup(key string) (any, bool) {
	if v, ok := p[key]; ok {
		return v, true
	}
	want := normalizeKey(key)
	for k, v := range p {
		if normalizeKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

func (p Properties) resolvePath(path string) (any, bool) {
	var cur any = p
	for _, part := range strings.Split(path, ".") {
		m, ok := asProperties(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m.lookup(part)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asProperties(v any) (Properties, bool) {
	switch m := v.(type) {
	case Properties:
		return m, true
	case map[string]any:
		return Properties(m), true
	}
	return nil, false
}

// normalizeKey lowers the key and strips separators so "product_id",
// "productId" and "ProductID" all compare equal.
func normalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Truthy reports whether v is present and non-falsy: nil, false, zero
// numbers and empty strings are falsy, everything else is truthy.
func Truthy(v any) bool {
	switch n := v.(type) {
	case nil:
		return false
	case bool:
		return n
	case string:
		return n != ""
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}
