// internal/applicant/applicant.go
//
// The applicant record holds every answer a person gives while moving through
// the wizard. Answers are addressed by colon-delimited key paths such as
// "name:first", and each segment maps onto a nested record.

package applicant

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PathSeparator splits a key path into nested record segments.
const PathSeparator = ":"

// DateLayout is the on-record format for every date answer.
const DateLayout = "2006-01-02"

// Reader is the read surface shared by the live applicant record and the
// observing wrapper used when scanning catalog hooks.
type Reader interface {
	Lookup(path string) (any, bool)
	String(path string) string
	Bool(path string) bool
	Int(path string) (int, bool)
	Date(path string) (time.Time, bool)
	Sub(key string) Reader
}

// Person is a mutable, key-path addressable record of answers.
type Person struct {
	values map[string]any
}

// New returns an empty record.
func New() *Person {
	return &Person{values: map[string]any{}}
}

// FromMap builds a record from a (possibly nested) map. Keys containing the
// path separator are expanded into nested records.
func FromMap(values map[string]any) *Person {
	p := New()
	p.Merge(values)
	return p
}

// Set stores value at path, creating intermediate records as needed.
func (p *Person) Set(path string, value any) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return
	}
	if p.values == nil {
		p.values = map[string]any{}
	}
	node := p.values
	for _, seg := range segments[:len(segments)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[seg] = next
		}
		node = next
	}
	last := segments[len(segments)-1]
	if nested, ok := value.(map[string]any); ok {
		child, ok := node[last].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[last] = child
		}
		mergeInto(child, nested)
		return
	}
	node[last] = value
}

// Delete removes the value stored at path. Missing paths are ignored.
func (p *Person) Delete(path string) {
	segments := splitPath(path)
	if len(segments) == 0 || p.values == nil {
		return
	}
	node := p.values
	for _, seg := range segments[:len(segments)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			return
		}
		node = next
	}
	delete(node, segments[len(segments)-1])
}

// Merge applies every entry in values, treating keys as paths.
func (p *Person) Merge(values map[string]any) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	// Shallow paths first so "name" does not clobber "name:first".
	sort.SliceStable(keys, func(i, j int) bool {
		return strings.Count(keys[i], PathSeparator) < strings.Count(keys[j], PathSeparator)
	})
	for _, key := range keys {
		p.Set(key, cloneValue(values[key]))
	}
}

// Lookup returns the raw value stored at path.
func (p *Person) Lookup(path string) (any, bool) {
	if p == nil {
		return nil, false
	}
	return lookup(p.values, path)
}

// String returns the value at path formatted as text; missing values are "".
func (p *Person) String(path string) string {
	v, _ := p.Lookup(path)
	return asString(v)
}

// Bool reports the truthiness of the value at path.
func (p *Person) Bool(path string) bool {
	v, _ := p.Lookup(path)
	return asBool(v)
}

// Int parses the value at path as an integer.
func (p *Person) Int(path string) (int, bool) {
	v, _ := p.Lookup(path)
	return asInt(v)
}

// Date parses the value at path using DateLayout.
func (p *Person) Date(path string) (time.Time, bool) {
	v, _ := p.Lookup(path)
	return asDate(v)
}

// Sub returns a read-only view of the nested record at key. Missing or
// non-record values yield an empty view.
func (p *Person) Sub(key string) Reader {
	v, _ := p.Lookup(key)
	nested, ok := v.(map[string]any)
	if !ok {
		return &Person{values: map[string]any{}}
	}
	return &Person{values: nested}
}

// Clone returns a deep copy.
func (p *Person) Clone() *Person {
	if p == nil {
		return New()
	}
	return &Person{values: cloneMap(p.values)}
}

// Map returns a deep copy of the nested values.
func (p *Person) Map() map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return cloneMap(p.values)
}

// Paths lists every leaf path in sorted order.
func (p *Person) Paths() []string {
	if p == nil {
		return nil
	}
	var out []string
	collectPaths(p.values, "", &out)
	sort.Strings(out)
	return out
}

// Overlay returns a copy of p with every leaf of other written on top.
func (p *Person) Overlay(other *Person) *Person {
	merged := p.Clone()
	if other == nil {
		return merged
	}
	for _, path := range other.Paths() {
		v, _ := other.Lookup(path)
		merged.Set(path, cloneValue(v))
	}
	return merged
}

// MarshalJSON encodes the nested record.
func (p *Person) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// UnmarshalJSON replaces the record with the decoded payload.
func (p *Person) UnmarshalJSON(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("applicant: decode record: %w", err)
	}
	p.values = map[string]any{}
	p.Merge(values)
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	raw := strings.Split(trimmed, PathSeparator)
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// JoinPath joins segments with the path separator, skipping empty ones.
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, PathSeparator)
}

func lookup(values map[string]any, path string) (any, bool) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, false
	}
	var current any = values
	for _, seg := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		if nested, ok := value.(map[string]any); ok {
			child, ok := dst[key].(map[string]any)
			if !ok {
				child = map[string]any{}
				dst[key] = child
			}
			mergeInto(child, nested)
			continue
		}
		dst[key] = cloneValue(value)
	}
}

func collectPaths(values map[string]any, prefix string, out *[]string) {
	for key, value := range values {
		path := JoinPath(prefix, key)
		if nested, ok := value.(map[string]any); ok {
			collectPaths(nested, path, out)
			continue
		}
		*out = append(*out, path)
	}
}

func cloneMap(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = cloneValue(v[i])
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(DateLayout)
	case fmt.Stringer:
		return v.String()
	case map[string]any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func asBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "on", "1":
			return true
		}
		return false
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func asDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		t, err := time.Parse(DateLayout, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}
