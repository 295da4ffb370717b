// Package capacity indexes fluid and system capacities by normalized label.
package capacity

import (
	"strings"
)

// GroupName is the adjustments group that carries capacities. The match is exact.
const GroupName = "Capacities"

// Entry is one raw capacity row as the provider reports it.
type Entry struct {
	Label string
	Value string
	Unit  string
}

// Index maps a normalized label to "{value} {unit}". It is built once per request and only read
// afterwards.
type Index map[string]string

// NormalizeLabel lowercases label, strips commas and collapses runs of whitespace.
// Every capacity key and every lookup goes through it.
func NormalizeLabel(label string) string {
	lowered := strings.ToLower(strings.ReplaceAll(label, ",", ""))
	return strings.Join(strings.Fields(lowered), " ")
}

// FormatValue joins value and unit with a single space. An empty value yields "".
func FormatValue(value, unit string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.TrimSpace(value + " " + strings.TrimSpace(unit))
}

// Build indexes entries. Entries without a label or value are skipped; a repeated label keeps
// the last value seen.
func Build(entries []Entry) Index {
	idx := make(Index, len(entries))
	for _, e := range entries {
		key := NormalizeLabel(e.Label)
		val := FormatValue(e.Value, e.Unit)
		if key == "" || val == "" {
			continue
		}
		idx[key] = val
	}
	return idx
}

// Lookup returns the value for label, normalizing it first.
func (idx Index) Lookup(label string) (string, bool) {
	if idx == nil {
		return "", false
	}
	v, ok := idx[NormalizeLabel(label)]
	return v, ok
}

// First returns the value of the first label present in idx, in order.
func (idx Index) First(labels ...string) (string, bool) {
	for _, label := range labels {
		if v, ok := idx.Lookup(label); ok {
			return v, true
		}
	}
	return "", false
}

// Clone returns a copy safe to hand out, or nil for an empty index.
func (idx Index) Clone() map[string]string {
	if len(idx) == 0 {
		return nil
	}
	out := make(map[string]string, len(idx))
	for k, v := range idx {
		out[k] = v
	}
	return out
}
