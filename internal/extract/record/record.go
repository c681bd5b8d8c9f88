package record

import (
	"fmt"
	"strconv"
)

type ValueKind int

const (
	VALUE_ABSENT ValueKind = iota
	VALUE_STRING
	VALUE_INT
	VALUE_FLOAT
)

func (k ValueKind) String() string {
	switch k {
	case VALUE_STRING:
		return "string"
	case VALUE_INT:
		return "int"
	case VALUE_FLOAT:
		return "float"
	default:
		return "absent"
	}
}

// Value is one of: absent, string, integer, float.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
}

func Absent() Value {
	return Value{Kind: VALUE_ABSENT}
}

func String(s string) Value {
	return Value{Kind: VALUE_STRING, Str: s}
}

func Int(i int64) Value {
	return Value{Kind: VALUE_INT, Int: i}
}

func Float(f float64) Value {
	return Value{Kind: VALUE_FLOAT, Float: f}
}

// IsEmpty reports whether the value is absent or an empty string.
func (v Value) IsEmpty() bool {
	return v.Kind == VALUE_ABSENT || (v.Kind == VALUE_STRING && v.Str == "")
}

// Text returns the display form of the value, absent values render as "".
func (v Value) Text() string {
	switch v.Kind {
	case VALUE_STRING:
		return v.Str
	case VALUE_INT:
		return strconv.FormatInt(v.Int, 10)
	case VALUE_FLOAT:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return ""
	}
}

// Any returns the value as a plain go value (nil, string, int64 or float64).
func (v Value) Any() any {
	switch v.Kind {
	case VALUE_STRING:
		return v.Str
	case VALUE_INT:
		return v.Int
	case VALUE_FLOAT:
		return v.Float
	default:
		return nil
	}
}

func (v Value) GoString() string {
	if v.Kind == VALUE_ABSENT {
		return "absent"
	}
	return fmt.Sprintf("%s(%q)", v.Kind, v.Text())
}

type Field struct {
	Name  string
	Value Value
}

// Record is an ordered mapping of field name to value tagged with the section that was
// active when it was produced.
type Record struct {
	Section string
	Fields  []Field
}

func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Absent(), false
}

// Raw returns the text of a field, "" when the field is missing.
func (r Record) Raw(name string) string {
	v, _ := r.Get(name)
	return v.Text()
}

// Set replaces the value of an existing field or appends a new one.
func (r *Record) Set(name string, value Value) {
	for i, f := range r.Fields {
		if f.Name == name {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// SetString sets a string field, empty strings are ignored.
func (r *Record) SetString(name, value string) {
	if value == "" {
		return
	}
	r.Set(name, String(value))
}

// NonEmpty counts the fields holding a value.
func (r Record) NonEmpty() int {
	count := 0
	for _, f := range r.Fields {
		if !f.Value.IsEmpty() {
			count++
		}
	}
	return count
}

// Valid reports whether the record has at least two non-empty fields beyond its section,
// anything less is single-field noise.
func (r Record) Valid() bool {
	return r.NonEmpty() >= 2
}

func (r Record) Clone() Record {
	fields := make([]Field, len(r.Fields))
	copy(fields, r.Fields)
	return Record{Section: r.Section, Fields: fields}
}

// Map flattens the record, the section key is stored under "section" and absent values
// are omitted.
func (r Record) Map() map[string]any {
	out := map[string]any{"section": r.Section}
	for _, f := range r.Fields {
		if f.Value.Kind == VALUE_ABSENT {
			continue
		}
		out[f.Name] = f.Value.Any()
	}
	return out
}

// SummaryRecord holds aggregate statistics for one (section, sub-period) pair.
type SummaryRecord struct {
	Record
	SubPeriod string
}

func (s SummaryRecord) Map() map[string]any {
	out := s.Record.Map()
	out["sub_period"] = s.SubPeriod
	return out
}
