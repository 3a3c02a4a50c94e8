package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tells how a cell was typed by the parser.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a single typed cell.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	flag bool
}

func EmptyValue() Value { return Value{kind: KindEmpty} }
func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// String returns the cell as text. Empty cells render as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// Number applies the numeric-parse-on-read rule to the cell.
func (v Value) Number() (float64, bool) {
	return ParseNumber(v)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = EmptyValue()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("cell value: %w", err)
		}
		*v = NumberValue(f)
	}
	return nil
}

// Row is one parsed record: column name to cell, in header order.
// A Row is never mutated after construction.
type Row struct {
	keys   []string
	values map[string]Value
}

// NewRow pairs keys with values. Keys without a value get an empty cell;
// a repeated key keeps its first position and its last value.
func NewRow(keys []string, values []Value) Row {
	r := Row{
		keys:   make([]string, 0, len(keys)),
		values: make(map[string]Value, len(keys)),
	}
	for i, k := range keys {
		v := EmptyValue()
		if i < len(values) {
			v = values[i]
		}
		if _, seen := r.values[k]; !seen {
			r.keys = append(r.keys, k)
		}
		r.values[k] = v
	}
	return r
}

// Keys returns the column names in header order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r Row) Len() int { return len(r.keys) }

func (r Row) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Text returns the trimmed text of a cell, or "" when absent.
func (r Row) Text(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// Number reads key as a number; ok is false for absent or non-numeric cells.
func (r Row) Number(key string) (float64, bool) {
	v, ok := r.values[key]
	if !ok {
		return 0, false
	}
	return v.Number()
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var keys []string
	var values []Value
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("row field %q: %w", key, err)
		}
		keys = append(keys, key)
		values = append(values, v)
		return nil
	})
	if err != nil {
		return err
	}
	*r = NewRow(keys, values)
	return nil
}

// decodeOrderedObject walks a JSON object calling fn for each member in
// document order. A JSON null decodes as an empty object.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
