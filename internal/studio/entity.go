package studio

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Desktop placement fields shared by every placeable entity.
const (
	FieldPositionX = "positionX"
	FieldPositionY = "positionY"
)

// Entity is a typed device inside the document: a stable identifier, a
// device type, an open bag of named fields, and the ids of entities whose
// audio output feeds this one.
type Entity struct {
	ID     string                `json:"id"`
	Type   string                `json:"type"`
	Fields map[string]FieldValue `json:"fields,omitempty"`
	Inputs []string              `json:"inputs,omitempty"`
}

// FieldKind tags the scalar stored in a FieldValue.
type FieldKind int

const (
	FieldUnset FieldKind = iota
	FieldNumber
	FieldText
	FieldBool
)

// FieldValue is a tagged scalar field value. Entity fields have no closed
// per-type schema; existence and kind are checked at the point of use.
type FieldValue struct {
	kind    FieldKind
	number  float64
	text    string
	boolean bool
}

// Number builds a numeric field value.
func Number(v float64) FieldValue { return FieldValue{kind: FieldNumber, number: v} }

// Text builds a text field value.
func Text(v string) FieldValue { return FieldValue{kind: FieldText, text: v} }

// Bool builds a boolean field value.
func Bool(v bool) FieldValue { return FieldValue{kind: FieldBool, boolean: v} }

// FieldValueOf converts a loosely-typed scalar (as decoded from tool
// arguments) into a FieldValue.
func FieldValueOf(v any) (FieldValue, error) {
	switch value := v.(type) {
	case float64:
		return Number(value), nil
	case float32:
		return Number(float64(value)), nil
	case int:
		return Number(float64(value)), nil
	case int64:
		return Number(float64(value)), nil
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return FieldValue{}, fmt.Errorf("invalid numeric value %q: %w", value.String(), err)
		}
		return Number(f), nil
	case string:
		return Text(value), nil
	case bool:
		return Bool(value), nil
	default:
		return FieldValue{}, fmt.Errorf("unsupported field value type %T (expected number, string, or boolean)", v)
	}
}

// Kind returns the scalar kind held by the value.
func (f FieldValue) Kind() FieldKind { return f.kind }

// AsNumber returns the numeric value and whether the field holds one.
func (f FieldValue) AsNumber() (float64, bool) { return f.number, f.kind == FieldNumber }

// AsText returns the text value and whether the field holds one.
func (f FieldValue) AsText() (string, bool) { return f.text, f.kind == FieldText }

// AsBool returns the boolean value and whether the field holds one.
func (f FieldValue) AsBool() (bool, bool) { return f.boolean, f.kind == FieldBool }

// Interface returns the underlying scalar as an any, or nil when unset.
func (f FieldValue) Interface() any {
	switch f.kind {
	case FieldNumber:
		return f.number
	case FieldText:
		return f.text
	case FieldBool:
		return f.boolean
	default:
		return nil
	}
}

// MarshalJSON encodes the value as its bare scalar.
func (f FieldValue) MarshalJSON() ([]byte, error) {
	if f.kind == FieldUnset {
		return []byte("null"), nil
	}
	return json.Marshal(f.Interface())
}

// UnmarshalJSON decodes a bare scalar into a tagged value.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	var raw any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*f = FieldValue{}
		return nil
	}
	value, err := FieldValueOf(raw)
	if err != nil {
		return err
	}
	*f = value
	return nil
}
