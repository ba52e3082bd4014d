// Package protocol defines the VNO wire frames and their protobuf encoding.
//
// A frame is a google.protobuf.Struct whose "type" field names the message and
// whose remaining fields carry its arguments. Numbers travel as doubles.
package protocol

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

// TypeField is the struct key holding the frame type.
const TypeField = "type"

// ErrMissingField is returned when a frame lacks a required field.
var ErrMissingField = errors.New("missing frame field")

// ErrFieldType is returned when a frame field has an unexpected kind.
var ErrFieldType = errors.New("unexpected frame field type")

// Frame is one decoded protocol message.
type Frame struct {
	Type   string
	Fields map[string]any
}

// NewFrame creates a Frame of the given type. fields may be nil.
func NewFrame(typ string, fields map[string]any) Frame {
	if fields == nil {
		fields = map[string]any{}
	}
	return Frame{Type: typ, Fields: fields}
}

// String returns the raw string field key.
//
// Postcondition: Returns ErrMissingField if absent, ErrFieldType if not a string.
func (f Frame) String(key string) (string, error) {
	v, ok := f.Fields[key]
	if !ok {
		return "", fmt.Errorf("%s.%s: %w", f.Type, key, ErrMissingField)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s is %T: %w", f.Type, key, v, ErrFieldType)
	}
	return s, nil
}

// StringOr returns the string field key, or def when it is absent or mistyped.
func (f Frame) StringOr(key, def string) string {
	s, err := f.String(key)
	if err != nil {
		return def
	}
	return s
}

// maxExactFloat is the largest magnitude a float64 holds without losing integer precision.
const maxExactFloat = 1 << 53

// Int returns the integral numeric field key.
//
// Postcondition: Returns ErrMissingField if absent, ErrFieldType if not an integral
// number or beyond the exactly representable float range.
func (f Frame) Int(key string) (int, error) {
	v, ok := f.Fields[key]
	if !ok {
		return 0, fmt.Errorf("%s.%s: %w", f.Type, key, ErrMissingField)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%s.%s is fractional (%v): %w", f.Type, key, n, ErrFieldType)
		}
		if math.Abs(n) > maxExactFloat {
			return 0, fmt.Errorf("%s.%s is out of range (%v): %w", f.Type, key, n, ErrFieldType)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("%s.%s is %T: %w", f.Type, key, v, ErrFieldType)
}

// IntOr returns the numeric field key, or def when it is absent or mistyped.
func (f Frame) IntOr(key string, def int) int {
	n, err := f.Int(key)
	if err != nil {
		return def
	}
	return n
}

// Bool returns the boolean field key.
func (f Frame) Bool(key string) (bool, error) {
	v, ok := f.Fields[key]
	if !ok {
		return false, fmt.Errorf("%s.%s: %w", f.Type, key, ErrMissingField)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s.%s is %T: %w", f.Type, key, v, ErrFieldType)
	}
	return b, nil
}

// BoolOr returns the boolean field key, or def when it is absent or mistyped.
func (f Frame) BoolOr(key string, def bool) bool {
	b, err := f.Bool(key)
	if err != nil {
		return def
	}
	return b
}

// ToProto converts the frame to its protobuf representation.
func (f Frame) ToProto() (*structpb.Struct, error) {
	if f.Type == "" {
		return nil, fmt.Errorf("frame has no type: %w", ErrMissingField)
	}
	m := make(map[string]any, len(f.Fields)+1)
	for k, v := range f.Fields {
		m[k] = v
	}
	m[TypeField] = f.Type
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encoding %s frame: %w", f.Type, err)
	}
	return s, nil
}

// FromProto converts a protobuf struct into a Frame.
//
// Postcondition: Returns ErrMissingField when the struct has no string "type".
func FromProto(s *structpb.Struct) (Frame, error) {
	m := s.AsMap()
	typ, ok := m[TypeField].(string)
	if !ok || typ == "" {
		return Frame{}, fmt.Errorf("decoding frame: %s: %w", TypeField, ErrMissingField)
	}
	delete(m, TypeField)
	return Frame{Type: typ, Fields: m}, nil
}
