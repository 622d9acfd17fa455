package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
)

var ErrUnknownField = errors.New("unknown field")

// Field names accepted by GetField and SetField.
const (
	FieldX            = "x"
	FieldY            = "y"
	FieldWidth        = "width"
	FieldHeight       = "height"
	FieldRotate       = "rotate"
	FieldPath         = "path"
	FieldPathEditable = "pathEditable"
	FieldTail         = "tail"
	FieldHead         = "head"
	FieldName         = "name"
	FieldMovable      = "movable"
	FieldRotatable    = "rotatable"
	FieldAnchored     = "anchored"
	FieldAnchor       = "anchor"
	FieldVisible      = "visible"
	FieldStyle        = "style"
)

// GetField returns the current value of a single field.
func GetField(s *Shape, field string) (any, error) {
	switch field {
	case FieldX:
		return s.X, nil
	case FieldY:
		return s.Y, nil
	case FieldWidth:
		return s.Width, nil
	case FieldHeight:
		return s.Height, nil
	case FieldRotate:
		return s.Rotate, nil
	case FieldPath:
		return slices.Clone(s.Path), nil
	case FieldPathEditable:
		return s.PathEditable, nil
	case FieldTail:
		return s.Tail, nil
	case FieldHead:
		return s.Head, nil
	case FieldName:
		return s.Name, nil
	case FieldMovable:
		return s.Movable, nil
	case FieldRotatable:
		return s.Rotatable, nil
	case FieldAnchored:
		return s.Anchored, nil
	case FieldAnchor:
		return s.Anchor, nil
	case FieldVisible:
		return s.Visible, nil
	case FieldStyle:
		return s.Style, nil
	default:
		return nil, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
}

// SetField assigns one field and returns the value it replaced.
func SetField(s *Shape, field string, value any) (any, error) {
	prev, err := GetField(s, field)
	if err != nil {
		return nil, err
	}

	ok := true
	switch field {
	case FieldX, FieldY, FieldWidth, FieldHeight, FieldRotate:
		var f float64
		f, ok = toFloat64(value)
		if ok {
			*floatField(s, field) = f
		}
	case FieldPath:
		var p []geometry.Point
		p, ok = value.([]geometry.Point)
		if ok {
			s.Path = slices.Clone(p)
		}
	case FieldPathEditable, FieldRotatable, FieldAnchored, FieldVisible:
		var b bool
		b, ok = value.(bool)
		if ok {
			*boolField(s, field) = b
		}
	case FieldTail, FieldHead, FieldName:
		var v string
		v, ok = value.(string)
		if ok {
			*stringField(s, field) = v
		}
	case FieldMovable:
		var m Movable
		m, ok = value.(Movable)
		if ok {
			s.Movable = m
		}
	case FieldAnchor:
		var a Anchor
		a, ok = value.(Anchor)
		if ok {
			s.Anchor = a
		}
	case FieldStyle:
		var st Style
		st, ok = value.(Style)
		if ok {
			s.Style = st
		}
	}
	if !ok {
		return nil, fmt.Errorf("field %q: unexpected value type %T", field, value)
	}
	return prev, nil
}

func floatField(s *Shape, field string) *float64 {
	switch field {
	case FieldX:
		return &s.X
	case FieldY:
		return &s.Y
	case FieldWidth:
		return &s.Width
	case FieldHeight:
		return &s.Height
	default:
		return &s.Rotate
	}
}

func boolField(s *Shape, field string) *bool {
	switch field {
	case FieldPathEditable:
		return &s.PathEditable
	case FieldRotatable:
		return &s.Rotatable
	case FieldAnchored:
		return &s.Anchored
	default:
		return &s.Visible
	}
}

func stringField(s *Shape, field string) *string {
	switch field {
	case FieldTail:
		return &s.Tail
	case FieldHead:
		return &s.Head
	default:
		return &s.Name
	}
}

// toFloat64 converts a numeric value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
