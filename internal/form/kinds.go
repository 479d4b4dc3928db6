// Package form implements the booking form engine: step layout from the
// field registry and service configuration, derived distance fields, the
// three-step wizard, and submission assembly. Nothing in this package does I/O
// except the Refresher, which polls a Source.
package form

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cusspwk/cuss/internal/model"
)

// Values holds wizard input keyed by field name. Map fields hold a
// model.GeoPoint, numbers a float64, checkboxes a bool, everything else a string.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// WidgetSpec describes how one field kind is rendered and how its raw
// input is normalized.
type WidgetSpec struct {
	// Input is the HTML input element or type the client renders.
	Input string
	// Coerce converts a raw decoded JSON value into the canonical Go value.
	Coerce func(f model.FieldDescriptor, raw any) (any, error)
	// Empty reports whether a canonical value counts as "no value".
	Empty func(v any) bool
}

// Widgets is the rendering dispatch table, one entry per field kind.
var Widgets = map[model.FieldKind]WidgetSpec{
	model.KindText:     {Input: "text", Coerce: coerceString, Empty: emptyString},
	model.KindTextarea: {Input: "textarea", Coerce: coerceString, Empty: emptyString},
	model.KindSelect:   {Input: "select", Coerce: coerceSelect, Empty: emptyString},
	model.KindNumber:   {Input: "number", Coerce: coerceNumber, Empty: func(v any) bool { return v == nil }},
	model.KindCheckbox: {Input: "checkbox", Coerce: coerceBool, Empty: emptyBool},
	model.KindMap:      {Input: "map", Coerce: coercePoint, Empty: emptyPoint},
}

// Coerce normalizes raw input for field f. A nil raw value stays nil.
func Coerce(f model.FieldDescriptor, raw any) (any, error) {
	spec, ok := Widgets[f.Kind]
	if !ok {
		return nil, fmt.Errorf("field %q: unknown kind %q", f.Name, f.Kind)
	}
	if raw == nil {
		return nil, nil
	}
	v, err := spec.Coerce(f, raw)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return v, nil
}

// IsEmpty reports whether v counts as missing for a field of the given kind.
func IsEmpty(kind model.FieldKind, v any) bool {
	if v == nil {
		return true
	}
	spec, ok := Widgets[kind]
	if !ok {
		return true
	}
	return spec.Empty(v)
}

// ─── Coercion ───────────────────────────────────────────────

func coerceString(_ model.FieldDescriptor, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return nil, fmt.Errorf("expected text, got %T", raw)
}

func coerceSelect(f model.FieldDescriptor, raw any) (any, error) {
	v, err := coerceString(f, raw)
	if err != nil {
		return nil, err
	}
	s := v.(string)
	if s == "" || len(f.Options) == 0 || slices.Contains(f.Options, s) {
		return s, nil
	}
	return nil, fmt.Errorf("%q is not one of the options", s)
}

func coerceNumber(_ model.FieldDescriptor, raw any) (any, error) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", v)
		}
		n = f
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", v)
		}
		n = f
	default:
		return nil, fmt.Errorf("expected number, got %T", raw)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("invalid number %v", n)
	}
	return n, nil
}

func coerceBool(_ model.FieldDescriptor, raw any) (any, error) {
	return ToBool(raw), nil
}

// ToBool coerces loosely typed checkbox input ("on", "true", 1, ...) to bool.
func ToBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes", "1", "ya":
			return true
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

func coercePoint(_ model.FieldDescriptor, raw any) (any, error) {
	return ToPoint(raw)
}

// ToPoint converts a decoded JSON object {lat, lng, address} into a GeoPoint.
func ToPoint(raw any) (model.GeoPoint, error) {
	switch v := raw.(type) {
	case nil:
		return model.GeoPoint{}, nil
	case model.GeoPoint:
		return v, nil
	case *model.GeoPoint:
		if v == nil {
			return model.GeoPoint{}, nil
		}
		return *v, nil
	case map[string]any:
		var p model.GeoPoint
		var err error
		if p.Lat, err = pointCoord(v["lat"]); err != nil {
			return model.GeoPoint{}, fmt.Errorf("lat: %w", err)
		}
		if p.Lng, err = pointCoord(v["lng"]); err != nil {
			return model.GeoPoint{}, fmt.Errorf("lng: %w", err)
		}
		if addr, ok := v["address"].(string); ok {
			p.Address = addr
		}
		return p, nil
	}
	return model.GeoPoint{}, fmt.Errorf("expected location object, got %T", raw)
}

func pointCoord(raw any) (float64, error) {
	if raw == nil {
		return 0, nil
	}
	v, err := coerceNumber(model.FieldDescriptor{}, raw)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return v.(float64), nil
}

// ─── Emptiness ──────────────────────────────────────────────

func emptyString(v any) bool {
	s, ok := v.(string)
	return !ok || strings.TrimSpace(s) == ""
}

func emptyBool(v any) bool {
	b, ok := v.(bool)
	return !ok || !b
}

func emptyPoint(v any) bool {
	p, ok := v.(model.GeoPoint)
	return !ok || !p.HasCoordinates()
}
