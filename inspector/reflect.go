// Package inspector turns tagged component structs into labeled fields for
// debug views and the observation server.
package inspector

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Widget types for rendering fields.
type Widget int

const (
	WidgetAuto Widget = iota
	WidgetLabel
	WidgetBar
	WidgetBool
	WidgetSkip
)

// String returns the tag name of a widget.
func (w Widget) String() string {
	switch w {
	case WidgetLabel:
		return "label"
	case WidgetBar:
		return "bar"
	case WidgetBool:
		return "bool"
	case WidgetSkip:
		return "skip"
	}
	return "auto"
}

// MarshalText encodes the widget by name.
func (w Widget) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// Field represents a component field with rendering hints.
type Field struct {
	Name   string  `json:"name"`
	Value  any     `json:"value"`
	Text   string  `json:"text"` // Value formatted with the fmt option
	Widget Widget  `json:"widget"`
	Max    float64 `json:"max,omitempty"` // bar scale
}

// Section groups the fields of one component.
type Section struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// ParseTag parses an inspect struct tag.
// Format: `inspect:"widget[,option:value...]"`
// Examples:
//
//	`inspect:"bar"`
//	`inspect:"bar,max:200"`
//	`inspect:"label,fmt:%.1f"`
//	`inspect:"skip"`
func ParseTag(tag string) (Widget, map[string]string) {
	options := make(map[string]string)

	if tag == "" {
		return WidgetAuto, options
	}

	parts := strings.Split(tag, ",")
	widgetStr := strings.TrimSpace(parts[0])

	var widget Widget
	switch widgetStr {
	case "label":
		widget = WidgetLabel
	case "bar":
		widget = WidgetBar
	case "bool":
		widget = WidgetBool
	case "skip":
		widget = WidgetSkip
	default:
		widget = WidgetAuto
	}

	// Parse options
	for _, part := range parts[1:] {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) == 2 {
			options[kv[0]] = kv[1]
		}
	}

	return widget, options
}

// Inspect extracts one section per component, named after its type.
func Inspect(components ...any) []Section {
	sections := make([]Section, 0, len(components))
	for _, c := range components {
		fields := ExtractFields(c)
		if fields == nil {
			continue
		}
		t := reflect.TypeOf(c)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		sections = append(sections, Section{Name: t.Name(), Fields: fields})
	}
	return sections
}

// ExtractFields uses reflection to extract all fields from a component.
// Nil pointers and non-structs yield nil.
func ExtractFields(component any) []Field {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	fields := []Field{}

	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)

		// Skip unexported fields
		if !sf.IsExported() {
			continue
		}

		widget, options := ParseTag(sf.Tag.Get("inspect"))
		if widget == WidgetSkip {
			continue
		}

		// Auto-detect widget if not specified
		if widget == WidgetAuto {
			widget = autoDetectWidget(fv)
		}

		f := Field{
			Name:   sf.Name,
			Value:  fv.Interface(),
			Widget: widget,
		}
		f.Text = FormatValue(f.Value, options["fmt"])
		if widget == WidgetBar {
			f.Max = GetMax(options)
		}
		fields = append(fields, f)
	}

	return fields
}

// autoDetectWidget chooses a widget based on the field type.
func autoDetectWidget(v reflect.Value) Widget {
	switch v.Kind() {
	case reflect.Bool:
		return WidgetBool
	case reflect.Array, reflect.Slice:
		// Arrays of floats become bar groups
		if _, ok := GetFloatSlice(v.Interface()); ok {
			return WidgetBar
		}
	}
	return WidgetLabel
}

// FormatValue formats a field value as a string. Float arrays are formatted
// element by element.
func FormatValue(value any, fmtStr string) string {
	if xs, ok := GetFloatSlice(value); ok {
		parts := make([]string, len(xs))
		for i, x := range xs {
			parts[i] = FormatValue(x, fmtStr)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	if fmtStr == "" {
		switch v := value.(type) {
		case float32:
			return fmt.Sprintf("%.2f", v)
		case float64:
			return fmt.Sprintf("%.2f", v)
		default:
			return fmt.Sprintf("%v", value)
		}
	}
	return fmt.Sprintf(fmtStr, value)
}

// GetMax returns the max option as a float, defaulting to 1.0.
func GetMax(options map[string]string) float64 {
	if maxStr, ok := options["max"]; ok {
		if max, err := strconv.ParseFloat(maxStr, 64); err == nil {
			return max
		}
	}
	return 1.0
}

// GetFloatValue extracts a float64 from numeric types.
func GetFloatValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint32:
		return float64(v), true
	default:
		return 0, false
	}
}

// BarFill returns a bar field's value as a fraction of its max, clamped to [0, 1].
func BarFill(f Field) (float64, bool) {
	if f.Widget != WidgetBar || f.Max <= 0 {
		return 0, false
	}
	v, ok := GetFloatValue(f.Value)
	if !ok {
		return 0, false
	}
	return min(max(v/f.Max, 0), 1), true
}

// GetFloatSlice extracts a slice of float64 from float arrays and slices.
func GetFloatSlice(value any) ([]float64, bool) {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Array && v.Kind() != reflect.Slice {
		return nil, false
	}

	result := make([]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		switch e := v.Index(i).Interface().(type) {
		case float32:
			result[i] = float64(e)
		case float64:
			result[i] = e
		default:
			return nil, false
		}
	}
	return result, true
}
