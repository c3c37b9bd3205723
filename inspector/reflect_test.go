package inspector

import (
	"encoding/json"
	"strings"
	"testing"
)

type vitals struct {
	Hunger  float64    `inspect:"bar,max:200"`
	Age     float64    `inspect:"label,fmt:%.1fs"`
	Alive   bool       `inspect:"bool"`
	Secret  int        `inspect:"skip"`
	Weights [3]float64 // auto
	Name    string
	hidden  int
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag        string
		wantWidget Widget
		wantOpts   map[string]string
	}{
		{"", WidgetAuto, map[string]string{}},
		{"bar", WidgetBar, map[string]string{}},
		{"bar,max:200", WidgetBar, map[string]string{"max": "200"}},
		{"label, fmt:%.1fs", WidgetLabel, map[string]string{"fmt": "%.1fs"}},
		{"skip", WidgetSkip, map[string]string{}},
		{"mystery", WidgetAuto, map[string]string{}},
	}
	for _, tt := range tests {
		w, opts := ParseTag(tt.tag)
		if w != tt.wantWidget {
			t.Errorf("ParseTag(%q) widget = %v, want %v", tt.tag, w, tt.wantWidget)
		}
		if len(opts) != len(tt.wantOpts) {
			t.Errorf("ParseTag(%q) options = %v, want %v", tt.tag, opts, tt.wantOpts)
			continue
		}
		for k, v := range tt.wantOpts {
			if opts[k] != v {
				t.Errorf("ParseTag(%q) option %s = %q, want %q", tt.tag, k, opts[k], v)
			}
		}
	}
}

func TestExtractFields(t *testing.T) {
	v := &vitals{Hunger: 50, Age: 12.345, Alive: true, Secret: 9, Weights: [3]float64{0.5, 1, 2}, Name: "rex", hidden: 1}
	fields := ExtractFields(v)

	wantNames := []string{"Hunger", "Age", "Alive", "Weights", "Name"}
	if len(fields) != len(wantNames) {
		t.Fatalf("got %d fields, want %d: %+v", len(fields), len(wantNames), fields)
	}
	for i, name := range wantNames {
		if fields[i].Name != name {
			t.Errorf("field %d = %s, want %s", i, fields[i].Name, name)
		}
	}

	if fields[0].Widget != WidgetBar || fields[0].Max != 200 {
		t.Errorf("Hunger = %+v, want bar with max 200", fields[0])
	}
	if fill, ok := BarFill(fields[0]); !ok || fill != 0.25 {
		t.Errorf("BarFill(Hunger) = %v, %v, want 0.25, true", fill, ok)
	}
	if fields[1].Text != "12.3s" {
		t.Errorf("Age text = %q, want %q", fields[1].Text, "12.3s")
	}
	if fields[2].Widget != WidgetBool {
		t.Errorf("Alive widget = %v, want bool", fields[2].Widget)
	}
	if fields[3].Widget != WidgetBar || fields[3].Text != "[0.50 1.00 2.00]" {
		t.Errorf("Weights = %+v, want bar with formatted elements", fields[3])
	}
	if fields[4].Widget != WidgetLabel || fields[4].Text != "rex" {
		t.Errorf("Name = %+v, want label rex", fields[4])
	}
}

func TestExtractFieldsNonStruct(t *testing.T) {
	var nilPtr *vitals
	if got := ExtractFields(nilPtr); got != nil {
		t.Errorf("ExtractFields(nil) = %v, want nil", got)
	}
	if got := ExtractFields(42); got != nil {
		t.Errorf("ExtractFields(42) = %v, want nil", got)
	}
}

func TestInspectSections(t *testing.T) {
	sections := Inspect(vitals{Name: "a"}, 3, &vitals{Name: "b"})
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	for _, s := range sections {
		if s.Name != "vitals" {
			t.Errorf("section name = %q, want vitals", s.Name)
		}
	}

	data, err := json.Marshal(sections[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"widget":"bar"`) {
		t.Errorf("encoded section %s does not name its widgets", data)
	}
}

func TestBarFillClamps(t *testing.T) {
	tests := []struct {
		f    Field
		want float64
		ok   bool
	}{
		{Field{Widget: WidgetBar, Value: 3.0, Max: 2}, 1, true},
		{Field{Widget: WidgetBar, Value: -1.0, Max: 2}, 0, true},
		{Field{Widget: WidgetBar, Value: float32(1), Max: 4}, 0.25, true},
		{Field{Widget: WidgetLabel, Value: 1.0, Max: 2}, 0, false},
		{Field{Widget: WidgetBar, Value: "x", Max: 2}, 0, false},
	}
	for i, tt := range tests {
		got, ok := BarFill(tt.f)
		if got != tt.want || ok != tt.ok {
			t.Errorf("case %d: BarFill = %v, %v, want %v, %v", i, got, ok, tt.want, tt.ok)
		}
	}
}
