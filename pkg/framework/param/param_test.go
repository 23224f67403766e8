package param

import (
	"math"
	"reflect"
	"testing"
)

func TestParameterPlainValue(t *testing.T) {
	p := New("volume", "Volume").Range(0, 10).Default(2).Build()

	if p.GetPlainValue() != 2 {
		t.Errorf("Expected default 2, got %f", p.GetPlainValue())
	}
	if p.GetValue() != 0.2 {
		t.Errorf("Expected normalized 0.2, got %f", p.GetValue())
	}

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside range", 0.3, 0.3},
		{"below range", -1, 0},
		{"above range", 11, 10},
		{"nan ignored", math.NaN(), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.SetPlainValue(tt.in)
			if p.GetPlainValue() != tt.want {
				t.Errorf("Expected %f, got %f", tt.want, p.GetPlainValue())
			}
		})
	}

	p.SetValue(0.5)
	if p.GetPlainValue() != 5 {
		t.Errorf("Expected plain 5 from normalized 0.5, got %f", p.GetPlainValue())
	}

	p.Reset()
	if p.GetPlainValue() != 2 {
		t.Errorf("Expected reset to 2, got %f", p.GetPlainValue())
	}
}

func TestIntParameterRounds(t *testing.T) {
	p := IntParameter("num_voices", "Voices", 1, 512, 16).Build()

	p.SetPlainValue(7.6)
	if p.GetPlainValue() != 8 {
		t.Errorf("Expected 8, got %f", p.GetPlainValue())
	}
	if p.Format() != "8" {
		t.Errorf("Expected \"8\", got %q", p.Format())
	}

	if err := p.SetString("1000"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.GetPlainValue() != 512 {
		t.Errorf("Expected clamp to 512, got %f", p.GetPlainValue())
	}

	if err := p.SetString("many"); err == nil {
		t.Error("Expected parse error")
	}
}

func TestChoice(t *testing.T) {
	p := Choice("voice_policy", "Policy",
		[]string{"forget", "lowest", "highest", "oldest"},
		[]string{"Forget", "Lowest", "Highest", "Oldest"}, 3).Build()

	if !p.IsList() {
		t.Error("Expected list parameter")
	}
	if p.Option() != "oldest" || p.Format() != "Oldest" {
		t.Errorf("Expected oldest/Oldest, got %s/%s", p.Option(), p.Format())
	}

	tests := []struct {
		text string
		want string
	}{
		{"lowest", "lowest"},
		{"HIGHEST", "highest"},
		{" Forget ", "forget"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if err := p.SetString(tt.text); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if p.Option() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, p.Option())
			}
		})
	}

	if err := p.SetString("newest"); err == nil {
		t.Error("Expected error for unknown option")
	}
}

func TestToggle(t *testing.T) {
	p := New("comb_unison", "Combined").Toggle().Build()

	if p.Format() != "Off" {
		t.Errorf("Expected Off, got %s", p.Format())
	}
	if err := p.SetString("on"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.GetPlainValue() != 1 || p.Format() != "On" {
		t.Errorf("Expected 1/On, got %f/%s", p.GetPlainValue(), p.Format())
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name   string
		format func(float64) string
		value  float64
		want   string
	}{
		{"hz", FrequencyFormatter, 440, "440.0 Hz"},
		{"khz", FrequencyFormatter, 2500, "2.50 kHz"},
		{"percent", PercentFormatter, 0.25, "25%"},
		{"ms", TimeFormatter, 0.05, "50.0 ms"},
		{"seconds", TimeFormatter, 2, "2.00 s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format(tt.value); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParsers(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) (float64, error)
		text  string
		want  float64
	}{
		{"hz", FrequencyParser, "440 Hz", 440},
		{"khz", FrequencyParser, "2kHz", 2000},
		{"percent", PercentParser, "50%", 0.5},
		{"bare level", PercentParser, "0.7", 0.7},
		{"ms", TimeParser, "250ms", 0.25},
		{"seconds", TimeParser, "1.5 s", 1.5},
		{"on", OnOffParser, "yes", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.text)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := New("a", "A").Default(0.5).Build()
	b := New("b", "B").Build()

	if err := r.Add(a, b); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := r.Add(New("a", "again").Build()); err == nil {
		t.Error("Expected duplicate id error")
	}

	if r.Count() != 2 {
		t.Errorf("Expected 2 parameters, got %d", r.Count())
	}
	if r.Get("b") != b || r.Get("missing") != nil {
		t.Error("Expected lookup by id")
	}
	if r.GetByIndex(0) != a || r.GetByIndex(2) != nil || r.GetByIndex(-1) != nil {
		t.Error("Expected lookup by index")
	}
	if !reflect.DeepEqual(r.IDs(), []string{"a", "b"}) {
		t.Errorf("Expected ids [a b], got %v", r.IDs())
	}

	a.SetPlainValue(1)
	r.ResetAll()
	if a.GetPlainValue() != 0.5 {
		t.Errorf("Expected reset to 0.5, got %f", a.GetPlainValue())
	}
}
