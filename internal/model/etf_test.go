package model

import (
	"encoding/json"
	"testing"
)

func TestNumericString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    NumericString
		wantErr bool
	}{
		{"string", `"$512.30"`, "$512.30", false},
		{"signed percent", `"+12.4%"`, "+12.4%", false},
		{"bare number", `512.3`, "512.3", false},
		{"negative number", `-3`, "-3", false},
		{"null", `null`, "", false},
		{"bool is unknown", `true`, "", false},
		{"object is unknown", `{"v":1}`, "", false},
		{"array is unknown", `[1,2]`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got NumericString
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestETFData_DecodesFullShape(t *testing.T) {
	raw := `{
		"ticker": "VOO",
		"summary": "Tracks the S&P 500.",
		"sector": "Large Blend",
		"currentPrice": "$512.30",
		"performance": {"ytd": "+10.2%", "threeMonth": "2.1%", "sixMonth": "-1.5%", "oneYear": 18},
		"holdings": [{"name": "Apple", "percentage": "7.1%"}, {"name": "Microsoft", "percentage": "6.8%"}],
		"alternatives": [{"ticker": "SPY", "price": "$560.00"}]
	}`

	var data ETFData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("decoding: %v", err)
	}

	if data.Ticker != "VOO" {
		t.Errorf("expected ticker VOO, got %s", data.Ticker)
	}
	if data.Performance.OneYear != "18" {
		t.Errorf("expected oneYear 18, got %q", data.Performance.OneYear)
	}
	if len(data.Holdings) != 2 || data.Holdings[1].Name != "Microsoft" {
		t.Errorf("expected holdings in model order, got %+v", data.Holdings)
	}
	if len(data.Alternatives) != 1 || data.Alternatives[0].Price != "$560.00" {
		t.Errorf("unexpected alternatives: %+v", data.Alternatives)
	}
}

func TestPerformance_Series(t *testing.T) {
	p := Performance{YTD: "+10.5%", ThreeMonth: "2%", SixMonth: "n/a", OneYear: "-4.25%"}

	got := p.Series()
	want := []SeriesPoint{
		{Label: "3M", Value: 2},
		{Label: "6M", Value: 0},
		{Label: "YTD", Value: 10.5},
		{Label: "1Y", Value: -4.25},
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"+12.5%", 12.5},
		{"-3%", -3},
		{" 7 ", 7},
		{"", 0},
		{"N/A", 0},
		{"12.5% YTD", 12.5},
		{"-0.8 pts", -0.8},
		{".5%", 0.5},
		{"NaN%", 0},
		{"inf", 0},
		{"Infinity", 0},
		{"-Inf", 0},
		{"1e999", 0},
	}
	for _, tt := range tests {
		if got := ParsePercent(tt.in); got != tt.want {
			t.Errorf("ParsePercent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.5%", "+12.50%"},
		{"+1", "+1.00%"},
		{"-4", "-4.00%"},
		{"0", "0.00%"},
		{"unknown", "unknown"},
		{"NaN%", "NaN%"},
		{"inf", "inf"},
		{"Infinity", "Infinity"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestETFData_Display(t *testing.T) {
	d := &ETFData{
		CurrentPrice: "512.30",
		Performance:  Performance{YTD: "12.5", ThreeMonth: "-2", SixMonth: "n/a", OneYear: "NaN"},
	}
	want := Display{Price: "$512.30", YTD: "+12.50%", ThreeMonth: "-2.00%", SixMonth: "n/a", OneYear: "NaN"}
	if got := d.Display(); got != want {
		t.Errorf("Display() = %+v, want %+v", got, want)
	}

	if got := (&ETFData{}).Display().Price; got != "" {
		t.Errorf("expected unknown price to stay empty, got %q", got)
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice("512.30"); got != "$512.30" {
		t.Errorf("expected $512.30, got %s", got)
	}
	if got := FormatPrice("$512.30"); got != "$512.30" {
		t.Errorf("expected price unchanged, got %s", got)
	}
}

func TestNormalizeTicker(t *testing.T) {
	if got := NormalizeTicker("  voo "); got != "VOO" {
		t.Errorf("expected VOO, got %q", got)
	}
}

func TestParseImageSize(t *testing.T) {
	for _, size := range AllImageSizes {
		got, err := ParseImageSize(string(size))
		if err != nil {
			t.Errorf("ParseImageSize(%q): %v", size, err)
		}
		if got != size {
			t.Errorf("expected %s, got %s", size, got)
		}
	}

	for _, bad := range []string{"", "1k", "8K", "large"} {
		if _, err := ParseImageSize(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
