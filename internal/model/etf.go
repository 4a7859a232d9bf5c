// Package model defines the core data types for the ETF analysis service.
// Field names and JSON tags follow the contract the front-end renders, so the
// camelCase tags are part of the public API.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NumericString holds a numeric-looking value exactly as the model produced it,
// e.g. "$512.30" or "+12.4%". Upstream output is advisory in grounded mode, so a
// bare JSON number or null is accepted and kept in its textual form.
type NumericString string

// UnmarshalJSON accepts a JSON string or number. Any other value (null, a
// boolean, an object) is treated as unknown and stored as "".
func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*n = ""
		return nil
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(s)
	case c == '-' || (c >= '0' && c <= '9'):
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("numeric field: %w", err)
		}
		*n = NumericString(num.String())
	default:
		*n = ""
	}
	return nil
}

func (n NumericString) String() string { return string(n) }

// Performance holds period returns as signed percentage strings.
type Performance struct {
	YTD        NumericString `json:"ytd"`
	ThreeMonth NumericString `json:"threeMonth"`
	SixMonth   NumericString `json:"sixMonth"`
	OneYear    NumericString `json:"oneYear"`
}

// Holding is one entry of the fund's top holdings, in model order.
type Holding struct {
	Name       string        `json:"name"`
	Percentage NumericString `json:"percentage"`
}

// Alternative is a comparable fund the UI offers as a follow-up search.
type Alternative struct {
	Ticker string        `json:"ticker"`
	Price  NumericString `json:"price"`
}

// ETFData is the record returned by the analysis shim. It is created per
// request and replaced wholesale on the next search.
type ETFData struct {
	Ticker       string        `json:"ticker"`
	Summary      string        `json:"summary"`
	Sector       string        `json:"sector"`
	CurrentPrice NumericString `json:"currentPrice"`
	Performance  Performance   `json:"performance"`
	Holdings     []Holding     `json:"holdings"`
	Alternatives []Alternative `json:"alternatives"`
}

// SeriesPoint is one bar of the performance chart.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series returns the four chart bars in display order: 3M, 6M, YTD, 1Y.
// Non-numeric values become 0.
func (p Performance) Series() []SeriesPoint {
	return []SeriesPoint{
		{Label: "3M", Value: ParsePercent(string(p.ThreeMonth))},
		{Label: "6M", Value: ParsePercent(string(p.SixMonth))},
		{Label: "YTD", Value: ParsePercent(string(p.YTD))},
		{Label: "1Y", Value: ParsePercent(string(p.OneYear))},
	}
}

// Display holds the formatted strings a client shows next to the raw values.
type Display struct {
	Price      string `json:"price"`
	YTD        string `json:"ytd"`
	ThreeMonth string `json:"threeMonth"`
	SixMonth   string `json:"sixMonth"`
	OneYear    string `json:"oneYear"`
}

// Display formats the price and period returns for presentation.
func (d *ETFData) Display() Display {
	return Display{
		Price:      FormatPrice(string(d.CurrentPrice)),
		YTD:        FormatPercent(string(d.Performance.YTD)),
		ThreeMonth: FormatPercent(string(d.Performance.ThreeMonth)),
		SixMonth:   FormatPercent(string(d.Performance.SixMonth)),
		OneYear:    FormatPercent(string(d.Performance.OneYear)),
	}
}

// NormalizeTicker trims whitespace and upper-cases a ticker for display and storage.
func NormalizeTicker(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// leadingNumber matches the numeric prefix of strings like "+12.5% YTD".
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParsePercent parses the leading number of a percentage string, so "+12.5%"
// and "12.5% YTD" both give 12.5. Anything without a finite leading number is
// treated as zero.
func ParsePercent(v string) float64 {
	f, ok := parseFinite(leadingNumber.FindString(strings.TrimSpace(v)))
	if !ok {
		return 0
	}
	return f
}

// FormatPercent renders a percentage string as "+1.23%" / "-4.00%".
// Non-numeric input is returned unchanged.
func FormatPercent(v string) string {
	cleaned := strings.NewReplacer("+", "", "%", "").Replace(strings.TrimSpace(v))
	f, ok := parseFinite(cleaned)
	if !ok {
		return v
	}
	sign := ""
	if f > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, f)
}

// parseFinite parses s as a float, rejecting NaN and infinities, which
// strconv accepts but JSON cannot encode.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatPrice prefixes a dollar sign unless the price already has one.
// An unknown (empty) price stays empty.
func FormatPrice(price string) string {
	price = strings.TrimSpace(price)
	if price == "" || strings.HasPrefix(price, "$") {
		return price
	}
	return "$" + price
}

// PopularETFs is the pool a blank search draws from.
var PopularETFs = []string{
	"VOO", "QQQ", "SCHD", "VTI", "JEPI", "ARKK", "SPY", "IWM", "VEA", "VWO",
	"XLK", "XLF", "DIA", "SMH", "TLT", "GLD", "VT", "VXUS", "VIG", "BND",
}
