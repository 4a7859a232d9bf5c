// Package market reports whether the exchange a ticker trades on is open, so
// a quoted price can be labelled live or last close.
package market

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// Session describes the exchange state at a point in time.
type Session struct {
	MIC        string `json:"mic"`
	TradingDay bool   `json:"tradingDay"`
	Open       bool   `json:"open"`
}

// suffixMICs maps Yahoo-style ticker suffixes to ISO 10383 MIC codes.
var suffixMICs = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".MI": "xmil",
	".MC": "xmad",
	".SW": "xswx",
	".TO": "xtse",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
}

// MICFor returns the exchange code for a ticker, defaulting to NYSE.
func MICFor(ticker string) string {
	if i := strings.LastIndex(ticker, "."); i > 0 {
		if mic, ok := suffixMICs[strings.ToUpper(ticker[i:])]; ok {
			return mic
		}
	}
	return "xnys"
}

// SessionFor reports the session state of the ticker's exchange at now.
// If no calendar is available it falls back to Mon-Fri 09:30-16:00 New York.
func SessionFor(ticker string, now time.Time) Session {
	mic := MICFor(ticker)
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		mic = "xnys"
		cal = calendar.GetCalendar(mic)
	}
	if cal == nil {
		return fallbackSession(mic, now)
	}

	t := now.In(cal.Loc)
	return Session{
		MIC:        mic,
		TradingDay: cal.IsBusinessDay(t),
		Open:       cal.IsOpen(t),
	}
}

func fallbackSession(mic string, now time.Time) Session {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	t := now.In(loc)

	weekday := t.Weekday()
	tradingDay := weekday != time.Saturday && weekday != time.Sunday
	minutes := t.Hour()*60 + t.Minute()
	open := tradingDay && minutes >= 9*60+30 && minutes < 16*60

	return Session{MIC: mic, TradingDay: tradingDay, Open: open}
}
