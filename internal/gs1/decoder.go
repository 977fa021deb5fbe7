// Package gs1 decodes GS1 element strings as emitted by warehouse barcode
// scanners. Scanners in the field rarely preserve FNC1 group separators, so
// the decoder also falls back to scanning for known application identifiers
// to delimit variable-length values.
package gs1

import (
	"strings"
	"time"
)

// Application identifiers with fixed-length values.
var aiFixed = map[string]int{
	"00": 18, // SSCC
	"01": 14, // GTIN
	"11": 6,  // manufacture date, YYMMDD
	"17": 6,  // expiry date, YYMMDD
}

// Application identifiers with variable-length values.
var aiVariable = map[string]bool{
	"10":  true, // batch / lot
	"21":  true, // serial number
	"30":  true, // count
	"37":  true, // count of trade items
	"92":  true, // internal
	"240": true, // additional product id
}

// allAIs is the delimiter scan list for variable-length values.
var allAIs = []string{"00", "01", "10", "11", "17", "21", "30", "37", "92", "240"}

// Well-known AI keys.
const (
	AISSCC        = "00"
	AIGTIN        = "01"
	AIBatch       = "10"
	AIMfgDate     = "11"
	AIExpiry      = "17"
	AISerial      = "21"
	AICount       = "30"
	AITradeCount  = "37"
	AIInternal    = "92"
	AIAdditional  = "240"
	groupSep      = "|"
	groupSepASCII = "\x1d"
)

// normalize replaces FNC1 group separators with a pipe and strips the
// human-readable parentheses some label printers include.
func normalize(raw string) string {
	r := strings.NewReplacer(groupSepASCII, groupSep, "(", "", ")", "")
	return r.Replace(raw)
}

// Decode parses a concatenated GS1 element string into a map keyed by
// application identifier. Values of fixed-length AIs are taken verbatim.
// Values of variable-length AIs run until the first group separator or the
// next occurrence of any known AI, whichever comes first. Unknown leading
// characters are skipped one at a time. Dates stay in their raw YYMMDD form.
//
// The AI scan is a substring search, so a variable value that happens to
// contain a known AI digraph is cut short at that digraph. This matches the
// behaviour of the scanner firmware this decoder interoperates with.
func Decode(raw string) map[string]string {
	raw = normalize(raw)
	data := make(map[string]string)

	i := 0
	for i < len(raw) {
		var ai string
		var start int
		if strings.HasPrefix(raw[i:], AIAdditional) {
			ai = AIAdditional
			start = i + 3
		} else if i+2 <= len(raw) {
			ai = raw[i : i+2]
			start = i + 2
		} else {
			break
		}

		if ln, ok := aiFixed[ai]; ok {
			end := start + ln
			if end > len(raw) {
				end = len(raw)
			}
			data[ai] = raw[start:end]
			i = start + ln
			continue
		}

		if aiVariable[ai] {
			if start > len(raw) {
				start = len(raw)
			}
			end := len(raw)
			if pipe := strings.Index(raw[start:], groupSep); pipe != -1 {
				end = start + pipe
			}
			for _, next := range allAIs {
				if p := strings.Index(raw[start:], next); p != -1 && start+p < end {
					end = start + p
				}
			}
			data[ai] = raw[start:end]
			i = end
			continue
		}

		i++
	}

	return data
}

// ParseDate converts a raw YYMMDD date value (AIs 11 and 17) to a time.Time.
// Two-digit years map to 20xx. A day of 00, which GS1 allows to mean "end of
// month", resolves to the last day of that month.
func ParseDate(raw string) (time.Time, bool) {
	if len(raw) != 6 {
		return time.Time{}, false
	}
	year, ok1 := atoi2(raw[0:2])
	month, ok2 := atoi2(raw[2:4])
	day, ok3 := atoi2(raw[4:6])
	if !ok1 || !ok2 || !ok3 || month < 1 || month > 12 {
		return time.Time{}, false
	}

	if day == 0 {
		// last day of month: first of next month minus one day
		t := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
		return t.AddDate(0, 0, -1), true
	}
	if day > 31 {
		return time.Time{}, false
	}
	return time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func atoi2(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
