package style

import (
	"strconv"
	"strings"
)

// Unit classifies a parsed CSS value.
type Unit string

const (
	UnitNone    Unit = ""        // property not set
	UnitAuto    Unit = "auto"    // auto
	UnitPx      Unit = "px"      // absolute length, normalised to px
	UnitPercent Unit = "percent" // percentage
	UnitNumber  Unit = "number"  // unitless number (line-height multipliers)
	UnitKeyword Unit = "keyword" // anything else: normal, calc(), max-content, ...
)

// Length is a computed CSS value reduced to what the eligibility and layout
// heuristics need.
type Length struct {
	Value float64
	Unit  Unit
	Raw   string
}

// IsSet reports whether the property had any value.
func (l Length) IsSet() bool { return l.Unit != UnitNone }

// IsFixed reports whether the value is an explicit length: not a percentage,
// not auto, not a keyword.
func (l Length) IsFixed() bool { return l.Unit == UnitPx }

// Pixels returns the value in px when known.
func (l Length) Pixels() (float64, bool) {
	if l.Unit != UnitPx {
		return 0, false
	}
	return l.Value, true
}

const remPx = 16

var absoluteUnits = map[string]float64{
	"px":  1,
	"pt":  96.0 / 72.0,
	"pc":  16,
	"in":  96,
	"cm":  96 / 2.54,
	"mm":  96 / 25.4,
	"em":  remPx,
	"rem": remPx,
}

// ParseLength parses a single CSS value.
func ParseLength(raw string) Length {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
	switch v {
	case "":
		return Length{}
	case "auto":
		return Length{Unit: UnitAuto, Raw: v}
	}
	if num, ok := strings.CutSuffix(v, "%"); ok {
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return Length{Value: f, Unit: UnitPercent, Raw: v}
		}
		return Length{Unit: UnitKeyword, Raw: v}
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return Length{Value: f, Unit: UnitNumber, Raw: v}
	}
	i := len(v)
	for i > 0 && v[i-1] >= 'a' && v[i-1] <= 'z' {
		i--
	}
	if scale, ok := absoluteUnits[v[i:]]; ok && i > 0 {
		if f, err := strconv.ParseFloat(v[:i], 64); err == nil {
			return Length{Value: f * scale, Unit: UnitPx, Raw: v}
		}
	}
	return Length{Unit: UnitKeyword, Raw: v}
}

// parseBox parses a height/width: a bare zero counts as 0px.
func parseBox(raw string) Length {
	l := ParseLength(raw)
	if l.Unit == UnitNumber && l.Value == 0 {
		return Length{Unit: UnitPx, Raw: l.Raw}
	}
	return l
}
