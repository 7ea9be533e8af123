package fontgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// builtinSettings are the pass-through options the builtin converter reads
type builtinSettings struct {
	fontHeight   float64
	descent      float64
	normalize    bool
	startUnicode rune
	fontDisplay  string
	tolerance    float64
}

func defaultSettings() builtinSettings {
	return builtinSettings{
		fontHeight:   1000,
		descent:      0,
		normalize:    true,
		startUnicode: 0xE001,
		fontDisplay:  "block",
		tolerance:    0.5,
	}
}

func parseSettings(opts map[string]any) (builtinSettings, error) {
	s := defaultSettings()
	var err error

	if v, ok := opts["fontHeight"]; ok {
		if s.fontHeight, err = toFloat("fontHeight", v); err != nil {
			return s, err
		}
		if s.fontHeight < 16 || s.fontHeight > 16384 {
			return s, fmt.Errorf("option fontHeight: %v out of range 16-16384", v)
		}
	}
	if v, ok := opts["descent"]; ok {
		if s.descent, err = toFloat("descent", v); err != nil {
			return s, err
		}
		if s.descent < 0 || s.descent >= s.fontHeight {
			return s, fmt.Errorf("option descent: %v out of range 0-fontHeight", v)
		}
	}
	if v, ok := opts["normalize"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return s, fmt.Errorf("option normalize: want bool, got %T", v)
		}
		s.normalize = b
	}
	if v, ok := opts["startUnicode"]; ok {
		if s.startUnicode, err = toCodepoint(v); err != nil {
			return s, err
		}
	}
	if v, ok := opts["fontDisplay"]; ok {
		str, isString := v.(string)
		switch {
		case !isString:
			return s, fmt.Errorf("option fontDisplay: want string, got %T", v)
		case !validDisplay[str]:
			return s, fmt.Errorf("option fontDisplay: unknown value %q", str)
		}
		s.fontDisplay = str
	}
	if v, ok := opts["tolerance"]; ok {
		if s.tolerance, err = toFloat("tolerance", v); err != nil {
			return s, err
		}
		if s.tolerance <= 0 {
			return s, errors.New("option tolerance: must be positive")
		}
	}
	return s, nil
}

var validDisplay = map[string]bool{
	"auto": true, "block": true, "swap": true, "fallback": true, "optional": true,
}

func toFloat(name string, v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("option %s: %w", name, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("option %s: want number, got %T", name, v)
}

// toCodepoint accepts a number or a hex string ("0xE001", "U+E001", "e001")
func toCodepoint(v any) (rune, error) {
	var cp int64
	if s, ok := v.(string); ok {
		hex := strings.TrimSpace(s)
		for _, prefix := range []string{"0x", "0X", "U+", "u+"} {
			hex = strings.TrimPrefix(hex, prefix)
		}
		n, err := strconv.ParseInt(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("option startUnicode: %w", err)
		}
		cp = n
	} else {
		f, err := toFloat("startUnicode", v)
		if err != nil {
			return 0, err
		}
		cp = int64(f)
	}
	if cp <= 0 || cp >= 0xFFFF {
		return 0, fmt.Errorf("option startUnicode: U+%04X is outside the BMP", cp)
	}
	return rune(cp), nil
}
