// Package format turns raw metric keys and values into display text.
package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Label humanizes a column key: underscores become spaces and the first
// letter of every word is upper-cased ("cost_micros" -> "Cost Micros").
// Words are runs of ASCII letters and digits.
func Label(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	inWord := false
	for _, r := range strings.ReplaceAll(key, "_", " ") {
		word := isWordRune(r)
		if word && !inWord && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		inWord = word
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// Plain renders a decoded JSON value the way it should appear in a cell.
// null renders as the empty string.
func Plain(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprint(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// Count renders n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}
