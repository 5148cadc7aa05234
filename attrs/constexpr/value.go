package constexpr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the result of evaluating a constant expression. It is one of nil,
// bool, int64, float64, string or *Array.
type Value = any

// TypeName returns the PHP type name of v.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case *Array:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ToBool converts v with PHP truthiness rules.
func ToBool(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0"
	case *Array:
		return x.Len() > 0
	default:
		return true
	}
}

// ToString converts a scalar to its PHP string form. Arrays convert to
// "Array".
func ToString(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "1"
		}
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return x
	case *Array:
		return "Array"
	default:
		return fmt.Sprint(x)
	}
}

// formatFloat renders f with 14 significant digits, as PHP's string
// conversion does.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case f == 0:
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}

	s := strconv.FormatFloat(f, 'e', 13, 64)
	mant, expPart, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expPart)

	if exp < -4 || exp >= 14 {
		if strings.Contains(mant, ".") {
			mant = strings.TrimRight(mant, "0")
			mant = strings.TrimSuffix(mant, ".")
		}
		if !strings.Contains(mant, ".") {
			mant += ".0"
		}
		sign := "+"
		if exp < 0 {
			sign, exp = "-", -exp
		}
		return mant + "E" + sign + strconv.Itoa(exp)
	}

	rounded, _ := strconv.ParseFloat(s, 64)
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// toNumber converts v for arithmetic. Non-numeric strings and arrays are
// rejected; leading-numeric strings such as "12abc" use their prefix.
func toNumber(v Value) (Value, bool) {
	switch x := v.(type) {
	case nil:
		return int64(0), true
	case bool:
		if x {
			return int64(1), true
		}
		return int64(0), true
	case int64, float64:
		return x, true
	case string:
		if n, ok := parseNumeric(x, true); ok {
			return n, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// toInt converts v to an integer the way (int) does.
func toInt(v Value) int64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case int64:
		return x
	case float64:
		return floatToInt(x)
	case string:
		n, ok := parseNumeric(x, true)
		if !ok {
			return 0
		}
		return toInt(n)
	case *Array:
		if x.Len() > 0 {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func floatToInt(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= 9.223372036854775807e18 || f < -9.223372036854775808e18 {
		return 0
	}
	return int64(f)
}

// toFloat converts v to a float the way (float) does.
func toFloat(v Value) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	default:
		n, ok := toNumber(v)
		if !ok {
			return float64(toInt(v))
		}
		return toFloat(n)
	}
}

// parseNumeric parses a PHP numeric string. Leading and trailing whitespace
// is allowed. With prefix set, a leading-numeric string such as "12abc"
// yields 12.
func parseNumeric(s string, prefix bool) (Value, bool) {
	trimmed := strings.TrimLeft(s, " \t\n\r\v\f")
	end := numericPrefix(trimmed)
	if end == 0 {
		return nil, false
	}
	if rest := strings.TrimRight(trimmed[end:], " \t\n\r\v\f"); rest != "" && !prefix {
		return nil, false
	}

	num := trimmed[:end]
	if !strings.ContainsAny(num, ".eE") {
		if n, err := strconv.ParseInt(num, 10, 64); err == nil {
			return n, true
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, false
	}
	return f, true
}

// numericPrefix returns the length of the longest numeric prefix of s:
// [+-]? digits [. digits] [e [+-] digits].
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := i - start
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracDigits = j - i - 1
		if intDigits > 0 || fracDigits > 0 {
			i = j
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isNumericString reports whether s is numeric in full, allowing surrounding
// whitespace.
func isNumericString(s string) (Value, bool) {
	return parseNumeric(s, false)
}
