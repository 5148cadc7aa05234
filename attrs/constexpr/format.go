package constexpr

import (
	"strconv"
	"strings"
)

// Format renders v as a short PHP literal, e.g. 'text', [1, 'k' => true].
func Format(v Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case string:
		sb.WriteByte('\'')
		sb.WriteString(strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(x))
		sb.WriteByte('\'')
	case float64:
		s := formatFloat(x)
		sb.WriteString(s)
		if !strings.ContainsAny(s, ".EN") {
			sb.WriteString(".0")
		}
	case *Array:
		list := x.IsList()
		sb.WriteByte('[')
		for i, k := range x.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			if !list {
				format(sb, k)
				sb.WriteString(" => ")
			}
			format(sb, x.values[i])
		}
		sb.WriteByte(']')
	default:
		sb.WriteString(ToString(x))
	}
}
