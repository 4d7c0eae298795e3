package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// Join renders a token sequence back into source text that tokenizes to an
// equal sequence.
func Join(tokens []Token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if t.Kind == EOL {
			break
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch t.Kind {
		case KeywordToken:
			if t.Keyword == REM || t.Keyword == DATA {
				if t.Text == "'" {
					sb.WriteString("'")
				} else {
					sb.WriteString(t.Keyword.String())
				}
				sb.WriteString(t.Value)
				continue
			}
			sb.WriteString(t.Keyword.String())
		case LineNumber:
			sb.WriteString(strconv.Itoa(int(t.Int)))
		case Integer:
			if t.Int < 0 {
				fmt.Fprintf(&sb, "&%X", uint32(t.Int))
			} else {
				sb.WriteString(strconv.Itoa(int(t.Int)))
			}
		case Real:
			sb.WriteString(formatReal(t.Real))
		case String:
			sb.WriteString(quote(t.Value))
		default:
			sb.WriteString(t.Value)
		}
	}
	return sb.String()
}

// formatReal renders a real literal so it scans back as a real.
func formatReal(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
