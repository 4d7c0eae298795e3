package lexer

import "fmt"

// Kind identifies the class of a token.
type Kind int

const (
	EOL Kind = iota
	KeywordToken
	LineNumber
	Integer
	Real
	String
	Identifier
	Operator
	Separator
)

var kindNames = [...]string{
	EOL:          "end of line",
	KeywordToken: "keyword",
	LineNumber:   "line number",
	Integer:      "integer",
	Real:         "real",
	String:       "string",
	Identifier:   "identifier",
	Operator:     "operator",
	Separator:    "separator",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one lexical unit of a source line.
//
// Value holds the identifier name, the string contents, the operator or
// separator symbol, or the canonical keyword name. For REM and DATA it holds
// the raw remainder of the line. Int carries integer and line-number
// literals, Real carries real literals.
type Token struct {
	Kind    Kind
	Keyword Keyword
	Value   string
	Int     int32
	Real    float64
	Col     int
	Text    string
}

// Equal compares two tokens ignoring position and source spelling.
func (t Token) Equal(o Token) bool {
	return t.Kind == o.Kind && t.Keyword == o.Keyword && t.Value == o.Value &&
		t.Int == o.Int && t.Real == o.Real
}

// Is reports whether the token is the given keyword.
func (t Token) Is(kw Keyword) bool {
	return t.Kind == KeywordToken && t.Keyword == kw
}

// IsOp reports whether the token is the given operator symbol.
func (t Token) IsOp(op string) bool {
	return t.Kind == Operator && t.Value == op
}

// IsSep reports whether the token is the given separator.
func (t Token) IsSep(sep string) bool {
	return t.Kind == Separator && t.Value == sep
}

func (t Token) String() string {
	switch t.Kind {
	case EOL:
		return "<eol>"
	case KeywordToken:
		return t.Keyword.String()
	case LineNumber, Integer:
		return fmt.Sprintf("%d", t.Int)
	case Real:
		return formatReal(t.Real)
	case String:
		return quote(t.Value)
	default:
		return t.Value
	}
}
