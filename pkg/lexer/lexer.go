// Package lexer turns one line of BASIC source into a token sequence.
package lexer

import (
	"math"
	"strconv"
	"strings"

	"github.com/agileandy/bbcbasic/pkg/faults"
)

// Lexer scans a single source line.
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a lexer for one source line.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize is a convenience wrapper around NewLexer(line).Tokens().
func Tokenize(line string) ([]Token, error) {
	return NewLexer(line).Tokens()
}

// Tokens scans the whole line. The result always ends with an EOL token.
func (l *Lexer) Tokens() ([]Token, error) {
	l.pos = 0
	l.tokens = l.tokens[:0]
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}
		stop, err := l.next()
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
	}
	l.emit(Token{Kind: EOL, Col: len(l.input) + 1})
	return l.tokens, nil
}

func (l *Lexer) emit(t Token) {
	l.tokens = append(l.tokens, t)
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t' || l.input[l.pos] == '\r' || l.input[l.pos] == '\n') {
		l.pos++
	}
}

// next scans one token. stop is true once the rest of the line has been
// consumed by a comment or DATA.
func (l *Lexer) next() (stop bool, err error) {
	ch := l.input[l.pos]
	col := l.pos + 1

	switch {
	case isDigit(ch) || (ch == '.' && isDigit(l.peek(1))):
		return false, l.readNumber()
	case isLetter(ch):
		return l.readWord()
	case ch == '"':
		return false, l.readString()
	case ch == '&':
		return false, l.readHex()
	case ch == '\'':
		l.emit(Token{Kind: KeywordToken, Keyword: REM, Value: l.input[l.pos+1:], Col: col, Text: "'"})
		l.pos = len(l.input)
		return true, nil
	}

	switch ch {
	case '<':
		switch l.peek(1) {
		case '=', '>':
			l.emitOp(l.input[l.pos:l.pos+2], col)
			return false, nil
		}
		l.emitOp("<", col)
	case '>':
		if l.peek(1) == '=' {
			l.emitOp(">=", col)
			return false, nil
		}
		l.emitOp(">", col)
	case '+', '-', '*', '/', '^', '=':
		l.emitOp(string(ch), col)
	case '(', ')', ',', ';', ':':
		l.emit(Token{Kind: Separator, Value: string(ch), Col: col, Text: string(ch)})
		l.pos++
	default:
		return false, faults.Syntax(col, "unexpected character %q", ch)
	}
	return false, nil
}

func (l *Lexer) emitOp(op string, col int) {
	l.emit(Token{Kind: Operator, Value: op, Col: col, Text: op})
	l.pos += len(op)
}

// lineNumberContext reports whether an integer literal at this point is a
// line number: at the start of the line, after GOTO/GOSUB/THEN/ELSE/RESTORE,
// or continuing a comma separated line-number list.
func (l *Lexer) lineNumberContext() bool {
	n := len(l.tokens)
	if n == 0 {
		return true
	}
	prev := l.tokens[n-1]
	if prev.Kind == KeywordToken && prev.Keyword.takesLineNumber() {
		return true
	}
	return prev.IsSep(",") && n >= 2 && l.tokens[n-2].Kind == LineNumber
}

func (l *Lexer) readNumber() error {
	start := l.pos
	col := start + 1
	isReal := false

	for isDigit(l.peek(0)) {
		l.pos++
	}
	if l.peek(0) == '.' {
		isReal = true
		l.pos++
		for isDigit(l.peek(0)) {
			l.pos++
		}
	}
	if c := l.peek(0); c == 'E' || c == 'e' {
		sign := l.peek(1)
		if isDigit(sign) || ((sign == '+' || sign == '-') && isDigit(l.peek(2))) {
			isReal = true
			l.pos += 2
			for isDigit(l.peek(0)) {
				l.pos++
			}
		}
	}

	text := l.input[start:l.pos]
	if !isReal {
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil && n <= math.MaxInt32 {
			kind := Integer
			if l.lineNumberContext() {
				kind = LineNumber
			}
			l.emit(Token{Kind: kind, Int: int32(n), Col: col, Text: text})
			return nil
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		return faults.Syntax(col, "bad number %s", text)
	}
	l.emit(Token{Kind: Real, Real: v, Col: col, Text: text})
	return nil
}

func (l *Lexer) readHex() error {
	start := l.pos
	l.pos++
	for isHexDigit(l.peek(0)) {
		l.pos++
	}
	digits := l.input[start+1 : l.pos]
	if digits == "" || len(digits) > 8 {
		return faults.Syntax(start+1, "bad hex constant")
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return faults.Syntax(start+1, "bad hex constant")
	}
	l.emit(Token{Kind: Integer, Int: int32(uint32(n)), Col: start + 1, Text: l.input[start:l.pos]})
	return nil
}

// readString reads a double-quoted literal; "" inside stands for one quote.
func (l *Lexer) readString() error {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return faults.Syntax(start+1, "missing closing quote")
		}
		ch := l.input[l.pos]
		if ch == '"' {
			if l.peek(1) == '"' {
				sb.WriteByte('"')
				l.pos += 2
				continue
			}
			l.pos++
			break
		}
		sb.WriteByte(ch)
		l.pos++
	}
	l.emit(Token{Kind: String, Value: sb.String(), Col: start + 1, Text: l.input[start:l.pos]})
	return nil
}

func (l *Lexer) readWord() (bool, error) {
	start := l.pos
	col := start + 1
	for isLetter(l.peek(0)) || isDigit(l.peek(0)) || l.peek(0) == '_' {
		l.pos++
	}
	if c := l.peek(0); c == '$' || c == '%' {
		l.pos++
	}
	word := l.input[start:l.pos]

	if kw, ok := LookupKeyword(word); ok {
		tok := Token{Kind: KeywordToken, Keyword: kw, Value: kw.String(), Col: col, Text: word}
		switch kw {
		case REM, DATA:
			tok.Value = l.input[l.pos:]
			l.emit(tok)
			l.pos = len(l.input)
			return true, nil
		}
		l.emit(tok)
		return false, nil
	}

	// PROCname and FNname are written without a space.
	for _, prefix := range []Keyword{PROC, FN} {
		p := prefix.String()
		if len(word) > len(p) && strings.HasPrefix(word, p) && isLetterOrUnderscore(word[len(p)]) {
			l.emit(Token{Kind: KeywordToken, Keyword: prefix, Value: p, Col: col, Text: p})
			l.emit(Token{Kind: Identifier, Value: word[len(p):], Col: col + len(p), Text: word[len(p):]})
			return false, nil
		}
	}

	l.emit(Token{Kind: Identifier, Value: word, Col: col, Text: word})
	return false, nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'A' && ch <= 'F') || (ch >= 'a' && ch <= 'f')
}

func isLetter(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

func isLetterOrUnderscore(ch byte) bool {
	return isLetter(ch) || ch == '_'
}
