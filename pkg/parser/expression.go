package parser

import (
	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/lexer"
)

// Binary operator precedence, lowest first. Exponentiation and the unary
// operators are handled outside the table.
const (
	precOr = iota + 1
	precAnd
	precCompare
	precAdditive
	precMultiplicative
)

var binaryPrecedence = map[string]int{
	"OR":  precOr,
	"EOR": precOr,
	"AND": precAnd,
	"=":   precCompare,
	"<>":  precCompare,
	"<":   precCompare,
	">":   precCompare,
	"<=":  precCompare,
	">=":  precCompare,
	"+":   precAdditive,
	"-":   precAdditive,
	"*":   precMultiplicative,
	"/":   precMultiplicative,
	"DIV": precMultiplicative,
	"MOD": precMultiplicative,
}

// zeroArgFunctions may appear without an argument list.
var zeroArgFunctions = map[lexer.Keyword]bool{
	lexer.PI:      true,
	lexer.TRUE:    true,
	lexer.FALSE:   true,
	lexer.ERR:     true,
	lexer.ERL:     true,
	lexer.REPORTS: true,
	lexer.RND:     true,
}

// ParseExpression parses a complete expression from source text.
func ParseExpression(text string) (ast.Expression, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	p := New(tokens)
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.unexpected()
	}
	return expr, nil
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseBinary(precOr)
}

// peekBinaryOp returns the binary operator at the cursor and how many
// tokens it spans. `<` `=`, `<` `>` and `>` `=` written as two tokens are
// combined into one operator.
func (p *Parser) peekBinaryOp() (string, int, bool) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Operator:
		next := p.peekAt(1)
		if next.Kind == lexer.Operator {
			switch tok.Value + next.Value {
			case "<=", "<>", ">=":
				return tok.Value + next.Value, 2, true
			}
		}
		if _, ok := binaryPrecedence[tok.Value]; ok {
			return tok.Value, 1, true
		}
	case lexer.KeywordToken:
		switch tok.Keyword {
		case lexer.AND, lexer.OR, lexer.EOR, lexer.DIV, lexer.MOD:
			return tok.Keyword.String(), 1, true
		}
	}
	return "", 0, false
}

// parseBinary is the precedence-climbing loop. All table operators are
// left-associative.
func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, width, ok := p.peekBinaryOp()
		if !ok {
			return left, nil
		}
		prec := binaryPrecedence[op]
		if prec < minPrec {
			return left, nil
		}
		p.pos += width
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	tok := p.peek()
	var op string
	switch {
	case tok.IsOp("-"):
		op = "-"
	case tok.IsOp("+"):
		op = "+"
	case tok.Is(lexer.NOT):
		op = "NOT"
	default:
		return p.parsePower()
	}
	p.pos++
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Unary{Op: op, Operand: operand}, nil
}

// parsePower handles `^`, which is right-associative and binds tighter than
// unary minus.
func (p *Parser) parsePower() (ast.Expression, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.peek().IsOp("^") {
		return base, nil
	}
	p.pos++
	exponent, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Binary{Op: "^", Left: base, Right: exponent}, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Integer, lexer.LineNumber:
		p.pos++
		return &ast.IntegerLiteral{Value: tok.Int}, nil
	case lexer.Real:
		p.pos++
		return &ast.RealLiteral{Value: tok.Real}, nil
	case lexer.String:
		p.pos++
		return &ast.StringLiteral{Value: tok.Value}, nil
	case lexer.Identifier:
		p.pos++
		if p.peek().IsSep("(") {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &ast.Call{Name: tok.Value, Args: args}, nil
		}
		return &ast.Variable{Name: tok.Value}, nil
	case lexer.Separator:
		if tok.Value == "(" {
			p.pos++
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectSep(")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
	case lexer.KeywordToken:
		if tok.Keyword == lexer.FN {
			return p.parseFnCall()
		}
		if tok.Keyword.IsFunction() {
			return p.parseFunction()
		}
	}
	return nil, p.unexpected()
}

func (p *Parser) parseFnCall() (ast.Expression, error) {
	p.pos++
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	var args []ast.Expression
	if p.peek().IsSep("(") {
		if args, err = p.parseArgs(); err != nil {
			return nil, err
		}
	}
	return &ast.FnCall{Name: name, Args: args}, nil
}

// parseFunction parses a built-in: NAME(args), a bare zero-argument name,
// or the BBC prefix form NAME operand.
func (p *Parser) parseFunction() (ast.Expression, error) {
	tok := p.next()
	name := tok.Keyword.String()
	if p.peek().IsSep("(") {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Call{Name: name, Args: args}, nil
	}
	if zeroArgFunctions[tok.Keyword] {
		return &ast.Call{Name: name}, nil
	}
	arg, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Call{Name: name, Args: []ast.Expression{arg}}, nil
}

// parseArgs parses `( expr {, expr} )`; the cursor is on the `(`.
func (p *Parser) parseArgs() ([]ast.Expression, error) {
	if err := p.expectSep("("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if p.peek().IsSep(")") {
		p.pos++
		return args, nil
	}
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
		if p.peek().IsSep(",") {
			p.pos++
			continue
		}
		if err := p.expectSep(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *Parser) missingParen() error {
	f := faults.New(faults.SyntaxFault, faults.CodeMissingParen)
	f.Column = p.peek().Col
	return f
}
