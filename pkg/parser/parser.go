// Package parser builds statements and expression trees from tokens.
package parser

import (
	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/lexer"
)

// Parser walks the token sequence of one source line.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New creates a parser over a token sequence ending in EOL.
func New(tokens []lexer.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOL {
		tokens = append(tokens, lexer.Token{Kind: lexer.EOL})
	}
	return &Parser{tokens: tokens}
}

// ParseLine tokenizes and parses the statements of one line body (the text
// after the line number).
func ParseLine(text string) ([]ast.Statement, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return New(tokens).ParseStatements()
}

// ParseStatements parses `stmt {: stmt}` up to the end of the line.
func (p *Parser) ParseStatements() ([]ast.Statement, error) {
	stmts, err := p.parseStatementList(false)
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.unexpected()
	}
	return stmts, nil
}

func (p *Parser) peek() lexer.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(offset int) lexer.Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) next() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().Kind == lexer.EOL
}

func (p *Parser) unexpected() error {
	tok := p.peek()
	if tok.Kind == lexer.EOL {
		return faults.Syntax(tok.Col, "unexpected end of line")
	}
	return faults.Syntax(tok.Col, "unexpected %s", tok.String())
}

func (p *Parser) expectSep(sep string) error {
	if p.peek().IsSep(sep) {
		p.pos++
		return nil
	}
	if sep == ")" {
		return p.missingParen()
	}
	return faults.Syntax(p.peek().Col, "expected %s", sep)
}

func (p *Parser) expectKeyword(kw lexer.Keyword) error {
	if p.peek().Is(kw) {
		p.pos++
		return nil
	}
	return faults.Syntax(p.peek().Col, "expected %s", kw)
}

func (p *Parser) expectIdentifier() (string, error) {
	tok := p.peek()
	if tok.Kind != lexer.Identifier {
		return "", faults.Syntax(tok.Col, "expected a name")
	}
	p.pos++
	return tok.Value, nil
}

func (p *Parser) expectLineNumber() (int, error) {
	tok := p.peek()
	if tok.Kind != lexer.LineNumber && tok.Kind != lexer.Integer {
		return 0, faults.Syntax(tok.Col, "expected a line number")
	}
	p.pos++
	return int(tok.Int), nil
}

// atStatementEnd reports whether the cursor is on `:`, EOL, or (inside an
// IF) ELSE.
func (p *Parser) atStatementEnd(stopAtElse bool) bool {
	tok := p.peek()
	return tok.Kind == lexer.EOL || tok.IsSep(":") || (stopAtElse && tok.Is(lexer.ELSE))
}

func (p *Parser) parseStatementList(stopAtElse bool) ([]ast.Statement, error) {
	var stmts []ast.Statement
	for {
		for p.peek().IsSep(":") {
			p.pos++
		}
		if p.atEnd() || (stopAtElse && p.peek().Is(lexer.ELSE)) {
			return stmts, nil
		}
		stmt, err := p.parseStatement(stopAtElse)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if !p.atStatementEnd(stopAtElse) {
			return nil, p.unexpected()
		}
	}
}

func (p *Parser) parseStatement(stopAtElse bool) (ast.Statement, error) {
	tok := p.peek()
	if tok.Kind == lexer.Identifier {
		return p.parseAssignment()
	}
	if tok.Kind != lexer.KeywordToken {
		return nil, p.unexpected()
	}

	p.pos++
	switch tok.Keyword {
	case lexer.LET:
		return p.parseAssignment()
	case lexer.PRINT:
		return p.parsePrint(stopAtElse)
	case lexer.INPUT:
		return p.parseInput()
	case lexer.IF:
		return p.parseIf()
	case lexer.FOR:
		return p.parseFor()
	case lexer.NEXT:
		return p.parseNext()
	case lexer.REPEAT:
		return &ast.Repeat{}, nil
	case lexer.UNTIL:
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Until{Condition: cond}, nil
	case lexer.WHILE:
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.While{Condition: cond}, nil
	case lexer.ENDWHILE:
		return &ast.EndWhile{}, nil
	case lexer.GOTO:
		line, err := p.expectLineNumber()
		if err != nil {
			return nil, err
		}
		return &ast.Goto{Line: line}, nil
	case lexer.GOSUB:
		line, err := p.expectLineNumber()
		if err != nil {
			return nil, err
		}
		return &ast.Gosub{Line: line}, nil
	case lexer.RETURN:
		return &ast.Return{}, nil
	case lexer.ON:
		return p.parseOn()
	case lexer.DEF:
		return p.parseDef()
	case lexer.PROC:
		return p.parseProcCall()
	case lexer.ENDPROC:
		return &ast.EndProc{}, nil
	case lexer.LOCAL:
		names, err := p.parseNameList()
		if err != nil {
			return nil, err
		}
		return &ast.Local{Names: names}, nil
	case lexer.DIM:
		return p.parseDim()
	case lexer.DATA:
		return &ast.Data{Items: ast.SplitData(tok.Value)}, nil
	case lexer.READ:
		targets, err := p.parseTargets()
		if err != nil {
			return nil, err
		}
		return &ast.Read{Targets: targets}, nil
	case lexer.RESTORE:
		if t := p.peek(); t.Kind == lexer.LineNumber || t.Kind == lexer.Integer {
			p.pos++
			return &ast.Restore{Line: int(t.Int), HasLine: true}, nil
		}
		return &ast.Restore{}, nil
	case lexer.END:
		return &ast.End{}, nil
	case lexer.STOP:
		return &ast.Stop{}, nil
	case lexer.REM:
		return &ast.Rem{Text: tok.Value}, nil
	case lexer.ERROR:
		return p.parseRaiseError()
	case lexer.REPORT:
		return &ast.Report{}, nil
	case lexer.CLEAR:
		return &ast.Clear{}, nil
	case lexer.CLS:
		return &ast.Cls{}, nil
	case lexer.QUIT:
		return &ast.Quit{}, nil
	case lexer.SWAP:
		return p.parseSwap()
	}
	p.pos--
	return nil, p.unexpected()
}

// parseAssignment tells `name = expr` from `name(i, ...) = expr` by looking
// past the matching close parenthesis for the `=`.
func (p *Parser) parseAssignment() (ast.Statement, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if p.peek().IsSep("(") {
		closeAt := p.matchingParen(p.pos)
		if closeAt < 0 {
			return nil, p.missingParen()
		}
		if !p.tokenAt(closeAt + 1).IsOp("=") {
			return nil, faults.Syntax(p.tokenAt(closeAt+1).Col, "expected = after %s(...)", name)
		}
		indices, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(indices) == 0 {
			return nil, faults.Syntax(p.peek().Col, "missing subscript")
		}
		p.pos++ // =
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.ArrayAssignment{Name: name, Indices: indices, Value: value}, nil
	}

	if !p.peek().IsOp("=") {
		return nil, faults.Syntax(p.peek().Col, "expected = after %s", name)
	}
	p.pos++
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Name: name, Value: value}, nil
}

func (p *Parser) tokenAt(i int) lexer.Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// matchingParen returns the index of the `)` closing the `(` at open, or -1.
func (p *Parser) matchingParen(open int) int {
	depth := 0
	for i := open; i < len(p.tokens); i++ {
		switch {
		case p.tokens[i].IsSep("("):
			depth++
		case p.tokens[i].IsSep(")"):
			depth--
			if depth == 0 {
				return i
			}
		case p.tokens[i].Kind == lexer.EOL:
			return -1
		}
	}
	return -1
}

func (p *Parser) parsePrint(stopAtElse bool) (ast.Statement, error) {
	stmt := &ast.Print{}
	for !p.atStatementEnd(stopAtElse) {
		tok := p.peek()
		switch {
		case tok.IsSep(";"):
			p.pos++
			stmt.Items = append(stmt.Items, ast.PrintItem{Kind: ast.PrintSemicolon})
		case tok.IsSep(","):
			p.pos++
			stmt.Items = append(stmt.Items, ast.PrintItem{Kind: ast.PrintComma})
		case tok.Is(lexer.TAB), tok.Is(lexer.SPC):
			p.pos++
			kind := ast.PrintTab
			if tok.Is(lexer.SPC) {
				kind = ast.PrintSpc
			}
			var arg ast.Expression
			var err error
			if p.peek().IsSep("(") {
				var args []ast.Expression
				args, err = p.parseArgs()
				if err == nil && len(args) != 1 {
					err = faults.Syntax(tok.Col, "%s takes one argument", tok.Keyword)
				}
				if err == nil {
					arg = args[0]
				}
			} else {
				arg, err = p.parseUnary()
			}
			if err != nil {
				return nil, err
			}
			stmt.Items = append(stmt.Items, ast.PrintItem{Kind: kind, Expr: arg})
		default:
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			stmt.Items = append(stmt.Items, ast.PrintItem{Kind: ast.PrintExpression, Expr: expr})
		}
	}
	return stmt, nil
}

func (p *Parser) parseInput() (ast.Statement, error) {
	stmt := &ast.Input{}
	if tok := p.peek(); tok.Kind == lexer.String {
		p.pos++
		stmt.Prompt = tok.Value
		stmt.HasPrompt = true
		if p.peek().IsSep(",") || p.peek().IsSep(";") {
			p.pos++
		}
	}
	targets, err := p.parseTargets()
	if err != nil {
		return nil, err
	}
	stmt.Targets = targets
	return stmt, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{Condition: cond}

	if p.peek().Is(lexer.THEN) {
		p.pos++
	}
	if stmt.Then, err = p.parseBranch(); err != nil {
		return nil, err
	}
	if len(stmt.Then) == 0 && !p.peek().Is(lexer.ELSE) {
		return nil, faults.Syntax(p.peek().Col, "IF without a statement")
	}
	if p.peek().Is(lexer.ELSE) {
		p.pos++
		if stmt.Else, err = p.parseBranch(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseBranch parses a THEN or ELSE part: a bare line number means GOTO.
func (p *Parser) parseBranch() ([]ast.Statement, error) {
	if tok := p.peek(); tok.Kind == lexer.LineNumber || tok.Kind == lexer.Integer {
		p.pos++
		return []ast.Statement{&ast.Goto{Line: int(tok.Int)}}, nil
	}
	return p.parseStatementList(true)
}

func (p *Parser) parseFor() (ast.Statement, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if !p.peek().IsOp("=") {
		return nil, faults.Syntax(p.peek().Col, "expected =")
	}
	p.pos++
	stmt := &ast.For{Variable: name}
	if stmt.Start, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(lexer.TO); err != nil {
		return nil, err
	}
	if stmt.Limit, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if p.peek().Is(lexer.STEP) {
		p.pos++
		if stmt.Step, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseNext() (ast.Statement, error) {
	stmt := &ast.Next{}
	if p.peek().Kind != lexer.Identifier {
		return stmt, nil
	}
	names, err := p.parseNameList()
	if err != nil {
		return nil, err
	}
	stmt.Variables = names
	return stmt, nil
}

func (p *Parser) parseOn() (ast.Statement, error) {
	if p.peek().Is(lexer.ERROR) {
		p.pos++
		if p.peek().Is(lexer.OFF) {
			p.pos++
			return &ast.OnErrorOff{}, nil
		}
		if err := p.expectKeyword(lexer.GOTO); err != nil {
			return nil, err
		}
		line, err := p.expectLineNumber()
		if err != nil {
			return nil, err
		}
		return &ast.OnError{Line: line}, nil
	}

	selector, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	tok := p.next()
	if !tok.Is(lexer.GOTO) && !tok.Is(lexer.GOSUB) {
		return nil, faults.Syntax(tok.Col, "expected GOTO or GOSUB")
	}
	var targets []int
	for {
		line, err := p.expectLineNumber()
		if err != nil {
			return nil, err
		}
		targets = append(targets, line)
		if !p.peek().IsSep(",") {
			break
		}
		p.pos++
	}
	if tok.Is(lexer.GOSUB) {
		return &ast.OnGosub{Selector: selector, Targets: targets}, nil
	}
	return &ast.OnGoto{Selector: selector, Targets: targets}, nil
}

func (p *Parser) parseDef() (ast.Statement, error) {
	tok := p.next()
	if !tok.Is(lexer.PROC) && !tok.Is(lexer.FN) {
		return nil, faults.Syntax(tok.Col, "expected PROC or FN after DEF")
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	var params []string
	if p.peek().IsSep("(") {
		p.pos++
		if params, err = p.parseNameList(); err != nil {
			return nil, err
		}
		if err := p.expectSep(")"); err != nil {
			return nil, err
		}
	}
	if tok.Is(lexer.PROC) {
		return &ast.DefProc{Name: name, Params: params}, nil
	}

	if !p.peek().IsOp("=") {
		return nil, faults.Syntax(p.peek().Col, "expected = in DEF FN")
	}
	p.pos++
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.DefFn{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) parseProcCall() (ast.Statement, error) {
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
	return &ast.ProcCall{Name: name, Args: args}, nil
}

func (p *Parser) parseNameList() ([]string, error) {
	var names []string
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.peek().IsSep(",") {
			return names, nil
		}
		p.pos++
	}
}

func (p *Parser) parseDim() (ast.Statement, error) {
	stmt := &ast.Dim{}
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if !p.peek().IsSep("(") {
			return nil, faults.Syntax(p.peek().Col, "expected ( after %s", name)
		}
		bounds, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(bounds) == 0 {
			return nil, faults.Syntax(p.peek().Col, "missing dimension")
		}
		stmt.Arrays = append(stmt.Arrays, ast.ArrayDecl{Name: name, Bounds: bounds})
		if !p.peek().IsSep(",") {
			return stmt, nil
		}
		p.pos++
	}
}

func (p *Parser) parseTarget() (ast.Target, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return ast.Target{}, err
	}
	target := ast.Target{Name: name}
	if p.peek().IsSep("(") {
		if target.Indices, err = p.parseArgs(); err != nil {
			return ast.Target{}, err
		}
	}
	return target, nil
}

func (p *Parser) parseTargets() ([]ast.Target, error) {
	var targets []ast.Target
	for {
		target, err := p.parseTarget()
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
		if !p.peek().IsSep(",") {
			return targets, nil
		}
		p.pos++
	}
}

func (p *Parser) parseRaiseError() (ast.Statement, error) {
	code, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectSep(","); err != nil {
		return nil, err
	}
	msg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.RaiseError{Code: code, Message: msg}, nil
}

func (p *Parser) parseSwap() (ast.Statement, error) {
	a, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	if err := p.expectSep(","); err != nil {
		return nil, err
	}
	b, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	return &ast.Swap{A: a, B: b}, nil
}
