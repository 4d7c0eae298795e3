package ast

import "testing"

func TestExpressionString(t *testing.T) {
	tests := []struct {
		name     string
		expr     Expression
		expected string
	}{
		{"integer", &IntegerLiteral{Value: 42}, "42"},
		{"real keeps point", &RealLiteral{Value: 3}, "3.0"},
		{"string doubles quotes", &StringLiteral{Value: `a"b`}, `"a""b"`},
		{
			"binary",
			&Binary{Op: "+", Left: &IntegerLiteral{Value: 1}, Right: &Binary{Op: "*", Left: &Variable{Name: "A%"}, Right: &IntegerLiteral{Value: 2}}},
			"(1 + (A% * 2))",
		},
		{"unary", &Unary{Op: "-", Operand: &Variable{Name: "X"}}, "(-X)"},
		{"not", &Unary{Op: "NOT", Operand: &Variable{Name: "X"}}, "(NOT X)"},
		{"call", &Call{Name: "A", Args: []Expression{&IntegerLiteral{Value: 1}, &IntegerLiteral{Value: 2}}}, "A(1, 2)"},
		{"zero-arg call", &Call{Name: "PI"}, "PI"},
		{"fn call", &FnCall{Name: "sq", Args: []Expression{&Variable{Name: "X"}}}, "FNsq(X)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStatementString(t *testing.T) {
	tests := []struct {
		stmt     Statement
		expected string
	}{
		{&Assignment{Name: "X%", Value: &IntegerLiteral{Value: 5}}, "X% = 5"},
		{&OnGoto{Selector: &Variable{Name: "I"}, Targets: []int{100, 200}}, "ON I GOTO 100, 200"},
		{&For{Variable: "I%", Start: &IntegerLiteral{Value: 1}, Limit: &IntegerLiteral{Value: 3}}, "FOR I% = 1 TO 3"},
		{&Next{}, "NEXT"},
		{&DefProc{Name: "box", Params: []string{"w", "h"}}, "DEF PROCbox(w, h)"},
		{&Print{Items: []PrintItem{{Kind: PrintExpression, Expr: &StringLiteral{Value: "A"}}, {Kind: PrintSemicolon}}}, `PRINT "A" ;`},
		{&If{Condition: &Variable{Name: "X"}, Then: []Statement{&Goto{Line: 10}}, Else: []Statement{&End{}}}, "IF X THEN GOTO 10 ELSE END"},
		{&Restore{Line: 500, HasLine: true}, "RESTORE 500"},
	}
	for _, tt := range tests {
		if got := tt.stmt.String(); got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestSplitData(t *testing.T) {
	values := SplitData(` 1, 2.5, "a, b", hello , "say ""hi"""`)
	if len(values) != 5 {
		t.Fatalf("got %d values: %+v", len(values), values)
	}
	if values[0].Kind != DataInteger || values[0].Int != 1 {
		t.Errorf("value 0 = %+v", values[0])
	}
	if values[1].Kind != DataReal || values[1].Real != 2.5 {
		t.Errorf("value 1 = %+v", values[1])
	}
	if values[2].Kind != DataString || values[2].Text != "a, b" || !values[2].Quoted {
		t.Errorf("value 2 = %+v", values[2])
	}
	if values[3].Kind != DataString || values[3].Text != "hello" {
		t.Errorf("value 3 = %+v", values[3])
	}
	if values[4].Text != `say "hi"` {
		t.Errorf("value 4 = %+v", values[4])
	}
	if SplitData("   ") != nil {
		t.Error("blank DATA should have no values")
	}
}

func TestSigil(t *testing.T) {
	for name, want := range map[string]byte{"A%": '%', "B$": '$', "C": 0, "": 0} {
		if got := Sigil(name); got != want {
			t.Errorf("Sigil(%q) = %q, want %q", name, got, want)
		}
	}
}
