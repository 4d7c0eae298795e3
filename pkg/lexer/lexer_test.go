package lexer

import (
	"testing"

	"github.com/agileandy/bbcbasic/pkg/faults"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Kind
	}{
		{"assignment", "X%=5 MOD 3", []Kind{Identifier, Operator, Integer, KeywordToken, Integer, EOL}},
		{"line number prefix", "10 PRINT A$", []Kind{LineNumber, KeywordToken, Identifier, EOL}},
		{"goto target", "GOTO 100", []Kind{KeywordToken, LineNumber, EOL}},
		{"on goto list", "ON X GOTO 100,200,300", []Kind{KeywordToken, Identifier, KeywordToken, LineNumber, Separator, LineNumber, Separator, LineNumber, EOL}},
		{"print list stays integer", "PRINT 1,2", []Kind{KeywordToken, Integer, Separator, Integer, EOL}},
		{"real literal", "A=1.5", []Kind{Identifier, Operator, Real, EOL}},
		{"exponent is real", "A=2E3", []Kind{Identifier, Operator, Real, EOL}},
		{"big integer is real", "A=3000000000", []Kind{Identifier, Operator, Real, EOL}},
		{"string", `PRINT "HI"`, []Kind{KeywordToken, String, EOL}},
		{"statement separator", "A=1:B=2", []Kind{Identifier, Operator, Integer, Separator, Identifier, Operator, Integer, EOL}},
		{"empty line", "   ", []Kind{EOL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			got := kinds(tokens)
			if len(got) != len(tt.expected) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token %d: got %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestComparisonOperators(t *testing.T) {
	tokens, err := Tokenize("A<=B>=C<>D<E>F")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"<=", ">=", "<>", "<", ">"}
	var ops []string
	for _, tok := range tokens {
		if tok.Kind == Operator {
			ops = append(ops, tok.Value)
		}
	}
	if len(ops) != len(want) {
		t.Fatalf("operators = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("operator %d = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	tokens, err := Tokenize("print mod Div")
	if err != nil {
		t.Fatal(err)
	}
	want := []Keyword{PRINT, MOD, DIV}
	for i, kw := range want {
		if !tokens[i].Is(kw) {
			t.Errorf("token %d = %v, want %v", i, tokens[i], kw)
		}
	}
}

func TestSigilsBelongToIdentifier(t *testing.T) {
	tokens, err := Tokenize("A% B$ C")
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"A%", "B$", "C"} {
		if tokens[i].Kind != Identifier || tokens[i].Value != want {
			t.Errorf("token %d = %+v, want identifier %s", i, tokens[i], want)
		}
	}
}

func TestStringFunctionKeywords(t *testing.T) {
	tokens, err := Tokenize("LEFT$(A$,2)+CHR$(65)")
	if err != nil {
		t.Fatal(err)
	}
	if !tokens[0].Is(LEFTS) {
		t.Errorf("first token = %v, want LEFT$", tokens[0])
	}
	if !tokens[7].Is(CHRS) {
		t.Errorf("token 7 = %v, want CHR$", tokens[7])
	}
}

func TestProcAndFnPrefixes(t *testing.T) {
	tokens, err := Tokenize("PROCdraw(1):X=FNsq(2)")
	if err != nil {
		t.Fatal(err)
	}
	if !tokens[0].Is(PROC) || tokens[1].Kind != Identifier || tokens[1].Value != "draw" {
		t.Errorf("PROC prefix not split: %v %v", tokens[0], tokens[1])
	}
	if !tokens[8].Is(FN) || tokens[9].Value != "sq" {
		t.Errorf("FN prefix not split: %v %v", tokens[8], tokens[9])
	}
}

func TestDoubledQuote(t *testing.T) {
	tokens, err := Tokenize(`PRINT "SAY ""HI"""`)
	if err != nil {
		t.Fatal(err)
	}
	if tokens[1].Value != `SAY "HI"` {
		t.Errorf("string = %q", tokens[1].Value)
	}
}

func TestHexLiteral(t *testing.T) {
	tokens, err := Tokenize("A%=&FF")
	if err != nil {
		t.Fatal(err)
	}
	if tokens[2].Kind != Integer || tokens[2].Int != 255 {
		t.Errorf("hex literal = %+v", tokens[2])
	}
}

func TestCommentsEndTokenization(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{"REM anything: PRINT", " anything: PRINT"},
		{"A=1 ' note \"", " note \""},
	}
	for _, tt := range tests {
		tokens, err := Tokenize(tt.input)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", tt.input, err)
		}
		rem := tokens[len(tokens)-2]
		if !rem.Is(REM) || rem.Value != tt.value {
			t.Errorf("Tokenize(%q) comment = %+v", tt.input, rem)
		}
	}
}

func TestDataKeepsRawText(t *testing.T) {
	tokens, err := Tokenize(`DATA 1, "two", three`)
	if err != nil {
		t.Fatal(err)
	}
	if !tokens[0].Is(DATA) || tokens[0].Value != ` 1, "two", three` {
		t.Errorf("DATA token = %+v", tokens[0])
	}
}

func TestSyntaxFaults(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		column int
	}{
		{"unterminated string", `PRINT "abc`, 7},
		{"bad character", "A = 1 @ 2", 7},
		{"bad hex", "A=&", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			f, ok := faults.As(err)
			if !ok {
				t.Fatalf("expected fault, got %v", err)
			}
			if f.Kind != faults.SyntaxFault || f.Column != tt.column {
				t.Errorf("fault = %+v, want syntax at column %d", f, tt.column)
			}
		})
	}
}

func TestJoinRoundTrip(t *testing.T) {
	lines := []string{
		"X%=5 MOD 3",
		"PRINT 2^10;A$,\"Q\"\"T\"",
		"IF A<=B AND C<>D THEN 100 ELSE 200",
		"ON I% GOTO 10,20,30",
		"A=1.5E-3+3.0*B(1,2)",
		"PROCdraw(X,Y):Z=FNsq(-4)",
		"A%=&FFFFFFFF",
		"C=3000000000",
	}
	for _, line := range lines {
		first, err := Tokenize(line)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", line, err)
		}
		text := Join(first)
		second, err := Tokenize(text)
		if err != nil {
			t.Fatalf("re-tokenize %q: %v", text, err)
		}
		if len(first) != len(second) {
			t.Fatalf("%q -> %q: %d tokens vs %d", line, text, len(first), len(second))
		}
		for i := range first {
			if !first[i].Equal(second[i]) {
				t.Errorf("%q -> %q: token %d %+v != %+v", line, text, i, first[i], second[i])
			}
		}
	}
}
