package interpreter

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/program"
	"github.com/agileandy/bbcbasic/pkg/state"
)

type scenario struct {
	Name    string `yaml:"name"`
	Program string `yaml:"program"`
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Reason  string `yaml:"reason"`
	Fault   *int   `yaml:"fault"`
	Line    int    `yaml:"line"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	data, err := os.ReadFile("testdata/scenarios.yaml")
	if err != nil {
		t.Fatalf("reading scenarios: %v", err)
	}
	var scenarios []scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		t.Fatalf("parsing scenarios: %v", err)
	}
	return scenarios
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Seed = 1
	return opts
}

// newTestInterpreter loads src and wires output to a buffer and input to
// the given text.
func newTestInterpreter(t *testing.T, src, input string, opts Options) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	prog := program.New()
	if err := prog.Load(strings.NewReader(src)); err != nil {
		t.Fatalf("loading program: %v", err)
	}
	var buf bytes.Buffer
	out := NewTextOutput(&buf, opts.ZoneWidth)
	return New(prog, out, NewReaderInput(strings.NewReader(input), out), opts), &buf
}

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		t.Run(sc.Name, func(t *testing.T) {
			it, buf := newTestInterpreter(t, sc.Program, sc.Input, testOptions())
			outcome, err := it.Run(context.Background())

			if got := buf.String(); got != sc.Output {
				t.Errorf("output = %q, want %q", got, sc.Output)
			}
			if got := outcome.Reason.String(); got != sc.Reason {
				t.Errorf("reason = %s, want %s (err %v)", got, sc.Reason, err)
			}
			if sc.Line != 0 && outcome.Line != sc.Line {
				t.Errorf("line = %d, want %d", outcome.Line, sc.Line)
			}
			if sc.Fault == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			f, ok := faults.As(err)
			if !ok {
				t.Fatalf("err = %v, want fault %d", err, *sc.Fault)
			}
			if f.Code != *sc.Fault {
				t.Errorf("fault code = %d (%v), want %d", f.Code, f, *sc.Fault)
			}
		})
	}
}

func TestCallDepthLimit(t *testing.T) {
	opts := testOptions()
	opts.MaxCallDepth = 10
	src := "10 PROCr\n20 END\n100 DEF PROCr\n110 PROCr\n"
	it, _ := newTestInterpreter(t, src, "", opts)

	outcome, err := it.Run(context.Background())
	f, ok := faults.As(err)
	if !ok || f.Kind != faults.StackFault || f.Code != faults.CodeNoRoom {
		t.Fatalf("err = %v, want No room", err)
	}
	if outcome.Reason != Faulted || outcome.Line != 110 {
		t.Errorf("outcome = %+v, want faulted at 110", outcome)
	}
	if depth := it.State().Frames.CallDepth(); depth != 10 {
		t.Errorf("call depth after fault = %d, want 10", depth)
	}
}

func TestFunctionDepthLimit(t *testing.T) {
	opts := testOptions()
	opts.MaxCallDepth = 5
	src := "10 PRINT FNr(1)\n20 DEF FNr(N)=FNr(N+1)\n"
	it, _ := newTestInterpreter(t, src, "", opts)

	_, err := it.Run(context.Background())
	f, ok := faults.As(err)
	if !ok || f.Code != faults.CodeNoRoom {
		t.Fatalf("err = %v, want No room", err)
	}
	if depth := it.State().Frames.CallDepth(); depth != 0 {
		t.Errorf("function frames left after fault: %d", depth)
	}
	if n := it.State().Frames.ScopeDepth(); n != 0 {
		t.Errorf("function scopes left after fault: %d", n)
	}
}

func TestLoopDepthLimit(t *testing.T) {
	opts := testOptions()
	opts.MaxLoopDepth = 3
	it, _ := newTestInterpreter(t, "10 REPEAT\n20 GOTO 10\n", "", opts)

	outcome, err := it.Run(context.Background())
	f, ok := faults.As(err)
	if !ok || f.Code != faults.CodeTooManyRepeats {
		t.Fatalf("err = %v, want Too many REPEATs", err)
	}
	if outcome.Line != 10 {
		t.Errorf("line = %d, want 10", outcome.Line)
	}
}

func TestForIterationCount(t *testing.T) {
	tests := []struct {
		start, limit, step int
		expected           int
	}{
		{1, 10, 1, 10},
		{1, 10, 3, 4},
		{10, 1, -2, 5},
		{0, 0, 1, 1},
		{-5, 5, 5, 3},
	}
	for _, tt := range tests {
		src := "10 N%=0\n" +
			"20 FOR I%=" + itoa(tt.start) + " TO " + itoa(tt.limit) + " STEP " + itoa(tt.step) + "\n" +
			"30 N%=N%+1\n" +
			"40 NEXT\n"
		it, _ := newTestInterpreter(t, src, "", testOptions())
		if _, err := it.Run(context.Background()); err != nil {
			t.Fatalf("run error: %v", err)
		}
		n, err := it.State().Vars.Get("N%")
		if err != nil {
			t.Fatal(err)
		}
		if int(n.Int) != tt.expected {
			t.Errorf("FOR %d TO %d STEP %d ran %d times, want %d", tt.start, tt.limit, tt.step, n.Int, tt.expected)
		}
	}
}

func itoa(n int) string {
	return state.Int(int32(n)).String()
}

func TestZeroStep(t *testing.T) {
	it, _ := newTestInterpreter(t, "10 FOR I=1 TO 2 STEP 0\n20 NEXT\n", "", testOptions())
	_, err := it.Run(context.Background())
	if f, ok := faults.As(err); !ok || f.Code != faults.CodeZeroStep {
		t.Errorf("err = %v, want STEP cannot be zero", err)
	}
}

func TestLocalRestoredAfterProcedure(t *testing.T) {
	src := "10 A=1:B$=\"keep\":C%=7\n" +
		"20 PROCp\n" +
		"30 END\n" +
		"100 DEF PROCp\n" +
		"110 LOCAL A,B$,C%\n" +
		"120 A=99:B$=\"lost\":C%=0\n" +
		"130 ENDPROC\n"
	it, _ := newTestInterpreter(t, src, "", testOptions())
	if _, err := it.Run(context.Background()); err != nil {
		t.Fatalf("run error: %v", err)
	}
	vars := it.State().Vars
	checks := map[string]string{"A": "1", "B$": "keep", "C%": "7"}
	for name, want := range checks {
		v, err := vars.Get(name)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if v.String() != want {
			t.Errorf("%s = %s after ENDPROC, want %s", name, v, want)
		}
	}
}

func TestLocalOutsideProcedure(t *testing.T) {
	it, _ := newTestInterpreter(t, "10 LOCAL A\n", "", testOptions())
	_, err := it.Run(context.Background())
	if f, ok := faults.As(err); !ok || f.Code != faults.CodeNotLocal {
		t.Errorf("err = %v, want Not LOCAL", err)
	}
}

func TestArgumentCountMismatch(t *testing.T) {
	it, _ := newTestInterpreter(t, "10 PROCp(1,2)\n20 END\n30 DEF PROCp(A)\n40 ENDPROC\n", "", testOptions())
	_, err := it.Run(context.Background())
	if f, ok := faults.As(err); !ok || f.Code != faults.CodeArguments {
		t.Errorf("err = %v, want Arguments", err)
	}
}

func TestFramesSurviveJumpsAndTraps(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		output  string
		calls   int
		fors    int
		repeats int
		whiles  int
	}{
		{
			name:    "GOTO out of nested loops",
			src:     "10 FOR I%=1 TO 10\n20 REPEAT\n30 WHILE 1\n40 GOTO 100\n50 ENDWHILE\n60 UNTIL 0\n70 NEXT\n100 PRINT \"out\"\n",
			output:  "out\n",
			fors:    1,
			repeats: 1,
			whiles:  1,
		},
		{
			name:   "trapped fault inside a subroutine",
			src:    "10 ON ERROR GOTO 100\n20 GOSUB 50\n30 END\n50 FOR J%=1 TO 3\n60 X=1/0\n70 NEXT\n80 RETURN\n100 PRINT \"trapped\"\n",
			output: "trapped\n",
			calls:  1,
			fors:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, buf := newTestInterpreter(t, tt.src, "", testOptions())
			outcome, err := it.Run(context.Background())
			if err != nil || outcome.Reason != Ended {
				t.Fatalf("Run = %+v, %v", outcome, err)
			}
			if got := buf.String(); got != tt.output {
				t.Errorf("output = %q, want %q", got, tt.output)
			}
			frames := it.State().Frames
			if got := len(frames.Calls()); got != tt.calls {
				t.Errorf("call frames = %d, want %d", got, tt.calls)
			}
			if got := frames.ForDepth(); got != tt.fors {
				t.Errorf("FOR frames = %d, want %d", got, tt.fors)
			}
			if got := frames.RepeatDepth(); got != tt.repeats {
				t.Errorf("REPEAT frames = %d, want %d", got, tt.repeats)
			}
			if got := frames.WhileDepth(); got != tt.whiles {
				t.Errorf("WHILE frames = %d, want %d", got, tt.whiles)
			}
		})
	}
}

func TestUnknownProcedure(t *testing.T) {
	it, _ := newTestInterpreter(t, "10 PROCmissing\n", "", testOptions())
	_, err := it.Run(context.Background())
	if f, ok := faults.As(err); !ok || f.Code != faults.CodeNoSuchFnProc {
		t.Errorf("err = %v, want No such FN/PROC", err)
	}
}

func TestDirectMode(t *testing.T) {
	src := "100 DEF PROCx\n110 PRINT \"x\"\n120 ENDPROC\n"
	it, buf := newTestInterpreter(t, src, "", testOptions())
	ctx := context.Background()

	for _, line := range []string{"A%=6*7", "PRINT A%", "PROCx:PRINT \"after\""} {
		outcome, err := it.ExecuteDirect(ctx, line)
		if err != nil {
			t.Fatalf("ExecuteDirect(%q) error: %v", line, err)
		}
		if outcome.Reason != Ended {
			t.Errorf("ExecuteDirect(%q) reason = %s", line, outcome.Reason)
		}
	}
	if got, want := buf.String(), "42\nx\nafter\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestDirectModeFaultsAreNotTrapped(t *testing.T) {
	it, _ := newTestInterpreter(t, "100 PRINT \"handler\"\n", "", testOptions())
	ctx := context.Background()
	if _, err := it.ExecuteDirect(ctx, "ON ERROR GOTO 100"); err != nil {
		t.Fatal(err)
	}
	outcome, err := it.ExecuteDirect(ctx, "PRINT 1/0")
	f, ok := faults.As(err)
	if !ok || f.Code != faults.CodeDivisionByZero {
		t.Fatalf("err = %v, want Division by zero", err)
	}
	if outcome.Reason != Faulted || f.Line != 0 {
		t.Errorf("outcome = %+v, fault line %d", outcome, f.Line)
	}
}

func TestDirectSyntaxError(t *testing.T) {
	it, _ := newTestInterpreter(t, "", "", testOptions())
	_, err := it.ExecuteDirect(context.Background(), "PRINT (1")
	if f, ok := faults.As(err); !ok || f.Kind != faults.SyntaxFault {
		t.Errorf("err = %v, want syntax fault", err)
	}
}

func TestSyntaxErrorReportsLine(t *testing.T) {
	it, _ := newTestInterpreter(t, "10 PRINT 1\n20 FOR\n", "", testOptions())
	outcome, err := it.Run(context.Background())
	f, ok := faults.As(err)
	if !ok || f.Kind != faults.SyntaxFault || f.Line != 20 {
		t.Fatalf("err = %v, want syntax fault at line 20", err)
	}
	if outcome.Reason != Faulted {
		t.Errorf("reason = %s", outcome.Reason)
	}
}

func TestBrokenDefinitionReportsItsLine(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"function", "10 PRINT FNf(2)\n30 DEF FNf(N)=N*\n"},
		{"procedure", "10 PROCp\n20 END\n30 DEF PROCp(1)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, _ := newTestInterpreter(t, tt.src, "", testOptions())
			_, err := it.Run(context.Background())
			f, ok := faults.As(err)
			if !ok || f.Kind != faults.SyntaxFault || f.Line != 30 {
				t.Fatalf("err = %v, want syntax fault at line 30", err)
			}
		})
	}
}

func TestDefinesName(t *testing.T) {
	tests := []struct {
		text, keyword, name string
		want                bool
	}{
		{"DEF FNf(N)=N*", "FN", "f", true},
		{"DEF PROCp", "PROC", "p", true},
		{"DEF FNf$(A$)=A$", "FN", "f", false},
		{"DEF FNfoo", "FN", "f", false},
		{"PRINT FNf(1)", "FN", "f", false},
	}
	for _, tt := range tests {
		if got := definesName(tt.text, tt.keyword, tt.name); got != tt.want {
			t.Errorf("definesName(%q, %q, %q) = %v, want %v", tt.text, tt.keyword, tt.name, got, tt.want)
		}
	}
}

func TestEscapeStopsRun(t *testing.T) {
	it, _ := newTestInterpreter(t, "10 GOTO 10\n", "", testOptions())
	go func() {
		time.Sleep(10 * time.Millisecond)
		it.Interrupt()
	}()
	outcome, err := it.Run(context.Background())
	if outcome.Reason != Escaped {
		t.Errorf("reason = %s, want escaped", outcome.Reason)
	}
	if f, ok := faults.As(err); !ok || f.Kind != faults.EscapeFault {
		t.Errorf("err = %v, want Escape", err)
	}
}

func TestEscapeIsNotTrapped(t *testing.T) {
	it, _ := newTestInterpreter(t, "10 ON ERROR GOTO 10\n20 GOTO 20\n", "", testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome, _ := it.Run(ctx)
	if outcome.Reason != Escaped {
		t.Errorf("reason = %s, want escaped", outcome.Reason)
	}
}

func TestEvaluate(t *testing.T) {
	it, _ := newTestInterpreter(t, "", "", testOptions())
	tests := []struct {
		expr     string
		expected string
	}{
		{"7 DIV 2", "3"},
		{"-7 MOD 3", "-1"},
		{"1/4", "0.25"},
		{"\"AB\"+\"CD\"", "ABCD"},
		{"&FF", "255"},
		{"3 AND 5", "1"},
		{"3 EOR 5", "6"},
		{"\"B\">\"A\"", "-1"},
	}
	for _, tt := range tests {
		v, err := it.Evaluate(tt.expr)
		if err != nil {
			t.Errorf("Evaluate(%q) error: %v", tt.expr, err)
			continue
		}
		if v.String() != tt.expected {
			t.Errorf("Evaluate(%q) = %s, want %s", tt.expr, v, tt.expected)
		}
	}
}

func TestTextOutputColumns(t *testing.T) {
	var buf bytes.Buffer
	out := NewTextOutput(&buf, 10)
	out.Print("ab")
	out.Zone()
	if out.Column() != 10 {
		t.Errorf("column after zone = %d, want 10", out.Column())
	}
	out.Print("c")
	out.Tab(3)
	out.Print("d")
	out.Spc(2)
	out.Print("e")
	if got, want := buf.String(), "ab        c\n   d  e"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if out.Column() != 7 {
		t.Errorf("column = %d, want 7", out.Column())
	}
}

func TestCompileFlattensIf(t *testing.T) {
	it, _ := newTestInterpreter(t, "10 IF A THEN B=1:C=2 ELSE D=3\n", "", testOptions())
	instrs, err := it.instrs(10)
	if err != nil {
		t.Fatal(err)
	}
	ops := make([]opcode, len(instrs))
	for i, ins := range instrs {
		ops[i] = ins.op
	}
	expected := []opcode{opIf, opStatement, opStatement, opSkip, opStatement}
	if len(ops) != len(expected) {
		t.Fatalf("ops = %v, want %v", ops, expected)
	}
	for i := range expected {
		if ops[i] != expected[i] {
			t.Fatalf("ops = %v, want %v", ops, expected)
		}
	}
	if instrs[0].target != 4 || instrs[3].target != 5 {
		t.Errorf("targets = %d, %d; want 4, 5", instrs[0].target, instrs[3].target)
	}
}
