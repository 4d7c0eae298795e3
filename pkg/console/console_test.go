package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/agileandy/bbcbasic/pkg/interpreter"
	"github.com/agileandy/bbcbasic/pkg/shell"
)

func runScript(t *testing.T, script string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(strings.NewReader(script), &out)
	if c.Interactive() {
		t.Fatal("a string reader must not be interactive")
	}
	opts := interpreter.DefaultOptions()
	opts.Seed = 1
	sh := shell.New(c.Writer(), c, nil, opts)
	if err := c.Run(context.Background(), sh); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestRunScript(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		expected string
	}{
		{"direct", "PRINT 1+2\n", "3\n"},
		{"program", "10 FOR I%=1 TO 3\n20 PRINT I%;\n30 NEXT\nRUN\n", "123\n"},
		{"input from same stream", "10 INPUT \"Age\",A\n20 PRINT A+1\nRUN\n41\n", "Age?42\n"},
		{"quit stops reading", "PRINT 1\nQUIT\nPRINT 2\n", "1\n"},
		{"no trailing newline", "PRINT \"x\"", "x\n"},
		{"input at end", "10 INPUT A\nRUN\n", "?\nEscape at line 10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runScript(t, tt.script); got != tt.expected {
				t.Errorf("output = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCancelledContext(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("PRINT 1\n"), &out)
	sh := shell.New(c.Writer(), c, nil, interpreter.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, sh); err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q", out.String())
	}
}

func TestBanner(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out)
	c.Banner("BASIC")
	want := strings.Repeat(" ", (defaultWidth-5)/2) + "BASIC\n\n"
	if out.String() != want {
		t.Errorf("Banner = %q, want %q", out.String(), want)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
