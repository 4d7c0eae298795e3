package interpreter

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Output receives PRINT output. The sink owns the cursor column, so TAB,
// SPC and print zones are resolved here rather than in the engine.
type Output interface {
	Print(text string) error
	// Tab moves to a column, starting a new line when the cursor is
	// already past it.
	Tab(col int) error
	Spc(n int) error
	// Zone moves to the start of the next print zone.
	Zone() error
	Newline() error
	Cls() error
}

// Input supplies lines for INPUT. Returning io.EOF ends the run.
type Input interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// TextOutput is an Output over a plain writer that tracks the column.
type TextOutput struct {
	w         io.Writer
	zoneWidth int
	col       int
}

// NewTextOutput writes to w with print zones of zoneWidth columns.
func NewTextOutput(w io.Writer, zoneWidth int) *TextOutput {
	if zoneWidth <= 0 {
		zoneWidth = 10
	}
	return &TextOutput{w: w, zoneWidth: zoneWidth}
}

// Column returns the cursor column, 0-based.
func (o *TextOutput) Column() int { return o.col }

// ResetColumn records that the cursor is back at the start of a line, as
// after the user has typed a line of input.
func (o *TextOutput) ResetColumn() { o.col = 0 }

func (o *TextOutput) Print(text string) error {
	if text == "" {
		return nil
	}
	if _, err := io.WriteString(o.w, text); err != nil {
		return err
	}
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		o.col = len(text) - i - 1
	} else {
		o.col += len(text)
	}
	return nil
}

func (o *TextOutput) Tab(col int) error {
	if col < o.col {
		if err := o.Newline(); err != nil {
			return err
		}
	}
	return o.Spc(col - o.col)
}

func (o *TextOutput) Spc(n int) error {
	if n <= 0 {
		return nil
	}
	return o.Print(strings.Repeat(" ", n))
}

func (o *TextOutput) Zone() error {
	pad := o.zoneWidth - o.col%o.zoneWidth
	return o.Spc(pad)
}

func (o *TextOutput) Newline() error {
	if _, err := io.WriteString(o.w, "\n"); err != nil {
		return err
	}
	o.col = 0
	return nil
}

// Cls cannot clear a plain writer; it starts a fresh line instead.
func (o *TextOutput) Cls() error {
	if o.col == 0 {
		return nil
	}
	return o.Newline()
}

// ReaderInput reads INPUT lines from a reader, echoing prompts to an
// Output.
type ReaderInput struct {
	scanner *bufio.Scanner
	out     Output
}

// NewReaderInput reads lines from r; prompts go to out when it is not nil.
func NewReaderInput(r io.Reader, out Output) *ReaderInput {
	return &ReaderInput{scanner: bufio.NewScanner(r), out: out}
}

func (in *ReaderInput) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if in.out != nil && prompt != "" {
		if err := in.out.Print(prompt); err != nil {
			return "", err
		}
	}
	if !in.scanner.Scan() {
		if err := in.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	if in.out != nil {
		if o, ok := in.out.(*TextOutput); ok {
			o.ResetColumn()
		}
	}
	return strings.TrimRight(in.scanner.Text(), "\r"), nil
}
