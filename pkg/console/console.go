// Package console runs the shell on a local terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/logger"
	"github.com/agileandy/bbcbasic/pkg/shell"
)

const defaultWidth = 80

// Console reads command lines and INPUT replies from a terminal or, when
// stdin is redirected, from a plain reader.
type Console struct {
	out     io.Writer
	reader  *bufio.Reader
	line    *liner.State
	history string
	width   int
}

// New returns a console over in and out. Line editing is used only when
// in is a terminal.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{out: out, width: defaultWidth}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.line = liner.NewLiner()
		c.line.SetCtrlCAborts(true)
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			c.width = w
		}
	} else {
		c.reader = bufio.NewReader(in)
	}
	return c
}

// Interactive reports whether line editing is active.
func (c *Console) Interactive() bool { return c.line != nil }

// Width is the terminal width in columns.
func (c *Console) Width() int { return c.width }

// Writer is where shell output should go.
func (c *Console) Writer() io.Writer { return c.out }

// LoadHistory reads previous command lines from path and remembers path
// so Close can write them back.
func (c *Console) LoadHistory(path string) {
	if c.line == nil || path == "" {
		return
	}
	c.history = path
	if f, err := os.Open(path); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Close restores the terminal and saves the history.
func (c *Console) Close() error {
	if c.line == nil {
		return nil
	}
	if c.history != "" {
		if f, err := os.Create(c.history); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		} else {
			logger.Warn(logger.AreaSession, "cannot save history to %s: %v", c.history, err)
		}
	}
	return c.line.Close()
}

// Banner prints the start-up title centred on the terminal.
func (c *Console) Banner(title string) {
	pad := (c.width - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(c.out, "%s%s\n\n", strings.Repeat(" ", pad), title)
}

// ReadLine answers an INPUT statement. Ctrl-C at the prompt raises Escape.
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.line == nil {
		if _, err := io.WriteString(c.out, prompt); err != nil {
			return "", err
		}
		s, err := c.readPlain()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
		}
		return s, err
	}
	s, err := c.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		fmt.Fprintln(c.out)
		return "", faults.Escape()
	}
	return s, err
}

func (c *Console) readPlain() (string, error) {
	s, err := c.reader.ReadString('\n')
	if err != nil && (s == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// readCommand reads one shell line. ok is false at end of input.
func (c *Console) readCommand() (string, bool, error) {
	if c.line == nil {
		s, err := c.readPlain()
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return s, err == nil, err
	}
	s, err := c.line.Prompt(shell.Prompt)
	switch {
	case err == nil:
		if strings.TrimSpace(s) != "" {
			c.line.AppendHistory(s)
		}
		return s, true, nil
	case errors.Is(err, liner.ErrPromptAborted):
		fmt.Fprintln(c.out, "Escape")
		return "", true, nil
	case errors.Is(err, io.EOF):
		fmt.Fprintln(c.out)
		return "", false, nil
	default:
		return "", false, err
	}
}

// Run feeds command lines to sh until QUIT, end of input or ctx is done.
// An interrupt signal while a program runs stops it with Escape.
func (c *Console) Run(ctx context.Context, sh *shell.Shell) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-sigs:
				sh.Interrupt()
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	for ctx.Err() == nil {
		line, ok, err := c.readCommand()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		logger.Debug(logger.AreaSession, "console command %q", line)
		if !sh.Execute(ctx, line) {
			return nil
		}
	}
	return ctx.Err()
}
